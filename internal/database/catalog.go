package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kpx/product-tracker/internal/models"
)

// ErrEmptyCatalog guards the destructive delete-then-insert replace: an
// empty extraction is treated as a failed one and must never wipe the
// catalog that previous runs built.
var ErrEmptyCatalog = errors.New("refusing to replace catalog with empty product set")

// ReplaceCatalog rewrites the tracked products of one store wholesale.
// Deletion and insertion share one transaction, so a failure partway leaves
// the prior catalog intact rather than half-replaced.
func (db *DB) ReplaceCatalog(ctx context.Context, store models.Store, products []models.Product) error {
	if len(products) == 0 {
		return ErrEmptyCatalog
	}

	return db.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM product WHERE store = $1`, store); err != nil {
			return fmt.Errorf("failed to delete catalog for store %s: %w", store, err)
		}

		rows := make([][]any, 0, len(products))
		for _, p := range products {
			rows = append(rows, []any{p.ID, p.Name, p.Store})
		}

		if _, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"product"},
			[]string{"id", "name", "store"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("failed to insert catalog: %w", err)
		}

		return nil
	})
}

// ListProductIDs returns the current catalog's product ids for a store,
// ordered by id so successive runs visit products in a stable order.
func (db *DB) ListProductIDs(ctx context.Context, store models.Store) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT id FROM product WHERE store = $1 ORDER BY id`, store)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan product id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}

	return ids, nil
}
