package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kpx/product-tracker/internal/models"
)

// LatestReportIDWithPrefix returns the most recent report id sharing the
// given date prefix, or "" when no same-day report exists yet.
func (db *DB) LatestReportIDWithPrefix(ctx context.Context, prefix string) (string, error) {
	var id string
	err := db.pool.QueryRow(ctx,
		`SELECT id FROM report WHERE id LIKE $1 || '%' ORDER BY timestamp DESC LIMIT 1`,
		prefix,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest report id: %w", err)
	}

	return id, nil
}

// InsertReport commits one report row together with its full set of price
// rows, sentinel readings included. A report never exists without its
// prices, and no price row ever references a missing report.
func (db *DB) InsertReport(ctx context.Context, report models.Report, prices []models.Price) error {
	return db.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO report (id, timestamp) VALUES ($1, $2)`,
			report.ID, report.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to insert report %s: %w", report.ID, err)
		}

		if len(prices) == 0 {
			return nil
		}

		rows := make([][]any, 0, len(prices))
		for _, p := range prices {
			rows = append(rows, []any{p.ReportID, p.ProductID, p.Price})
		}

		if _, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"price"},
			[]string{"report_id", "product_id", "price"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("failed to insert prices: %w", err)
		}

		return nil
	})
}

// LatestReport returns the most recent report, or nil when no run has
// committed yet.
func (db *DB) LatestReport(ctx context.Context) (*models.Report, error) {
	var report models.Report
	err := db.pool.QueryRow(ctx,
		`SELECT id, timestamp FROM report ORDER BY timestamp DESC LIMIT 1`,
	).Scan(&report.ID, &report.Timestamp)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest report: %w", err)
	}

	return &report, nil
}

// ProductPricing returns, for every price row of a report, the product's
// name, its reading in that report and its historical average across all
// reports. Sentinel readings are excluded from the average.
func (db *DB) ProductPricing(ctx context.Context, reportID string) ([]models.ProductPricing, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT product.id,
		       product.name,
		       price.price,
		       (SELECT COALESCE(AVG(h.price), 0)
		          FROM price h
		         WHERE h.product_id = product.id AND h.price >= 0) AS average
		  FROM price
		  JOIN product ON price.product_id = product.id
		 WHERE price.report_id = $1
		 ORDER BY price.price ASC`,
		reportID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query product pricing: %w", err)
	}
	defer rows.Close()

	var pricing []models.ProductPricing
	for rows.Next() {
		var p models.ProductPricing
		if err := rows.Scan(&p.ProductID, &p.Name, &p.CurrentPrice, &p.AveragePrice); err != nil {
			return nil, fmt.Errorf("failed to scan product pricing: %w", err)
		}
		pricing = append(pricing, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pricing rows: %w", err)
	}

	return pricing, nil
}
