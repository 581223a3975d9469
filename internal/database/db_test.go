package database

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// testDB connects to the database named by TRACKER_TEST_DATABASE_URL and
// resets the tracker tables. Tests are skipped when the variable is unset.
func testDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TRACKER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TRACKER_TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := &DB{pool: pool}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS product (
			id    TEXT NOT NULL,
			name  TEXT NOT NULL,
			store TEXT NOT NULL,
			PRIMARY KEY (id, store)
		)`,
		`CREATE TABLE IF NOT EXISTS report (
			id        TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS price (
			report_id  TEXT NOT NULL REFERENCES report(id),
			product_id TEXT NOT NULL,
			price      NUMERIC(10,2) NOT NULL,
			PRIMARY KEY (report_id, product_id)
		)`,
	}
	for _, stmt := range schema {
		_, err = pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE price, report, product`)
	require.NoError(t, err)

	return db
}
