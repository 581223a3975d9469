package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpx/product-tracker/internal/models"
)

func TestLatestReportIDWithPrefix(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := db.LatestReportIDWithPrefix(ctx, "15C24")
	require.NoError(t, err)
	assert.Empty(t, id)

	base := time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.InsertReport(ctx, models.Report{ID: "15C24a", Timestamp: base}, nil))
	require.NoError(t, db.InsertReport(ctx, models.Report{ID: "15C24b", Timestamp: base.Add(time.Hour)}, nil))
	require.NoError(t, db.InsertReport(ctx, models.Report{ID: "16C24a", Timestamp: base.Add(24 * time.Hour)}, nil))

	id, err = db.LatestReportIDWithPrefix(ctx, "15C24")
	require.NoError(t, err)
	assert.Equal(t, "15C24b", id)
}

func TestInsertReportCommitsAllPricesTogether(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	report := models.Report{ID: "15C24a", Timestamp: time.Now().UTC()}
	prices := []models.Price{
		{ReportID: report.ID, ProductID: "B001", Price: 9.99},
		{ReportID: report.ID, ProductID: "B002", Price: models.SentinelPrice},
		{ReportID: report.ID, ProductID: "B003", Price: 23.47},
	}

	require.NoError(t, db.InsertReport(ctx, report, prices))

	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM price WHERE report_id = $1`, report.ID,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(prices), count, "one price row per tracked product, sentinels included")
}

func TestInsertReportRollsBackOnFailure(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	report := models.Report{ID: "15C24a", Timestamp: time.Now().UTC()}
	require.NoError(t, db.InsertReport(ctx, report, nil))

	// Same report id again: the insert fails and no price row may survive.
	err := db.InsertReport(ctx, report, []models.Price{
		{ReportID: report.ID, ProductID: "B001", Price: 9.99},
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM price`).Scan(&count))
	assert.Zero(t, count)
}

func TestProductPricingAveragesExcludeSentinels(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	catalog := []models.Product{
		{ID: "B001", Name: "Echo Dot", Store: models.StoreAmazon},
	}
	require.NoError(t, db.ReplaceCatalog(ctx, models.StoreAmazon, catalog))

	base := time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.InsertReport(ctx,
		models.Report{ID: "15C24a", Timestamp: base},
		[]models.Price{{ReportID: "15C24a", ProductID: "B001", Price: 12.00}},
	))
	require.NoError(t, db.InsertReport(ctx,
		models.Report{ID: "15C24b", Timestamp: base.Add(time.Hour)},
		[]models.Price{{ReportID: "15C24b", ProductID: "B001", Price: models.SentinelPrice}},
	))
	require.NoError(t, db.InsertReport(ctx,
		models.Report{ID: "15C24c", Timestamp: base.Add(2 * time.Hour)},
		[]models.Price{{ReportID: "15C24c", ProductID: "B001", Price: 8.00}},
	))

	pricing, err := db.ProductPricing(ctx, "15C24c")
	require.NoError(t, err)
	require.Len(t, pricing, 1)

	assert.Equal(t, "B001", pricing[0].ProductID)
	assert.Equal(t, "Echo Dot", pricing[0].Name)
	assert.InDelta(t, 8.00, pricing[0].CurrentPrice, 0.001)
	assert.InDelta(t, 10.00, pricing[0].AveragePrice, 0.001, "sentinel readings must not drag the average")
}

func TestLatestReport(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	latest, err := db.LatestReport(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.InsertReport(ctx, models.Report{ID: "15C24a", Timestamp: base}, nil))
	require.NoError(t, db.InsertReport(ctx, models.Report{ID: "15C24b", Timestamp: base.Add(time.Hour)}, nil))

	latest, err = db.LatestReport(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "15C24b", latest.ID)
}
