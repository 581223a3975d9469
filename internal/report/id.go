package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kpx/product-tracker/internal/models"
)

// ErrSuffixExhausted means a 27th run was attempted within one calendar
// day. The id scheme carries a single 'a'..'z' suffix letter, so the cap is
// hard; failing loudly beats silently wrapping into another day's ids.
var ErrSuffixExhausted = errors.New("report id suffix exhausted for the day")

// DatePrefix encodes a timestamp as two-digit day, a month letter ('A' for
// January through 'L' for December) and a two-digit year, e.g. 15C24 for
// March 15th 2024.
func DatePrefix(now time.Time) string {
	return fmt.Sprintf("%02d%c%02d", now.Day(), rune('A'+int(now.Month())-1), now.Year()%100)
}

// NextID derives the id for a new same-day report. With no prior report for
// the day the suffix starts at 'a'; otherwise it is the letter after
// lastID's final character, keeping same-day ids distinct and
// lexicographically ordered.
func NextID(now time.Time, lastID string) (string, error) {
	prefix := DatePrefix(now)

	if lastID == "" {
		return prefix + "a", nil
	}

	last := lastID[len(lastID)-1]
	if last >= 'z' {
		return "", ErrSuffixExhausted
	}

	return prefix + string(last+1), nil
}

// HistoryLookup is the slice of the report history the generator consults
// to avoid same-day id collisions.
type HistoryLookup interface {
	LatestReportIDWithPrefix(ctx context.Context, prefix string) (string, error)
}

// Generator derives a collision-avoiding identity for each ingestion batch
// by consulting the report history.
type Generator struct {
	db     HistoryLookup
	now    func() time.Time
	logger *slog.Logger
}

func NewGenerator(db HistoryLookup, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		db:     db,
		now:    time.Now,
		logger: logger.With("component", "report_id"),
	}
}

// Generate produces the identity of the next ingestion batch: a fresh id
// plus the generation instant.
func (g *Generator) Generate(ctx context.Context) (models.Report, error) {
	now := g.now()

	lastID, err := g.db.LatestReportIDWithPrefix(ctx, DatePrefix(now))
	if err != nil {
		return models.Report{}, err
	}

	id, err := NextID(now, lastID)
	if err != nil {
		return models.Report{}, err
	}

	g.logger.Debug("generated report id", "id", id, "previous", lastID)

	return models.Report{ID: id, Timestamp: now}, nil
}
