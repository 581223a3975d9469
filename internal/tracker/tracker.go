package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/kpx/product-tracker/internal/browser"
	"github.com/kpx/product-tracker/internal/config"
	"github.com/kpx/product-tracker/internal/database"
	"github.com/kpx/product-tracker/internal/models"
	"github.com/kpx/product-tracker/internal/parser"
	"github.com/kpx/product-tracker/internal/ratelimit"
	"github.com/kpx/product-tracker/internal/report"
)

const wishlistContainerSelector = "#g-items"

// priceWidgetSelector is the toggle layout's root element. Its absence
// within the wait window is not fatal; the page then renders the
// single-price box instead.
const priceWidgetSelector = ".a-button-toggle.format"

// pipelineStore is the slice of the relational store the pipeline drives:
// the catalog it reads and rewrites, and the report commit.
type pipelineStore interface {
	ReplaceCatalog(ctx context.Context, store models.Store, products []models.Product) error
	ListProductIDs(ctx context.Context, store models.Store) ([]string, error)
	InsertReport(ctx context.Context, report models.Report, prices []models.Price) error
}

// priceFetcher looks up one product's current price. Implementations
// degrade per-product failures to the sentinel so the product still gets
// its row in the report; only a browser that cannot start is an error.
type priceFetcher interface {
	FetchPrice(id string) (float64, error)
}

// Tracker runs the scrape-and-ingest pipeline: catalog refresh from the
// wishlist page, sequential per-product price refresh, report delivery.
type Tracker struct {
	cfg      *config.Config
	db       pipelineStore
	wishlist *parser.WishlistParser
	fetcher  priceFetcher
	reports  *report.Generator
	mailer   *report.Mailer
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
}

func New(cfg *config.Config, db *database.DB, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Tracker{
		cfg:      cfg,
		db:       db,
		wishlist: parser.NewWishlistParser(storeBaseURL(cfg.Tracker.ProductURLBase), logger),
		fetcher: &browserPriceFetcher{
			cfg:    cfg,
			prices: parser.NewPriceParser(logger),
			logger: logger.With("component", "price_fetcher"),
		},
		reports: report.NewGenerator(db, logger),
		mailer:  report.NewMailer(db, cfg.Mail, cfg.Tracker.ProductURLBase, logger),
		limiter: ratelimit.New(cfg.Tracker.RateLimitMin, cfg.Tracker.RateLimitMax),
		logger:  logger.With("component", "tracker"),
	}
}

// Run executes the full pipeline once. A catalog refresh failure keeps the
// previous catalog and the run continues; a browser that cannot start at
// all aborts the run, since nothing downstream could work either.
func (t *Tracker) Run(ctx context.Context) error {
	logger := t.logger.With("run_id", uuid.NewString())

	logger.Info("updating product catalog")
	if err := t.RefreshCatalog(ctx); err != nil {
		var startErr *browser.StartError
		if errors.As(err, &startErr) {
			return err
		}
		logger.Warn("catalog refresh failed, keeping previous catalog", "error", err)
	}

	logger.Info("updating product prices")
	if err := t.RefreshPrices(ctx); err != nil {
		return err
	}

	logger.Info("sending tracker results")
	if err := t.mailer.SendLatest(ctx); err != nil {
		return err
	}

	logger.Info("run complete")
	return nil
}

// RefreshCatalog scrapes the wishlist page and replaces the store's catalog
// atomically. Every failure path leaves the existing catalog untouched.
func (t *Tracker) RefreshCatalog(ctx context.Context) error {
	session, err := newSession(t.cfg, t.logger)
	if err != nil {
		return err
	}
	defer session.Close()

	tc := t.cfg.Tracker

	if err := session.Navigate(tc.WishlistURL, tc.MaxRetries, tc.RetryBaseDelay); err != nil {
		return err
	}

	if err := session.ScrollToBottom(tc.ScrollAttempts, tc.ScrollPause); err != nil {
		return err
	}

	// The item list must exist even for an empty wishlist; its absence
	// means the page never rendered.
	if err := session.WaitForContainer(wishlistContainerSelector, "", tc.ContainerWait); err != nil {
		return err
	}

	html, err := session.Content()
	if err != nil {
		return err
	}

	products, err := t.wishlist.Parse(html, models.StoreAmazon)
	if err != nil {
		return err
	}

	if err := t.db.ReplaceCatalog(ctx, models.StoreAmazon, products); err != nil {
		return err
	}

	t.logger.Info("catalog replaced", "store", models.StoreAmazon, "products", len(products))
	return nil
}

// RefreshPrices reads the current catalog and looks up every product's
// price strictly sequentially, one fresh browser session per product. All
// readings, sentinels included, are committed together with one report row.
func (t *Tracker) RefreshPrices(ctx context.Context) error {
	identity, err := t.reports.Generate(ctx)
	if err != nil {
		return err
	}

	ids, err := t.db.ListProductIDs(ctx, models.StoreAmazon)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		t.logger.Info("no tracked products, skipping price refresh")
		return nil
	}

	prices := make([]models.Price, 0, len(ids))

	for _, id := range ids {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}

		price, err := t.fetcher.FetchPrice(id)
		if err != nil {
			return err
		}

		prices = append(prices, models.Price{
			ReportID:  identity.ID,
			ProductID: id,
			Price:     price,
		})
	}

	if err := t.db.InsertReport(ctx, identity, prices); err != nil {
		return err
	}

	t.logger.Info("report committed", "report_id", identity.ID, "prices", len(prices))
	return nil
}

// browserPriceFetcher looks prices up through an isolated browser session
// per product, parsing the settled page snapshot.
type browserPriceFetcher struct {
	cfg    *config.Config
	prices *parser.PriceParser
	logger *slog.Logger
}

// FetchPrice looks up one product's price in a fresh session. Per-URL
// failures degrade to the sentinel; only a browser that cannot start is
// returned as an error.
func (f *browserPriceFetcher) FetchPrice(id string) (float64, error) {
	productURL := f.cfg.Tracker.ProductURLBase + id
	logger := f.logger.With("product_id", id)

	session, err := newSession(f.cfg, f.logger)
	if err != nil {
		return models.SentinelPrice, err
	}
	defer session.Close()

	tc := f.cfg.Tracker

	if err := session.Navigate(productURL, tc.MaxRetries, tc.RetryBaseDelay); err != nil {
		logger.Warn("navigation failed, recording sentinel price", "error", err)
		return models.SentinelPrice, nil
	}

	// Give the toggle widgets a chance to render; their absence just means
	// the page uses the single-price box.
	if err := session.WaitForContainer(priceWidgetSelector, "", tc.PriceWidgetWait); err != nil {
		var notFound *browser.ContentNotFoundError
		if !errors.As(err, &notFound) {
			logger.Warn("price widget wait failed, recording sentinel price", "error", err)
			return models.SentinelPrice, nil
		}
	}

	html, err := session.Content()
	if err != nil {
		logger.Warn("snapshot failed, recording sentinel price", "error", err)
		return models.SentinelPrice, nil
	}

	price := f.prices.Parse(html)
	if price == models.SentinelPrice {
		logger.Warn("no price found, recording sentinel price", "url", productURL)
	} else {
		logger.Info("price extracted", "price", price)
	}

	return price, nil
}

func newSession(cfg *config.Config, logger *slog.Logger) (*browser.Session, error) {
	return browser.NewSession(&browser.Options{
		Headless:        cfg.Browser.Headless,
		PageLoadTimeout: cfg.Browser.PageLoadTimeout,
		UserAgent:       cfg.Browser.UserAgent,
		ViewportWidth:   cfg.Browser.ViewportWidth,
		ViewportHeight:  cfg.Browser.ViewportHeight,
	}, logger)
}

// storeBaseURL reduces a product URL base like
// "https://www.amazon.com/dp/" to its origin, used to resolve relative
// wishlist links.
func storeBaseURL(productURLBase string) string {
	u, err := url.Parse(productURLBase)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return productURLBase
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}
