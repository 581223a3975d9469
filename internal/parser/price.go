package parser

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kpx/product-tracker/internal/models"
)

// Product pages render their price in one of two mutually exclusive
// layouts. Each layout is a strategy that either matches the page and
// produces a price, or declares itself not applicable; the first match
// wins. "Price not found" is never an error, it is the sentinel value,
// because ingestion must still record that the attempt was made.
type priceStrategy interface {
	name() string
	// extract returns the effective price and whether the strategy's
	// layout was present on the page at all.
	extract(doc *goquery.Document, logger *slog.Logger) (float64, bool)
}

// preferredFormats is the fixed selection order across the toggle layout's
// format entries. The digital edition wins over the physical ones.
var preferredFormats = []string{"Kindle", "Paperback", "Hardcover"}

// PriceParser reconciles the competing price widgets of a settled product
// page into a single representative price.
type PriceParser struct {
	strategies []priceStrategy
	logger     *slog.Logger
}

func NewPriceParser(logger *slog.Logger) *PriceParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceParser{
		strategies: []priceStrategy{
			toggleLayout{},
			boxLayout{},
		},
		logger: logger.With("component", "price_parser"),
	}
}

// Parse extracts the representative price from rendered product-page HTML.
// Unparseable HTML or an unrecognized layout yields the sentinel, never an
// error.
func (p *PriceParser) Parse(htmlText string) float64 {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		p.logger.Warn("failed to parse product HTML", "error", err)
		return models.SentinelPrice
	}

	for _, strategy := range p.strategies {
		if price, ok := strategy.extract(doc, p.logger); ok {
			p.logger.Debug("price layout matched", "strategy", strategy.name(), "price", price)
			return price
		}
	}

	p.logger.Debug("no price layout matched")
	return models.SentinelPrice
}

// toggleLayout handles pages with selectable format options (Kindle,
// Paperback, ...), each exposing a title and a price. An "extra message"
// sub-element carrying a dollar amount (a bundled or members price)
// supersedes the list price of its format.
type toggleLayout struct{}

func (toggleLayout) name() string { return "format_toggle" }

func (toggleLayout) extract(doc *goquery.Document, logger *slog.Logger) (float64, bool) {
	toggles := doc.Find(".a-button-toggle.format")
	if toggles.Length() == 0 {
		return 0, false
	}

	prices := make(map[string]float64)

	toggles.Each(func(_ int, toggle *goquery.Selection) {
		title := strings.TrimSpace(toggle.Find(".slot-title").First().Text())
		if title == "" {
			return
		}

		price, ok := priceAfterLastDollar(toggle.Find(".slot-price").First().Text())
		if !ok {
			// A bad entry must not poison the others; this format just
			// stays unknown.
			logger.Debug("unparseable format price", "format", title)
			return
		}

		if extra := toggle.Find(".slot-extraMessage").First(); extra.Length() > 0 {
			if override, ok := firstDollarAmount(extra.Text()); ok {
				price = override
			}
		}

		prices[title] = price
	})

	for _, format := range preferredFormats {
		if price, ok := prices[format]; ok {
			return price, true
		}
	}

	// The toggle layout owned the page but offered no recognized format.
	// Report the sentinel rather than guessing from an arbitrary entry.
	return models.SentinelPrice, true
}

// boxLayout handles the single-price box where the amount is split into an
// integer and a fractional DOM fragment inside a grouping container.
type boxLayout struct{}

func (boxLayout) name() string { return "price_box" }

func (boxLayout) extract(doc *goquery.Document, logger *slog.Logger) (float64, bool) {
	price := 0.0
	found := false

	doc.Find("span.a-price").EachWithBreak(func(_ int, group *goquery.Selection) bool {
		whole := digitsOnly(group.Find("span.a-price-whole").First().Text())
		if whole == "" {
			return true
		}

		fraction := digitsOnly(group.Find("span.a-price-fraction").First().Text())
		if fraction == "" {
			fraction = "00"
		}

		parsed, err := strconv.ParseFloat(whole+"."+fraction, 64)
		if err != nil {
			logger.Debug("unparseable box price", "whole", whole, "fraction", fraction)
			return true
		}

		price = parsed
		found = true
		return false
	})

	if !found {
		return 0, false
	}

	return price, true
}

// priceAfterLastDollar parses the amount following the final dollar sign,
// e.g. "from $12.99" or "$9.99".
func priceAfterLastDollar(text string) (float64, bool) {
	idx := strings.LastIndex(text, "$")
	if idx < 0 {
		return 0, false
	}

	return parseAmount(text[idx+1:])
}

// firstDollarAmount parses the first whitespace-delimited amount after the
// first dollar sign, e.g. "$7.49 for members" yields 7.49.
func firstDollarAmount(text string) (float64, bool) {
	_, after, ok := strings.Cut(text, "$")
	if !ok {
		return 0, false
	}

	fields := strings.Fields(after)
	if len(fields) == 0 {
		return 0, false
	}

	return parseAmount(fields[0])
}

func parseAmount(text string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0, false
	}

	return value, true
}

func digitsOnly(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
