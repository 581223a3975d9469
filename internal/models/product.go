package models

import (
	"time"
)

// Store identifies the e-commerce site a product is tracked on.
type Store string

const (
	StoreAmazon Store = "Amazon"
)

// Product is one tracked catalog entry. Identity is (ID, Store); the catalog
// for a store is replaced wholesale on every refresh run.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Store Store  `json:"store"`
}

// Report identifies one price-refresh run.
type Report struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// SentinelPrice marks a price lookup that was attempted and failed. It is
// distinct from a true zero price and is written to history like any other
// reading, so every report keeps exactly one row per tracked product.
const SentinelPrice = -1.0

// Price is one reading of one product within one report. Rows are
// append-only history, never updated or deleted.
type Price struct {
	ReportID  string  `json:"report_id"`
	ProductID string  `json:"product_id"`
	Price     float64 `json:"price"`
}

// Failed reports whether this reading carries the sentinel value.
func (p *Price) Failed() bool {
	return p.Price == SentinelPrice
}

// ProductPricing is the read model consumed by the report mail: the latest
// price of a product alongside its historical average.
type ProductPricing struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	AveragePrice float64 `json:"average_price"`
	URL          string  `json:"url"`
}
