package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/kpx/product-tracker/internal/models"
)

const (
	itemListSelector = "#g-items"
	itemLinkSelector = "a.a-link-normal[href]"
)

// ErrNoItemContainer means the settled page has no wishlist item list at
// all. A present-but-empty list is not an error; see ParseWishlist.
var ErrNoItemContainer = errors.New("wishlist item container not found")

var badgePattern = regexp.MustCompile(`Best Seller`)

// WishlistParser turns a settled wishlist page snapshot into catalog
// entries.
type WishlistParser struct {
	baseURL string
	logger  *slog.Logger
}

func NewWishlistParser(baseURL string, logger *slog.Logger) *WishlistParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &WishlistParser{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.With("component", "wishlist_parser"),
	}
}

// Parse extracts the tracked products from rendered wishlist HTML, in DOM
// order. Items without a product link are decorative and skipped silently;
// items with a malformed link are logged and skipped. An existing but empty
// list yields an empty slice and no error.
func (p *WishlistParser) Parse(htmlText string, store models.Store) ([]models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("failed to parse wishlist HTML: %w", err)
	}

	container := doc.Find(itemListSelector)
	if container.Length() == 0 {
		return nil, ErrNoItemContainer
	}

	products := make([]models.Product, 0)

	container.Find("li").Each(func(_ int, item *goquery.Selection) {
		link := item.Find(itemLinkSelector).First()
		if link.Length() == 0 {
			return
		}

		href, _ := link.Attr("href")
		id, err := p.productIDFromHref(href)
		if err != nil {
			p.logger.Warn("skipping item with malformed link", "href", href, "error", err)
			return
		}

		name, ok := itemName(item)
		if !ok {
			p.logger.Warn("skipping item without visible name", "id", id)
			return
		}

		products = append(products, models.Product{
			ID:    id,
			Name:  name,
			Store: store,
		})
	})

	return products, nil
}

// productIDFromHref pulls the site-assigned identifier out of a product
// link. Product links carry the id as a fixed positional segment, the 4th
// slash-separated part of the absolute URL ("https://host/dp/<id>/...").
func (p *WishlistParser) productIDFromHref(href string) (string, error) {
	if href == "" {
		return "", errors.New("empty href")
	}

	if strings.HasPrefix(href, "/") {
		href = p.baseURL + href
	}

	parts := strings.Split(href, "/")
	if len(parts) < 5 || parts[4] == "" {
		return "", fmt.Errorf("no id segment in %q", href)
	}

	return parts[4], nil
}

// itemName picks the display name from the item's visible text lines. Badge
// lines ("Best Seller" and friends) precede the real title, so when the
// first line is a badge the second line wins.
func itemName(item *goquery.Selection) (string, bool) {
	lines := textLines(item)
	if len(lines) == 0 {
		return "", false
	}

	if badgePattern.MatchString(lines[0]) && len(lines) > 1 {
		return lines[1], true
	}

	return lines[0], true
}

// textLines collects the non-empty text nodes of a selection in document
// order, one line per node, mirroring how a rendered item reads.
func textLines(sel *goquery.Selection) []string {
	var lines []string
	for _, node := range sel.Nodes {
		collectTextLines(node, &lines)
	}
	return lines
}

func collectTextLines(n *html.Node, lines *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*lines = append(*lines, text)
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTextLines(c, lines)
	}
}
