package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kpx/product-tracker/internal/models"
)

func toggleEntry(title, price, extraMessage string) string {
	extra := ""
	if extraMessage != "" {
		extra = fmt.Sprintf(`<span class="slot-extraMessage">%s</span>`, extraMessage)
	}
	return fmt.Sprintf(`<span class="a-button a-spacing-none a-button-toggle format">
		<span class="slot-title">%s</span>
		<span class="slot-price">%s</span>
		%s
	</span>`, title, price, extra)
}

func togglePage(entries ...string) string {
	return fmt.Sprintf(`<html><body><div id="tmm-grid-swatch">%s</div></body></html>`, strings.Join(entries, ""))
}

func boxPage(whole, fraction string) string {
	return fmt.Sprintf(`<html><body>
		<div id="corePriceDisplay">
			<span class="a-price">
				<span class="a-price-whole">%s</span>
				<span class="a-price-fraction">%s</span>
			</span>
		</div>
	</body></html>`, whole, fraction)
}

func TestParsePriceToggleLayout(t *testing.T) {
	parser := NewPriceParser(nil)

	tests := []struct {
		name     string
		html     string
		expected float64
	}{
		{
			name:     "digital format preferred over physical",
			html:     togglePage(toggleEntry("Kindle", "$9.99", ""), toggleEntry("Hardcover", "$14.99", "")),
			expected: 9.99,
		},
		{
			name:     "falls back to physical format",
			html:     togglePage(toggleEntry("Hardcover", "$14.99", "")),
			expected: 14.99,
		},
		{
			name:     "paperback beats hardcover",
			html:     togglePage(toggleEntry("Hardcover", "$14.99", ""), toggleEntry("Paperback", "$11.49", "")),
			expected: 11.49,
		},
		{
			name:     "no recognized format yields sentinel",
			html:     togglePage(toggleEntry("Audiobook", "$21.99", "")),
			expected: models.SentinelPrice,
		},
		{
			name:     "extra message overrides base price",
			html:     togglePage(toggleEntry("Kindle", "$9.99", "$7.49 for members")),
			expected: 7.49,
		},
		{
			name:     "extra message without amount keeps base price",
			html:     togglePage(toggleEntry("Kindle", "$9.99", "Available instantly")),
			expected: 9.99,
		},
		{
			name:     "price text with prefix",
			html:     togglePage(toggleEntry("Paperback", "from $12.99", "")),
			expected: 12.99,
		},
		{
			name: "unparseable entry does not poison the others",
			html: togglePage(
				toggleEntry("Kindle", "Unavailable", ""),
				toggleEntry("Paperback", "$11.49", ""),
			),
			expected: 11.49,
		},
		{
			name:     "thousands separator",
			html:     togglePage(toggleEntry("Hardcover", "$1,299.00", "")),
			expected: 1299.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parser.Parse(tt.html))
		})
	}
}

func TestParsePriceBoxLayout(t *testing.T) {
	parser := NewPriceParser(nil)

	tests := []struct {
		name     string
		html     string
		expected float64
	}{
		{
			name:     "whole and fraction fragments",
			html:     boxPage("23", "47"),
			expected: 23.47,
		},
		{
			name:     "whole fragment carries separator",
			html:     boxPage("23.", "47"),
			expected: 23.47,
		},
		{
			name:     "missing fraction defaults to zero cents",
			html:     `<html><body><span class="a-price"><span class="a-price-whole">18</span></span></body></html>`,
			expected: 18.00,
		},
		{
			name:     "no fragments yields sentinel",
			html:     `<html><body><span class="a-price"><span class="a-offscreen">$23.47</span></span></body></html>`,
			expected: models.SentinelPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parser.Parse(tt.html))
		})
	}
}

func TestParsePriceLayoutSelection(t *testing.T) {
	parser := NewPriceParser(nil)

	t.Run("toggle layout wins when both are present", func(t *testing.T) {
		html := togglePage(toggleEntry("Kindle", "$9.99", "")) + boxPage("23", "47")
		assert.Equal(t, 9.99, parser.Parse(html))
	})

	t.Run("box layout is the fallback", func(t *testing.T) {
		assert.Equal(t, 23.47, parser.Parse(boxPage("23", "47")))
	})

	t.Run("no layout yields sentinel", func(t *testing.T) {
		assert.Equal(t, models.SentinelPrice, parser.Parse(`<html><body><h1>Robot Check</h1></body></html>`))
	})

	t.Run("empty document yields sentinel", func(t *testing.T) {
		assert.Equal(t, models.SentinelPrice, parser.Parse(""))
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"9.99", 9.99, true},
		{" 14.99 ", 14.99, true},
		{"1,299.00", 1299.00, true},
		{"0", 0, true},
		{"", 0, false},
		{"free", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			value, ok := parseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, value)
			}
		})
	}
}
