package ssactivewear

import "time"

// StyleRecord is a single style row from the distributor styles endpoint.
type StyleRecord struct {
	StyleID      string `json:"style_id"`
	Title        string `json:"title"`
	BrandName    string `json:"brand_name"`
	StyleName    string `json:"style_name"`
	SKU          string `json:"sku"`
	Description  string `json:"description"`
	StyleImage   string `json:"style_image"`
	BaseCategory string `json:"base_category"`
}

// StyleTitle joins brand and style name, the distributor's display identity
// for a style. It doubles as the query key for the per-style SKU listing.
func (s *StyleRecord) StyleTitle() string {
	return joinNonEmpty(" ", s.BrandName, s.StyleName)
}

// StyleSummary is the cached display view of a style.
type StyleSummary struct {
	Title        string `json:"title"`
	BaseCategory string `json:"base_category"`
}

// SearchResult is one row of a style search.
type SearchResult struct {
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

// ColorRecord groups the per-size rows of one distributor color. Every map is
// keyed by a size name present in SizeNames.
type ColorRecord struct {
	ColorCode       string             `json:"color_code"`
	ColorName       string             `json:"color_name"`
	ColorFrontImage string             `json:"color_front_image"`
	SizeNames       []string           `json:"size_names"`
	SizeSkus        map[string]string  `json:"size_skus"`
	SizePrices      map[string]float64 `json:"size_prices"`
	SizeQtys        map[string]int     `json:"size_qtys"`
}

// TestResult is the outcome of a connectivity probe against the distributor.
type TestResult struct {
	TestedAt time.Time `json:"tested_at"`
	Endpoint string    `json:"endpoint"`
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	Code     int       `json:"code"`
	Body     string    `json:"body"`
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
