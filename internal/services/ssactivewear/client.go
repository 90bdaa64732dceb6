package ssactivewear

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"stylesync/internal/logger"
)

// Config carries everything the client needs to talk to the distributor API.
// Passed in explicitly so nothing reads global state.
type Config struct {
	StylesURL   string
	ProductsURL string
	CDNBaseURL  string
	Username    string
	Password    string
	Timeout     time.Duration
	CacheTTL    time.Duration
}

type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
	logger     *logger.Logger
}

// testProbeSKU is a known style used to verify connectivity and credentials.
const testProbeSKU = "B00760004"

func NewClient(cfg Config, logger *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger: logger,
	}
}

// get issues an authenticated GET and returns the body and status code.
// The Basic auth header is omitted when either credential is blank.
func (c *Client) get(rawURL string, params map[string]string) ([]byte, int, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.config.Username != "" && c.config.Password != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// FetchStyle looks up a style by its distributor SKU. Returns nil on
// transport error, non-2xx status or an unparseable body; the caller treats
// nil as "no data" and tallies the SKU as failed.
func (c *Client) FetchStyle(sku string) *StyleRecord {
	body, code, err := c.get(c.config.StylesURL, map[string]string{"styleid": sku})
	if err != nil {
		c.logger.Warn("style fetch failed for %s: %v", sku, err)
		return nil
	}
	if code < 200 || code >= 300 {
		c.logger.Warn("style fetch for %s returned status %d", sku, code)
		return nil
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil
	}

	switch v := decoded.(type) {
	case []interface{}:
		if len(v) == 0 {
			return nil
		}
		if item, ok := v[0].(map[string]interface{}); ok {
			return styleFromMap(item)
		}
		return nil
	case map[string]interface{}:
		return styleFromMap(v)
	default:
		return nil
	}
}

func styleFromMap(item map[string]interface{}) *StyleRecord {
	return &StyleRecord{
		StyleID:      pickScalar(item, "styleID", "StyleID"),
		Title:        pickScalar(item, "title", "Title"),
		BrandName:    pickScalar(item, "brandName", "BrandName"),
		StyleName:    pickScalar(item, "styleName", "StyleName"),
		SKU:          pickScalar(item, "sku", "Sku"),
		Description:  pickScalar(item, "description", "Description"),
		StyleImage:   pickScalar(item, "styleImage", "StyleImage"),
		BaseCategory: pickScalar(item, "baseCategory", "BaseCategory"),
	}
}

// sampleStyles keeps the style picker usable without live credentials.
// Development convenience only: any remote failure falls through to this
// list, so do not mistake these rows for distributor data.
var sampleStyles = []SearchResult{
	{Name: "Sample Hoodie", SKU: "HD-100"},
	{Name: "Classic Tee", SKU: "TS-200"},
	{Name: "Canvas Tote", SKU: "BG-300"},
	{Name: "Coffee Mug", SKU: "MG-400"},
}

// SearchStyles runs a free-text style search, filtering results by a
// case-insensitive substring match on name or SKU.
func (c *Client) SearchStyles(query string) []SearchResult {
	query = strings.ToLower(query)

	body, code, err := c.get(c.config.StylesURL, map[string]string{"search": query})
	if err == nil && code == http.StatusOK {
		var items []map[string]interface{}
		if err := json.Unmarshal(body, &items); err == nil {
			results := make([]SearchResult, 0, len(items))
			for _, item := range items {
				results = append(results, SearchResult{
					Name: joinNonEmpty(" ",
						pickScalar(item, "brandName", "BrandName"),
						pickScalar(item, "styleName", "StyleName"),
					),
					SKU: pickScalar(item, "styleID", "StyleID"),
				})
			}
			return filterStyles(results, query)
		}
	}

	return filterStyles(sampleStyles, query)
}

func filterStyles(results []SearchResult, query string) []SearchResult {
	filtered := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if query == "" ||
			strings.Contains(strings.ToLower(r.Name), query) ||
			strings.Contains(strings.ToLower(r.SKU), query) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FetchStyleColors lists the color/size/price/quantity rows of a style and
// groups them into ColorRecords keyed by color code. Results are cached for
// the configured TTL keyed by a hash of the style title; a failed fetch is
// not cached, so the next call retries immediately.
func (c *Client) FetchStyleColors(styleTitle string) []ColorRecord {
	styleTitle = strings.TrimSpace(styleTitle)
	cacheKey := "style_colors_" + md5Hex(styleTitle)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]ColorRecord)
	}

	body, code, err := c.get(c.config.ProductsURL, map[string]string{"style": styleTitle})
	if err != nil {
		c.logger.Warn("color fetch failed for %q: %v", styleTitle, err)
		return nil
	}
	if code != http.StatusOK {
		c.logger.Warn("color fetch for %q returned status %d", styleTitle, code)
		return nil
	}

	colors := groupColorRows(ParseAPIResponse(body))
	c.cache.Set(cacheKey, colors, cache.DefaultExpiration)
	return colors
}

// groupColorRows folds per-size SKU rows into one record per color code.
// Quantities for a repeated color/size pair accumulate; everything else is
// last-write-wins, matching distributor row order.
func groupColorRows(data interface{}) []ColorRecord {
	var rows []interface{}
	switch d := data.(type) {
	case []interface{}:
		rows = d
	case map[string]interface{}:
		inner := pick(d, "Sku", "sku")
		if inner == nil {
			inner = interface{}(d)
		}
		switch iv := inner.(type) {
		case []interface{}:
			rows = iv
		case map[string]interface{}:
			rows = []interface{}{iv}
		}
	}

	order := []string{}
	byCode := map[string]*ColorRecord{}

	for _, raw := range rows {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		colorCode := pickScalar(item, "colorCode", "ColorCode")
		if colorCode == "" {
			continue
		}

		record, exists := byCode[colorCode]
		if !exists {
			record = &ColorRecord{
				ColorCode:       colorCode,
				ColorName:       pickScalar(item, "colorName", "ColorName"),
				ColorFrontImage: pickScalar(item, "colorFrontImage", "ColorFrontImage"),
				SizeNames:       []string{},
				SizeSkus:        map[string]string{},
				SizePrices:      map[string]float64{},
				SizeQtys:        map[string]int{},
			}
			byCode[colorCode] = record
			order = append(order, colorCode)
		}

		sizeName := strings.TrimSpace(pickScalar(item, "sizeName", "SizeName"))
		if sizeName == "" {
			continue
		}
		record.SizeNames = append(record.SizeNames, sizeName)

		if sizeSku := strings.TrimSpace(pickScalar(item, "sku", "Sku")); sizeSku != "" {
			record.SizeSkus[sizeName] = sizeSku
		}

		if priceRaw := pickScalar(item, "customerPrice", "CustomerPrice"); priceRaw != "" {
			if price, err := strconv.ParseFloat(priceRaw, 64); err == nil {
				record.SizePrices[sizeName] = price
			}
		}

		qty := 0
		if qtyRaw := pick(item, "qty", "Qty"); qtyRaw != nil {
			qty, _ = strconv.Atoi(ExtractScalar(qtyRaw))
		} else {
			qty = SumWarehouseQty(item)
		}
		record.SizeQtys[sizeName] += qty
	}

	colors := make([]ColorRecord, 0, len(order))
	for _, code := range order {
		record := byCode[code]
		record.SizeNames = dedupe(record.SizeNames)
		colors = append(colors, *record)
	}
	return colors
}

// StyleSummary returns the cached title/category view of a style, re-derived
// by fetching when the cache has expired. Falls back to the raw SKU as title
// and "Unknown" as category when the style cannot be fetched.
func (c *Client) StyleSummary(sku string) StyleSummary {
	cacheKey := "style_summary_" + sku
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(StyleSummary)
	}

	summary := StyleSummary{Title: sku, BaseCategory: "Unknown"}
	if style := c.FetchStyle(sku); style != nil {
		if title := style.StyleTitle(); title != "" {
			summary.Title = title
		}
		if style.BaseCategory != "" {
			summary.BaseCategory = style.BaseCategory
		}
	}

	c.cache.Set(cacheKey, summary, cache.DefaultExpiration)
	return summary
}

// TestAPI probes the products endpoint with a known style so a merchant can
// verify credentials before the first sync.
func (c *Client) TestAPI() TestResult {
	endpoint := strings.TrimSuffix(c.config.ProductsURL, "/") + "/" + testProbeSKU

	result := TestResult{
		TestedAt: time.Now(),
		Endpoint: endpoint,
		Status:   "error",
		Message:  "Request failed.",
	}

	body, code, err := c.get(endpoint, nil)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	result.Code = code
	if len(body) > 500 {
		body = body[:500]
	}
	result.Body = string(body)

	if code >= 200 && code < 300 {
		result.Status = "success"
		result.Message = "API request succeeded."
	} else {
		result.Message = fmt.Sprintf("API request returned status %d.", code)
	}

	return result
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func dedupe(values []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
