package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stylesync/internal/config"
	"stylesync/internal/logger"
	"stylesync/internal/prefs"
)

// StylesHandler proxies distributor style lookups for the picker UI.
type StylesHandler struct {
	provider *ClientProvider
	prefs    *prefs.Store
	config   *config.Config
	logger   *logger.Logger
}

func NewStylesHandler(provider *ClientProvider, prefStore *prefs.Store, cfg *config.Config, logger *logger.Logger) *StylesHandler {
	return &StylesHandler{provider: provider, prefs: prefStore, config: cfg, logger: logger}
}

// Search runs a free-text style search against the distributor.
func (h *StylesHandler) Search(c *gin.Context) {
	query := c.Query("q")
	results := h.provider.Get().SearchStyles(query)
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// Colors lists a style's colors alongside the merchant's current selection
// and margin, so the UI can render the include/exclude panel in one request.
func (h *StylesHandler) Colors(c *gin.Context) {
	sku := c.Param("sku")
	client := h.provider.Get()

	summary := client.StyleSummary(sku)
	colors := client.FetchStyleColors(summary.Title)

	c.JSON(http.StatusOK, gin.H{
		"sku":           sku,
		"title":         summary.Title,
		"base_category": summary.BaseCategory,
		"colors":        colors,
		"selected":      h.prefs.SelectedColors(sku),
		"margin":        h.prefs.MarginPercentFor(sku, h.config.DefaultMarginPercent),
	})
}
