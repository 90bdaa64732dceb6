package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stylesync/internal/logger"
	"stylesync/internal/prefs"
)

// MonitoredHandler manages the monitored SKU list and its per-SKU
// preferences.
type MonitoredHandler struct {
	prefs    *prefs.Store
	provider *ClientProvider
	logger   *logger.Logger
}

func NewMonitoredHandler(prefStore *prefs.Store, provider *ClientProvider, logger *logger.Logger) *MonitoredHandler {
	return &MonitoredHandler{prefs: prefStore, provider: provider, logger: logger}
}

// List returns the monitored SKUs, most recently added first, each with its
// cached style summary.
func (h *MonitoredHandler) List(c *gin.Context) {
	monitored, err := h.prefs.MonitoredSKUs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch monitored SKUs"})
		return
	}

	client := h.provider.Get()
	items := make([]gin.H, 0, len(monitored))
	for _, entry := range monitored {
		summary := client.StyleSummary(entry.SKU)
		items = append(items, gin.H{
			"sku":           entry.SKU,
			"title":         summary.Title,
			"base_category": summary.BaseCategory,
			"created_at":    entry.CreatedAt,
			"colors":        h.prefs.SelectedColors(entry.SKU),
		})
	}

	c.JSON(http.StatusOK, gin.H{"monitored": items, "count": len(items)})
}

type addMonitoredRequest struct {
	SKU string `json:"sku" binding:"required"`
}

func (h *MonitoredHandler) Add(c *gin.Context) {
	var req addMonitoredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	monitored, err := h.prefs.AddMonitoredSKU(req.SKU)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"monitored": monitored})
}

func (h *MonitoredHandler) Remove(c *gin.Context) {
	sku := c.Param("sku")
	if err := h.prefs.RemoveMonitoredSKU(sku); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "SKU removed"})
}

type colorSelectionRequest struct {
	Colors []string `json:"colors"`
}

// SetColors replaces the color selection for one SKU. An empty list means
// every color is included on the next sync.
func (h *MonitoredHandler) SetColors(c *gin.Context) {
	var req colorSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sku := c.Param("sku")
	if err := h.prefs.SaveColorSelection(sku, req.Colors); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sku": sku, "colors": h.prefs.SelectedColors(sku)})
}

type marginRequest struct {
	Margin float64 `json:"margin" binding:"required"`
}

func (h *MonitoredHandler) SetMargin(c *gin.Context) {
	var req marginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sku := c.Param("sku")
	if err := h.prefs.SaveMargin(sku, req.Margin); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sku": sku, "margin": req.Margin})
}
