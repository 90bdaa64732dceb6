package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stylesync/internal/config"
	"stylesync/internal/logger"
	"stylesync/internal/prefs"
)

// SettingsHandler exposes distributor credentials, the sync interval and the
// connectivity probe.
type SettingsHandler struct {
	prefs    *prefs.Store
	provider *ClientProvider
	config   *config.Config
	logger   *logger.Logger

	// rebuild constructs a fresh distributor client after a credential
	// change; the provider is swapped so in-flight handlers keep a
	// consistent client.
	rebuild func(username, password string) StyleClient
}

func NewSettingsHandler(prefStore *prefs.Store, provider *ClientProvider, cfg *config.Config, logger *logger.Logger, rebuild func(username, password string) StyleClient) *SettingsHandler {
	return &SettingsHandler{
		prefs:    prefStore,
		provider: provider,
		config:   cfg,
		logger:   logger,
		rebuild:  rebuild,
	}
}

// Get returns the current settings. The password is reported only as
// present or absent.
func (h *SettingsHandler) Get(c *gin.Context) {
	username, password := h.prefs.Credentials()

	c.JSON(http.StatusOK, gin.H{
		"username":              username,
		"password_set":          password != "",
		"sync_interval_minutes": h.prefs.SyncIntervalMinutes(h.config.SyncIntervalMinutes),
		"default_margin":        h.config.DefaultMarginPercent,
	})
}

type updateSettingsRequest struct {
	Username            *string `json:"username"`
	Password            *string `json:"password"`
	SyncIntervalMinutes *int    `json:"sync_interval_minutes"`
}

// Update saves any provided settings; omitted fields keep their value.
// A credential change swaps the distributor client immediately.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Username != nil || req.Password != nil {
		username, password := h.prefs.Credentials()
		if req.Username != nil {
			username = *req.Username
		}
		if req.Password != nil {
			password = *req.Password
		}
		if err := h.prefs.SaveCredentials(username, password); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save credentials"})
			return
		}
		h.provider.Set(h.rebuild(username, password))
		h.logger.Info("distributor credentials updated")
	}

	if req.SyncIntervalMinutes != nil {
		if err := h.prefs.SaveSyncInterval(*req.SyncIntervalMinutes); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save sync interval"})
			return
		}
	}

	h.Get(c)
}

// TestConnection probes the distributor API with the current credentials.
func (h *SettingsHandler) TestConnection(c *gin.Context) {
	result := h.provider.Get().TestAPI()

	status := http.StatusOK
	if result.Status != "success" {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"result": result})
}
