package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stylesync/internal/logger"
	"stylesync/internal/prefs"
	"stylesync/internal/sync"
	"stylesync/internal/synclog"
)

// SyncRequester hands a sync request to the worker instead of running it
// in-process.
type SyncRequester interface {
	PublishSyncRequested(trigger string) error
}

// SyncHandler triggers runs and exposes run history.
type SyncHandler struct {
	reconciler *sync.Reconciler
	log        *synclog.Log
	prefs      *prefs.Store
	requester  SyncRequester
	logger     *logger.Logger
}

func NewSyncHandler(reconciler *sync.Reconciler, log *synclog.Log, prefStore *prefs.Store, requester SyncRequester, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{reconciler: reconciler, log: log, prefs: prefStore, requester: requester, logger: logger}
}

// TriggerSync runs a full sync and returns its summary. With ?async=true the
// request is handed to the worker over the sync topic instead.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	if c.Query("async") == "true" && h.requester != nil {
		if err := h.requester.PublishSyncRequested("manual"); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request sync"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "Sync requested"})
		return
	}

	summary, err := h.reconciler.Run("manual")
	if errors.Is(err, sync.ErrSyncInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "A sync is already running"})
		return
	}
	if err != nil {
		h.logger.Error("manual sync failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": summary})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetLogs returns recent run entries, newest first.
func (h *SyncHandler) GetLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.log.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": entries, "count": len(entries)})
}

// GetStatus reports whether a run is in progress, the last run's entry and
// how many SKUs are monitored. The dashboard renders from this alone.
func (h *SyncHandler) GetStatus(c *gin.Context) {
	lastRun, err := h.log.LastRun()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch status"})
		return
	}

	monitored, err := h.prefs.MonitoredCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"running":   h.reconciler.Running(),
		"last_run":  lastRun,
		"monitored": monitored,
	})
}
