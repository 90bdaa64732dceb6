package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stylesync/internal/api/handlers"
	"stylesync/internal/api/middleware"
	"stylesync/internal/config"
	"stylesync/internal/logger"
	"stylesync/internal/prefs"
	"stylesync/internal/sync"
	"stylesync/internal/synclog"
)

// Server wires the HTTP surface: sync control, monitored SKU management,
// style lookups and settings.
type Server struct {
	router *gin.Engine
	config *config.Config
	logger *logger.Logger
}

// Deps carries the collaborators the route handlers need.
type Deps struct {
	Reconciler *sync.Reconciler
	Prefs      *prefs.Store
	SyncLog    *synclog.Log
	Provider   *handlers.ClientProvider
	Requester  handlers.SyncRequester

	// RebuildClient constructs a distributor client for new credentials.
	RebuildClient func(username, password string) handlers.StyleClient
}

func NewServer(cfg *config.Config, log *logger.Logger, deps Deps) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	server := &Server{
		router: router,
		config: cfg,
		logger: log,
	}
	server.registerRoutes(deps)
	return server
}

func (s *Server) registerRoutes(deps Deps) {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	syncHandler := handlers.NewSyncHandler(deps.Reconciler, deps.SyncLog, deps.Prefs, deps.Requester, s.logger)
	monitoredHandler := handlers.NewMonitoredHandler(deps.Prefs, deps.Provider, s.logger)
	stylesHandler := handlers.NewStylesHandler(deps.Provider, deps.Prefs, s.config, s.logger)
	settingsHandler := handlers.NewSettingsHandler(deps.Prefs, deps.Provider, s.config, s.logger, deps.RebuildClient)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/sync", syncHandler.TriggerSync)
		v1.GET("/sync/logs", syncHandler.GetLogs)
		v1.GET("/sync/status", syncHandler.GetStatus)

		v1.GET("/monitored", monitoredHandler.List)
		v1.POST("/monitored", monitoredHandler.Add)
		v1.DELETE("/monitored/:sku", monitoredHandler.Remove)
		v1.PUT("/monitored/:sku/colors", monitoredHandler.SetColors)
		v1.PUT("/monitored/:sku/margin", monitoredHandler.SetMargin)

		v1.GET("/styles/search", stylesHandler.Search)
		v1.GET("/styles/:sku/colors", stylesHandler.Colors)

		v1.GET("/settings", settingsHandler.Get)
		v1.PUT("/settings", settingsHandler.Update)
		v1.POST("/settings/test", settingsHandler.TestConnection)
	}
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	addr := s.config.APIHost + ":" + s.config.APIPort
	s.logger.Info("starting API server on %s", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return srv.ListenAndServe()
}
