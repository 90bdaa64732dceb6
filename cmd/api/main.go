package main

import (
	"log"

	"stylesync/internal/api"
	"stylesync/internal/api/handlers"
	"stylesync/internal/catalog"
	"stylesync/internal/config"
	"stylesync/internal/database"
	"stylesync/internal/events"
	"stylesync/internal/logger"
	"stylesync/internal/prefs"
	"stylesync/internal/services/ssactivewear"
	"stylesync/internal/sync"
	"stylesync/internal/synclog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Starting StyleSync API server...")

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	prefStore := prefs.NewStore(db.DB)
	catalogStore := catalog.NewStore(db.DB, cfg.CDNBaseURL, appLogger)
	runLog := synclog.New(db.DB)

	buildClient := func(username, password string) *ssactivewear.Client {
		return ssactivewear.NewClient(ssactivewear.Config{
			StylesURL:   cfg.StylesAPIURL,
			ProductsURL: cfg.ProductsAPIURL,
			CDNBaseURL:  cfg.CDNBaseURL,
			Username:    username,
			Password:    password,
			Timeout:     cfg.RequestTimeout,
			CacheTTL:    cfg.CacheTTL,
		}, appLogger)
	}

	// Stored credentials win over environment defaults.
	username, password := prefStore.Credentials()
	if username == "" && password == "" {
		username, password = cfg.APIUsername, cfg.APIPassword
	}
	client := buildClient(username, password)
	provider := handlers.NewClientProvider(client)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.SyncTopic, appLogger)
	defer publisher.Close()

	reconciler := sync.NewReconciler(client, catalogStore, prefStore, runLog, publisher, appLogger, sync.Options{
		DefaultMarginPercent: cfg.DefaultMarginPercent,
		PriceIncrement:       cfg.PriceIncrement,
		CDNBaseURL:           cfg.CDNBaseURL,
	})

	server := api.NewServer(cfg, appLogger, api.Deps{
		Reconciler:    reconciler,
		Prefs:         prefStore,
		SyncLog:       runLog,
		Provider:      provider,
		Requester:     publisher,
		RebuildClient: func(username, password string) handlers.StyleClient {
			return buildClient(username, password)
		},
	})

	if err := server.Start(); err != nil {
		appLogger.Fatal("Server failed: %v", err)
	}
}
