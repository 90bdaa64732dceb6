package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stylesync/internal/catalog"
	"stylesync/internal/config"
	"stylesync/internal/database"
	"stylesync/internal/events"
	"stylesync/internal/logger"
	"stylesync/internal/prefs"
	"stylesync/internal/services/ssactivewear"
	"stylesync/internal/sync"
	"stylesync/internal/synclog"
	"stylesync/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Starting StyleSync worker...")

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	prefStore := prefs.NewStore(db.DB)
	catalogStore := catalog.NewStore(db.DB, cfg.CDNBaseURL, appLogger)
	runLog := synclog.New(db.DB)

	username, password := prefStore.Credentials()
	if username == "" && password == "" {
		username, password = cfg.APIUsername, cfg.APIPassword
	}
	client := ssactivewear.NewClient(ssactivewear.Config{
		StylesURL:   cfg.StylesAPIURL,
		ProductsURL: cfg.ProductsAPIURL,
		CDNBaseURL:  cfg.CDNBaseURL,
		Username:    username,
		Password:    password,
		Timeout:     cfg.RequestTimeout,
		CacheTTL:    cfg.CacheTTL,
	}, appLogger)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.SyncTopic, appLogger)
	defer publisher.Close()

	reconciler := sync.NewReconciler(client, catalogStore, prefStore, runLog, publisher, appLogger, sync.Options{
		DefaultMarginPercent: cfg.DefaultMarginPercent,
		PriceIncrement:       cfg.PriceIncrement,
		CDNBaseURL:           cfg.CDNBaseURL,
	})

	w := worker.New(cfg, appLogger, reconciler, prefStore)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		appLogger.Info("Shutting down worker...")
		cancel()
	}()

	w.Start(ctx)

	if err := w.Stop(); err != nil {
		appLogger.Error("Worker shutdown error: %v", err)
	}
	appLogger.Info("Worker stopped")
}
