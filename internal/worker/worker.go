package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"stylesync/internal/config"
	"stylesync/internal/events"
	"stylesync/internal/logger"
	"stylesync/internal/prefs"
	"stylesync/internal/sync"
)

// Worker runs scheduled syncs and consumes on-demand sync requests from the
// sync topic. One worker process is expected per deployment; the
// reconciler's lock still guards against overlap if more are started.
type Worker struct {
	config     *config.Config
	logger     *logger.Logger
	reconciler *sync.Reconciler
	prefs      *prefs.Store
	reader     *kafka.Reader
}

func New(cfg *config.Config, logger *logger.Logger, reconciler *sync.Reconciler, prefStore *prefs.Store) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: strings.Split(cfg.KafkaBrokers, ","),
		Topic:   cfg.SyncTopic,
		GroupID: "stylesync-worker",
	})

	return &Worker{
		config:     cfg,
		logger:     logger,
		reconciler: reconciler,
		prefs:      prefStore,
		reader:     reader,
	}
}

// Start blocks until the context is cancelled, running the schedule loop and
// the event consumer concurrently.
func (w *Worker) Start(ctx context.Context) {
	go w.consumeLoop(ctx)
	w.scheduleLoop(ctx)
}

// scheduleLoop runs a sync, then sleeps for the configured interval. The
// interval is re-read after every run so a settings change takes effect
// without a restart.
func (w *Worker) scheduleLoop(ctx context.Context) {
	for {
		interval := time.Duration(w.prefs.SyncIntervalMinutes(w.config.SyncIntervalMinutes)) * time.Minute
		w.logger.Info("next scheduled sync in %s", interval)

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			w.runSync("cron")
		}
	}
}

func (w *Worker) consumeLoop(ctx context.Context) {
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to read message: %v", err)
			time.Sleep(time.Second)
			continue
		}

		var event events.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			w.logger.Warn("skipping malformed event: %v", err)
			continue
		}

		if event.Type != events.TypeSyncRequested {
			continue
		}
		w.runSync("event")
	}
}

func (w *Worker) runSync(trigger string) {
	summary, err := w.reconciler.Run(trigger)
	if errors.Is(err, sync.ErrSyncInProgress) {
		w.logger.Info("skipping %s sync, a run is already in progress", trigger)
		return
	}
	if err != nil {
		w.logger.Error("%s sync failed: %v", trigger, err)
		return
	}
	w.logger.Info("%s sync finished: %d succeeded, %d failed", trigger, summary.SuccessCount, summary.FailCount)
}

// Stop closes the event consumer.
func (w *Worker) Stop() error {
	return w.reader.Close()
}
