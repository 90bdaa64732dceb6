package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"stylesync/internal/logger"
	"stylesync/internal/sync"
)

// Event types carried on the sync topic.
const (
	TypeSyncRequested = "sync.requested"
	TypeSyncCompleted = "sync.completed"
)

// Event is the envelope for every message on the sync topic.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Publisher writes sync lifecycle events to Kafka.
type Publisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewPublisher(brokers, topic string, logger *logger.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(strings.Split(brokers, ",")...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

func (p *Publisher) publish(eventType string, key string, data interface{}) error {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		p.logger.Error("failed to publish %s event: %v", eventType, err)
		return err
	}

	p.logger.Debug("published %s event", eventType)
	return nil
}

// PublishSyncCompleted announces a finished run with its summary.
func (p *Publisher) PublishSyncCompleted(summary sync.Summary) error {
	return p.publish(TypeSyncCompleted, summary.Trigger, summary)
}

// PublishSyncRequested asks the worker to start a run.
func (p *Publisher) PublishSyncRequested(trigger string) error {
	return p.publish(TypeSyncRequested, trigger, map[string]string{"trigger": trigger})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
