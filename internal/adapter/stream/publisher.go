// Package stream publishes bundle events to Kafka. One compact event per
// successfully built bundle lets downstream consumers track forecast
// changes without polling the HTTP API.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
	"github.com/windwardlabs/regatta-forecast/internal/observability"
)

// Publisher produces one event per built bundle to a Kafka topic.
// It implements forecast.Publisher.
type Publisher struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the bundle event topic.
func NewPublisher(brokers []string, topic string, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// bundleEvent is the compact wire shape: identity, attribution, and the
// current readings. Consumers wanting the hourly series fetch the bundle.
type bundleEvent struct {
	AreaKey     string                   `json:"area_key"`
	AreaName    string                   `json:"area_name"`
	BuildID     string                   `json:"build_id"`
	GeneratedAt time.Time                `json:"generated_at"`
	Sources     domain.SourceAttribution `json:"sources"`
	Wind        domain.WindReading       `json:"wind"`
	Wave        domain.WaveReading       `json:"wave"`
	Tide        domain.CurrentReading    `json:"tide"`
}

// PublishBundle serializes and publishes one bundle event. The error is
// returned for the caller to log; publish failures never fail a build.
func (p *Publisher) PublishBundle(ctx context.Context, bundle domain.AreaBundle) error {
	msg, err := serializeToMessage(bundle)
	if err != nil {
		p.metrics.PublishErrors.Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish bundle event for %s: %w", bundle.AreaKey, err)
	}
	p.metrics.BundleEventsPublished.Inc()
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a bundle into its event message, keyed by
// area so a partition carries one area's events in order.
func serializeToMessage(bundle domain.AreaBundle) (kafkago.Message, error) {
	event := bundleEvent{
		AreaKey:     bundle.AreaKey,
		AreaName:    bundle.AreaName,
		BuildID:     bundle.BuildID,
		GeneratedAt: bundle.GeneratedAt,
		Sources:     bundle.Sources,
		Wind:        bundle.Wind,
		Wave:        bundle.Wave,
		Tide:        bundle.Tide,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize bundle event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(bundle.AreaKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "build_id", Value: []byte(bundle.BuildID)},
			{Key: "generated_at", Value: []byte(bundle.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
