package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/freightlens/truck-traffic-dashboard/internal/config"
	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher announces regenerated datasets on the refresh topic. genstats
// uses it so running dashboards pick up a new statistics file without a
// restart.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured refresh topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaRefreshTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishRefresh announces that the dataset at notice.DatasetPath was
// regenerated.
func (p *Publisher) PublishRefresh(ctx context.Context, notice domain.RefreshNotice) error {
	msg, err := serializeNotice(notice)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish refresh notice: %w", err)
	}
	p.logger.Info("refresh notice published",
		"dataset_path", notice.DatasetPath,
		"site_count", notice.SiteCount,
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeNotice marshals a RefreshNotice into a Kafka message keyed by
// dataset path, so notices for the same file land on one partition in
// order.
func serializeNotice(notice domain.RefreshNotice) (kafkago.Message, error) {
	data, err := json.Marshal(notice)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize refresh notice: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(notice.DatasetPath),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(notice.Source)},
			{Key: "generated_at", Value: []byte(notice.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
