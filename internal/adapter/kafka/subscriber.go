// Package kafka connects the dashboard to the dataset refresh topic:
// genstats publishes a notice after regenerating the statistics file,
// and the dashboard reloads its snapshot when one arrives.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/freightlens/truck-traffic-dashboard/internal/config"
	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/freightlens/truck-traffic-dashboard/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Reloader swaps in a fresh dataset snapshot.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Subscriber consumes refresh notices and triggers dataset reloads.
type Subscriber struct {
	reader  *kafkago.Reader
	service Reloader
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSubscriber creates a consumer for the configured refresh topic.
func NewSubscriber(cfg *config.Config, service Reloader, logger *slog.Logger, metrics *observability.Metrics) *Subscriber {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaRefreshTopic,
		GroupID: cfg.KafkaGroupID,
		// Notices are tiny and rare; fetch them as soon as they arrive.
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Subscriber{
		reader:  r,
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Run consumes refresh notices until the context is cancelled. A notice
// whose reload fails is not committed, so it is redelivered once the
// group rebalances or the subscriber restarts.
func (s *Subscriber) Run(ctx context.Context) error {
	s.logger.Info("refresh subscriber started",
		"topic", s.reader.Config().Topic,
		"group_id", s.reader.Config().GroupID,
	)
	s.metrics.RefreshEnabled.Set(1)
	defer s.metrics.RefreshEnabled.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retries prompt while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh subscriber stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !s.consumeOne(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// consumeOne handles a single notice. Returns false if the subscriber
// should stop.
func (s *Subscriber) consumeOne(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	msg, err := s.reader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.logger.Error("fetch refresh notice failed", "error", err)
		return s.backoffOrStop(ctx, backoff, maxBackoff)
	}

	s.metrics.RefreshNotices.Inc()
	*backoff = 200 * time.Millisecond

	notice := decodeNotice(msg)
	s.logger.Info("refresh notice received",
		"partition", msg.Partition,
		"offset", msg.Offset,
		"dataset_path", notice.DatasetPath,
		"source", notice.Source,
		"site_count", notice.SiteCount,
	)

	if err := s.service.Reload(ctx); err != nil {
		s.logger.Error("reload after refresh notice failed", "error", err)
		return s.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if err := s.reader.CommitMessages(ctx, msg); err != nil {
		s.logger.Warn("commit refresh notice failed", "error", err,
			"partition", msg.Partition, "offset", msg.Offset)
	}
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the subscriber
// should stop.
func (s *Subscriber) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func (s *Subscriber) Close() error {
	return s.reader.Close()
}

// decodeNotice parses the notice payload for logging. Any message on the
// topic triggers a reload, so a malformed payload is not an error.
func decodeNotice(msg kafkago.Message) domain.RefreshNotice {
	var notice domain.RefreshNotice
	if err := json.Unmarshal(msg.Value, &notice); err != nil {
		return domain.RefreshNotice{}
	}
	return notice
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
