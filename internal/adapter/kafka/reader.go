package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/cloud-mask-etl/internal/config"
	"github.com/couchcryptid/cloud-mask-etl/internal/domain"
)

// Reader consumes raw observation-day bundles from the source topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	logger        *slog.Logger
	flushInterval time.Duration
}

// NewReader creates a consumer-group reader for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaSourceTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 64 << 20, // day bundles carry full time-height grids
	})
	return &Reader{
		reader:        r,
		logger:        logger,
		flushInterval: cfg.BatchFlushInterval,
	}
}

// ExtractBatch fetches up to batchSize messages. It returns early with a
// partial batch once the flush interval elapses, so a slow topic still
// makes progress. Offsets are committed later through each RawDay's
// Commit callback, after the product has been published.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawDay, error) {
	batch := make([]domain.RawDay, 0, batchSize)
	deadline, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(deadline)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && len(batch) > 0 {
				return batch, nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return batch, ctx.Err()
			}
			return batch, err
		}
		batch = append(batch, r.mapMessageToRawDay(msg))
	}
	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawDay converts a Kafka message into the domain's raw form,
// binding the offset commit to this reader's consumer group.
func (r *Reader) mapMessageToRawDay(msg kafkago.Message) domain.RawDay {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawDay{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}
