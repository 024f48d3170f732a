package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cloud-mask-etl/internal/domain"
	"github.com/couchcryptid/cloud-mask-etl/internal/observability"
)

// DayTransformer implements Transformer using the domain detection and
// fusion functions: one raw day bundle in, one serialized cloud product out.
type DayTransformer struct {
	cfg     domain.DetectorConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a DayTransformer with the given detector tuning.
func NewTransformer(cfg domain.DetectorConfig, logger *slog.Logger, metrics *observability.Metrics) *DayTransformer {
	return &DayTransformer{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

func (t *DayTransformer) Transform(ctx context.Context, raw domain.RawDay) (domain.OutputEvent, error) {
	day, err := domain.ParseRawDay(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	start := time.Now()
	product, err := domain.ProcessDay(ctx, day, t.cfg)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("process day %s: %w", day.Date, err)
	}
	t.observe(day, product, time.Since(start))

	value, err := json.Marshal(product)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("marshal product %s: %w", day.Date, err)
	}

	return domain.OutputEvent{
		Key:   []byte(product.Date),
		Value: value,
		Headers: map[string]string{
			"observatory":  product.Observatory,
			"processed_at": product.ProcessedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

func (t *DayTransformer) observe(day domain.DayObservation, product domain.CloudProduct, elapsed time.Duration) {
	perSensor := elapsed.Seconds() / float64(len(day.Sensors))
	for _, sensor := range product.Sensors {
		t.metrics.DetectionDuration.WithLabelValues(sensor.Instrument).Observe(perSensor)

		cloudy := 0
		for _, row := range sensor.Mask {
			for _, cell := range row {
				if cell == 1 {
					cloudy++
				}
			}
		}
		t.metrics.CellsMasked.WithLabelValues(sensor.Instrument).Add(float64(cloudy))
	}

	layers := 0
	for _, extent := range product.Extents {
		layers += len(extent.Bases)
	}
	t.metrics.ExtentsExtracted.Add(float64(layers))

	t.logger.Debug("day processed",
		"date", product.Date,
		"observatory", product.Observatory,
		"sensors", len(product.Sensors),
		"layers", layers,
		"duration", elapsed,
	)
}
