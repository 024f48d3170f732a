package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cloud-mask-etl/internal/domain"
	"github.com/couchcryptid/cloud-mask-etl/internal/observability"
	"github.com/couchcryptid/cloud-mask-etl/internal/pipeline"
)

// TestDayTransformer_WithMockObservationDay runs the full detection and
// fusion path over the committed mock day bundle and checks the product's
// structural invariants. The mock bundle is regenerated by cmd/genmock.
func TestDayTransformer_WithMockObservationDay(t *testing.T) {
	frozen := time.Date(1998, 5, 5, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	defer domain.SetClock(nil)

	raw := readMockDay(t)
	cfg := domain.DefaultDetectorConfig()
	// The mock grids only reach 500m, so lower the fusion floor to keep
	// the extents stage exercised.
	cfg.Fusion.MinHeight = 100

	transformer := pipeline.NewTransformer(cfg, slog.Default(), observability.NewMetricsForTesting())

	out, err := transformer.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("1998-05-04"), out.Key)
	assert.Equal(t, "sheba", out.Headers["observatory"])
	assert.Equal(t, "1998-05-05T12:00:00Z", out.Headers["processed_at"])

	var product domain.CloudProduct
	require.NoError(t, json.Unmarshal(out.Value, &product))

	assert.Equal(t, "1998-05-04", product.Date)
	assert.Equal(t, "sheba", product.Observatory)
	if diff := cmp.Diff(domain.DMS{Sign: 1, Degrees: 76, Minutes: 30}, product.Latitude); diff != "" {
		t.Errorf("latitude mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(domain.DMS{Sign: -1, Degrees: 68, Minutes: 30}, product.Longitude); diff != "" {
		t.Errorf("longitude mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, product.Sensors, 2)
	for _, sensor := range product.Sensors {
		assert.NotEmpty(t, sensor.Times, sensor.Instrument)
		for i := 1; i < len(sensor.Times); i++ {
			assert.LessOrEqual(t, sensor.Times[i-1], sensor.Times[i],
				"repaired times must be monotonic for %s", sensor.Instrument)
		}
		require.Len(t, sensor.Mask, len(sensor.Times), sensor.Instrument)
		for _, row := range sensor.Mask {
			assert.Len(t, row, len(sensor.Heights), sensor.Instrument)
		}
	}

	require.Len(t, product.FusedMask, len(product.CoarseTimes))
	for _, row := range product.FusedMask {
		assert.Len(t, row, len(product.CoarseHeights))
	}

	require.Len(t, product.Extents, len(product.CoarseTimes))
	for _, extent := range product.Extents {
		assert.Len(t, extent.Tops, len(extent.Bases))
		for i := range extent.Bases {
			assert.Less(t, extent.Bases[i], extent.Tops[i])
		}
	}

	// The lidar's dense block spans the midnight wrap, so at least one
	// fused cell must come out cloudy.
	cloudy := 0
	for _, row := range product.FusedMask {
		for _, cell := range row {
			if cell == 1 {
				cloudy++
			}
		}
	}
	assert.Positive(t, cloudy)
}

func readMockDay(t *testing.T) domain.RawDay {
	t.Helper()

	path := filepath.Join("..", "..", "data", "mock", "observation_day_19980504.json")
	value, err := os.ReadFile(path)
	require.NoError(t, err)

	return domain.RawDay{
		Key:   []byte("1998-05-04"),
		Value: value,
		Topic: "raw-observation-days",
	}
}
