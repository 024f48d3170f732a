package domain

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lidarTestTimes   = []int64{0, 10, 20, 30, 40}
	lidarTestHeights = []float64{100, 200, 300, 400, 500}
)

func lidarTestGrid(t *testing.T, fill float64) *Grid {
	t.Helper()
	values := make([][]float64, len(lidarTestTimes))
	for i := range values {
		values[i] = make([]float64, len(lidarTestHeights))
		for j := range values[i] {
			values[i][j] = fill
		}
	}
	g, err := NewGrid(lidarTestTimes, lidarTestHeights, values)
	require.NoError(t, err)
	return g
}

// lidarTestDay builds a day with a dense 3x3 cloud block at rows 1-3,
// columns 1-3: strong backscatter and elevated optical depth inside the
// block, clean air elsewhere.
func lidarTestDay(t *testing.T) LidarGrids {
	t.Helper()

	backscatter := lidarTestGrid(t, 2e-7)
	optical := lidarTestGrid(t, 0.51)
	for i := 1; i <= 3; i++ {
		for j := 1; j <= 3; j++ {
			backscatter.Set(i, j, 2e-6)
			optical.Set(i, j, 0.6)
		}
	}
	for i := range lidarTestTimes {
		// Column 0 carries the per-profile calibration offset.
		optical.Set(i, 0, 0.5)
	}

	return LidarGrids{
		OpticalDepth:     optical,
		Backscatter:      backscatter,
		BackscatterNoise: lidarTestGrid(t, 1e-9),
		MolecularCounts:  lidarTestGrid(t, 10),
		DarkCounts:       []float64{1, 1, 1, 1, 1},
	}
}

func TestDetectLidarClouds(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultLidarThresholds()

	t.Run("dense block detected", func(t *testing.T) {
		grids := lidarTestDay(t)
		mask, adjusted, err := DetectLidarClouds(ctx, grids, cfg)

		require.NoError(t, err)
		assert.Equal(t, bitMask(
			"00000",
			"01110",
			"01110",
			"01110",
			"00000",
		), mask.Cells())

		// Interior profiles are re-zeroed against their first
		// significant return; boundary rows pass through untouched.
		assert.InDelta(t, 0.0, adjusted.At(2, 0), 1e-12)
		assert.InDelta(t, 0.1, adjusted.At(2, 2), 1e-12)
		assert.InDelta(t, 0.01, adjusted.At(2, 4), 1e-12)
		assert.Equal(t, 0.5, adjusted.At(0, 0))
		assert.Equal(t, 0.51, adjusted.At(0, 2))
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		grids := lidarTestDay(t)
		_, _, err := DetectLidarClouds(ctx, grids, cfg)

		require.NoError(t, err)
		assert.Equal(t, 0.5, grids.OpticalDepth.At(2, 0))
		assert.Equal(t, 0.6, grids.OpticalDepth.At(2, 2))
	})

	t.Run("no significant return leaves row alone", func(t *testing.T) {
		grids := lidarTestDay(t)
		for j := range lidarTestHeights {
			grids.Backscatter.Set(2, j, 5e-8)
		}
		mask, adjusted, err := DetectLidarClouds(ctx, grids, cfg)

		require.NoError(t, err)
		for j := range lidarTestHeights {
			assert.False(t, mask.At(2, j), "column %d", j)
			assert.Equal(t, grids.OpticalDepth.At(2, j), adjusted.At(2, j), "column %d", j)
		}
	})

	t.Run("missing molecular counts clear the cell", func(t *testing.T) {
		grids := lidarTestDay(t)
		grids.MolecularCounts.Set(2, 2, math.NaN())
		mask, _, err := DetectLidarClouds(ctx, grids, cfg)

		require.NoError(t, err)
		assert.False(t, mask.At(2, 2))
		assert.True(t, mask.At(1, 1))
	})

	t.Run("isolated spike fails the neighborhood gate", func(t *testing.T) {
		grids := lidarTestDay(t)
		// Collapse the block to a single hot cell.
		for i := 1; i <= 3; i++ {
			for j := 1; j <= 3; j++ {
				grids.Backscatter.Set(i, j, 2e-7)
				grids.OpticalDepth.Set(i, j, 0.51)
			}
		}
		grids.Backscatter.Set(2, 2, 2e-6)
		grids.OpticalDepth.Set(2, 2, 0.6)
		mask, _, err := DetectLidarClouds(ctx, grids, cfg)

		require.NoError(t, err)
		for i := range lidarTestTimes {
			for j := range lidarTestHeights {
				assert.False(t, mask.At(i, j), "cell (%d,%d)", i, j)
			}
		}
	})

	t.Run("single worker matches default", func(t *testing.T) {
		grids := lidarTestDay(t)
		serial := cfg
		serial.Workers = 1
		parallel, _, err := DetectLidarClouds(ctx, grids, cfg)
		require.NoError(t, err)
		sequential, _, err := DetectLidarClouds(ctx, grids, serial)
		require.NoError(t, err)

		assert.Equal(t, parallel.Cells(), sequential.Cells())
	})

	t.Run("misaligned grids rejected", func(t *testing.T) {
		grids := lidarTestDay(t)
		small, err := NewGrid([]int64{0, 10}, []float64{100, 200}, [][]float64{{1, 1}, {1, 1}})
		require.NoError(t, err)
		grids.MolecularCounts = small

		_, _, err = DetectLidarClouds(ctx, grids, cfg)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("dark count length rejected", func(t *testing.T) {
		grids := lidarTestDay(t)
		grids.DarkCounts = []float64{1, 1}

		_, _, err := DetectLidarClouds(ctx, grids, cfg)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestMaskDepolarization(t *testing.T) {
	depol, err := NewGrid([]int64{0, 10}, []float64{100, 200}, [][]float64{
		{0.5, math.NaN()},
		{2, 0.001},
	})
	require.NoError(t, err)

	mask := NewMask([]int64{0, 10}, []float64{100, 200})
	mask.Set(0, 0, true)
	mask.Set(1, 0, true)
	mask.Set(1, 1, true)

	t.Run("mask gates quantization", func(t *testing.T) {
		out, err := MaskDepolarization(depol, mask, DepolarizationSpec)

		require.NoError(t, err)
		assert.Equal(t, [][]int{
			{500, RangeI2.Min},
			{2000, 1},
		}, out)
	})

	t.Run("shape mismatch rejected", func(t *testing.T) {
		wide := NewMask([]int64{0, 10}, []float64{100, 200, 300})
		_, err := MaskDepolarization(depol, wide, DepolarizationSpec)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestMaskFromVendor(t *testing.T) {
	vendor, err := NewGrid([]int64{0, 10}, []float64{100, 200, 300}, [][]float64{
		{1, 0, 1.2},
		{-999, 0.7, 0.4},
	})
	require.NoError(t, err)

	mask := MaskFromVendor(vendor, -999)

	// Vendor sentinels and out-of-codebook values degrade to clear; the
	// continuum snaps to the nearer of 0 and 1.
	assert.Equal(t, bitMask(
		"100",
		"010",
	), mask.Cells())
	assert.True(t, mask.At(0, 0))
	assert.False(t, mask.At(0, 2))
	assert.False(t, mask.At(1, 0))
	assert.True(t, mask.At(1, 1))
}
