package domain

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// FusionConfig fixes the shared coarse grid the per-sensor masks are
// re-binned onto and the reporting rules for cloud extents.
type FusionConfig struct {
	// TimeStep is the coarse time stride in seconds; native rows within
	// half a stride of a coarse step contribute to its cell.
	TimeStep int64

	// HeightStep is the coarse height stride in meters.
	HeightStep float64

	// MinHeight is the minimum detectable height: coarse levels at or
	// below it are never reported (near-field clutter dominates there).
	MinHeight float64

	// DaySpan is the number of seconds the coarse time axis covers.
	DaySpan int64

	// TimeSmoother, when set, is applied to each height level's
	// per-timestep cloudiness series before extents are extracted.
	// The run-length persistence filter plugs in here once its
	// reference behavior is settled; nil means no smoothing.
	TimeSmoother func([]bool) []bool
}

// DefaultFusionConfig returns the operational 30 s x 90 m coarse grid
// with a 500 m detection floor over one calendar day.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		TimeStep:   30,
		HeightStep: 90,
		MinHeight:  500,
		DaySpan:    secondsPerDay,
	}
}

// CloudExtent lists the cloud-layer boundaries found in one coarse time
// step. Bases and tops pair left to right in discovery order: the first
// base closes at the first top. The lists are always the same length.
type CloudExtent struct {
	Time  int64     `json:"time"`
	Bases []float64 `json:"bases"`
	Tops  []float64 `json:"tops"`
}

// MergeMasks re-bins each sensor's native mask onto the shared coarse
// grid and fuses them by majority vote: a coarse cell is cloudy when any
// single sensor sees cloud in at least half of its native cells under
// that coarse cell. Sensors vote independently; they need not agree.
//
// The coarse height axis stops at the lowest of the sensors' maximum
// heights, so a short-range sensor bounds the fused grid. Coarse cells
// with no native cells from any sensor stay clear.
func MergeMasks(masks []*Mask, cfg FusionConfig) (*Mask, error) {
	if len(masks) == 0 {
		return nil, fmt.Errorf("%w: no masks to merge", ErrShapeMismatch)
	}
	for i, m := range masks {
		if r, c := m.Dims(); r == 0 || c == 0 {
			return nil, fmt.Errorf("%w: mask %d is empty", ErrShapeMismatch, i)
		}
	}

	maxHeight := masks[0].Heights()[len(masks[0].Heights())-1]
	for _, m := range masks[1:] {
		if top := m.Heights()[len(m.Heights())-1]; top < maxHeight {
			maxHeight = top
		}
	}

	var times []int64
	for t := int64(0); t <= cfg.DaySpan; t += cfg.TimeStep {
		times = append(times, t)
	}
	var heights []float64
	for h := 0.0; h <= maxHeight; h += cfg.HeightStep {
		heights = append(heights, h)
	}

	fused := NewMask(times, heights)
	halfTime := cfg.TimeStep / 2
	halfHeight := cfg.HeightStep / 2
	for i, t := range times {
		// Native row selections depend only on the coarse time, so hoist
		// them out of the height loop.
		rowSets := make([][]int, len(masks))
		for s, m := range masks {
			rowSets[s] = selectTimes(m.Times(), t-halfTime, t+halfTime)
		}
		for j, h := range heights {
			if h < cfg.MinHeight {
				continue
			}
			for s, m := range masks {
				cols := selectHeights(m.Heights(), h-halfHeight, h+halfHeight)
				if votesCloudy(m, rowSets[s], cols) {
					fused.Set(i, j, true)
					break
				}
			}
		}
	}
	return fused, nil
}

// selectTimes returns the indices of labels in [lo, hi).
func selectTimes(labels []int64, lo, hi int64) []int {
	var idx []int
	for i, v := range labels {
		if lo <= v && v < hi {
			idx = append(idx, i)
		}
	}
	return idx
}

// selectHeights returns the indices of labels in [lo, hi).
func selectHeights(labels []float64, lo, hi float64) []int {
	var idx []int
	for i, v := range labels {
		if lo <= v && v < hi {
			idx = append(idx, i)
		}
	}
	return idx
}

// votesCloudy reports whether the mean mask value over the sub-block is
// at least one half. An empty sub-block abstains.
func votesCloudy(m *Mask, rows, cols []int) bool {
	if len(rows) == 0 || len(cols) == 0 {
		return false
	}
	values := make([]float64, 0, len(rows)*len(cols))
	for _, i := range rows {
		for _, j := range cols {
			if m.At(i, j) {
				values = append(values, 1)
			} else {
				values = append(values, 0)
			}
		}
	}
	return stat.Mean(values, nil) >= 0.5
}

// ExtractExtents scans every coarse time column bottom to top and records
// the contiguous cloud-layer base/top pairs. A clear-to-cloudy transition
// emits a base, cloudy-to-clear emits the matching top, and a layer still
// cloudy at the top of the scanned range closes at the highest scanned
// height. Boundaries are pushed outward by half the height stride, since
// a detection at a coarse level stands for the whole stride.
//
// Levels at or below the minimum detectable height are skipped. One
// CloudExtent is returned per coarse time step, cloudy or not.
func ExtractExtents(fused *Mask, cfg FusionConfig) []CloudExtent {
	heights := fused.Heights()
	times := fused.Times()
	half := cfg.HeightStep / 2

	columns := smoothedColumns(fused, cfg)

	extents := make([]CloudExtent, len(times))
	for i, t := range times {
		extent := CloudExtent{Time: t, Bases: []float64{}, Tops: []float64{}}
		cloudy := false
		lastScanned := 0.0
		for j := range heights {
			h := heights[j]
			if h <= cfg.MinHeight {
				continue
			}
			cell := columns[j][i]
			switch {
			case cell && !cloudy:
				extent.Bases = append(extent.Bases, h-half)
				cloudy = true
			case !cell && cloudy:
				extent.Tops = append(extent.Tops, lastScanned+half)
				cloudy = false
			}
			lastScanned = h
		}
		if cloudy {
			extent.Tops = append(extent.Tops, lastScanned+half)
		}
		extents[i] = extent
	}
	return extents
}

// smoothedColumns returns the mask transposed to per-height time series,
// run through the configured smoother when one is set.
func smoothedColumns(fused *Mask, cfg FusionConfig) [][]bool {
	rows, cols := fused.Dims()
	columns := make([][]bool, cols)
	for j := 0; j < cols; j++ {
		series := make([]bool, rows)
		for i := 0; i < rows; i++ {
			series[i] = fused.At(i, j)
		}
		if cfg.TimeSmoother != nil {
			series = cfg.TimeSmoother(series)
		}
		columns[j] = series
	}
	return columns
}
