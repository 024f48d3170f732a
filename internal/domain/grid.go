package domain

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShapeMismatch reports grids whose dimensions or labels do not
	// line up. Alignment failures are hard errors: silently truncating
	// would corrupt scientific results.
	ErrShapeMismatch = errors.New("grid shape mismatch")

	// ErrWindowTooLarge reports a neighborhood window that does not fit
	// inside the grid it is applied to.
	ErrWindowTooLarge = errors.New("window larger than grid")
)

// Grid is a time-height grid of physical values: one row per time step,
// one column per height level. Times are seconds since the start of the
// observation day, heights are meters above the instrument.
type Grid struct {
	times   []int64
	heights []float64
	values  *mat.Dense
}

// NewGrid builds a grid and enforces its shape invariants: every row has
// one value per height label and there is one row per time label. Height
// labels must be strictly increasing; time labels must be non-decreasing
// (repaired timestamp sequences may repeat a tick).
func NewGrid(times []int64, heights []float64, values [][]float64) (*Grid, error) {
	if len(values) != len(times) {
		return nil, fmt.Errorf("%w: %d rows for %d time labels", ErrShapeMismatch, len(values), len(times))
	}
	for i, row := range values {
		if len(row) != len(heights) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d height labels", ErrShapeMismatch, i, len(row), len(heights))
		}
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return nil, fmt.Errorf("%w: time labels decrease at index %d", ErrShapeMismatch, i)
		}
	}
	for j := 1; j < len(heights); j++ {
		if heights[j] <= heights[j-1] {
			return nil, fmt.Errorf("%w: height labels not strictly increasing at index %d", ErrShapeMismatch, j)
		}
	}
	dense := mat.NewDense(len(times), len(heights), nil)
	for i, row := range values {
		dense.SetRow(i, row)
	}
	return &Grid{times: times, heights: heights, values: dense}, nil
}

// Dims returns (time steps, height levels).
func (g *Grid) Dims() (rows, cols int) { return g.values.Dims() }

// At returns the value at time index i, height index j.
func (g *Grid) At(i, j int) float64 { return g.values.At(i, j) }

// Set writes the value at time index i, height index j.
func (g *Grid) Set(i, j int, v float64) { g.values.Set(i, j, v) }

// Times returns the time labels. The slice is shared, not copied.
func (g *Grid) Times() []int64 { return g.times }

// Heights returns the height labels. The slice is shared, not copied.
func (g *Grid) Heights() []float64 { return g.heights }

// Row copies the values of time step i into a new slice.
func (g *Grid) Row(i int) []float64 {
	return mat.Row(nil, i, g.values)
}

// Col copies the values of height level j into a new slice.
func (g *Grid) Col(j int) []float64 {
	return mat.Col(nil, j, g.values)
}

// Clone returns a deep copy sharing no storage with the receiver.
func (g *Grid) Clone() *Grid {
	dense := mat.DenseCopyOf(g.values)
	times := make([]int64, len(g.times))
	copy(times, g.times)
	heights := make([]float64, len(g.heights))
	copy(heights, g.heights)
	return &Grid{times: times, heights: heights, values: dense}
}

// Aligned reports whether every grid shares the dimensions of the first.
func Aligned(grids ...*Grid) error {
	if len(grids) < 2 {
		return nil
	}
	r0, c0 := grids[0].Dims()
	for i, g := range grids[1:] {
		r, c := g.Dims()
		if r != r0 || c != c0 {
			return fmt.Errorf("%w: grid %d is %dx%d, want %dx%d", ErrShapeMismatch, i+1, r, c, r0, c0)
		}
	}
	return nil
}

// Mask is a boolean time-height grid: one cell per (time, height) of a
// single sensor's native grid. Computed once from the sensor's physical
// grids and never mutated after fusion consumes it.
type Mask struct {
	times   []int64
	heights []float64
	cells   [][]bool
}

// NewMask builds an all-false mask over the given labels.
func NewMask(times []int64, heights []float64) *Mask {
	cells := make([][]bool, len(times))
	for i := range cells {
		cells[i] = make([]bool, len(heights))
	}
	return &Mask{times: times, heights: heights, cells: cells}
}

// Dims returns (time steps, height levels).
func (m *Mask) Dims() (rows, cols int) { return len(m.times), len(m.heights) }

// At reports whether the cell at time index i, height index j is cloudy.
func (m *Mask) At(i, j int) bool { return m.cells[i][j] }

// Set marks the cell at time index i, height index j.
func (m *Mask) Set(i, j int, cloudy bool) { m.cells[i][j] = cloudy }

// Times returns the time labels. The slice is shared, not copied.
func (m *Mask) Times() []int64 { return m.times }

// Heights returns the height labels. The slice is shared, not copied.
func (m *Mask) Heights() []float64 { return m.heights }

// Cells renders the mask as int8 rows, 1 for cloudy and 0 for clear, the
// form the container stores.
func (m *Mask) Cells() [][]int8 {
	out := make([][]int8, len(m.cells))
	for i, row := range m.cells {
		out[i] = make([]int8, len(row))
		for j, cloudy := range row {
			if cloudy {
				out[i][j] = 1
			}
		}
	}
	return out
}
