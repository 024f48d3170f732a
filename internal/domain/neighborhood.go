package domain

import (
	"fmt"
	"math"
)

// Direction selects which side of a threshold counts as a detection.
type Direction int

const (
	// AtLeast marks neighborhoods whose values all reach the threshold.
	AtLeast Direction = iota
	// Below marks neighborhoods whose values all stay under the threshold.
	Below
)

// Threshold is a scaled cut value with a direction.
type Threshold struct {
	Value     float64
	Direction Direction
}

func (t Threshold) passes(v float64) bool {
	if t.Direction == Below {
		return v < t.Value
	}
	return t.Value <= v
}

// NeighborhoodRequest describes a window-threshold mask derivation over a
// fixed-point grid.
type NeighborhoodRequest struct {
	Values    [][]float64
	Window    GridWindow
	Threshold Threshold

	// Scale is the fixed-point scale of Values; zero means unscaled.
	Scale float64

	// Flag is the sentinel marking missing cells. NaN cells are always
	// treated as missing; set Flag to NaN when there is no in-band
	// sentinel.
	Flag float64
}

// NeighborhoodMask marks every cell that belongs to at least one complete
// window whose members all pass the threshold test. Isolated detections
// smaller than the window are suppressed; dense regions survive with
// their shape intact. A window touching a missing cell never qualifies;
// gaps are not evidence.
//
// Windows are only evaluated where they fit entirely inside the grid, so
// cells within the padding margin can only be marked by an interior
// neighbor's window.
func NeighborhoodMask(req NeighborhoodRequest) ([][]int8, error) {
	rows := len(req.Values)
	if rows == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrShapeMismatch)
	}
	cols := len(req.Values[0])
	for i, row := range req.Values {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: ragged row %d", ErrShapeMismatch, i)
		}
	}
	pad := req.Window.Padding
	if pad.Left+pad.Right+1 > rows || pad.Bottom+pad.Top+1 > cols {
		return nil, fmt.Errorf("%w: %dx%d window over %dx%d grid",
			ErrWindowTooLarge, req.Window.Length, req.Window.Height, rows, cols)
	}
	scale := req.Scale
	if scale == 0 {
		scale = 1
	}

	mask := make([][]int8, rows)
	for i := range mask {
		mask[i] = make([]int8, cols)
	}
	for x := pad.Left; x < rows-pad.Right; x++ {
		for y := pad.Bottom; y < cols-pad.Top; y++ {
			qualifies := true
			for i, j := range req.Window.Members(x, y) {
				v := req.Values[i][j]
				if math.IsNaN(v) || v == req.Flag || !req.Threshold.passes(v/scale) {
					qualifies = false
					break
				}
			}
			if !qualifies {
				continue
			}
			for i, j := range req.Window.Members(x, y) {
				mask[i][j] = 1
			}
		}
	}
	return mask, nil
}
