package domain

import "iter"

// Padding is the number of cells a window extends from its anchor in each
// direction.
type Padding struct {
	Left   int
	Right  int
	Bottom int
	Top    int
}

// GridWindow is a 2-D neighborhood of a requested length (time axis) and
// height (range axis). Even sizes are biased one cell toward the
// right/top: a length-2 window has no cell left of the anchor and one to
// the right.
type GridWindow struct {
	Length  int
	Height  int
	Padding Padding
}

// NewGridWindow derives the padding and anchor bias for a length x height
// neighborhood.
func NewGridWindow(length, height int) GridWindow {
	hLeft, hRight := axisPadding(length)
	vBottom, vTop := axisPadding(height)
	return GridWindow{
		Length: length,
		Height: height,
		Padding: Padding{
			Left:   hLeft,
			Right:  hRight,
			Bottom: vBottom,
			Top:    vTop,
		},
	}
}

// axisPadding splits a window size across an axis: ceil(n/2)-1 cells
// before the anchor, floor(n/2) after.
func axisPadding(size int) (before, after int) {
	return (size+1)/2 - 1, size / 2
}

// Members enumerates the (i, j) indices covered by the window anchored at
// (x, y), inclusive on all edges. The sequence is lazy and restartable;
// callers translate a window by passing the cell's own coordinates.
func (w GridWindow) Members(x, y int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for i := x - w.Padding.Left; i <= x+w.Padding.Right; i++ {
			for j := y - w.Padding.Bottom; j <= y+w.Padding.Top; j++ {
				if !yield(i, j) {
					return
				}
			}
		}
	}
}
