package domain

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrBadWaveletOrder reports a wavelet order too small to hold the
// quarter/half/quarter bands of the kernel.
var ErrBadWaveletOrder = errors.New("wavelet order must be at least 2")

// Wavelet is a 1-D edge-detection kernel of dyadic length.
type Wavelet struct {
	Order  int
	Norm   float64
	Values []float64
}

// Len returns the kernel length, 2^order.
func (w Wavelet) Len() int { return len(w.Values) }

// TopHat builds the normalized step kernel of the given order: a quarter
// of the taps at -norm, half at +norm, and the last quarter at -norm,
// with norm = 1/sqrt(2^(order+1)). The taps sum to exactly zero, so the
// kernel has no DC response; its dot product with a window of samples
// responds only to edges. Orders below 2 cannot hold the three bands.
func TopHat(order int) (Wavelet, error) {
	if order < 2 {
		return Wavelet{}, fmt.Errorf("%w: got %d", ErrBadWaveletOrder, order)
	}
	length := 1 << order
	norm := 1 / math.Sqrt(float64(int64(1)<<(order+1)))
	values := make([]float64, length)
	quarter := length / 4
	for i := range values {
		if i < quarter || length-quarter <= i {
			values[i] = -norm
		} else {
			values[i] = norm
		}
	}
	return Wavelet{Order: order, Norm: norm, Values: values}, nil
}

// Convolve slides the kernel along the signal and returns the dot product
// at every position where the full kernel fits. Positions too close to
// either edge are NaN rather than padded, and a NaN anywhere under the
// kernel propagates to the result, so gaps in the signal stay gaps in
// the response.
func Convolve(signal []float64, w Wavelet) []float64 {
	out := make([]float64, len(signal))
	for i := range out {
		out[i] = math.NaN()
	}
	left, right := axisPadding(w.Len())
	for i := left; i+right < len(signal); i++ {
		window := signal[i-left : i+right+1]
		if hasNaN(window) {
			continue
		}
		out[i] = floats.Dot(w.Values, window)
	}
	return out
}

// ConvolveColumns applies the kernel along the time axis of every height
// level, producing a grid of edge responses on the same labels.
func ConvolveColumns(g *Grid, w Wavelet) *Grid {
	rows, cols := g.Dims()
	out := g.Clone()
	for j := 0; j < cols; j++ {
		response := Convolve(g.Col(j), w)
		for i := 0; i < rows; i++ {
			out.Set(i, j, response[i])
		}
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
