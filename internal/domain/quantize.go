package domain

import "math"

// IntRange describes the representable bounds of a target integer width.
// Min doubles as the in-band sentinel meaning "no data" for every variable
// stored at that width.
type IntRange struct {
	Min int
	Max int
}

// Integer ranges used by the archival container format. The names follow
// the container's width/signedness codes: I = signed, U = unsigned,
// suffix = bytes.
var (
	RangeI1 = IntRange{Min: math.MinInt8, Max: math.MaxInt8}
	RangeI2 = IntRange{Min: math.MinInt16, Max: math.MaxInt16}
	RangeI4 = IntRange{Min: math.MinInt32, Max: math.MaxInt32}
	RangeU1 = IntRange{Min: 0, Max: math.MaxUint8}
	RangeU2 = IntRange{Min: 0, Max: math.MaxUint16}
)

// QuantSpec fixes how one physical variable is encoded as a fixed-width
// integer. It is constructed once per variable and shared by every sample
// of that variable.
//
// Flag is the variable's missing-value marker as it appears in the raw
// stream (NOAA-style -999 / -9999 sentinels). A NaN Flag never matches any
// sample, so variables without a declared marker should use math.NaN().
//
// Scale of zero means unscaled (1); this keeps the zero value of the
// struct usable for plain integer passthrough variables.
type QuantSpec struct {
	Range  IntRange
	Scale  float64
	Offset float64
	Flag   float64

	// Binary, when non-nil, declares a two-point codebook [lo, hi] for
	// fields whose true domain is bimodal but sampled as a continuum.
	Binary *[2]float64
}

// Quantize converts one physical sample into its fixed-width integer code.
//
// Out-of-domain input never produces an error: a sample equal to the
// spec's missing marker, a NaN, or an encoded value outside the target
// range all degrade to the range minimum. Under the rails discipline,
// out-of-range data is indistinguishable from missing data, rather than
// being clipped to a plausible-looking bound.
//
// Continuous values round half away from zero (math.Round); the binary
// codebook sends midpoint ties to hi.
func Quantize(value float64, spec QuantSpec) int {
	if value == spec.Flag {
		return spec.Range.Min
	}
	scale := spec.Scale
	if scale == 0 {
		scale = 1
	}
	encoded := spec.Offset*scale + value*scale
	if math.IsNaN(encoded) || encoded <= float64(spec.Range.Min) || float64(spec.Range.Max) < encoded {
		return spec.Range.Min
	}
	if spec.Binary != nil {
		lo, hi := spec.Binary[0], spec.Binary[1]
		midpoint := (lo + hi) / 2
		switch {
		case encoded < lo || hi < encoded:
			return spec.Range.Min
		case encoded < midpoint:
			return int(lo)
		default:
			return int(hi)
		}
	}
	return int(math.Round(encoded))
}
