package domain

import "math"

// DMS is a decomposed angle: a sign and nonnegative base-60 components.
// The container stores angles as four small integers instead of one wide
// float, and the magnitude never exceeds 180 degrees, so an angle of 190
// is represented as -170.
type DMS struct {
	Sign    int `json:"sign"` // +1 or -1
	Degrees int `json:"degrees"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// DecomposeAngle converts a signed decimal-degree angle into sign + DMS.
// Full rotations are removed first, then angles above 180 map to their
// negative equivalent in (-180, 180]. -180 and +180 share the single
// representation (+1, 180, 0, 0); every multiple of 360 decomposes to
// (+1, 0, 0, 0).
func DecomposeAngle(angle float64) DMS {
	// Remove full rotations. math.Mod keeps the sign of the dividend,
	// so fold negatives back into [0, 360).
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle > 180 {
		angle -= 360
	}
	sign := 1
	if angle < 0 {
		sign = -1
	}
	angle = math.Abs(angle)

	totalSeconds := angle * 3600
	minutes := math.Floor(totalSeconds / 60)
	seconds := totalSeconds - minutes*60
	degrees := math.Floor(minutes / 60)
	minutes -= degrees * 60

	return DMS{
		Sign:    sign,
		Degrees: int(degrees),
		Minutes: int(minutes),
		Seconds: int(math.Round(seconds)),
	}
}
