package domain

import (
	"context"
	"time"
)

// Sensor kinds understood by the detector table.
const (
	SensorLidar = "lidar"
	SensorRadar = "radar"
)

// SensorObservation is one instrument's day of native-grid data as the
// collector flattens it from the archival container. Which grid fields
// are populated depends on Kind: lidars carry the five detection inputs
// plus raw depolarization, radar products carry a vendor-precomputed
// cloud mask.
type SensorObservation struct {
	Instrument string `json:"instrument"` // e.g. "dabul", "ahsrl", "mmcr"
	Kind       string `json:"kind"`       // "lidar" or "radar"

	// TimeOffsets are raw seconds since the instrument's clock datum and
	// may wrap at local midnight; Heights are meters, strictly increasing.
	TimeOffsets []float64 `json:"time_offsets"`
	Heights     []float64 `json:"heights"`

	// Flag is the stream's missing-value marker (-999 / -9999 style).
	Flag float64 `json:"flag"`

	// Lidar grids, row per time step, column per height level.
	OpticalDepth     [][]float64 `json:"optical_depth,omitempty"`
	Backscatter      [][]float64 `json:"backscatter,omitempty"`
	BackscatterNoise [][]float64 `json:"backscatter_noise,omitempty"`
	MolecularCounts  [][]float64 `json:"molecular_counts,omitempty"`
	DarkCounts       []float64   `json:"dark_counts,omitempty"`
	Depolarization   [][]float64 `json:"depolarization,omitempty"`

	// Radar product grid.
	VendorMask [][]float64 `json:"vendor_mask,omitempty"`
}

// DayObservation is the payload of one source-topic message: every
// contributing sensor's grids for a single observation day, plus the
// platform position the collector read from the container.
type DayObservation struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Observatory string  `json:"observatory"`
	Latitude    float64 `json:"latitude"`  // decimal degrees north
	Longitude   float64 `json:"longitude"` // decimal degrees east

	Sensors []SensorObservation `json:"sensors"`
}

// RawDay is an unprocessed message from the source topic.
type RawDay struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SensorProduct is one instrument's contribution to the daily product:
// its repaired time axis, its native cloud mask, and, for lidars, the
// mask-gated fixed-point depolarization grid.
type SensorProduct struct {
	Instrument string    `json:"instrument"`
	Times      []int64   `json:"times"`
	Heights    []float64 `json:"heights"`
	Mask       [][]int8  `json:"mask"`

	Depolarization [][]int `json:"depolarization,omitempty"`
}

// CloudProduct is the sink-topic message: the fused coarse mask, the
// per-timestep cloud-layer extents, and the per-sensor products they
// were fused from. Platform angles ship decomposed because the container
// stores them as four small integers.
type CloudProduct struct {
	Date        string `json:"date"`
	Observatory string `json:"observatory"`
	Latitude    DMS    `json:"latitude"`
	Longitude   DMS    `json:"longitude"`

	CoarseTimes   []int64       `json:"coarse_times"`
	CoarseHeights []float64     `json:"coarse_heights"`
	FusedMask     [][]int8      `json:"fused_mask"`
	Extents       []CloudExtent `json:"extents"`

	Sensors []SensorProduct `json:"sensors"`

	ProcessedAt time.Time `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
