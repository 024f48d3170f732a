// Package domain implements the numeric engine that turns archival
// atmospheric remote-sensing data (lidar, cloud radar) into normalized
// cloud products.
//
// # Data Source
//
// Arctic observatories (SHEBA, Eureka, Utqiagvik) archive their
// instrument data in binary containers of named, dimensioned arrays. The
// upstream collector service selects the files for one observation day,
// loads the arrays, and publishes a flat JSON bundle per day to the
// Kafka source topic. This package never touches the container format;
// it sees plain float grids.
//
// # Time-Height Grids
//
// Every instrument reports on its own native grid: one row per time
// step, one column per height level. Time labels are seconds since the
// start of the observation day; instrument clocks reset near local
// midnight, so raw offsets can wrap and are repaired by [RepairOffsets]
// before use. Height labels are meters and strictly increase.
//
// # Rails Quantization
//
// The container stores physical values as fixed-width integers under a
// per-variable scale and offset. The minimum representable value of each
// width is reserved as the in-band "no data" sentinel, and conversion
// follows the rails discipline: missing markers, NaN, and out-of-range
// values all become the sentinel rather than a clipped-but-plausible
// number. Downstream consumers distinguish "measured zero" from
// "missing" by value alone, so which sentinel a variable uses is part of
// its contract. See [Quantize].
//
// Angles are the exception: they ship as four small integers
// (sign, degrees, minutes, seconds) via [DecomposeAngle].
//
// # Cloud Detection and Fusion
//
// Each lidar day runs through the threshold detector
// ([DetectLidarClouds]): SNR, backscatter, and re-zeroed optical-depth
// tests gated by a 3x3 neighborhood vote that rejects single-cell noise.
// Radar products arrive with a vendor-precomputed mask
// ([MaskFromVendor]). The per-sensor masks, each on its native grid,
// are re-binned onto a shared coarse grid and fused by OR-of-majorities
// ([MergeMasks]); the fused columns are scanned for contiguous
// cloud-layer base/top pairs ([ExtractExtents]).
//
// Out-of-domain numeric input is never an error anywhere in the engine:
// instrument streams routinely contain gaps and must still produce a
// structurally valid output grid. Shape and alignment mismatches, by
// contrast, are hard failures ([ErrShapeMismatch]).
package domain
