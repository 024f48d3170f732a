package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// DepolarizationSpec is the fixed-point contract for shipped lidar
// depolarization ratios: thousandths of the raw ratio in int16 rails.
var DepolarizationSpec = QuantSpec{Range: RangeI2, Scale: 1000}

// DetectorConfig carries the per-day processing tunables: the lidar
// threshold set and the fusion grid parameters.
type DetectorConfig struct {
	Lidar  LidarThresholds
	Fusion FusionConfig
}

// DefaultDetectorConfig returns the operational thresholds and grid steps.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Lidar:  DefaultLidarThresholds(),
		Fusion: DefaultFusionConfig(),
	}
}

// ParseRawDay deserializes a RawDay's value into a DayObservation.
// It expects the flat per-day JSON bundle produced by the collector service.
func ParseRawDay(raw RawDay) (DayObservation, error) {
	var day DayObservation
	if err := json.Unmarshal(raw.Value, &day); err != nil {
		return DayObservation{}, fmt.Errorf("parse raw day: %w", err)
	}
	if day.Date == "" {
		return DayObservation{}, errors.New("parse raw day: missing date")
	}
	if len(day.Sensors) == 0 {
		return DayObservation{}, errors.New("parse raw day: no sensors")
	}
	return day, nil
}

// ProcessDay runs every sensor through the detector for its kind, fuses
// the native masks onto the shared coarse grid, extracts layer extents,
// and assembles the daily product.
func ProcessDay(ctx context.Context, day DayObservation, cfg DetectorConfig) (CloudProduct, error) {
	products := make([]SensorProduct, 0, len(day.Sensors))
	masks := make([]*Mask, 0, len(day.Sensors))
	for _, sensor := range day.Sensors {
		product, mask, err := processSensor(ctx, sensor, cfg)
		if err != nil {
			return CloudProduct{}, fmt.Errorf("sensor %s: %w", sensor.Instrument, err)
		}
		products = append(products, product)
		masks = append(masks, mask)
	}

	fused, err := MergeMasks(masks, cfg.Fusion)
	if err != nil {
		return CloudProduct{}, fmt.Errorf("merge masks: %w", err)
	}

	return CloudProduct{
		Date:          day.Date,
		Observatory:   day.Observatory,
		Latitude:      DecomposeAngle(day.Latitude),
		Longitude:     DecomposeAngle(day.Longitude),
		CoarseTimes:   fused.Times(),
		CoarseHeights: fused.Heights(),
		FusedMask:     fused.Cells(),
		Extents:       ExtractExtents(fused, cfg.Fusion),
		Sensors:       products,
		ProcessedAt:   clock.Now(),
	}, nil
}

// processSensor dispatches on the sensor kind. The time axis is repaired
// first; everything downstream assumes monotonic labels.
func processSensor(ctx context.Context, sensor SensorObservation, cfg DetectorConfig) (SensorProduct, *Mask, error) {
	times := RepairOffsets(sensor.TimeOffsets)

	switch sensor.Kind {
	case SensorLidar:
		return processLidar(ctx, sensor, times, cfg.Lidar)
	case SensorRadar:
		return processRadar(sensor, times)
	default:
		return SensorProduct{}, nil, fmt.Errorf("unknown sensor kind %q", sensor.Kind)
	}
}

func processLidar(ctx context.Context, sensor SensorObservation, times []int64, cfg LidarThresholds) (SensorProduct, *Mask, error) {
	grids, err := lidarGrids(sensor, times)
	if err != nil {
		return SensorProduct{}, nil, err
	}

	mask, _, err := DetectLidarClouds(ctx, grids, cfg)
	if err != nil {
		return SensorProduct{}, nil, err
	}

	product := SensorProduct{
		Instrument: sensor.Instrument,
		Times:      times,
		Heights:    sensor.Heights,
		Mask:       mask.Cells(),
	}

	if sensor.Depolarization != nil {
		depol, err := newSensorGrid(times, sensor.Heights, sensor.Depolarization, sensor.Flag)
		if err != nil {
			return SensorProduct{}, nil, fmt.Errorf("depolarization: %w", err)
		}
		product.Depolarization, err = MaskDepolarization(depol, mask, DepolarizationSpec)
		if err != nil {
			return SensorProduct{}, nil, err
		}
	}

	return product, mask, nil
}

func processRadar(sensor SensorObservation, times []int64) (SensorProduct, *Mask, error) {
	vendor, err := newSensorGrid(times, sensor.Heights, sensor.VendorMask, math.NaN())
	if err != nil {
		return SensorProduct{}, nil, fmt.Errorf("vendor mask: %w", err)
	}

	mask := MaskFromVendor(vendor, sensor.Flag)
	return SensorProduct{
		Instrument: sensor.Instrument,
		Times:      times,
		Heights:    sensor.Heights,
		Mask:       mask.Cells(),
	}, mask, nil
}

func lidarGrids(sensor SensorObservation, times []int64) (LidarGrids, error) {
	var grids LidarGrids
	var err error

	if grids.OpticalDepth, err = newSensorGrid(times, sensor.Heights, sensor.OpticalDepth, sensor.Flag); err != nil {
		return LidarGrids{}, fmt.Errorf("optical depth: %w", err)
	}
	if grids.Backscatter, err = newSensorGrid(times, sensor.Heights, sensor.Backscatter, sensor.Flag); err != nil {
		return LidarGrids{}, fmt.Errorf("backscatter: %w", err)
	}
	if grids.BackscatterNoise, err = newSensorGrid(times, sensor.Heights, sensor.BackscatterNoise, sensor.Flag); err != nil {
		return LidarGrids{}, fmt.Errorf("backscatter noise: %w", err)
	}
	if grids.MolecularCounts, err = newSensorGrid(times, sensor.Heights, sensor.MolecularCounts, sensor.Flag); err != nil {
		return LidarGrids{}, fmt.Errorf("molecular counts: %w", err)
	}

	grids.DarkCounts = make([]float64, len(sensor.DarkCounts))
	for i, v := range sensor.DarkCounts {
		if v == sensor.Flag {
			v = math.NaN()
		}
		grids.DarkCounts[i] = v
	}

	return grids, nil
}

// newSensorGrid builds a Grid from raw collector cells, replacing the
// stream's missing-value marker with NaN so threshold tests fail on it.
func newSensorGrid(times []int64, heights []float64, cells [][]float64, flag float64) (*Grid, error) {
	cleaned := make([][]float64, len(cells))
	for i, row := range cells {
		cleaned[i] = make([]float64, len(row))
		for j, v := range row {
			if v == flag {
				v = math.NaN()
			}
			cleaned[i][j] = v
		}
	}
	return NewGrid(times, heights, cleaned)
}
