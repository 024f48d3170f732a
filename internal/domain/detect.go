package domain

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// LidarThresholds gathers the detection constants for a backscatter
// lidar. The struct is immutable once built; per-instrument tuning swaps
// the whole value rather than editing module state.
type LidarThresholds struct {
	// SignificantBackscatter is the minimum particulate backscatter
	// treated as a real return (1/(m sr)). The first height in each
	// profile that exceeds it anchors the optical-depth re-zero.
	SignificantBackscatter float64

	// ModerateBackscatter and StrongBackscatter gate the 3x3
	// neighborhood test: a cloudy cell needs ModerateNeighbors cells
	// above the moderate level and StrongNeighbors above the strong
	// level. Isolated single-cell spikes fail the gate.
	ModerateBackscatter float64
	StrongBackscatter   float64
	ModerateNeighbors   int
	StrongNeighbors     int

	// OpticalDepth is the minimum re-zeroed optical depth for cloud.
	OpticalDepth float64

	// MolecularSNR and BackscatterSNR are the minimum signal-to-noise
	// ratios of the molecular channel and the backscatter channel.
	MolecularSNR   float64
	BackscatterSNR float64

	// Workers bounds the row fan-out; zero means one worker per CPU.
	Workers int
}

// DefaultLidarThresholds returns the operational HSRL/DABUL tuning.
func DefaultLidarThresholds() LidarThresholds {
	return LidarThresholds{
		SignificantBackscatter: 1e-7,
		ModerateBackscatter:    5e-7,
		StrongBackscatter:      1e-6,
		ModerateNeighbors:      3,
		StrongNeighbors:        1,
		OpticalDepth:           0.03,
		MolecularSNR:           5,
		BackscatterSNR:         10,
	}
}

// LidarGrids are the five aligned native-grid inputs of the lidar cloud
// detector. DarkCounts holds the per-time molecular dark-count baseline,
// one value per time step.
type LidarGrids struct {
	OpticalDepth     *Grid
	Backscatter      *Grid
	BackscatterNoise *Grid
	MolecularCounts  *Grid
	DarkCounts       []float64
}

func (g LidarGrids) validate() error {
	if err := Aligned(g.OpticalDepth, g.Backscatter, g.BackscatterNoise, g.MolecularCounts); err != nil {
		return err
	}
	rows, _ := g.OpticalDepth.Dims()
	if len(g.DarkCounts) != rows {
		return fmt.Errorf("%w: %d dark counts for %d time steps", ErrShapeMismatch, len(g.DarkCounts), rows)
	}
	return nil
}

// DetectLidarClouds derives a cloud mask and the re-zeroed optical-depth
// grid from one lidar day.
//
// Each profile's accumulated optical depth carries an instrument
// calibration offset; the value at the first significant backscatter
// return is subtracted from the whole profile before the depth test.
// Profiles with no significant return are skipped: their mask row stays
// false and their optical-depth row is returned unmodified. The inputs
// are never mutated.
//
// A cell is cloudy only when the molecular and backscatter SNRs, the
// backscatter itself, and the re-zeroed optical depth all clear their
// thresholds and the 3x3 neighborhood passes the moderate/strong gate.
// The first and last row and column are never evaluated because the full
// neighborhood must fit.
//
// Rows are independent, so the row loop fans out across workers; every
// output cell is written by exactly one of them.
func DetectLidarClouds(ctx context.Context, grids LidarGrids, cfg LidarThresholds) (*Mask, *Grid, error) {
	if err := grids.validate(); err != nil {
		return nil, nil, err
	}
	rows, cols := grids.Backscatter.Dims()
	mask := NewMask(grids.Backscatter.Times(), grids.Backscatter.Heights())
	adjusted := grids.OpticalDepth.Clone()

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	window := NewGridWindow(3, 3)

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i := 1; i < rows-1; i++ {
		group.Go(func() error {
			detectLidarRow(i, cols, grids, cfg, window, adjusted, mask)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return mask, adjusted, nil
}

// detectLidarRow evaluates one interior time step. It writes only to row
// i of mask and adjusted, so concurrent calls on distinct rows never
// collide.
func detectLidarRow(i, cols int, grids LidarGrids, cfg LidarThresholds, window GridWindow, adjusted *Grid, mask *Mask) {
	anchor := -1
	for j := 0; j < cols; j++ {
		if grids.Backscatter.At(i, j) > cfg.SignificantBackscatter {
			anchor = j
			break
		}
	}
	if anchor < 0 {
		return
	}
	datum := adjusted.At(i, anchor)
	for j := 0; j < cols; j++ {
		adjusted.Set(i, j, adjusted.At(i, j)-datum)
	}

	// Tests are phrased as positive guards so NaN (missing) values fail
	// every comparison and the cell stays clear.
	dark := grids.DarkCounts[i]
	for j := 1; j < cols-1; j++ {
		if !(grids.MolecularCounts.At(i, j)/dark > cfg.MolecularSNR) {
			continue
		}
		if !(grids.Backscatter.At(i, j)/grids.BackscatterNoise.At(i, j) > cfg.BackscatterSNR) {
			continue
		}
		if !(grids.Backscatter.At(i, j) > cfg.SignificantBackscatter) {
			continue
		}
		if !(adjusted.At(i, j) > cfg.OpticalDepth) {
			continue
		}
		moderate, strong := 0, 0
		for x, y := range window.Members(i, j) {
			v := grids.Backscatter.At(x, y)
			if v > cfg.ModerateBackscatter {
				moderate++
			}
			if v > cfg.StrongBackscatter {
				strong++
			}
		}
		if moderate >= cfg.ModerateNeighbors && strong >= cfg.StrongNeighbors {
			mask.Set(i, j, true)
		}
	}
}

// MaskDepolarization derives the companion fixed-point depolarization
// grid: cells outside the cloud mask are forced to the quantizer sentinel,
// cells inside are rails-quantized. The mask gates which depolarization
// values are physically meaningful; everything else is noise.
func MaskDepolarization(depol *Grid, mask *Mask, spec QuantSpec) ([][]int, error) {
	rows, cols := depol.Dims()
	mr, mc := mask.Dims()
	if rows != mr || cols != mc {
		return nil, fmt.Errorf("%w: depolarization %dx%d, mask %dx%d", ErrShapeMismatch, rows, cols, mr, mc)
	}
	out := make([][]int, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]int, cols)
		for j := 0; j < cols; j++ {
			if !mask.At(i, j) {
				out[i][j] = spec.Range.Min
				continue
			}
			out[i][j] = Quantize(depol.At(i, j), spec)
		}
	}
	return out, nil
}

// MaskFromVendor converts a vendor-supplied cloud-mask grid (radar
// product files ship one precomputed) into a Mask. Values pass through
// the rails quantizer with a binary 0/1 codebook, so the vendor's
// missing-value sentinels and out-of-range artifacts degrade to clear
// rather than cloudy.
func MaskFromVendor(vendor *Grid, flag float64) *Mask {
	spec := QuantSpec{Range: RangeI1, Flag: flag, Binary: &[2]float64{0, 1}}
	rows, cols := vendor.Dims()
	mask := NewMask(vendor.Times(), vendor.Heights())
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			mask.Set(i, j, Quantize(vendor.At(i, j), spec) == 1)
		}
	}
	return mask
}
