// Command validate performs end-to-end data integrity checks across the
// mock fixtures: it verifies the raw observation-day bundle is well formed,
// re-runs the detection and fusion path, and confirms the committed cloud
// product matches what the domain code produces today.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/observation_day_19980504.json \
//	  -product-json data/mock/cloud_product_19980504.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cloud-mask-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawJSON := flag.String("raw-json", "", "path to the raw day-bundle JSON fixture")
	productJSON := flag.String("product-json", "", "path to the transformed cloud-product JSON fixture")
	flag.Parse()

	if *rawJSON == "" || *productJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawJSON, *productJSON); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, productPath string) int {
	// Set a fixed clock matching genmock for ProcessedAt reproducibility.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(1998, time.May, 5, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Cloud Mask Integrity Validation ===")
	fmt.Println()

	rawValue, err := os.ReadFile(rawPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw bundle: %v\n", err)
		return 1
	}

	var product domain.CloudProduct
	productValue, err := os.ReadFile(productPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load product: %v\n", err)
		return 1
	}
	if err := json.Unmarshal(productValue, &product); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse product: %v\n", err)
		return 1
	}

	day, err := domain.ParseRawDay(domain.RawDay{Value: rawValue})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse raw bundle: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRawBundle(day),
		validateReproducibility(day, product),
		validateProductInvariants(product),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Bundle: %d sensors, product: %dx%d coarse grid\n",
		len(day.Sensors), len(product.CoarseTimes), len(product.CoarseHeights))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Raw Bundle ──
// Validates the day bundle's grids are well formed before transformation.

func validateRawBundle(day domain.DayObservation) *phase {
	p := &phase{name: "Phase 1: Raw Bundle (grid shapes)"}

	if day.Date == "" {
		p.errorf("bundle has no date")
	}
	if _, err := time.Parse("2006-01-02", day.Date); err != nil {
		p.errorf("date %q is not YYYY-MM-DD", day.Date)
	}
	if day.Latitude < -90 || day.Latitude > 90 {
		p.errorf("latitude %g out of range", day.Latitude)
	}

	for _, sensor := range day.Sensors {
		checkSensorShapes(p, sensor)
	}
	return p
}

func checkSensorShapes(p *phase, sensor domain.SensorObservation) {
	name := sensor.Instrument

	if sensor.Kind != domain.SensorLidar && sensor.Kind != domain.SensorRadar {
		p.errorf("%s: unknown kind %q", name, sensor.Kind)
		return
	}

	rows, cols := len(sensor.TimeOffsets), len(sensor.Heights)
	if rows == 0 || cols == 0 {
		p.errorf("%s: empty axes (%d times, %d heights)", name, rows, cols)
		return
	}
	for i := 1; i < cols; i++ {
		if sensor.Heights[i] <= sensor.Heights[i-1] {
			p.errorf("%s: heights not strictly increasing at %d", name, i)
		}
	}

	grids := map[string][][]float64{
		"optical_depth":     sensor.OpticalDepth,
		"backscatter":       sensor.Backscatter,
		"backscatter_noise": sensor.BackscatterNoise,
		"molecular_counts":  sensor.MolecularCounts,
		"depolarization":    sensor.Depolarization,
		"vendor_mask":       sensor.VendorMask,
	}
	for gridName, grid := range grids {
		if grid == nil {
			continue
		}
		if len(grid) != rows {
			p.errorf("%s: %s has %d rows, want %d", name, gridName, len(grid), rows)
			continue
		}
		for i, row := range grid {
			if len(row) != cols {
				p.errorf("%s: %s row %d has %d cells, want %d", name, gridName, i, len(row), cols)
			}
		}
	}
	if sensor.DarkCounts != nil && len(sensor.DarkCounts) != rows {
		p.errorf("%s: dark_counts has %d entries, want %d", name, len(sensor.DarkCounts), rows)
	}
}

// ── Phase 2: Reproducibility ──
// Re-runs detection and fusion and diffs against the committed product.

func validateReproducibility(day domain.DayObservation, product domain.CloudProduct) *phase {
	p := &phase{name: "Phase 2: Reproducibility (re-run detection)"}

	// Match genmock: the mock grids only reach 500m.
	cfg := domain.DefaultDetectorConfig()
	cfg.Fusion.MinHeight = 100

	recomputed, err := domain.ProcessDay(context.Background(), day, cfg)
	if err != nil {
		p.errorf("process day: %v", err)
		return p
	}

	timeCmp := cmp.Comparer(func(x, y time.Time) bool { return x.Equal(y) })
	if diff := cmp.Diff(product, recomputed, timeCmp); diff != "" {
		p.errorf("product diverged from current domain code (-committed +recomputed):\n%s", diff)
	}
	return p
}

// ── Phase 3: Product Invariants ──
// Validates structural constraints every product must satisfy.

func validateProductInvariants(product domain.CloudProduct) *phase {
	p := &phase{name: "Phase 3: Product Invariants"}

	if len(product.FusedMask) != len(product.CoarseTimes) {
		p.errorf("fused mask has %d rows, want %d", len(product.FusedMask), len(product.CoarseTimes))
	}
	for i, row := range product.FusedMask {
		if len(row) != len(product.CoarseHeights) {
			p.errorf("fused row %d has %d cells, want %d", i, len(row), len(product.CoarseHeights))
			continue
		}
		for j, cell := range row {
			if cell != 0 && cell != 1 {
				p.errorf("fused cell (%d,%d) is %d, want 0 or 1", i, j, cell)
			}
		}
	}

	for i := 1; i < len(product.CoarseTimes); i++ {
		if product.CoarseTimes[i] <= product.CoarseTimes[i-1] {
			p.errorf("coarse times not strictly increasing at %d", i)
		}
	}

	if len(product.Extents) != len(product.CoarseTimes) {
		p.errorf("extents have %d rows, want %d", len(product.Extents), len(product.CoarseTimes))
	}
	for _, extent := range product.Extents {
		if len(extent.Bases) != len(extent.Tops) {
			p.errorf("extent at t=%d: %d bases vs %d tops", extent.Time, len(extent.Bases), len(extent.Tops))
			continue
		}
		for i := range extent.Bases {
			if extent.Bases[i] >= extent.Tops[i] {
				p.errorf("extent at t=%d: layer %d base %g >= top %g", extent.Time, i, extent.Bases[i], extent.Tops[i])
			}
		}
	}

	for _, sensor := range product.Sensors {
		for i := 1; i < len(sensor.Times); i++ {
			if sensor.Times[i] < sensor.Times[i-1] {
				p.errorf("%s: repaired times decrease at %d", sensor.Instrument, i)
			}
		}
	}
	return p
}
