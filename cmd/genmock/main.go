// Command genmock generates the mock observation-day fixture used by the
// pipeline test suite, plus the cloud product it transforms into. It runs
// the actual domain detection and fusion code so the product fixture
// matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -raw-out data/mock/observation_day_19980504.json \
//	  -product-out data/mock/cloud_product_19980504.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cloud-mask-etl/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rawOut := flag.String("raw-out", "", "output path for the raw day-bundle JSON fixture")
	productOut := flag.String("product-out", "", "output path for the transformed cloud-product JSON fixture")
	flag.Parse()

	if *rawOut == "" || *productOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -product-out")
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(1998, time.May, 5, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	day := mockDay()

	if err := writeJSON(*rawOut, day); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s", *rawOut)

	// Run the actual detection and fusion path. The mock grids only
	// reach 500m, so lower the fusion floor to keep extents populated.
	cfg := domain.DefaultDetectorConfig()
	cfg.Fusion.MinHeight = 100

	product, err := domain.ProcessDay(context.Background(), day, cfg)
	if err != nil {
		return fmt.Errorf("processing mock day: %w", err)
	}

	if err := writeJSON(*productOut, product); err != nil {
		return fmt.Errorf("writing product fixture: %w", err)
	}
	log.Printf("wrote product fixture: %s", *productOut)

	printStats(product)
	return nil
}

// mockDay builds one SHEBA-style observation day: a lidar whose raw
// clock wraps at midnight and carries a dense 3x3 cloud block, and a
// radar whose vendor mask is clear apart from one sentinel cell.
func mockDay() domain.DayObservation {
	fill := func(v float64) [][]float64 {
		rows := make([][]float64, 5)
		for i := range rows {
			rows[i] = []float64{v, v, v, v, v}
		}
		return rows
	}

	backscatter := fill(2e-7)
	optical := fill(0.51)
	for i := 1; i <= 3; i++ {
		for j := 1; j <= 3; j++ {
			backscatter[i][j] = 2e-6
			optical[i][j] = 0.6
		}
	}
	for i := range optical {
		optical[i][0] = 0.5
	}
	backscatter[0][4] = -999

	lidar := domain.SensorObservation{
		Instrument:       "ahsrl",
		Kind:             domain.SensorLidar,
		TimeOffsets:      []float64{86380, 86390, 0, 10, 20},
		Heights:          []float64{100, 200, 300, 400, 500},
		Flag:             -999,
		OpticalDepth:     optical,
		Backscatter:      backscatter,
		BackscatterNoise: fill(1e-9),
		MolecularCounts:  fill(10),
		DarkCounts:       []float64{1, 1, 1, 1, 1},
		Depolarization:   fill(0.5),
	}

	vendor := make([][]float64, 5)
	for i := range vendor {
		vendor[i] = []float64{0, 0, 0, 0, 0}
	}
	vendor[2][2] = -999

	radar := domain.SensorObservation{
		Instrument:  "mmcr",
		Kind:        domain.SensorRadar,
		TimeOffsets: []float64{0, 10, 20, 30, 40},
		Heights:     []float64{100, 200, 300, 400, 500},
		Flag:        -999,
		VendorMask:  vendor,
	}

	return domain.DayObservation{
		Date:        "1998-05-04",
		Observatory: "sheba",
		Latitude:    76.5,
		Longitude:   -68.5,
		Sensors:     []domain.SensorObservation{lidar, radar},
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(product domain.CloudProduct) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Date: %s, Observatory: %s\n", product.Date, product.Observatory)
	fmt.Printf("Coarse grid: %d times x %d heights\n",
		len(product.CoarseTimes), len(product.CoarseHeights))

	for _, sensor := range product.Sensors {
		cloudy := 0
		for _, row := range sensor.Mask {
			for _, cell := range row {
				if cell == 1 {
					cloudy++
				}
			}
		}
		fmt.Printf("Sensor %s: %d native cells cloudy, times %d..%d\n",
			sensor.Instrument, cloudy,
			sensor.Times[0], sensor.Times[len(sensor.Times)-1])
	}

	fusedCloudy := 0
	firstCloudyRow := -1
	for i, row := range product.FusedMask {
		for _, cell := range row {
			if cell == 1 {
				fusedCloudy++
				if firstCloudyRow < 0 {
					firstCloudyRow = i
				}
			}
		}
	}
	fmt.Printf("Fused: %d cells cloudy, first cloudy row %d\n", fusedCloudy, firstCloudyRow)

	layers := 0
	for _, extent := range product.Extents {
		layers += len(extent.Bases)
	}
	fmt.Printf("Extent layers: %d\n", layers)
	fmt.Printf("ProcessedAt: %s\n", product.ProcessedAt.Format(time.RFC3339))
}
