// Command genmock reads upper-air station CSV files and generates the mock
// fixtures used by the sounding test suites: the raw wire messages published
// to the source topic, and the canonical output the service produces for
// each of them. It runs the real dispatcher so the expected output matches
// pipeline behavior.
//
// Each CSV holds one row per level with the columns
// STATION,LAT,LON,ELEV,TIME,PRES,HGHT,TEMP,DWPT,DRCT,SKNT (TIME is RFC3339,
// wind speed is in knots, empty cells are missing values).
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv-dir data/raob \
//	  -raw-out data/mock/raob_260520_raw.json \
//	  -canonical-out data/mock/raob_260520_canonical.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/couchcryptid/storm-sounding-service/internal/observability"
	"github.com/couchcryptid/storm-sounding-service/internal/sounding"
	"github.com/jonboulle/clockwork"
)

// fixtureNow stamps soundings that carry no launch time.
var fixtureNow = time.Date(2026, time.May, 20, 12, 0, 0, 0, time.UTC)

var columns = []string{"STATION", "LAT", "LON", "ELEV", "TIME", "PRES", "HGHT", "TEMP", "DWPT", "DRCT", "SKNT"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvDir := flag.String("csv-dir", "", "directory containing station CSV files")
	rawOut := flag.String("raw-out", "", "output path for the raw message fixture")
	canonicalOut := flag.String("canonical-out", "", "output path for the canonical output fixture")
	flag.Parse()

	if *csvDir == "" || *rawOut == "" || *canonicalOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-dir, -raw-out, -canonical-out")
	}

	// Set a fixed clock for reproducible fallback launch times.
	domain.SetClock(clockwork.NewFakeClockAt(fixtureNow))
	defer domain.SetClock(nil)

	paths, err := filepath.Glob(filepath.Join(*csvDir, "*.csv"))
	if err != nil {
		return err
	}
	slices.Sort(paths)
	if len(paths) == 0 {
		return fmt.Errorf("no CSV files in %s", *csvDir)
	}

	var raws []domain.RawSounding
	for _, path := range paths {
		soundings, err := processCSV(path)
		if err != nil {
			return fmt.Errorf("processing %s: %w", filepath.Base(path), err)
		}
		raws = append(raws, soundings...)
		log.Printf("%s: %d soundings", filepath.Base(path), len(soundings))
	}

	canonical, err := normalize(raws)
	if err != nil {
		return err
	}

	if err := writeJSON(*rawOut, raws); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s", *rawOut)

	if err := writeJSON(*canonicalOut, canonical); err != nil {
		return fmt.Errorf("writing canonical fixture: %w", err)
	}
	log.Printf("wrote canonical fixture: %s", *canonicalOut)

	printStats(canonical)
	return nil
}

// processCSV groups the rows of one file into soundings keyed by station and
// launch time, in file order.
func processCSV(path string) ([]domain.RawSounding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, c := range columns {
		if _, ok := colIdx[c]; !ok {
			return nil, fmt.Errorf("missing column %s", c)
		}
	}

	var order []string
	byKey := map[string]*domain.RawStation{}
	knots := map[string][]float64{}

	for n, row := range rows[1:] {
		station := get(row, colIdx, "STATION")
		launch := get(row, colIdx, "TIME")
		key := station + "|" + launch

		st, ok := byKey[key]
		if !ok {
			st = &domain.RawStation{
				Station:   station,
				Lat:       num(get(row, colIdx, "LAT")),
				Lon:       num(get(row, colIdx, "LON")),
				Elevation: num(get(row, colIdx, "ELEV")),
			}
			if launch != "" {
				t, err := time.Parse(time.RFC3339, launch)
				if err != nil {
					return nil, fmt.Errorf("line %d: time: %w", n+2, err)
				}
				st.Time = t.UTC()
			}
			byKey[key] = st
			order = append(order, key)
		}
		st.Pressure = append(st.Pressure, num(get(row, colIdx, "PRES")))
		st.Temperature = append(st.Temperature, num(get(row, colIdx, "TEMP")))
		st.DewPoint = append(st.DewPoint, num(get(row, colIdx, "DWPT")))
		st.WindDirection = append(st.WindDirection, num(get(row, colIdx, "DRCT")))
		knots[key] = append(knots[key], num(get(row, colIdx, "SKNT")))
	}

	out := make([]domain.RawSounding, 0, len(order))
	for _, key := range order {
		st := byKey[key]
		speed, err := domain.ToMetersPerSecond(knots[key], domain.Knot)
		if err != nil {
			return nil, err
		}
		st.WindSpeed = speed
		out = append(out, domain.RawSounding{Type: domain.KindStation, Station: st})
	}
	return out, nil
}

// normalize runs each raw sounding through a fresh dispatcher and captures
// the canonical output it publishes.
func normalize(raws []domain.RawSounding) ([]sounding.CanonicalOutput, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	out := make([]sounding.CanonicalOutput, 0, len(raws))
	for i, rs := range raws {
		value, err := json.Marshal(rs)
		if err != nil {
			return nil, fmt.Errorf("sounding %d: marshal: %w", i, err)
		}
		data, err := domain.ParseRawEvent(domain.RawEvent{Value: value, Timestamp: fixtureNow})
		if err != nil {
			return nil, fmt.Errorf("sounding %d: parse: %w", i, err)
		}
		snap := sounding.NewSnapshot()
		d := sounding.NewDispatcher(snap, logger, observability.NewMetricsForTesting())
		if err := d.SetData(data); err != nil {
			return nil, fmt.Errorf("sounding %d (%s): %w", i, rs.Station.Station, err)
		}
		out = append(out, snap.Current())
	}
	return out, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// num parses a cell, mapping empty or unparsable cells to NaN.
func num(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
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

func printStats(outputs []sounding.CanonicalOutput) {
	var levels, withWind int
	minP, maxP := math.Inf(1), math.Inf(-1)
	for _, o := range outputs {
		if len(o.Profiles.Temperature) == 0 {
			continue
		}
		d := o.Profiles.Temperature[0].Domain
		levels += d.Len()
		for _, p := range d.Levels {
			minP, maxP = min(minP, p), max(maxP, p)
		}
		if len(o.Profiles.Wind) > 0 {
			withWind++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Soundings: %d\n", len(outputs))
	fmt.Printf("Levels kept: %d\n", levels)
	fmt.Printf("With wind: %d\n", withWind)
	if levels > 0 {
		fmt.Printf("Pressure range: %g to %g hPa\n", minP, maxP)
	}
}
