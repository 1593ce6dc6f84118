// Command validate performs end-to-end integrity checks on the sounding mock
// fixtures: the raw wire messages and the canonical output generated from
// them by genmock. It verifies that every message decodes, that replaying
// the messages through the dispatcher reproduces the canonical fixture, and
// that every canonical output satisfies the profile invariants.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/raob_260520_raw.json \
//	  -canonical-json data/mock/raob_260520_canonical.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/couchcryptid/storm-sounding-service/internal/observability"
	"github.com/couchcryptid/storm-sounding-service/internal/sounding"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
)

// fixtureNow must match the clock genmock used.
var fixtureNow = time.Date(2026, time.May, 20, 12, 0, 0, 0, time.UTC)

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
	rawJSON := flag.String("raw-json", "", "path to the raw message fixture")
	canonicalJSON := flag.String("canonical-json", "", "path to the canonical output fixture")
	flag.Parse()

	if *rawJSON == "" || *canonicalJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawJSON, *canonicalJSON); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, canonicalPath string) int {
	domain.SetClock(clockwork.NewFakeClockAt(fixtureNow))
	defer domain.SetClock(nil)

	fmt.Println("=== Sounding Fixture Validation ===")
	fmt.Println()

	raws, err := loadRaw(rawPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw JSON: %v\n", err)
		return 1
	}

	canonical, err := loadJSON[sounding.CanonicalOutput](canonicalPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load canonical JSON: %v\n", err)
		return 1
	}

	decode, decoded := validateDecode(raws)
	phases := []*phase{
		decode,
		validateReplay(decoded, canonical),
		validateInvariants(canonical),
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
	fmt.Printf("Records: %d raw messages, %d canonical outputs\n", len(raws), len(canonical))

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

// ── Data loading ──

// loadRaw keeps each message as raw bytes so decoding is exercised exactly as
// the pipeline does it.
func loadRaw(path string) ([]json.RawMessage, error) {
	return loadJSON[json.RawMessage](path)
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Decode ──

func validateDecode(raws []json.RawMessage) (*phase, []domain.Data) {
	p := &phase{name: "Phase 1: Decode (wire messages)"}
	out := make([]domain.Data, len(raws))
	for i, raw := range raws {
		data, err := domain.ParseRawEvent(domain.RawEvent{Value: raw, Timestamp: fixtureNow})
		if err != nil {
			p.errorf("message %d: %v", i, err)
			continue
		}
		out[i] = data
	}
	return p, out
}

// ── Phase 2: Replay ──
// Feeds every decoded message through a dispatcher and compares the result
// with the canonical fixture.

func validateReplay(decoded []domain.Data, canonical []sounding.CanonicalOutput) *phase {
	p := &phase{name: "Phase 2: Replay (dispatcher vs fixture)"}
	if len(decoded) != len(canonical) {
		p.errorf("count: %d raw messages, %d canonical outputs", len(decoded), len(canonical))
		return p
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []cmp.Option{cmpopts.EquateNaNs(), cmpopts.EquateEmpty(), cmpopts.EquateApprox(0, 1e-9)}

	for i, data := range decoded {
		if data == nil {
			continue
		}
		snap := sounding.NewSnapshot()
		d := sounding.NewDispatcher(snap, logger, observability.NewMetricsForTesting())
		if err := d.SetData(data); err != nil {
			p.errorf("message %d: rejected: %v", i, err)
			continue
		}
		if diff := cmp.Diff(canonical[i], snap.Current(), opts...); diff != "" {
			p.errorf("message %d: canonical output mismatch (-fixture +replay):\n%s", i, diff)
		}
	}
	return p
}

// ── Phase 3: Invariants ──

func validateInvariants(canonical []sounding.CanonicalOutput) *phase {
	p := &phase{name: "Phase 3: Invariants (canonical output)"}
	for i := range canonical {
		checkOutput(p, i, &canonical[i])
	}
	return p
}

func checkOutput(p *phase, i int, o *sounding.CanonicalOutput) {
	pf := func(format string, args ...any) {
		p.errorf("output %d: "+format, append([]any{i}, args...)...)
	}

	if len(o.TimeAxis) == 0 {
		pf("time axis is empty")
	}
	if o.TimeIndex < 0 || o.TimeIndex >= len(o.TimeAxis) {
		pf("time index %d outside axis of %d", o.TimeIndex, len(o.TimeAxis))
	}
	if o.Location == nil {
		pf("location is missing")
	} else if !o.Location.Valid() {
		pf("location %+v is invalid", *o.Location)
	}
	if len(o.LocationAxis) == 0 {
		pf("location axis is empty")
	}

	if err := o.Profiles.Validate(len(o.TimeAxis)); err != nil {
		pf("profiles: %v", err)
	}
	for j, prof := range o.Profiles.Temperature {
		if prof.Domain == nil {
			pf("temperature %d has no vertical domain", j)
			continue
		}
		if _, err := domain.NewVerticalDomain(prof.Domain.Levels, prof.Domain.Unit); err != nil {
			pf("temperature %d: %v", j, err)
		}
		checkDewPoint(pf, j, prof, o.Profiles.DewPoint)
	}
}

// checkDewPoint flags levels where the dew point exceeds the temperature by
// more than rounding.
func checkDewPoint(pf func(string, ...any), j int, temp domain.Profile, dew []domain.Profile) {
	if j >= len(dew) {
		return
	}
	for k, t := range temp.Values {
		if k >= len(dew[j].Values) {
			break
		}
		d := dew[j].Values[k]
		if domain.Finite(t) && domain.Finite(d) && d > t+0.05 {
			pf("profile %d level %d: dew point %.2f above temperature %.2f", j, k, d, t)
		}
	}
}
