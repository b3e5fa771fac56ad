// Command validate performs integrity checks on fixture pairs produced by
// genfixtures: the raw request JSON and the evaluated prediction JSON. It
// verifies calendar coverage, request/prediction pairing, model correctness
// (by re-evaluating every request with a frozen clock), and physical bounds
// on the predicted rates.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -year 2026 \
//	  -requests data/mock/prediction_requests_2026.json \
//	  -predictions data/mock/signal_rate_predictions_2026.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/haloscope/amp-service/internal/domain"
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
	year := flag.Int("year", 2026, "calendar year the fixtures cover")
	requestsPath := flag.String("requests", "", "path to the raw request fixture")
	predictionsPath := flag.String("predictions", "", "path to the evaluated prediction fixture")
	flag.Parse()

	if *requestsPath == "" || *predictionsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*year, *requestsPath, *predictionsPath); code != 0 {
		os.Exit(code)
	}
}

func run(year int, requestsPath, predictionsPath string) int {
	// Set a fixed clock matching genfixtures for ProcessedAt reproducibility.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(year, time.January, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Prediction Fixture Integrity Validation ===")
	fmt.Println()

	requests, err := loadJSON[domain.PredictionRequest](requestsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load request fixture: %v\n", err)
		return 1
	}

	predictions, err := loadJSON[domain.PredictionEvent](predictionsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load prediction fixture: %v\n", err)
		return 1
	}

	params := domain.DefaultParams()
	params.TargetYear = year
	predictor := domain.NewPredictor(params)

	phases := []*phase{
		validateCoverage(year, requests),
		validatePairing(requests, predictions),
		validateModel(requests, predictions, predictor),
		validateBounds(predictions, predictor),
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
	fmt.Printf("Records: %d requests, %d predictions\n", len(requests), len(predictions))

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

// ── Validation phases ──

// validateCoverage checks that the request fixture holds exactly one request
// per calendar day of the year, in order.
func validateCoverage(year int, requests []domain.PredictionRequest) *phase {
	p := &phase{name: "Calendar coverage"}

	day := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	var expected []string
	for day.Year() == year {
		expected = append(expected, day.Format(domain.DateLayout))
		day = day.AddDate(0, 0, 1)
	}

	if len(requests) != len(expected) {
		p.errorf("expected %d requests for %d, got %d", len(expected), year, len(requests))
	}
	for i, req := range requests {
		if i >= len(expected) {
			break
		}
		if req.Date != expected[i] {
			p.errorf("request %d: expected date %s, got %s", i, expected[i], req.Date)
		}
		if req.RequestID == "" {
			p.errorf("request %d (%s): empty request_id", i, req.Date)
		}
	}
	return p
}

// validatePairing checks that predictions line up one-to-one with requests.
func validatePairing(requests []domain.PredictionRequest, predictions []domain.PredictionEvent) *phase {
	p := &phase{name: "Request/prediction pairing"}

	if len(predictions) != len(requests) {
		p.errorf("expected %d predictions, got %d", len(requests), len(predictions))
		return p
	}
	for i, pred := range predictions {
		req := requests[i]
		if pred.RequestID != req.RequestID {
			p.errorf("prediction %d: request_id %q does not match request %q", i, pred.RequestID, req.RequestID)
		}
		if pred.Date != req.Date {
			p.errorf("prediction %d: date %q does not match request %q", i, pred.Date, req.Date)
		}
		if pred.Detector != req.Detector {
			p.errorf("prediction %d: detector %q does not match request %q", i, pred.Detector, req.Detector)
		}
	}
	return p
}

// validateModel re-evaluates every request and compares against the stored
// prediction. A mismatch means either the fixture is stale or the model
// changed.
func validateModel(requests []domain.PredictionRequest, predictions []domain.PredictionEvent, predictor *domain.Predictor) *phase {
	p := &phase{name: "Model re-evaluation"}

	if len(predictions) != len(requests) {
		p.errorf("skipped: request/prediction counts differ")
		return p
	}
	for i, req := range requests {
		stored := predictions[i]
		fresh := domain.Evaluate(req, predictor)

		if stored.ID != fresh.ID {
			p.errorf("%s: id %q, re-evaluation gives %q", req.Date, stored.ID, fresh.ID)
		}
		if stored.Outcome != fresh.Outcome {
			p.errorf("%s: outcome %q, re-evaluation gives %q", req.Date, stored.Outcome, fresh.Outcome)
		}
		if math.Abs(stored.SignalRate-fresh.SignalRate) > 1e-9 {
			p.errorf("%s: signal_rate %.6f, re-evaluation gives %.6f", req.Date, stored.SignalRate, fresh.SignalRate)
		}
		if math.Abs(stored.Density-fresh.Density) > 1e-9 {
			p.errorf("%s: density %.6f, re-evaluation gives %.6f", req.Date, stored.Density, fresh.Density)
		}
		if math.Abs(stored.Probability-fresh.Probability) > 1e-9 {
			p.errorf("%s: probability %.6f, re-evaluation gives %.6f", req.Date, stored.Probability, fresh.Probability)
		}
		if stored.Message != fresh.Message {
			p.errorf("%s: message %q, re-evaluation gives %q", req.Date, stored.Message, fresh.Message)
		}
	}
	return p
}

// validateBounds checks the physical envelope of the rate curve: baseline 1
// off-season, bounded above by 101, density at least 1, and the maximum rate
// landing on the configured peak day.
func validateBounds(predictions []domain.PredictionEvent, predictor *domain.Predictor) *phase {
	p := &phase{name: "Physical bounds"}

	params := predictor.Params()
	var maxRate float64
	var peakDate string

	for _, pred := range predictions {
		if pred.Outcome != domain.OutcomeRate {
			p.errorf("%s: unexpected outcome %q in a same-year fixture", pred.Date, pred.Outcome)
			continue
		}
		if pred.SignalRate < 1.0 || pred.SignalRate >= 101.0 {
			p.errorf("%s: signal_rate %.4f outside [1, 101)", pred.Date, pred.SignalRate)
		}
		if pred.Density < 1.0 {
			p.errorf("%s: density %.4f below the galactic baseline", pred.Date, pred.Density)
		}
		if pred.SignalRate > maxRate {
			maxRate = pred.SignalRate
			peakDate = pred.Date
		}
	}

	if peakDate != "" {
		peak, err := time.Parse(domain.DateLayout, peakDate)
		if err != nil {
			p.errorf("peak date %q: %v", peakDate, err)
		} else if peak.YearDay() != params.PeakDayOfYear {
			p.errorf("maximum rate on day %d, expected day %d", peak.YearDay(), params.PeakDayOfYear)
		}
	}
	return p
}
