// Command genfixtures generates mock data fixtures for the prediction test
// suites: one request per calendar day of a year, plus the evaluated
// prediction events. It uses the actual domain package with a frozen clock so
// the fixtures match real pipeline behavior and stay reproducible.
//
// Usage:
//
//	go run ./cmd/genfixtures \
//	  -year 2026 \
//	  -requests-out data/mock/prediction_requests_2026.json \
//	  -predictions-out data/mock/signal_rate_predictions_2026.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/haloscope/amp-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	year := flag.Int("year", 2026, "calendar year to generate fixtures for")
	requestsOut := flag.String("requests-out", "", "output path for the raw request fixture")
	predictionsOut := flag.String("predictions-out", "", "output path for the evaluated prediction fixture")
	detector := flag.String("detector", "xenon-north", "detector name stamped on each request")
	flag.Parse()

	if *requestsOut == "" || *predictionsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -requests-out, -predictions-out")
	}

	// Freeze the clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(*year, time.January, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	params := domain.DefaultParams()
	params.TargetYear = *year
	predictor := domain.NewPredictor(params)

	requests, predictions := generateYear(*year, *detector, predictor)
	log.Printf("generated %d requests for %d", len(requests), *year)

	if err := writeJSON(*requestsOut, requests); err != nil {
		return fmt.Errorf("writing request fixture: %w", err)
	}
	log.Printf("wrote request fixture: %s", *requestsOut)

	if err := writeJSON(*predictionsOut, predictions); err != nil {
		return fmt.Errorf("writing prediction fixture: %w", err)
	}
	log.Printf("wrote prediction fixture: %s", *predictionsOut)

	printStats(predictions, predictor)
	return nil
}

// generateYear builds one request per calendar day and runs each through the
// model.
func generateYear(year int, detector string, predictor *domain.Predictor) ([]domain.PredictionRequest, []domain.PredictionEvent) {
	var requests []domain.PredictionRequest
	var predictions []domain.PredictionEvent

	day := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for day.Year() == year {
		date := day.Format(domain.DateLayout)
		req := domain.PredictionRequest{
			RequestID: fmt.Sprintf("fixture-%s", date),
			Date:      date,
			Detector:  detector,
		}
		requests = append(requests, req)
		predictions = append(predictions, domain.Evaluate(req, predictor))
		day = day.AddDate(0, 0, 1)
	}

	return requests, predictions
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

func printStats(predictions []domain.PredictionEvent, predictor *domain.Predictor) {
	outcomes := map[domain.Outcome]int{}
	var aboveBaseline, transitionDays int
	var maxRate float64
	var peakDate string

	for i := range predictions {
		e := &predictions[i]
		outcomes[e.Outcome]++
		if e.SignalRate > 1.0 {
			aboveBaseline++
		}
		if e.Probability > 0 {
			transitionDays++
		}
		if e.SignalRate > maxRate {
			maxRate = e.SignalRate
			peakDate = e.Date
		}
	}

	params := predictor.Params()

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(predictions))
	fmt.Printf("By outcome: rate=%d, warning=%d, error=%d\n",
		outcomes[domain.OutcomeRate], outcomes[domain.OutcomeWarning], outcomes[domain.OutcomeError])
	fmt.Printf("Days above baseline rate: %d\n", aboveBaseline)
	fmt.Printf("Days with nonzero transition probability: %d\n", transitionDays)
	fmt.Printf("Peak: %s (rate %.2f, expected near day %d)\n", peakDate, maxRate, params.PeakDayOfYear)
}
