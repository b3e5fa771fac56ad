package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PredictionRequest is the JSON payload published to the request topic by
// upstream schedulers and analysis notebooks.
type PredictionRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Date      string `json:"date"` // YYYY-MM-DD
	Detector  string `json:"detector,omitempty"`
}

// RawRequest represents an unprocessed message from the request topic.
type RawRequest struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// PredictionEvent is the evaluated result destined for the sink topic.
// Density and Probability are zero for warning and error outcomes.
type PredictionEvent struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id,omitempty"`
	Detector    string    `json:"detector,omitempty"`
	Date        string    `json:"date"`
	Outcome     Outcome   `json:"outcome"`
	SignalRate  float64   `json:"signal_rate,omitempty"`
	Density     float64   `json:"density,omitempty"`
	Probability float64   `json:"probability,omitempty"`
	Message     string    `json:"message,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseRawRequest deserializes a RawRequest's value into a PredictionRequest.
// A missing date field is a malformed request; date *format* problems are not
// errors here — they become a tagged error outcome during evaluation.
func ParseRawRequest(raw RawRequest) (PredictionRequest, error) {
	var req PredictionRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return PredictionRequest{}, fmt.Errorf("parse raw request: %w", err)
	}
	if req.Date == "" {
		return PredictionRequest{}, errors.New("parse raw request: missing date field")
	}
	return req, nil
}

// Evaluate runs a prediction request through the model and assembles the
// output event. The event ID is deterministic over the date and model
// parameters, so replaying the request topic produces identical IDs.
func Evaluate(req PredictionRequest, predictor *Predictor) PredictionEvent {
	prediction := predictor.Predict(req.Date)

	return PredictionEvent{
		ID:          generateID(req.Date, req.Detector, predictor.Params()),
		RequestID:   req.RequestID,
		Detector:    req.Detector,
		Date:        req.Date,
		Outcome:     prediction.Outcome,
		SignalRate:  prediction.SignalRate,
		Density:     prediction.Density,
		Probability: prediction.Probability,
		Message:     prediction.Message,
		ProcessedAt: clock.Now(),
	}
}

// generateID produces a deterministic ID from the request date, detector, and
// model parameters. Deterministic IDs enable idempotent upserts downstream
// and replay safety — reprocessing the same request produces the same ID.
func generateID(date, detector string, p Params) string {
	input := fmt.Sprintf("%s|%s|%d|%g|%g|%g|%g|%d",
		date, detector,
		p.PeakDayOfYear, p.WidthDays, p.EnhancementFactor,
		p.CriticalDensity, p.Steepness, p.TargetYear)
	hash := sha256.Sum256([]byte(input))
	return "amp-" + hex.EncodeToString(hash[:8])
}

// SerializePredictionEvent marshals an evaluated event into an OutputEvent
// keyed by the event ID, with outcome and processing headers.
func SerializePredictionEvent(event PredictionEvent) (OutputEvent, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize prediction event: %w", err)
	}
	return OutputEvent{
		Key:   []byte(event.ID),
		Value: data,
		Headers: map[string]string{
			"outcome":      string(event.Outcome),
			"processed_at": event.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
