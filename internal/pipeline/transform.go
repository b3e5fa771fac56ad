package pipeline

import (
	"context"
	"log/slog"

	"github.com/haloscope/amp-service/internal/domain"
	"github.com/haloscope/amp-service/internal/observability"
)

// PredictionTransformer implements Transformer by running requests through
// the annual modulation model. Malformed JSON is an error (the message is
// skipped and committed); a bad date or wrong-year request still produces an
// event, tagged with the corresponding non-numeric outcome.
type PredictionTransformer struct {
	predictor *domain.Predictor
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTransformer creates a PredictionTransformer.
func NewTransformer(predictor *domain.Predictor, logger *slog.Logger, metrics *observability.Metrics) *PredictionTransformer {
	return &PredictionTransformer{
		predictor: predictor,
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *PredictionTransformer) Transform(_ context.Context, raw domain.RawRequest) (domain.OutputEvent, error) {
	req, err := domain.ParseRawRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	event := domain.Evaluate(req, t.predictor)

	t.metrics.PredictionOutcomes.WithLabelValues(string(event.Outcome)).Inc()
	switch event.Outcome {
	case domain.OutcomeRate:
		t.metrics.SignalRate.Observe(event.SignalRate)
	case domain.OutcomeWarning, domain.OutcomeError:
		t.logger.Debug("non-numeric prediction outcome",
			"outcome", event.Outcome,
			"date", event.Date,
			"request_id", event.RequestID,
		)
	}

	return domain.SerializePredictionEvent(event)
}
