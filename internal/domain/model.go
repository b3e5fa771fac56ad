package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the accepted input format for prediction dates.
const DateLayout = "2006-01-02"

// Messages holds the user-facing text for non-numeric outcomes.
// InvalidDate is returned verbatim; WrongYear is a fmt template taking the
// configured target year.
type Messages struct {
	InvalidDate string
	WrongYear   string
}

// Locale presets for the two historical variants of the predictor.
var (
	MessagesEN = Messages{
		InvalidDate: "Invalid date format. Use 'YYYY-MM-DD'.",
		WrongYear:   "This predictor is calibrated for %d.",
	}
	MessagesES = Messages{
		InvalidDate: "Formato de fecha inválido. Use 'YYYY-MM-DD'.",
		WrongYear:   "Este predictor está calibrado para %d.",
	}
)

// MessagesForLocale returns the preset for a locale code, defaulting to English.
func MessagesForLocale(locale string) Messages {
	if locale == "es" {
		return MessagesES
	}
	return MessagesEN
}

// Params are the model parameters, fixed at construction.
type Params struct {
	PeakDayOfYear     int     // day of year of the density peak
	WidthDays         float64 // characteristic filament width in days
	EnhancementFactor float64 // density multiplier at the peak
	CriticalDensity   float64 // transition threshold, normalized units
	Steepness         float64 // transition steepness factor k
	TargetYear        int     // calibration year; 0 disables the year check
	Messages          Messages
}

// DefaultParams returns the published filament parameters with no
// calibration-year restriction and English messages.
func DefaultParams() Params {
	return Params{
		PeakDayOfYear:     155, // June 4th in a non-leap year
		WidthDays:         15,
		EnhancementFactor: 8.5,
		CriticalDensity:   5.0,
		Steepness:         2.5,
		Messages:          MessagesEN,
	}
}

// Outcome tags a Prediction as one of the three result variants.
type Outcome string

const (
	OutcomeRate    Outcome = "rate"
	OutcomeWarning Outcome = "warning"
	OutcomeError   Outcome = "error"
)

// Prediction is the tagged evaluation result. Exactly one variant applies:
// a numeric rate, a calibration warning, or an input error. The intermediate
// density and probability are populated only for the rate outcome.
type Prediction struct {
	Outcome     Outcome
	SignalRate  float64
	Density     float64
	Probability float64
	Message     string
}

// OK reports whether the prediction carries a numeric signal rate.
func (p Prediction) OK() bool { return p.Outcome == OutcomeRate }

// Predictor evaluates the annual modulation model. Immutable after
// construction; a single instance is safe for concurrent use.
type Predictor struct {
	params Params
}

// NewPredictor creates a Predictor. Zero-valued Messages fall back to the
// English preset so a Params literal without message text still produces
// readable outcomes.
func NewPredictor(params Params) *Predictor {
	if params.Messages == (Messages{}) {
		params.Messages = MessagesEN
	}
	return &Predictor{params: params}
}

// Params returns a copy of the model parameters.
func (p *Predictor) Params() Params { return p.params }

// RelativeDensityAt computes the relative dark-matter density at Earth's
// position for a given date. The result is ≥ 1 for any enhancement ≥ 1 and
// equals the enhancement factor exactly on the peak day.
func (p *Predictor) RelativeDensityAt(date time.Time) float64 {
	dayOfYear := float64(date.YearDay())
	exponent := -0.5 * math.Pow((dayOfYear-float64(p.params.PeakDayOfYear))/p.params.WidthDays, 2)
	return 1 + (p.params.EnhancementFactor-1)*math.Exp(exponent)
}

// TransitionProbability computes the phase transition probability for a local
// density. Below the critical density the transition cannot occur and the
// probability is exactly zero; above it the response follows
// tanh(k·(ρ/ρ_crit − 1)), continuous at the threshold and saturating toward 1.
func (p *Predictor) TransitionProbability(density float64) float64 {
	if density < p.params.CriticalDensity {
		return 0.0
	}
	arg := p.params.Steepness * (density/p.params.CriticalDensity - 1)
	return math.Tanh(arg)
}

// Predict evaluates the expected relative signal rate for a date string in
// YYYY-MM-DD format. Malformed dates and calibration-year mismatches surface
// as tagged non-numeric outcomes rather than errors.
func (p *Predictor) Predict(dateStr string) Prediction {
	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return Prediction{Outcome: OutcomeError, Message: p.params.Messages.InvalidDate}
	}

	if p.params.TargetYear != 0 && date.Year() != p.params.TargetYear {
		return Prediction{
			Outcome: OutcomeWarning,
			Message: fmt.Sprintf(p.params.Messages.WrongYear, p.params.TargetYear),
		}
	}

	density := p.RelativeDensityAt(date)
	probability := p.TransitionProbability(density)

	return Prediction{
		Outcome:     OutcomeRate,
		SignalRate:  1.0 + 100*probability,
		Density:     density,
		Probability: probability,
	}
}
