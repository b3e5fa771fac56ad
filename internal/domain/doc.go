// Package domain implements the annual modulation prediction model for
// dark-matter detection signal rates.
//
// # Model
//
// The model composes three closed-form stages. A calendar date reduces to its
// ordinal day-of-year d (1–365/366); each stage is a pure function of d and
// the fixed model parameters.
//
// Relative density — a Gaussian overdensity filament centered on a peak day:
//
//	density(d) = 1 + (enhancement − 1) · exp(−0.5·((d − peak)/width)²)
//
// The profile is maximal (= enhancement) at d = peak, symmetric around it,
// and approaches 1 far from the peak. For any enhancement ≥ 1 it never drops
// below the unenhanced halo baseline of 1.
//
// Phase transition probability — a thresholded saturating response:
//
//	p(ρ) = 0                          for ρ < ρ_crit
//	p(ρ) = tanh(k·(ρ/ρ_crit − 1))     otherwise
//
// Continuous at the threshold (p(ρ_crit) = 0), monotonically increasing, and
// saturating toward (but never reaching) 1.
//
// Relative signal rate — the final event-rate multiplier:
//
//	rate = 1 + 100·p(density(d))
//
// bounded to [1.0, 101.0) for all finite inputs.
//
// # Defaults
//
// The default parameters describe the main overdensity filament for the 2026
// calibration: peak day 155 (June 4th), width 15 days, enhancement 8.5,
// critical density 5.0 in normalized units, steepness 2.5. At the peak day
// the chain gives density 8.5, transition probability tanh(1.75) ≈ 0.9414,
// and a relative signal rate of about 95.14.
//
// # Outcomes
//
// Predict never returns a Go error for bad input. Each evaluation yields a
// tagged Prediction with exactly one of three outcomes:
//
//   - OutcomeRate: a numeric signal rate, date accepted.
//   - OutcomeWarning: well-formed date from the wrong calibration year;
//     no computation is performed.
//   - OutcomeError: the input does not parse as YYYY-MM-DD.
//
// Warning and error message text is parameterized per locale; English and
// Spanish presets ship with the package (see [MessagesEN], [MessagesES]).
// The calibration-year check is optional: a zero TargetYear accepts dates
// from any year.
//
// # Pipeline records
//
// RawRequest is the unprocessed envelope from the request topic, carrying a
// JSON PredictionRequest. Evaluation produces a PredictionEvent with a
// deterministic SHA-256 ID over the request date and model parameters, so
// replaying a request topic yields identical events downstream. ProcessedAt
// timestamps come from a package clock swappable in tests via [SetClock].
package domain
