package config

import (
	"fmt"
	"time"

	"github.com/haloscope/amp-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Model parameters.
	PeakDayOfYear       int
	FilamentWidthDays   float64
	DensityEnhancement  float64
	CriticalDensity     float64
	TransitionSteepness float64
	TargetYear          int // 0 disables the calibration-year check
	MessageLocale       string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parsePositiveInt("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseDuration("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	peakDay, err := parsePositiveInt("PEAK_DAY_OF_YEAR", 155)
	if err != nil {
		return nil, err
	}

	widthDays, err := parsePositiveFloat("FILAMENT_WIDTH_DAYS", 15)
	if err != nil {
		return nil, err
	}

	enhancement, err := parsePositiveFloat("DENSITY_ENHANCEMENT_FACTOR", 8.5)
	if err != nil {
		return nil, err
	}

	criticalDensity, err := parsePositiveFloat("CRITICAL_DENSITY", 5.0)
	if err != nil {
		return nil, err
	}

	steepness, err := parsePositiveFloat("TRANSITION_STEEPNESS", 2.5)
	if err != nil {
		return nil, err
	}

	targetYear, err := parseOptionalInt("TARGET_YEAR")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "prediction-requests"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "signal-rate-predictions"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "amp-service"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		PeakDayOfYear:       peakDay,
		FilamentWidthDays:   widthDays,
		DensityEnhancement:  enhancement,
		CriticalDensity:     criticalDensity,
		TransitionSteepness: steepness,
		TargetYear:          targetYear,
		MessageLocale:       envOrDefault("MESSAGE_LOCALE", "en"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, fmt.Errorf("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, fmt.Errorf("KAFKA_SINK_TOPIC is required")
	}
	if cfg.PeakDayOfYear > 366 {
		return nil, fmt.Errorf("PEAK_DAY_OF_YEAR must be between 1 and 366, got %d", cfg.PeakDayOfYear)
	}
	if cfg.DensityEnhancement < 1 {
		return nil, fmt.Errorf("DENSITY_ENHANCEMENT_FACTOR must be >= 1, got %g", cfg.DensityEnhancement)
	}
	if cfg.MessageLocale != "en" && cfg.MessageLocale != "es" {
		return nil, fmt.Errorf("MESSAGE_LOCALE must be \"en\" or \"es\", got %q", cfg.MessageLocale)
	}

	return cfg, nil
}

// ModelParams assembles the domain parameters from the loaded configuration.
func (c *Config) ModelParams() domain.Params {
	return domain.Params{
		PeakDayOfYear:     c.PeakDayOfYear,
		WidthDays:         c.FilamentWidthDays,
		EnhancementFactor: c.DensityEnhancement,
		CriticalDensity:   c.CriticalDensity,
		Steepness:         c.TransitionSteepness,
		TargetYear:        c.TargetYear,
		Messages:          domain.MessagesForLocale(c.MessageLocale),
	}
}
