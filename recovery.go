package schemaguard

import "log/slog"

// MaxRetryTemperature is the cap spec §4.9 places on the temperature
// bump applied across retries.
const MaxRetryTemperature = 1.5

// RetryTemperatureStep is the per-retry temperature increment.
const RetryTemperatureStep = 0.1

// GenerateFunc runs one full generation attempt at the given temperature
// and returns the produced string (or an error from a mid-generation
// fatal condition, surfaced via p.Err() by the caller's processor).
type GenerateFunc func(temperature float32) (string, error)

// RecoveryPolicy implements C10: it converts constraint violations into a
// caller-visible abort signal, and retries post-generation validator
// failures up to cfg.RetryMaxAttempts times with a perturbed temperature.
// It never retries a mid-generation fatal error (no_valid_tokens /
// invalid_token_selected) — those abort the attempt immediately, per
// spec §4.9's two-tier policy.
type RecoveryPolicy struct {
	cfg    *Config
	logger *slog.Logger
}

// NewRecoveryPolicy creates a RecoveryPolicy. cfg/logger default when nil.
func NewRecoveryPolicy(cfg *Config, logger *slog.Logger) *RecoveryPolicy {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryPolicy{cfg: cfg, logger: logger}
}

// Run drives generate through the retry loop. baseTemperature is the
// caller's requested sampling temperature; seeded reports whether the
// caller supplied an explicit sampler seed (disables all retries, per
// spec §4.9). schema is used to validate each attempt's output.
func (r *RecoveryPolicy) Run(generate GenerateFunc, schema *SchemaNode, baseTemperature float32, seeded bool) (string, *DecodeError) {
	maxAttempts := r.cfg.RetryMaxAttempts
	if seeded {
		maxAttempts = 0
	}

	temperature := baseTemperature
	for attempt := 0; ; attempt++ {
		output, err := generate(temperature)
		if err != nil {
			if de, ok := err.(*DecodeError); ok {
				r.logger.Error("generation aborted: mid-generation fatal", "kind", de.Kind, "attempt", attempt)
				return "", de
			}
			return "", NewDecodeError(ErrNoValidTokens, "", 0, err.Error())
		}

		result := Validate(output, schema)
		if result.Valid {
			return output, nil
		}

		r.logger.Warn("generation failed validation", "attempt", attempt, "detail", result.Err.Detail)

		if attempt >= maxAttempts {
			return "", result.Err
		}

		temperature += RetryTemperatureStep
		if temperature > MaxRetryTemperature {
			temperature = MaxRetryTemperature
		}
	}
}
