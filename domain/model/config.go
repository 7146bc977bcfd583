package model

import (
	"fmt"
	"time"

	"goglam/internal/errors"
)

// SeasonalitySpec describes one periodic component expanded into Fourier
// sin/cos column pairs.
type SeasonalitySpec struct {
	Name   string        `json:"name" toml:"name"`
	Period time.Duration `json:"period" toml:"period"`
	Order  int           `json:"order" toml:"order"`
}

// EventSpec describes a named interval regressor contributing a 0/1 column
// over [Start, End).
type EventSpec struct {
	Name  string    `json:"name" toml:"name"`
	Start time.Time `json:"start" toml:"start"`
	End   time.Time `json:"end" toml:"end"`
}

// Config is the fully resolved model configuration consumed by the engine.
// Resolution of defaults, file settings, environment and call arguments
// happens in internal/config; the engine only ever sees this struct.
type Config struct {
	Family string `json:"model" toml:"model"`

	NChangepoints    int     `json:"n_changepoints" toml:"n_changepoints"`
	ChangepointRange float64 `json:"changepoint_range" toml:"changepoint_range"`
	// Changepoints pins candidate changepoints to explicit timestamps.
	// When empty they are placed evenly over the changepoint range.
	Changepoints []time.Time `json:"changepoints,omitempty" toml:"changepoints,omitempty"`

	Seasonalities []SeasonalitySpec `json:"seasonalities" toml:"seasonalities"`
	Events        []EventSpec       `json:"events" toml:"events"`
	Regressors    []string          `json:"regressors" toml:"regressors"`

	SeasonalityPriorScale float64 `json:"seasonality_prior_scale" toml:"seasonality_prior_scale"`
	EventPriorScale       float64 `json:"event_prior_scale" toml:"event_prior_scale"`
	ChangepointPriorScale float64 `json:"changepoint_prior_scale" toml:"changepoint_prior_scale"`
	DispersionPriorScale  float64 `json:"dispersion_prior_scale" toml:"dispersion_prior_scale"`

	IntervalWidth float64 `json:"interval_width" toml:"interval_width"`
	UseLaplace    bool    `json:"use_laplace" toml:"use_laplace"`
	LaplaceDraws  int     `json:"laplace_draws" toml:"laplace_draws"`
	TrendSamples  int     `json:"trend_samples" toml:"trend_samples"`

	// VarianceMax caps the variance implied by the dispersion proxy. Zero
	// means "derive from the observed data range at fit time".
	VarianceMax float64 `json:"variance_max" toml:"variance_max"`

	Seed int64 `json:"seed" toml:"seed"`
}

// Validate fails fast on configuration values the engine cannot work with.
func (c *Config) Validate() error {
	if c.Family == "" {
		return errors.ConfigInvalid("model family is required")
	}
	if c.NChangepoints < 0 {
		return errors.ConfigInvalid(fmt.Sprintf("n_changepoints must be >= 0, got %d", c.NChangepoints))
	}
	if c.ChangepointRange <= 0 || c.ChangepointRange > 1 {
		return errors.ConfigInvalid(fmt.Sprintf("changepoint_range must be in (0, 1], got %v", c.ChangepointRange))
	}
	if c.IntervalWidth <= 0 || c.IntervalWidth >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("interval_width must be in (0, 1), got %v", c.IntervalWidth))
	}
	if c.TrendSamples < 0 {
		return errors.ConfigInvalid(fmt.Sprintf("trend_samples must be >= 0, got %d", c.TrendSamples))
	}
	if c.UseLaplace && c.LaplaceDraws <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("laplace_draws must be > 0 when use_laplace is set, got %d", c.LaplaceDraws))
	}
	for _, s := range c.Seasonalities {
		if s.Period <= 0 {
			return errors.ConfigInvalid(fmt.Sprintf("seasonality %q: period must be positive", s.Name))
		}
		if s.Order <= 0 {
			return errors.ConfigInvalid(fmt.Sprintf("seasonality %q: order must be positive", s.Name))
		}
	}
	for _, e := range c.Events {
		if !e.End.After(e.Start) {
			return errors.ConfigInvalid(fmt.Sprintf("event %q: end must be after start", e.Name))
		}
	}
	for _, scale := range []struct {
		name string
		val  float64
	}{
		{"seasonality_prior_scale", c.SeasonalityPriorScale},
		{"event_prior_scale", c.EventPriorScale},
		{"changepoint_prior_scale", c.ChangepointPriorScale},
		{"dispersion_prior_scale", c.DispersionPriorScale},
	} {
		if scale.val <= 0 {
			return errors.ConfigInvalid(fmt.Sprintf("%s must be positive, got %v", scale.name, scale.val))
		}
	}
	return nil
}
