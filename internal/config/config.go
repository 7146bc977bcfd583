// Package config resolves model configuration in layers: hard defaults,
// then a TOML run-config file, then environment variables, then explicit
// call arguments. The numeric core never sees this machinery; it receives a
// fully resolved model.Config.
package config

import (
	"os"
	"strconv"
	"time"

	"goglam/domain/model"
	"goglam/internal/errors"

	"github.com/pelletier/go-toml/v2"
)

// Partial is one configuration layer. Nil fields defer to lower layers.
type Partial struct {
	Family           *string     `json:"model,omitempty"`
	NChangepoints    *int        `json:"n_changepoints,omitempty"`
	ChangepointRange *float64    `json:"changepoint_range,omitempty"`
	Changepoints     []time.Time `json:"changepoints,omitempty"`

	Seasonalities []model.SeasonalitySpec `json:"seasonalities,omitempty"`
	Events        []model.EventSpec       `json:"events,omitempty"`
	Regressors    []string                `json:"regressors,omitempty"`

	SeasonalityPriorScale *float64 `json:"seasonality_prior_scale,omitempty"`
	EventPriorScale       *float64 `json:"event_prior_scale,omitempty"`
	ChangepointPriorScale *float64 `json:"changepoint_prior_scale,omitempty"`
	DispersionPriorScale  *float64 `json:"dispersion_prior_scale,omitempty"`

	IntervalWidth *float64 `json:"interval_width,omitempty"`
	UseLaplace    *bool    `json:"use_laplace,omitempty"`
	LaplaceDraws  *int     `json:"laplace_draws,omitempty"`
	TrendSamples  *int     `json:"trend_samples,omitempty"`
	VarianceMax   *float64 `json:"variance_max,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
}

// Defaults is the lowest layer: a usable normal-family model.
func Defaults() model.Config {
	return model.Config{
		Family:                "normal",
		NChangepoints:         25,
		ChangepointRange:      0.8,
		SeasonalityPriorScale: 10,
		EventPriorScale:       10,
		ChangepointPriorScale: 0.05,
		DispersionPriorScale:  5,
		IntervalWidth:         0.8,
		UseLaplace:            false,
		LaplaceDraws:          300,
		TrendSamples:          1000,
		Seed:                  42,
	}
}

// Resolve applies the given layers over the defaults, later layers winning,
// and validates the result. Nil layers are skipped, so callers pass exactly
// the file/env/argument layers they have.
func Resolve(layers ...*Partial) (model.Config, error) {
	cfg := Defaults()
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		apply(&cfg, layer)
	}
	if err := cfg.Validate(); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func apply(cfg *model.Config, p *Partial) {
	if p.Family != nil {
		cfg.Family = *p.Family
	}
	if p.NChangepoints != nil {
		cfg.NChangepoints = *p.NChangepoints
	}
	if p.ChangepointRange != nil {
		cfg.ChangepointRange = *p.ChangepointRange
	}
	if p.Changepoints != nil {
		cfg.Changepoints = append([]time.Time(nil), p.Changepoints...)
	}
	if p.Seasonalities != nil {
		cfg.Seasonalities = append([]model.SeasonalitySpec(nil), p.Seasonalities...)
	}
	if p.Events != nil {
		cfg.Events = append([]model.EventSpec(nil), p.Events...)
	}
	if p.Regressors != nil {
		cfg.Regressors = append([]string(nil), p.Regressors...)
	}
	if p.SeasonalityPriorScale != nil {
		cfg.SeasonalityPriorScale = *p.SeasonalityPriorScale
	}
	if p.EventPriorScale != nil {
		cfg.EventPriorScale = *p.EventPriorScale
	}
	if p.ChangepointPriorScale != nil {
		cfg.ChangepointPriorScale = *p.ChangepointPriorScale
	}
	if p.DispersionPriorScale != nil {
		cfg.DispersionPriorScale = *p.DispersionPriorScale
	}
	if p.IntervalWidth != nil {
		cfg.IntervalWidth = *p.IntervalWidth
	}
	if p.UseLaplace != nil {
		cfg.UseLaplace = *p.UseLaplace
	}
	if p.LaplaceDraws != nil {
		cfg.LaplaceDraws = *p.LaplaceDraws
	}
	if p.TrendSamples != nil {
		cfg.TrendSamples = *p.TrendSamples
	}
	if p.VarianceMax != nil {
		cfg.VarianceMax = *p.VarianceMax
	}
	if p.Seed != nil {
		cfg.Seed = *p.Seed
	}
}

// RunConfig is the TOML surface for file-driven runs: where the data lives,
// which columns to use, the model layer and the forecast horizon.
type RunConfig struct {
	Data     DataSection     `toml:"data"`
	Model    tomlModel       `toml:"model"`
	Forecast ForecastSection `toml:"forecast"`
}

// DataSection names the input source and its columns.
type DataSection struct {
	Source          string   `toml:"source"`
	TimestampColumn string   `toml:"timestamp_column"`
	ValueColumn     string   `toml:"value_column"`
	CapacityColumn  string   `toml:"capacity_column"`
	Regressors      []string `toml:"regressors"`
	TimeLayout      string   `toml:"time_layout"`
	Sheet           string   `toml:"sheet"`
}

// ForecastSection controls the prediction call.
type ForecastSection struct {
	Horizon        int    `toml:"horizon"`
	IncludeHistory bool   `toml:"include_history"`
	Output         string `toml:"output"`
}

// tomlModel mirrors Partial with TOML-friendly field types; durations are
// strings like "168h".
type tomlModel struct {
	Family           *string  `toml:"model"`
	NChangepoints    *int     `toml:"n_changepoints"`
	ChangepointRange *float64 `toml:"changepoint_range"`

	Seasonalities []tomlSeasonality `toml:"seasonalities"`
	Events        []tomlEvent       `toml:"events"`
	Regressors    []string          `toml:"regressors"`

	SeasonalityPriorScale *float64 `toml:"seasonality_prior_scale"`
	EventPriorScale       *float64 `toml:"event_prior_scale"`
	ChangepointPriorScale *float64 `toml:"changepoint_prior_scale"`
	DispersionPriorScale  *float64 `toml:"dispersion_prior_scale"`

	IntervalWidth *float64 `toml:"interval_width"`
	UseLaplace    *bool    `toml:"use_laplace"`
	LaplaceDraws  *int     `toml:"laplace_draws"`
	TrendSamples  *int     `toml:"trend_samples"`
	VarianceMax   *float64 `toml:"variance_max"`
	Seed          *int64   `toml:"seed"`
}

type tomlSeasonality struct {
	Name   string `toml:"name"`
	Period string `toml:"period"`
	Order  int    `toml:"order"`
}

type tomlEvent struct {
	Name  string    `toml:"name"`
	Start time.Time `toml:"start"`
	End   time.Time `toml:"end"`
}

// LoadRunConfig parses a TOML run-config file.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	var rc RunConfig
	if err := toml.Unmarshal(data, &rc); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to parse config file %s", path))
	}
	return &rc, nil
}

// ModelLayer converts the file's model section into a resolution layer.
func (rc *RunConfig) ModelLayer() (*Partial, error) {
	tm := rc.Model
	p := &Partial{
		Family:                tm.Family,
		NChangepoints:         tm.NChangepoints,
		ChangepointRange:      tm.ChangepointRange,
		Regressors:            tm.Regressors,
		SeasonalityPriorScale: tm.SeasonalityPriorScale,
		EventPriorScale:       tm.EventPriorScale,
		ChangepointPriorScale: tm.ChangepointPriorScale,
		DispersionPriorScale:  tm.DispersionPriorScale,
		IntervalWidth:         tm.IntervalWidth,
		UseLaplace:            tm.UseLaplace,
		LaplaceDraws:          tm.LaplaceDraws,
		TrendSamples:          tm.TrendSamples,
		VarianceMax:           tm.VarianceMax,
		Seed:                  tm.Seed,
	}
	for _, s := range tm.Seasonalities {
		period, err := time.ParseDuration(s.Period)
		if err != nil {
			return nil, errors.ConfigInvalid("seasonality " + s.Name + ": invalid period " + s.Period)
		}
		p.Seasonalities = append(p.Seasonalities, model.SeasonalitySpec{Name: s.Name, Period: period, Order: s.Order})
	}
	for _, e := range tm.Events {
		p.Events = append(p.Events, model.EventSpec{Name: e.Name, Start: e.Start, End: e.End})
	}
	return p, nil
}

// FromEnv builds a layer from GOGLAM_* environment variables. Unset or
// malformed variables are skipped, deferring to lower layers.
func FromEnv() *Partial {
	p := &Partial{}
	if v := os.Getenv("GOGLAM_MODEL"); v != "" {
		p.Family = &v
	}
	if v, ok := envInt("GOGLAM_N_CHANGEPOINTS"); ok {
		p.NChangepoints = &v
	}
	if v, ok := envFloat("GOGLAM_CHANGEPOINT_RANGE"); ok {
		p.ChangepointRange = &v
	}
	if v, ok := envFloat("GOGLAM_INTERVAL_WIDTH"); ok {
		p.IntervalWidth = &v
	}
	if v, ok := envBool("GOGLAM_USE_LAPLACE"); ok {
		p.UseLaplace = &v
	}
	if v, ok := envInt("GOGLAM_TREND_SAMPLES"); ok {
		p.TrendSamples = &v
	}
	if v, ok := envInt("GOGLAM_LAPLACE_DRAWS"); ok {
		p.LaplaceDraws = &v
	}
	if v, ok := envInt64("GOGLAM_SEED"); ok {
		p.Seed = &v
	}
	return p
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envInt64(key string) (int64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
