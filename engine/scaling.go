// Package engine implements the numeric core of the forecasting model:
// design-matrix construction, the piecewise-linear trend, fit orchestration
// against a fitter backend, uncertainty quantification and prediction
// assembly.
package engine

import (
	"fmt"
	"math"
	"time"

	"goglam/domain/model"
	"goglam/domain/series"
	"goglam/engine/family"
	"goglam/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// ColumnKind tags a design-matrix column by its origin, which decides the
// prior scale applied to its coefficient.
type ColumnKind int

const (
	ColumnSeasonality ColumnKind = iota
	ColumnEvent
	ColumnRegressor
)

// Column is the metadata for one design-matrix column.
type Column struct {
	Name       string
	Kind       ColumnKind
	PriorScale float64
}

// Design is the evaluated model basis at one set of timestamps: normalized
// times, the changepoint indicator matrix and the regression design matrix.
type Design struct {
	TNorm   []float64
	A       *mat.Dense // rows x changepoints; nil when no changepoints
	X       *mat.Dense // rows x columns; nil when no columns
	Columns []Column
}

// Rows returns the number of design rows.
func (d *Design) Rows() int { return len(d.TNorm) }

// NewScaling derives the scaling context from the training series: time
// origin and span, the family's linked offset/scale, range-based regressor
// scales and the variance ceiling. Degenerate inputs fail here, before any
// optimization is attempted.
func NewScaling(fam family.Family, cfg *model.Config, s *series.Series) (model.ScalingContext, error) {
	sc := model.ScalingContext{}
	span := s.Span()
	if span <= 0 {
		return sc, errors.DegenerateInput("series time span is zero")
	}
	sc.TimeOffset = s.Timestamps[0]
	sc.TimeSpan = span

	sc.LinkedOffset, sc.LinkedScale = fam.LinkedScaling(s.Values)

	sc.VarianceMax = cfg.VarianceMax
	if sc.VarianceMax == 0 {
		sc.VarianceMax = fam.DefaultVarianceMax(s.Values)
	}

	if len(cfg.Regressors) > 0 {
		sc.RegressorOffset = make(map[string]float64, len(cfg.Regressors))
		sc.RegressorScale = make(map[string]float64, len(cfg.Regressors))
		for _, name := range cfg.Regressors {
			col, ok := s.Regressors[name]
			if !ok {
				return sc, errors.ConfigInvalid(fmt.Sprintf("regressor %q not present in series", name))
			}
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range col {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
			if hi-lo <= 0 {
				return sc, errors.DegenerateInput(fmt.Sprintf("regressor %q is constant", name))
			}
			sc.RegressorOffset[name] = lo
			sc.RegressorScale[name] = hi - lo
		}
	}
	return sc, nil
}

// placeChangepoints returns candidate changepoints in normalized time:
// either the configured explicit timestamps, or n evenly spaced points over
// the first changepointRange fraction of the training span.
func placeChangepoints(cfg *model.Config, sc *model.ScalingContext) []float64 {
	if len(cfg.Changepoints) > 0 {
		out := make([]float64, 0, len(cfg.Changepoints))
		for _, t := range cfg.Changepoints {
			out = append(out, sc.NormalizeTime(t))
		}
		return out
	}
	out := make([]float64, 0, cfg.NChangepoints)
	for j := 1; j <= cfg.NChangepoints; j++ {
		out = append(out, cfg.ChangepointRange*float64(j)/float64(cfg.NChangepoints+1))
	}
	return out
}

// changepointMatrix builds the indicator matrix A with A[i][j] = 1 when row
// i's normalized time is at or past changepoint j.
func changepointMatrix(tNorm, changepoints []float64) *mat.Dense {
	if len(changepoints) == 0 {
		return nil
	}
	a := mat.NewDense(len(tNorm), len(changepoints), nil)
	for i, t := range tNorm {
		for j, s := range changepoints {
			if t >= s {
				a.Set(i, j, 1)
			}
		}
	}
	return a
}

// designBuilder evaluates the model basis at arbitrary timestamps using a
// fixed scaling context, so the same basis can be re-evaluated for any
// forecast horizon.
type designBuilder struct {
	cfg          *model.Config
	scaling      *model.ScalingContext
	changepoints []float64
}

// columns lists the design columns in deterministic order: seasonality
// Fourier pairs, then events, then regressors.
func (b *designBuilder) columns() []Column {
	var cols []Column
	for _, s := range b.cfg.Seasonalities {
		for k := 1; k <= s.Order; k++ {
			cols = append(cols,
				Column{Name: fmt.Sprintf("%s_sin_%d", s.Name, k), Kind: ColumnSeasonality, PriorScale: b.cfg.SeasonalityPriorScale},
				Column{Name: fmt.Sprintf("%s_cos_%d", s.Name, k), Kind: ColumnSeasonality, PriorScale: b.cfg.SeasonalityPriorScale},
			)
		}
	}
	for _, e := range b.cfg.Events {
		cols = append(cols, Column{Name: "event_" + e.Name, Kind: ColumnEvent, PriorScale: b.cfg.EventPriorScale})
	}
	for _, name := range b.cfg.Regressors {
		cols = append(cols, Column{Name: "regressor_" + name, Kind: ColumnRegressor, PriorScale: b.cfg.EventPriorScale})
	}
	return cols
}

// Build evaluates the design at the given timestamps. Regressor columns must
// be supplied for every requested row when the model was configured with
// regressors.
func (b *designBuilder) Build(times []time.Time, regressors map[string][]float64) (*Design, error) {
	n := len(times)
	if n == 0 {
		return nil, errors.InvalidInput("no timestamps to evaluate")
	}

	d := &Design{
		TNorm:   make([]float64, n),
		Columns: b.columns(),
	}
	for i, t := range times {
		d.TNorm[i] = b.scaling.NormalizeTime(t)
	}
	d.A = changepointMatrix(d.TNorm, b.changepoints)

	if len(d.Columns) == 0 {
		return d, nil
	}
	x := mat.NewDense(n, len(d.Columns), nil)

	col := 0
	for _, s := range b.cfg.Seasonalities {
		period := s.Period.Seconds()
		for k := 1; k <= s.Order; k++ {
			for i, t := range times {
				elapsed := t.Sub(b.scaling.TimeOffset).Seconds()
				phase := 2 * math.Pi * float64(k) * elapsed / period
				x.Set(i, col, math.Sin(phase))
				x.Set(i, col+1, math.Cos(phase))
			}
			col += 2
		}
	}
	for _, e := range b.cfg.Events {
		for i, t := range times {
			if !t.Before(e.Start) && t.Before(e.End) {
				x.Set(i, col, 1)
			}
		}
		col++
	}
	for _, name := range b.cfg.Regressors {
		vals, ok := regressors[name]
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("regressor %q values required for prediction", name))
		}
		if len(vals) != n {
			return nil, errors.InvalidInput(fmt.Sprintf("regressor %q has %d rows, expected %d", name, len(vals), n))
		}
		off := b.scaling.RegressorOffset[name]
		scale := b.scaling.RegressorScale[name]
		for i, v := range vals {
			x.Set(i, col, (v-off)/scale)
		}
		col++
	}

	d.X = x
	return d, nil
}
