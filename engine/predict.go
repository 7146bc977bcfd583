package engine

import (
	"context"
	"time"

	"github.com/montanaflynn/stats"

	"goglam/domain/model"
	"goglam/domain/series"
	"goglam/internal/errors"
)

// PredictOptions carries the per-row inputs a forecast horizon may need:
// future capacities for bounded count families and future regressor values
// for models configured with regressors.
type PredictOptions struct {
	Capacity   []float64
	Regressors map[string][]float64
}

// Horizon builds a forecast grid continuing the training cadence for the
// given number of steps, optionally prefixed with the training timestamps.
func (m *Model) Horizon(steps int, includeHistory bool) ([]time.Time, error) {
	if !m.fitted {
		return nil, errors.NotFitted("model has not been fit")
	}
	out := make([]time.Time, 0, steps)
	if includeHistory {
		n := m.trainRows
		for i := 0; i < n; i++ {
			out = append(out, m.trainEnd.Add(-time.Duration(n-1-i)*m.trainFreq))
		}
	}
	for i := 1; i <= steps; i++ {
		out = append(out, m.trainEnd.Add(time.Duration(i)*m.trainFreq))
	}
	return out, nil
}

// Predict assembles the full decomposed forecast at the given timestamps:
// point forecast, trend, confidence bounds from the Laplace draws and data
// variability bounds from the family's quantile function, each also on the
// linked scale. The fitted model is never mutated; Predict is safe to call
// concurrently and repeatedly with different horizons.
func (m *Model) Predict(ctx context.Context, times []time.Time, opts PredictOptions) (*model.Prediction, error) {
	if !m.fitted {
		return nil, errors.NotFitted("model has not been fit")
	}
	n := len(times)
	if n == 0 {
		return nil, errors.InvalidInput("no timestamps to predict")
	}

	bounded := m.fam.Domain() == series.DomainBoundedInt
	if bounded {
		if len(opts.Capacity) != n {
			return nil, errors.InvalidInput("capacity values required for every forecast row")
		}
	}

	design, err := m.builder().Build(times, opts.Regressors)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// point estimate on the normalized linked scale
	etaTrend := trendValues(design.TNorm, m.changepoints, m.params.K, m.params.M, m.params.Delta)
	eta := m.linearPredictor(design, m.params)

	trendLo, trendHi, err := m.simulateTrendBounds(design.TNorm)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// confidence spread from the Laplace draws' point predictions
	var drawEtas [][]float64
	if m.posterior.Len() > 0 {
		drawEtas = make([][]float64, m.posterior.Len())
		for d, p := range m.posterior.Draws {
			drawEtas[d] = m.linearPredictor(design, p)
		}
	}

	pLo := (1 - m.cfg.IntervalWidth) / 2
	pHi := 1 - pLo

	pred := &model.Prediction{Rows: make([]model.PredictionRow, n)}
	drawSample := make([]float64, len(drawEtas))
	for i := 0; i < n; i++ {
		capacity := 0.0
		if bounded {
			capacity = opts.Capacity[i]
		}

		etaLinked := m.denormLinked(eta[i])
		trendLinked := m.denormLinked(etaTrend[i])
		trendLoLinked := m.denormLinked(trendLo[i])
		trendHiLinked := m.denormLinked(trendHi[i])

		row := model.PredictionRow{
			Timestamp:        times[i],
			Yhat:             m.fam.Mean(etaLinked, capacity),
			YhatLinked:       etaLinked,
			Trend:            m.fam.Mean(trendLinked, capacity),
			TrendLinked:      trendLinked,
			TrendLower:       m.fam.Mean(trendLoLinked, capacity),
			TrendUpper:       m.fam.Mean(trendHiLinked, capacity),
			TrendLowerLinked: trendLoLinked,
			TrendUpperLinked: trendHiLinked,
		}

		if len(drawEtas) > 0 {
			for d := range drawEtas {
				drawSample[d] = m.denormLinked(drawEtas[d][i])
			}
			loLinked, err := stats.Percentile(drawSample, 100*pLo)
			if err != nil {
				return nil, errors.Wrap(err, "failed to aggregate confidence bounds")
			}
			hiLinked, err := stats.Percentile(drawSample, 100*pHi)
			if err != nil {
				return nil, errors.Wrap(err, "failed to aggregate confidence bounds")
			}
			row.YhatLowerLinked = loLinked
			row.YhatUpperLinked = hiLinked
			row.YhatLower = m.fam.Mean(loLinked, capacity)
			row.YhatUpper = m.fam.Mean(hiLinked, capacity)
		} else {
			// without Laplace sampling the confidence band collapses
			// onto the point forecast
			row.YhatLowerLinked = etaLinked
			row.YhatUpperLinked = etaLinked
			row.YhatLower = row.Yhat
			row.YhatUpper = row.Yhat
		}

		row.ObservedLower = m.fam.Quantile(pLo, etaLinked, m.params.Kappa, capacity, m.scaling.VarianceMax)
		row.ObservedUpper = m.fam.Quantile(pHi, etaLinked, m.params.Kappa, capacity, m.scaling.VarianceMax)
		row.ObservedLowerLinked = m.linkedObservation(row.ObservedLower, capacity)
		row.ObservedUpperLinked = m.linkedObservation(row.ObservedUpper, capacity)

		pred.Rows[i] = row
	}
	return pred, nil
}

// linearPredictor evaluates trend plus regression terms on the normalized
// linked scale for one parameter set.
func (m *Model) linearPredictor(d *Design, p model.Params) []float64 {
	out := trendValues(d.TNorm, m.changepoints, p.K, p.M, p.Delta)
	for i := range out {
		for c := range d.Columns {
			out[i] += d.X.At(i, c) * p.Beta[c]
		}
	}
	return out
}

// denormLinked maps the normalized linear predictor onto the linked scale.
func (m *Model) denormLinked(eta float64) float64 {
	return eta*m.scaling.LinkedScale + m.scaling.LinkedOffset
}
