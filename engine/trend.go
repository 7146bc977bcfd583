package engine

import (
	"time"

	"goglam/domain/model"
)

// trendAt evaluates the piecewise-linear trend at one normalized time. The
// rate picks up every delta whose changepoint has passed; the matching
// offset correction -s_j*delta_j keeps the line continuous at each
// changepoint.
func trendAt(tNorm float64, changepoints []float64, k, m float64, delta []float64) float64 {
	rate := k
	offset := m
	for j, s := range changepoints {
		if tNorm >= s {
			rate += delta[j]
			offset -= s * delta[j]
		}
	}
	return rate*tNorm + offset
}

// trendValues evaluates the trend over a normalized time grid.
func trendValues(tNorm []float64, changepoints []float64, k, m float64, delta []float64) []float64 {
	out := make([]float64, len(tNorm))
	for i, t := range tNorm {
		out[i] = trendAt(t, changepoints, k, m, delta)
	}
	return out
}

const dayDuration = 24 * time.Hour

// DenormalizeTrend rescales the normalized-space trend parameters into
// linked-scale units per day of raw time. Evaluating the denormalized
// parameterization at raw timestamps reproduces the normalized trend curve
// exactly.
func DenormalizeTrend(p model.Params, sc *model.ScalingContext) model.DenormalizedTrend {
	spanDays := float64(sc.TimeSpan) / float64(dayDuration)
	out := model.DenormalizedTrend{
		BaseRate: p.K * sc.LinkedScale / spanDays,
		Offset:   p.M*sc.LinkedScale + sc.LinkedOffset,
		Delta:    make([]float64, len(p.Delta)),
	}
	for j, d := range p.Delta {
		out.Delta[j] = d * sc.LinkedScale / spanDays
	}
	return out
}

// EvalDenormalizedTrend evaluates denormalized trend parameters directly in
// raw time, for round-trip verification against the normalized evaluation.
func EvalDenormalizedTrend(dt model.DenormalizedTrend, sc *model.ScalingContext, changepoints []float64, t time.Time) float64 {
	days := float64(t.Sub(sc.TimeOffset)) / float64(dayDuration)
	spanDays := float64(sc.TimeSpan) / float64(dayDuration)
	v := dt.Offset + dt.BaseRate*days
	tNorm := sc.NormalizeTime(t)
	for j, s := range changepoints {
		if tNorm >= s {
			v += dt.Delta[j] * (days - s*spanDays)
		}
	}
	return v
}
