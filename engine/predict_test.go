package engine_test

import (
	"context"
	"math"
	"testing"
	"time"

	"goglam/adapters/optimizer"
	"goglam/domain/model"
	"goglam/domain/series"
	"goglam/engine"
	"goglam/internal/errors"
	"goglam/internal/testkit"
)

func TestConfidenceBandCollapsesWithoutLaplace(t *testing.T) {
	s := generator().LinearTrendNormal(1, 10, 1)
	cfg := baseConfig("normal")
	cfg.UseLaplace = false

	m, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Fit(context.Background(), s, optimizer.NewGonumFitter()); err != nil {
		t.Fatal(err)
	}
	times, _ := m.Horizon(10, false)
	pred, err := m.Predict(context.Background(), times, engine.PredictOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range pred.Rows {
		if row.YhatLower != row.Yhat || row.YhatUpper != row.Yhat {
			t.Fatalf("row %d: band (%v, %v) should collapse onto %v without posterior draws",
				i, row.YhatLower, row.YhatUpper, row.Yhat)
		}
	}
}

func TestLaplaceSamplingWidensConfidenceBand(t *testing.T) {
	s := generator().LinearTrendNormal(1, 10, 1)
	cfg := baseConfig("normal")
	cfg.UseLaplace = true

	m, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Fit(context.Background(), s, optimizer.NewGonumFitter()); err != nil {
		t.Fatal(err)
	}

	snap, err := m.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Posterior.Len() != cfg.LaplaceDraws {
		t.Fatalf("expected %d posterior draws, got %d", cfg.LaplaceDraws, snap.Posterior.Len())
	}

	times, _ := m.Horizon(10, false)
	pred, err := m.Predict(context.Background(), times, engine.PredictOptions{})
	if err != nil {
		t.Fatal(err)
	}
	widened := false
	for i, row := range pred.Rows {
		if row.YhatLower > row.YhatUpper {
			t.Fatalf("row %d: inverted confidence band (%v, %v)", i, row.YhatLower, row.YhatUpper)
		}
		if row.YhatUpper-row.YhatLower > 0 {
			widened = true
		}
	}
	if !widened {
		t.Error("posterior draws produced a zero-width band on every row")
	}
}

func TestObservedBandRespectsUnitInterval(t *testing.T) {
	s := generator().BoundedProportion(0.6, 0.2)
	cfg := baseConfig("beta")

	m, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Fit(context.Background(), s, optimizer.NewGonumFitter()); err != nil {
		t.Fatal(err)
	}
	times, _ := m.Horizon(20, false)
	pred, err := m.Predict(context.Background(), times, engine.PredictOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range pred.Rows {
		if row.Yhat < 0 || row.Yhat > 1 {
			t.Errorf("row %d: proportion forecast %v escapes [0,1]", i, row.Yhat)
		}
		if row.ObservedLower < 0 || row.ObservedUpper > 1 {
			t.Errorf("row %d: observed band (%v, %v) escapes [0,1]",
				i, row.ObservedLower, row.ObservedUpper)
		}
	}
}

func TestBetaStaysBoundedWhereNormalEscapes(t *testing.T) {
	// Proportions wobbling near the upper boundary. The beta family must
	// keep every forecast column inside [0,1]; a normal fit on the same
	// data has no such constraint and its variability band crosses 1.
	gcfg := testkit.DefaultGeneratorConfig()
	s := &series.Series{
		Timestamps: make([]time.Time, gcfg.Rows),
		Values:     make([]float64, gcfg.Rows),
	}
	for i := range s.Values {
		s.Timestamps[i] = gcfg.Start.Add(time.Duration(i) * gcfg.Step)
		s.Values[i] = 0.85 + 0.12*math.Sin(2*math.Pi*float64(i)/9)
	}

	forecast := func(family string) *model.Prediction {
		t.Helper()
		cfg := baseConfig(family)
		cfg.IntervalWidth = 0.98
		m, err := engine.New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if err := m.Fit(context.Background(), s, optimizer.NewGonumFitter()); err != nil {
			t.Fatalf("%s fit failed: %v", family, err)
		}
		times, _ := m.Horizon(14, false)
		pred, err := m.Predict(context.Background(), times, engine.PredictOptions{})
		if err != nil {
			t.Fatal(err)
		}
		return pred
	}

	beta := forecast("beta")
	for i, row := range beta.Rows {
		for _, v := range []float64{row.Yhat, row.YhatLower, row.YhatUpper, row.ObservedLower, row.ObservedUpper} {
			if v < 0 || v > 1 {
				t.Fatalf("beta row %d: forecast column %v escapes [0,1]", i, v)
			}
		}
	}

	normal := forecast("normal")
	escaped := false
	for _, row := range normal.Rows {
		if row.ObservedUpper > 1 {
			escaped = true
			break
		}
	}
	if !escaped {
		t.Error("normal variability band stayed inside [0,1]; boundary data should push it past 1")
	}
}

func TestWiderIntervalWidensObservedBand(t *testing.T) {
	s := generator().LinearTrendNormal(1, 10, 2)
	m, err := engine.New(baseConfig("normal"))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Fit(context.Background(), s, optimizer.NewGonumFitter()); err != nil {
		t.Fatal(err)
	}
	snap, err := m.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	predictWithWidth := func(width float64) []float64 {
		copied := *snap
		copied.Config.IntervalWidth = width
		rebuilt, err := engine.FromSnapshot(&copied)
		if err != nil {
			t.Fatal(err)
		}
		times, _ := rebuilt.Horizon(5, false)
		pred, err := rebuilt.Predict(context.Background(), times, engine.PredictOptions{})
		if err != nil {
			t.Fatal(err)
		}
		widths := make([]float64, len(pred.Rows))
		for i, row := range pred.Rows {
			widths[i] = row.ObservedUpper - row.ObservedLower
		}
		return widths
	}

	narrow := predictWithWidth(0.5)
	wide := predictWithWidth(0.95)
	for i := range narrow {
		if wide[i] <= narrow[i] {
			t.Errorf("row %d: interval 0.95 band %v not wider than 0.5 band %v",
				i, wide[i], narrow[i])
		}
	}
}

func TestTrendBandDegeneratesWithoutSamples(t *testing.T) {
	s := generator().TrendWithChangepoint(1, -1, 50, 0.5, 0.5)
	cfg := baseConfig("normal")
	cfg.TrendSamples = 0

	m, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Fit(context.Background(), s, optimizer.NewGonumFitter()); err != nil {
		t.Fatal(err)
	}
	times, _ := m.Horizon(10, true)
	pred, err := m.Predict(context.Background(), times, engine.PredictOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range pred.Rows {
		if row.TrendLower != row.Trend || row.TrendUpper != row.Trend {
			t.Fatalf("row %d: trend band (%v, %v) should degenerate to %v with sampling disabled",
				i, row.TrendLower, row.TrendUpper, row.Trend)
		}
	}
}

func TestTrendBandBracketsAndGrowsIntoTheFuture(t *testing.T) {
	s := generator().TrendWithChangepoint(1, -1, 50, 0.5, 0.5)
	cfg := baseConfig("normal")
	cfg.TrendSamples = 200

	m, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Fit(context.Background(), s, optimizer.NewGonumFitter()); err != nil {
		t.Fatal(err)
	}

	history, _ := m.Horizon(0, true)
	histPred, err := m.Predict(context.Background(), history, engine.PredictOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range histPred.Rows {
		if row.TrendLower != row.Trend || row.TrendUpper != row.Trend {
			t.Fatalf("in-sample row %d should carry a degenerate trend band", i)
		}
	}

	future, _ := m.Horizon(20, false)
	pred, err := m.Predict(context.Background(), future, engine.PredictOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range pred.Rows {
		if row.TrendLower > row.Trend || row.TrendUpper < row.Trend {
			t.Fatalf("future row %d: band (%v, %v) does not bracket trend %v",
				i, row.TrendLower, row.TrendUpper, row.Trend)
		}
	}
	first := pred.Rows[0].TrendUpper - pred.Rows[0].TrendLower
	last := pred.Rows[len(pred.Rows)-1].TrendUpper - pred.Rows[len(pred.Rows)-1].TrendLower
	if last < first {
		t.Errorf("trend uncertainty shrank with the horizon: first %v, last %v", first, last)
	}
}

func TestBoundedFamilyRequiresFutureCapacity(t *testing.T) {
	s := generator().BinomialCounts(20, 0.3)
	cfg := baseConfig("binomial")

	m, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Fit(context.Background(), s, optimizer.NewGonumFitter()); err != nil {
		t.Fatal(err)
	}
	times, _ := m.Horizon(5, false)

	if _, err := m.Predict(context.Background(), times, engine.PredictOptions{}); errors.GetCode(err) != errors.CodeInvalidInput {
		t.Fatalf("expected invalid input without capacity, got %v", err)
	}

	caps := []float64{20, 20, 20, 20, 20}
	pred, err := m.Predict(context.Background(), times, engine.PredictOptions{Capacity: caps})
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range pred.Rows {
		if row.Yhat < 0 || row.Yhat > 20 {
			t.Errorf("row %d: forecast %v escapes [0, capacity]", i, row.Yhat)
		}
		if row.ObservedLower < 0 || row.ObservedUpper > 20 {
			t.Errorf("row %d: observed band (%v, %v) escapes [0, capacity]",
				i, row.ObservedLower, row.ObservedUpper)
		}
	}
}

func TestHorizonContinuesTrainingCadence(t *testing.T) {
	s := generator().LinearTrendNormal(1, 0, 1)
	m, err := engine.New(baseConfig("normal"))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Fit(context.Background(), s, optimizer.NewGonumFitter()); err != nil {
		t.Fatal(err)
	}

	times, err := m.Horizon(3, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 3 {
		t.Fatalf("expected 3 future timestamps, got %d", len(times))
	}
	last := s.Timestamps[len(s.Timestamps)-1]
	for i, ts := range times {
		want := last.Add(time.Duration(i+1) * 24 * time.Hour)
		if !ts.Equal(want) {
			t.Errorf("times[%d] = %v, want %v", i, ts, want)
		}
	}

	withHistory, err := m.Horizon(3, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(withHistory) != len(s.Timestamps)+3 {
		t.Fatalf("expected history plus horizon, got %d", len(withHistory))
	}
	if !withHistory[0].Equal(s.Timestamps[0]) {
		t.Error("history must start at the first training timestamp")
	}
}
