package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log"
	"os"
	"strconv"

	"goglam/adapters/excel"
	"goglam/adapters/optimizer"
	"goglam/domain/model"
	"goglam/domain/series"
	"goglam/engine"
	"goglam/internal/config"
	"goglam/ports"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("Usage: cli <run-config.toml>")
	}

	if err := run(os.Args[1]); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

func run(configPath string) error {
	rc, err := config.LoadRunConfig(configPath)
	if err != nil {
		return err
	}

	fileLayer, err := rc.ModelLayer()
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(fileLayer, config.FromEnv())
	if err != nil {
		return err
	}

	ctx := context.Background()
	reader := excel.NewDataReader()
	s, err := reader.ReadSeries(ctx, rc.Data.Source, ports.SeriesReadOptions{
		TimestampColumn:  rc.Data.TimestampColumn,
		ValueColumn:      rc.Data.ValueColumn,
		CapacityColumn:   rc.Data.CapacityColumn,
		RegressorColumns: rc.Data.Regressors,
		TimeLayout:       rc.Data.TimeLayout,
		Sheet:            rc.Data.Sheet,
	})
	if err != nil {
		return err
	}
	log.Printf("Loaded %d observations from %s", s.Len(), rc.Data.Source)

	m, err := engine.New(cfg)
	if err != nil {
		return err
	}
	if err := m.Fit(ctx, s, optimizer.NewGonumFitter()); err != nil {
		return err
	}
	log.Printf("Fitted %s model with %d changepoints", cfg.Family, len(m.Changepoints()))

	horizon := rc.Forecast.Horizon
	if horizon <= 0 {
		horizon = 30
	}
	times, err := m.Horizon(horizon, rc.Forecast.IncludeHistory)
	if err != nil {
		return err
	}
	pred, err := m.Predict(ctx, times, forecastOptions(s, len(times), rc.Forecast.IncludeHistory))
	if err != nil {
		return err
	}

	if rc.Forecast.Output == "" {
		return writeCSV(os.Stdout, pred)
	}
	return writeOutput(rc.Forecast.Output, pred)
}

// forecastOptions supplies capacity and regressor values for every forecast
// row. History rows reuse the training values; future rows carry the last
// observed value forward, since the run config has no forecast covariates.
func forecastOptions(s *series.Series, rows int, includeHistory bool) engine.PredictOptions {
	extend := func(vals []float64) []float64 {
		out := make([]float64, 0, rows)
		if includeHistory {
			out = append(out, vals...)
		}
		last := vals[len(vals)-1]
		for len(out) < rows {
			out = append(out, last)
		}
		return out
	}

	opts := engine.PredictOptions{}
	if len(s.Capacity) > 0 {
		opts.Capacity = extend(s.Capacity)
	}
	if len(s.Regressors) > 0 {
		opts.Regressors = make(map[string][]float64, len(s.Regressors))
		for name, vals := range s.Regressors {
			opts.Regressors[name] = extend(vals)
		}
	}
	return opts
}

func writeOutput(path string, pred *model.Prediction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if isJSONPath(path) {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(pred)
	}
	if err := writeCSV(f, pred); err != nil {
		return err
	}
	log.Printf("Wrote %d forecast rows to %s", len(pred.Rows), path)
	return nil
}

func isJSONPath(path string) bool {
	return len(path) > 5 && path[len(path)-5:] == ".json"
}

func writeCSV(f *os.File, pred *model.Prediction) error {
	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"timestamp", "yhat", "yhat_lower", "yhat_upper", "observed_lower", "observed_upper", "trend", "trend_lower", "trend_upper"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range pred.Rows {
		record := []string{
			row.Timestamp.Format("2006-01-02 15:04:05"),
			formatFloat(row.Yhat),
			formatFloat(row.YhatLower),
			formatFloat(row.YhatUpper),
			formatFloat(row.ObservedLower),
			formatFloat(row.ObservedUpper),
			formatFloat(row.Trend),
			formatFloat(row.TrendLower),
			formatFloat(row.TrendUpper),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
