// Package excel loads observation series from Excel and CSV files behind
// ports.SeriesReaderPort.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"goglam/domain/series"
	"goglam/internal"
	"goglam/internal/errors"
	"goglam/ports"

	"github.com/xuri/excelize/v2"
)

// DataReader reads tabular series data from Excel or CSV files.
type DataReader struct{}

// NewDataReader creates a reader that dispatches on file extension.
func NewDataReader() *DataReader {
	return &DataReader{}
}

// ReadSeries loads the named columns from the source file into a validated
// observation series.
func (r *DataReader) ReadSeries(ctx context.Context, source string, opts ports.SeriesReadOptions) (*series.Series, error) {
	if opts.TimestampColumn == "" || opts.ValueColumn == "" {
		return nil, errors.InvalidInput("timestamp and value columns are required")
	}
	if _, err := os.Stat(source); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("data file %s", source))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(source)) {
	case ".csv":
		rows, err = readCSVRows(source)
	case ".xlsx":
		rows, err = readExcelRows(source, opts.Sheet)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", filepath.Ext(source)))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("data file must have a header row and at least one data row")
	}

	return parseSeries(rows, opts)
}

func readCSVRows(source string) ([][]string, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file %s", source)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read CSV file %s", source)
	}
	return rows, nil
}

func readExcelRows(source, sheet string) ([][]string, error) {
	start := time.Now()
	f, err := excelize.OpenFile(source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open Excel file %s", source)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	internal.DefaultLogger.Debug("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func parseSeries(rows [][]string, opts ports.SeriesReadOptions) (*series.Series, error) {
	header := rows[0]
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	tsCol, ok := colIndex[opts.TimestampColumn]
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("timestamp column %q not found in header", opts.TimestampColumn))
	}
	valCol, ok := colIndex[opts.ValueColumn]
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("value column %q not found in header", opts.ValueColumn))
	}
	capCol := -1
	if opts.CapacityColumn != "" {
		if capCol, ok = colIndex[opts.CapacityColumn]; !ok {
			return nil, errors.ConfigInvalid(fmt.Sprintf("capacity column %q not found in header", opts.CapacityColumn))
		}
	}
	regCols := make(map[string]int, len(opts.RegressorColumns))
	for _, name := range opts.RegressorColumns {
		idx, ok := colIndex[name]
		if !ok {
			return nil, errors.ConfigInvalid(fmt.Sprintf("regressor column %q not found in header", name))
		}
		regCols[name] = idx
	}

	layout := opts.TimeLayout
	if layout == "" {
		layout = time.RFC3339
	}

	s := &series.Series{}
	if capCol >= 0 {
		s.Capacity = make([]float64, 0, len(rows)-1)
	}
	if len(regCols) > 0 {
		s.Regressors = make(map[string][]float64, len(regCols))
	}

	for i, row := range rows[1:] {
		ts, err := parseTimestamp(cell(row, tsCol), layout)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: bad timestamp", i+2)
		}
		val, err := strconv.ParseFloat(cell(row, valCol), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: bad value", i+2)
		}
		s.Timestamps = append(s.Timestamps, ts)
		s.Values = append(s.Values, val)

		if capCol >= 0 {
			c, err := strconv.ParseFloat(cell(row, capCol), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d: bad capacity", i+2)
			}
			s.Capacity = append(s.Capacity, c)
		}
		for name, idx := range regCols {
			v, err := strconv.ParseFloat(cell(row, idx), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d: bad regressor %s", i+2, name)
			}
			s.Regressors[name] = append(s.Regressors[name], v)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseTimestamp accepts the configured layout plus a couple of common date
// formats spreadsheet exports produce.
func parseTimestamp(v, layout string) (time.Time, error) {
	if ts, err := time.Parse(layout, v); err == nil {
		return ts, nil
	}
	for _, alt := range []string{"2006-01-02", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(alt, v); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q", v)
}
