package ports

import (
	"context"

	"goglam/domain/series"
)

// SeriesReaderPort loads an observation series from an external source such
// as a CSV or Excel file. Column mapping is the adapter's concern; the core
// receives a validated series.
type SeriesReaderPort interface {
	ReadSeries(ctx context.Context, source string, opts SeriesReadOptions) (*series.Series, error)
}

// SeriesReadOptions names the columns to extract from a tabular source.
type SeriesReadOptions struct {
	// TimestampColumn and ValueColumn are required.
	TimestampColumn string
	ValueColumn     string

	// CapacityColumn supplies per-row trial counts for bounded count
	// families. Optional.
	CapacityColumn string

	// RegressorColumns lists additional numeric columns to carry along.
	RegressorColumns []string

	// TimeLayout overrides timestamp parsing; RFC 3339 when empty.
	TimeLayout string

	// Sheet selects a worksheet for spreadsheet sources.
	Sheet string
}
