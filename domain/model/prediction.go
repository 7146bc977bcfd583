package model

import (
	"time"
)

// PredictionRow is one forecast record. The column set is identical whether
// or not Laplace sampling was enabled; without it the confidence bounds
// collapse onto the point forecast.
type PredictionRow struct {
	Timestamp time.Time `json:"timestamp"`

	Yhat      float64 `json:"yhat"`
	YhatUpper float64 `json:"yhat_upper"`
	YhatLower float64 `json:"yhat_lower"`

	ObservedUpper float64 `json:"observed_upper"`
	ObservedLower float64 `json:"observed_lower"`

	Trend      float64 `json:"trend"`
	TrendUpper float64 `json:"trend_upper"`
	TrendLower float64 `json:"trend_lower"`

	// Linked-scale counterparts report each quantity on the linear
	// predictor scale before the inverse link is applied.
	YhatLinked          float64 `json:"yhat_linked"`
	YhatUpperLinked     float64 `json:"yhat_upper_linked"`
	YhatLowerLinked     float64 `json:"yhat_lower_linked"`
	ObservedUpperLinked float64 `json:"observed_upper_linked"`
	ObservedLowerLinked float64 `json:"observed_lower_linked"`
	TrendLinked         float64 `json:"trend_linked"`
	TrendUpperLinked    float64 `json:"trend_upper_linked"`
	TrendLowerLinked    float64 `json:"trend_lower_linked"`
}

// Prediction is the assembled forecast over one output grid.
type Prediction struct {
	Rows []PredictionRow `json:"rows"`
}

// Len returns the number of forecast rows.
func (p *Prediction) Len() int { return len(p.Rows) }
