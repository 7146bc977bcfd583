package model

import (
	"encoding/json"
	"time"

	"goglam/internal/errors"
)

// Snapshot is the serializable form of a fitted model: everything needed to
// rebuild an equivalent predictor without refitting. Design-matrix columns
// are not stored; they are reconstructed deterministically from the config
// and scaling context.
type Snapshot struct {
	Config  Config         `json:"config"`
	Scaling ScalingContext `json:"scaling"`

	// ChangepointTimes holds the candidate changepoints in normalized time.
	ChangepointTimes []float64 `json:"changepoint_times"`

	TrainEnd       time.Time     `json:"train_end"`
	TrainFrequency time.Duration `json:"train_frequency"`
	TrainRows      int           `json:"train_rows"`

	Params    Params     `json:"params"`
	Posterior *Posterior `json:"posterior,omitempty"`

	FittedAt time.Time `json:"fitted_at"`
}

// MarshalSnapshot encodes a snapshot as JSON.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal model snapshot")
	}
	return data, nil
}

// UnmarshalSnapshot decodes a snapshot from JSON and validates its config.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal model snapshot")
	}
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
