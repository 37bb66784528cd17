package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/saqibullah/health-risk-predictor/features"
)

// Scaler standardises each column as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Logistic is an exported scaler + logistic regression pipeline. A nil
// Threshold means 0.5.
type Logistic struct {
	Name         string    `json:"name"`
	Scaler       *Scaler   `json:"scaler,omitempty"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    *float64  `json:"threshold,omitempty"`
}

const defaultThreshold = 0.5

func (m *Logistic) validate() error {
	if len(m.Coefficients) == 0 {
		return errors.New("logistic model has no coefficients")
	}
	if len(m.Coefficients) != features.Width {
		return fmt.Errorf("%w: %d coefficients, want %d", ErrShape, len(m.Coefficients), features.Width)
	}
	if s := m.Scaler; s != nil {
		if len(s.Mean) != len(m.Coefficients) || len(s.Scale) != len(m.Coefficients) {
			return fmt.Errorf("scaler width %d/%d does not match %d coefficients",
				len(s.Mean), len(s.Scale), len(m.Coefficients))
		}
	}
	if m.Threshold == nil {
		t := defaultThreshold
		m.Threshold = &t
	}
	if t := *m.Threshold; t < 0 || t > 1 {
		return fmt.Errorf("threshold %v outside [0, 1]", t)
	}
	return nil
}

// Classify returns 1 when the positive probability exceeds the threshold.
func (m *Logistic) Classify(ctx context.Context, vec features.Vector) (int, error) {
	p, err := m.PositiveProbability(ctx, vec)
	if err != nil {
		return 0, err
	}
	if p > *m.Threshold {
		return 1, nil
	}
	return 0, nil
}

// PositiveProbability returns sigmoid(w·z + b).
func (m *Logistic) PositiveProbability(_ context.Context, vec features.Vector) (float64, error) {
	if err := checkShape(vec, len(m.Coefficients)); err != nil {
		return 0, err
	}

	z := m.Intercept
	for i, x := range vec {
		if s := m.Scaler; s != nil {
			if s.Scale[i] != 0 {
				x = (x - s.Mean[i]) / s.Scale[i]
			} else {
				x -= s.Mean[i]
			}
		}
		z += m.Coefficients[i] * x
	}
	return 1 / (1 + math.Exp(-z)), nil
}
