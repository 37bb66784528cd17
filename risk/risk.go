// Package risk turns survey answers into heart disease and diabetes risk
// results.
package risk

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/saqibullah/health-risk-predictor/features"
	"github.com/saqibullah/health-risk-predictor/predictor"
)

// Labels reported to the user.
const (
	HighRisk = "High Risk"
	LowRisk  = "Low Risk"
)

// Model names.
const (
	Heart    = "heart"
	Diabetes = "diabetes"
)

// Predictor operations named in PredictorError.
const (
	OpClassify    = "classify"
	OpProbability = "predict_proba"
)

// Result is one model's verdict.
type Result struct {
	Label              string  `json:"label"`
	ProbabilityPercent float64 `json:"probability_percent"`
}

// Assessment holds both verdicts for one survey response.
type Assessment struct {
	Heart    Result `json:"heart"`
	Diabetes Result `json:"diabetes"`
}

// PredictorError is returned when a trained model fails on a vector.
type PredictorError struct {
	Model string
	Op    string
	Err   error
}

func (e *PredictorError) Error() string {
	return fmt.Sprintf("%s model %s: %v", e.Model, e.Op, e.Err)
}

func (e *PredictorError) Unwrap() error { return e.Err }

// Predict runs one model on vec.
func Predict(ctx context.Context, model string, p predictor.Predictor, vec features.Vector) (Result, error) {
	class, err := p.Classify(ctx, vec)
	if err != nil {
		return Result{}, &PredictorError{Model: model, Op: OpClassify, Err: err}
	}
	prob, err := p.PositiveProbability(ctx, vec)
	if err != nil {
		return Result{}, &PredictorError{Model: model, Op: OpProbability, Err: err}
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return Result{}, &PredictorError{
			Model: model,
			Op:    OpProbability,
			Err:   fmt.Errorf("probability %v outside [0, 1]", prob),
		}
	}

	label := LowRisk
	if class == 1 {
		label = HighRisk
	}
	return Result{
		Label:              label,
		ProbabilityPercent: round2(prob * 100),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Service owns the two trained models for the lifetime of the process.
type Service struct {
	heart    predictor.Predictor
	diabetes predictor.Predictor
}

// NewService returns a Service using the given models.
func NewService(heart, diabetes predictor.Predictor) *Service {
	return &Service{heart: heart, diabetes: diabetes}
}

// Assess builds the feature vector from raw form values and runs both
// models. Any failure aborts the whole assessment; no partial result is
// returned.
func (s *Service) Assess(ctx context.Context, raw map[string]string) (*Assessment, error) {
	vec, err := features.Build(raw)
	if err != nil {
		return nil, err
	}

	heart, err := Predict(ctx, Heart, s.heart, vec)
	if err != nil {
		return nil, err
	}
	diabetes, err := Predict(ctx, Diabetes, s.diabetes, vec)
	if err != nil {
		return nil, err
	}

	return &Assessment{Heart: heart, Diabetes: diabetes}, nil
}

// Error kinds reported at the HTTP boundary.
const (
	KindMissingField = "missing_field"
	KindParse        = "parse_error"
	KindPredictor    = "predictor_error"
	KindInternal     = "internal"
)

// ErrorKind classifies an error returned by Assess.
func ErrorKind(err error) string {
	var (
		missing  *features.MissingFieldError
		parseErr *features.ParseError
		predErr  *PredictorError
	)
	switch {
	case errors.As(err, &missing):
		return KindMissingField
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &predErr):
		return KindPredictor
	default:
		return KindInternal
	}
}
