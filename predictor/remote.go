package predictor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/saqibullah/health-risk-predictor/features"
)

// Remote delegates to a model server that holds the trained artifact.
type Remote struct {
	name   string
	client *resty.Client
}

type remoteRequest struct {
	Model    string             `json:"model"`
	Features map[string]float64 `json:"features"`
}

type remotePrediction struct {
	Prediction *int `json:"prediction"`
}

type remoteProbabilities struct {
	Probabilities [][]float64 `json:"probabilities"`
}

// NewRemote returns a predictor backed by the model server at baseURL.
func NewRemote(name, baseURL string, timeout time.Duration) *Remote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Remote{name: name, client: client}
}

func (r *Remote) post(ctx context.Context, path string, vec features.Vector, result interface{}) error {
	if err := checkShape(vec, features.Width); err != nil {
		return err
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(remoteRequest{Model: r.name, Features: vec.Map()}).
		SetResult(result).
		ForceContentType("application/json").
		Post(path)
	if err != nil {
		return fmt.Errorf("model server %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("model server %s: status %d: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}

// Classify calls POST /predict.
func (r *Remote) Classify(ctx context.Context, vec features.Vector) (int, error) {
	var out remotePrediction
	if err := r.post(ctx, "/predict", vec, &out); err != nil {
		return 0, err
	}
	if out.Prediction == nil {
		return 0, fmt.Errorf("model server /predict: reply has no prediction")
	}
	if c := *out.Prediction; c != 0 && c != 1 {
		return 0, fmt.Errorf("model server /predict: prediction %d is not a binary class", c)
	}
	return *out.Prediction, nil
}

// PositiveProbability calls POST /predict_proba and takes the class 1 column.
func (r *Remote) PositiveProbability(ctx context.Context, vec features.Vector) (float64, error) {
	var out remoteProbabilities
	if err := r.post(ctx, "/predict_proba", vec, &out); err != nil {
		return 0, err
	}
	if len(out.Probabilities) == 0 || len(out.Probabilities[0]) < 2 {
		return 0, fmt.Errorf("model server returned malformed probabilities: %v", out.Probabilities)
	}
	return out.Probabilities[0][1], nil
}
