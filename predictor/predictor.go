// Package predictor wraps the pre-trained risk models behind a two-method
// capability. Models are loaded once at startup and never mutated afterwards,
// so a single instance is shared by all requests.
package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/saqibullah/health-risk-predictor/features"
)

// Predictor is a trained binary classifier.
type Predictor interface {
	// Classify returns 0 or 1.
	Classify(ctx context.Context, vec features.Vector) (int, error)

	// PositiveProbability returns the estimated probability of class 1.
	PositiveProbability(ctx context.Context, vec features.Vector) (float64, error)
}

// Model kinds understood by LoadFile.
const (
	KindLogistic = "logistic"
	KindTree     = "tree"
)

var (
	ErrUnsupportedKind = errors.New("unsupported model kind")
	ErrFeatureOrder    = errors.New("artifact feature order does not match")
	ErrShape           = errors.New("feature vector has wrong length")
)

// artifact is the on-disk header shared by every model kind.
type artifact struct {
	Kind     string   `json:"kind"`
	Name     string   `json:"name"`
	Features []string `json:"features"`
}

// LoadFile reads a JSON model artifact and returns the predictor it
// describes.
func LoadFile(path string) (Predictor, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return Parse(payload)
}

// Parse decodes a model artifact from memory.
func Parse(payload []byte) (Predictor, error) {
	var head artifact
	if err := json.Unmarshal(payload, &head); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if err := checkFeatureOrder(head.Features); err != nil {
		return nil, err
	}

	switch head.Kind {
	case KindLogistic:
		var m Logistic
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("decode logistic model: %w", err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	case KindTree:
		var m Tree
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("decode tree model: %w", err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, head.Kind)
	}
}

// checkFeatureOrder accepts an artifact that omits its column list, but one
// that declares it must match features.FeatureOrder exactly.
func checkFeatureOrder(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != features.Width {
		return fmt.Errorf("%w: %d columns, want %d", ErrFeatureOrder, len(names), features.Width)
	}
	for i, name := range names {
		if name != features.FeatureOrder[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrFeatureOrder, i, name, features.FeatureOrder[i])
		}
	}
	return nil
}

func checkShape(vec features.Vector, width int) error {
	if len(vec) != width {
		return fmt.Errorf("%w: got %d, want %d", ErrShape, len(vec), width)
	}
	return nil
}
