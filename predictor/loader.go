package predictor

import (
	"fmt"

	"github.com/saqibullah/health-risk-predictor/config"
)

// Load returns the predictor named name from the configured source.
func Load(name string, cfg config.ModelConfig) (Predictor, error) {
	switch cfg.Source {
	case config.SourceFile:
		p, err := LoadFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("load %s model from %s: %w", name, cfg.Path, err)
		}
		return p, nil
	case config.SourceRemote:
		return NewRemote(name, cfg.URL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("load %s model: unknown source %q", name, cfg.Source)
	}
}
