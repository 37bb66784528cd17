package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"
)

// Model sources.
const (
	SourceFile   = "file"
	SourceRemote = "remote"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Models ModelsConfig `yaml:"models"`
	OCR    OCRConfig    `yaml:"ocr"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Mode        string `yaml:"mode"`
	FrontendURL string `yaml:"frontend_url"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ModelsConfig struct {
	Heart    ModelConfig `yaml:"heart"`
	Diabetes ModelConfig `yaml:"diabetes"`
}

// ModelConfig says where one trained model comes from.
type ModelConfig struct {
	Source  string        `yaml:"source"`
	Path    string        `yaml:"path"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type OCRConfig struct {
	Enabled bool   `yaml:"enabled"`
	Binary  string `yaml:"binary"`
	Lang    string `yaml:"lang"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Mode:        gin.ReleaseMode,
			FrontendURL: "*",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Models: ModelsConfig{
			Heart: ModelConfig{
				Source:  SourceFile,
				Path:    "artifacts/heart_pipeline.json",
				Timeout: 5 * time.Second,
			},
			Diabetes: ModelConfig{
				Source:  SourceFile,
				Path:    "artifacts/diabetes_pipeline.json",
				Timeout: 5 * time.Second,
			},
		},
		OCR: OCRConfig{
			Enabled: false,
			Binary:  "tesseract",
			Lang:    "eng",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	// PORT and FRONTEND_URL are what hosting platforms set
	if err := envInt("PORT", &cfg.Server.Port); err != nil {
		return err
	}
	envString("FRONTEND_URL", &cfg.Server.FrontendURL)

	envString("RISK_SERVER_HOST", &cfg.Server.Host)
	if err := envInt("RISK_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	envString("RISK_SERVER_MODE", &cfg.Server.Mode)

	envString("RISK_LOG_LEVEL", &cfg.Log.Level)
	envString("RISK_LOG_FORMAT", &cfg.Log.Format)
	envString("RISK_LOG_FILE", &cfg.Log.File)

	for prefix, m := range map[string]*ModelConfig{
		"RISK_HEART_":    &cfg.Models.Heart,
		"RISK_DIABETES_": &cfg.Models.Diabetes,
	} {
		envString(prefix+"SOURCE", &m.Source)
		envString(prefix+"PATH", &m.Path)
		envString(prefix+"URL", &m.URL)
		if v := os.Getenv(prefix + "TIMEOUT"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%sTIMEOUT: %w", prefix, err)
			}
			m.Timeout = d
		}
	}

	if v := os.Getenv("RISK_OCR_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RISK_OCR_ENABLED: %w", err)
		}
		cfg.OCR.Enabled = b
	}
	envString("RISK_OCR_BINARY", &cfg.OCR.Binary)
	envString("RISK_OCR_LANG", &cfg.OCR.Lang)
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate reports configuration that cannot start the service.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("server mode %q must be one of %s, %s, %s",
			c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
	if err := c.Models.Heart.validate("heart"); err != nil {
		return err
	}
	return c.Models.Diabetes.validate("diabetes")
}

func (m ModelConfig) validate(name string) error {
	switch m.Source {
	case SourceFile:
		if m.Path == "" {
			return fmt.Errorf("models.%s: path is required for file source", name)
		}
	case SourceRemote:
		if m.URL == "" {
			return fmt.Errorf("models.%s: url is required for remote source", name)
		}
	case "":
		return errors.New("models." + name + ": source is required")
	default:
		return fmt.Errorf("models.%s: unknown source %q", name, m.Source)
	}
	return nil
}
