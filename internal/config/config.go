// Package config loads the smartevents client configuration.
//
// Values are resolved in this order, later sources winning: built-in
// defaults, the YAML file at ~/.smartevents/config.yaml, and SMARTEVENTS_*
// environment variables. Command-line flags are applied on top by the
// command layer.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SMARTEVENTS_"

const (
	DefaultAPIURL  = "http://localhost:5000"
	DefaultTimeout = 30 * time.Second
)

// Config is the client configuration.
type Config struct {
	APIURL      string            `yaml:"api_url" json:"api_url" env:"API_URL, overwrite" validate:"required,url"`
	Timeout     time.Duration     `yaml:"timeout" json:"timeout" env:"TIMEOUT, overwrite" validate:"gt=0s"`
	SessionFile string            `yaml:"session_file,omitempty" json:"session_file,omitempty" env:"SESSION_FILE, overwrite"`
	Log         LogSettings       `yaml:"log" json:"log"`
	Output      OutputSettings    `yaml:"output" json:"output"`
	Telemetry   TelemetrySettings `yaml:"telemetry" json:"telemetry"`
}

// LogSettings controls diagnostic logging.
type LogSettings struct {
	Level  string `yaml:"level" json:"level" env:"LOG_LEVEL, overwrite" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" json:"format" env:"LOG_FORMAT, overwrite" validate:"omitempty,oneof=text json"`
}

// OutputSettings controls how command results are printed.
type OutputSettings struct {
	Format  string `yaml:"format" json:"format" env:"FORMAT, overwrite" validate:"omitempty,oneof=text json yaml"`
	NoColor bool   `yaml:"no_color" json:"no_color" env:"NO_COLOR, overwrite"`
}

// TelemetrySettings controls OpenTelemetry tracing of commands and API
// requests. Spans are exported over OTLP/HTTP only when an endpoint URL
// (e.g. http://localhost:4318) is set.
type TelemetrySettings struct {
	Enabled    bool    `yaml:"enabled" json:"enabled" env:"TELEMETRY_ENABLED, overwrite"`
	Endpoint   string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty" env:"TELEMETRY_ENDPOINT, overwrite" validate:"omitempty,url"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate" env:"TELEMETRY_SAMPLE_RATE, overwrite" validate:"gte=0,lte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:  DefaultAPIURL,
		Timeout: DefaultTimeout,
		Log: LogSettings{
			Level:  "warn",
			Format: "text",
		},
		Output: OutputSettings{
			Format: "text",
		},
		Telemetry: TelemetrySettings{
			SampleRate: 1.0,
		},
	}
}

// DefaultPath returns ~/.smartevents/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".smartevents", "config.yaml"), nil
}

// Load resolves the configuration from defaults, the file at path and the
// process environment. A missing file is not an error.
func Load(ctx context.Context, path string) (*Config, error) {
	return load(ctx, path, envconfig.OsLookuper())
}

func load(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfigInvalid, "invalid environment configuration", err).
			WithSuggestion(fmt.Sprintf("Check the %s* environment variables", EnvPrefix))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile resolves defaults and the file at path only. Use it when the
// result is written back, so environment overrides never leak into the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigRead, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigInvalid, fmt.Sprintf("failed to parse %s", path), err).
			WithSuggestion("Run 'smartevents config view' after fixing the file")
	}
	return nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigInvalid, "invalid configuration", err)
	}
	return nil
}

// Save writes the configuration to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigWrite, "failed to marshal config", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigWrite, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigWrite, "failed to write config", err)
	}
	return nil
}

// Keys lists the settable keys in dot notation.
func Keys() []string {
	return []string{
		"api_url",
		"timeout",
		"session_file",
		"log.level",
		"log.format",
		"output.format",
		"output.no_color",
		"telemetry.enabled",
		"telemetry.endpoint",
		"telemetry.sample_rate",
	}
}

// Get returns the value of key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "timeout":
		return c.Timeout.String(), nil
	case "session_file":
		return c.SessionFile, nil
	case "log.level":
		return c.Log.Level, nil
	case "log.format":
		return c.Log.Format, nil
	case "output.format":
		return c.Output.Format, nil
	case "output.no_color":
		return strconv.FormatBool(c.Output.NoColor), nil
	case "telemetry.enabled":
		return strconv.FormatBool(c.Telemetry.Enabled), nil
	case "telemetry.endpoint":
		return c.Telemetry.Endpoint, nil
	case "telemetry.sample_rate":
		return strconv.FormatFloat(c.Telemetry.SampleRate, 'g', -1, 64), nil
	default:
		return "", apperrors.NewConfigKeyError(key, Keys())
	}
}

// Set parses value into key. The result is validated before it is applied,
// so a rejected value leaves c unchanged.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "api_url":
		next.APIURL = strings.TrimRight(value, "/")
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return apperrors.NewInputInvalidError(fmt.Sprintf("timeout %q is not a duration", value), err)
		}
		next.Timeout = d
	case "session_file":
		next.SessionFile = value
	case "log.level":
		next.Log.Level = strings.ToLower(value)
	case "log.format":
		next.Log.Format = strings.ToLower(value)
	case "output.format":
		next.Output.Format = strings.ToLower(value)
	case "output.no_color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return apperrors.NewInputInvalidError(fmt.Sprintf("no_color %q is not a boolean", value), err)
		}
		next.Output.NoColor = b
	case "telemetry.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return apperrors.NewInputInvalidError(fmt.Sprintf("telemetry.enabled %q is not a boolean", value), err)
		}
		next.Telemetry.Enabled = b
	case "telemetry.endpoint":
		next.Telemetry.Endpoint = value
	case "telemetry.sample_rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return apperrors.NewInputInvalidError(fmt.Sprintf("telemetry.sample_rate %q is not a number", value), err)
		}
		next.Telemetry.SampleRate = f
	default:
		return apperrors.NewConfigKeyError(key, Keys())
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
