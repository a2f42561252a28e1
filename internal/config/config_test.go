package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnv() envconfig.Lookuper {
	return envconfig.MapLookuper(map[string]string{})
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := load(context.Background(), path, noEnv())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "http://localhost:5000", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
api_url: https://events.college.edu
timeout: 45s
log:
  level: debug
output:
  format: json
`)

	cfg, err := load(context.Background(), path, noEnv())
	require.NoError(t, err)
	assert.Equal(t, "https://events.college.edu", cfg.APIURL)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset keys keep their default")
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "api_url: https://file.example\ntimeout: 10s\n")
	env := envconfig.MapLookuper(map[string]string{
		"SMARTEVENTS_API_URL":   "https://env.example",
		"SMARTEVENTS_LOG_LEVEL": "error",
		"SMARTEVENTS_NO_COLOR":  "true",
		"API_URL":               "https://unprefixed.example",
	})

	cfg, err := load(context.Background(), path, env)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout, "file value survives when env is unset")
	assert.Equal(t, "error", cfg.Log.Level)
	assert.True(t, cfg.Output.NoColor)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		env      map[string]string
		wantCode apperrors.ErrorCode
	}{
		{"malformed yaml", "api_url: [unterminated", nil, apperrors.ErrCodeConfigInvalid},
		{"bad url", "api_url: not a url\n", nil, apperrors.ErrCodeConfigInvalid},
		{"bad format", "output:\n  format: xml\n", nil, apperrors.ErrCodeConfigInvalid},
		{"bad env duration", "", map[string]string{"SMARTEVENTS_TIMEOUT": "soon"}, apperrors.ErrCodeConfigInvalid},
		{"zero timeout", "timeout: 0s\n", nil, apperrors.ErrCodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file)
			_, err := load(context.Background(), path, envconfig.MapLookuper(tt.env))
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	require.NoError(t, cfg.Set("api_url", "https://events.college.edu/"))
	require.NoError(t, cfg.Set("timeout", "1m"))

	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := load(context.Background(), path, noEnv())
	require.NoError(t, err)
	assert.Equal(t, "https://events.college.edu", loaded.APIURL)
	assert.Equal(t, time.Minute, loaded.Timeout)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	for _, key := range Keys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}

	require.NoError(t, cfg.Set("output.no_color", "true"))
	got, err := cfg.Get("output.no_color")
	require.NoError(t, err)
	assert.Equal(t, "true", got)

	require.NoError(t, cfg.Set("log.level", "DEBUG"))
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSetRejectsBadValuesWithoutChangingConfig(t *testing.T) {
	cfg := Default()

	err := cfg.Set("output.format", "xml")
	require.Error(t, err)
	assert.Equal(t, "text", cfg.Output.Format)

	err = cfg.Set("timeout", "forever")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputInvalid))

	err = cfg.Set("output.no_color", "maybe")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputInvalid))
}

func TestUnknownKey(t *testing.T) {
	cfg := Default()

	_, err := cfg.Get("provider")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigKey))

	err = cfg.Set("provider", "x")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigKey))
	assert.Contains(t, err.Error(), "api_url")
}

func TestLoadFileIgnoresEnvironment(t *testing.T) {
	path := writeFile(t, "api_url: https://file.example\n")
	t.Setenv("SMARTEVENTS_API_URL", "https://env.example")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example", cfg.APIURL)
}

func TestTelemetrySettings(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)

	require.NoError(t, cfg.Set("telemetry.enabled", "true"))
	require.NoError(t, cfg.Set("telemetry.endpoint", "http://localhost:4318"))
	require.NoError(t, cfg.Set("telemetry.sample_rate", "0.25"))
	assert.Equal(t, TelemetrySettings{Enabled: true, Endpoint: "http://localhost:4318", SampleRate: 0.25}, cfg.Telemetry)

	assert.Error(t, cfg.Set("telemetry.sample_rate", "2"))
	assert.Error(t, cfg.Set("telemetry.endpoint", "collector port 4318"))
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRate)
}
