package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, time.Second, cfg.Recognition.Debounce())
	assert.Equal(t, 2*time.Second, cfg.Recognition.SpeechCooldown())
	assert.Equal(t, 1, cfg.Detector.MaxHands)
	assert.Equal(t, 0.7, cfg.Detector.MinConfidence)
	assert.Equal(t, 0.5, cfg.Detector.MinTrackingConfidence)
	assert.Equal(t, 10*time.Second, cfg.Speech.Timeout())
}

func TestLoad(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		v := viper.New()
		Prepare(v, "")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 1000, cfg.Recognition.DebounceMs)
		assert.Equal(t, []string{"--stdin"}, cfg.Speech.Args)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "addr: \":9090\"\nrecognition:\n  debounce_ms: 750\nspeech:\n  command: say\n  args: []\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		v := viper.New()
		Prepare(v, path)

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 750, cfg.Recognition.DebounceMs)
		assert.Equal(t, 2000, cfg.Recognition.SpeechCooldownMs)
		assert.Equal(t, "say", cfg.Speech.Command)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644))
		t.Setenv("MUDRA_LOG_LEVEL", "debug")
		t.Setenv("MUDRA_CAMERA_ID", "2")

		v := viper.New()
		Prepare(v, path)

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, 2, cfg.CameraID)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		v := viper.New()
		Prepare(v, filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := Load(v)
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("recognition:\n  max_lag: 0\n"), 0644))

		v := viper.New()
		Prepare(v, path)

		_, err := Load(v)
		assert.ErrorIs(t, err, ErrInvalidLag)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"empty addr", func(c *Config) { c.Addr = "" }, false},
		{"zero debounce", func(c *Config) { c.Recognition.DebounceMs = 0 }, false},
		{"zero pose rate", func(c *Config) { c.Recognition.PoseRate = 0 }, false},
		{"confidence above one", func(c *Config) { c.Detector.MinConfidence = 1.5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, Default(), cfg)

	assert.Error(t, WriteDefault(path), "existing file must not be overwritten")
}
