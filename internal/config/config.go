// Package config loads mudra settings from defaults, a YAML file, MUDRA_*
// environment variables and command line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. MUDRA_ADDR.
const EnvPrefix = "MUDRA"

// Config is the full application configuration.
type Config struct {
	Addr            string  `yaml:"addr" mapstructure:"addr"`
	DataDir         string  `yaml:"data_dir" mapstructure:"data_dir"`
	WebDir          string  `yaml:"web_dir" mapstructure:"web_dir"`
	Tray            bool    `yaml:"tray" mapstructure:"tray"`
	CameraID        int     `yaml:"camera_id" mapstructure:"camera_id"`
	MotionThreshold float64 `yaml:"motion_threshold" mapstructure:"motion_threshold"`

	Recognition RecognitionConfig `yaml:"recognition" mapstructure:"recognition"`
	Detector    DetectorConfig    `yaml:"detector" mapstructure:"detector"`
	Speech      SpeechConfig      `yaml:"speech" mapstructure:"speech"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// RecognitionConfig tunes the state machine and the pipeline stage.
type RecognitionConfig struct {
	DebounceMs       int     `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	SpeechCooldownMs int     `yaml:"speech_cooldown_ms" mapstructure:"speech_cooldown_ms"`
	PoseRate         float64 `yaml:"pose_rate" mapstructure:"pose_rate"`
	MaxLag           int     `yaml:"max_lag" mapstructure:"max_lag"`
}

// Debounce returns the debounce interval.
func (r RecognitionConfig) Debounce() time.Duration {
	return time.Duration(r.DebounceMs) * time.Millisecond
}

// SpeechCooldown returns the speech cooldown.
func (r RecognitionConfig) SpeechCooldown() time.Duration {
	return time.Duration(r.SpeechCooldownMs) * time.Millisecond
}

// DetectorConfig is passed to both landmark services.
type DetectorConfig struct {
	MaxHands              int     `yaml:"max_hands" mapstructure:"max_hands"`
	MinConfidence         float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	MinTrackingConfidence float64 `yaml:"min_tracking_confidence" mapstructure:"min_tracking_confidence"`
}

// SpeechConfig selects the text-to-speech command. The text is written to
// the command's stdin.
type SpeechConfig struct {
	Command   string   `yaml:"command" mapstructure:"command"`
	Args      []string `yaml:"args" mapstructure:"args"`
	TimeoutMs int      `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

// Timeout returns the per-utterance timeout.
func (s SpeechConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            ":8080",
		DataDir:         defaultDataDir(),
		Tray:            true,
		CameraID:        0,
		MotionThreshold: 1.0,
		Recognition: RecognitionConfig{
			DebounceMs:       1000,
			SpeechCooldownMs: 2000,
			PoseRate:         5,
			MaxLag:           15,
		},
		Detector: DetectorConfig{
			MaxHands:              1,
			MinConfidence:         0.7,
			MinTrackingConfidence: 0.5,
		},
		Speech: SpeechConfig{
			Command:   "espeak",
			Args:      []string{"--stdin"},
			TimeoutMs: 10000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

// Validation errors.
var (
	ErrInvalidAddr   = errors.New("config: addr must not be empty")
	ErrInvalidTiming = errors.New("config: recognition timings must be positive")
	ErrInvalidLag    = errors.New("config: max_lag must be at least 1")
)

// Validate checks values that would make the pipeline misbehave.
func (c Config) Validate() error {
	if c.Addr == "" {
		return ErrInvalidAddr
	}
	if c.Recognition.DebounceMs <= 0 || c.Recognition.SpeechCooldownMs <= 0 || c.Recognition.PoseRate <= 0 {
		return ErrInvalidTiming
	}
	if c.Recognition.MaxLag < 1 {
		return ErrInvalidLag
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("config: min_confidence %v out of range [0,1]", c.Detector.MinConfidence)
	}
	return nil
}

// SetDefaults registers every key of Default with v so that environment
// variables and Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("web_dir", d.WebDir)
	v.SetDefault("tray", d.Tray)
	v.SetDefault("camera_id", d.CameraID)
	v.SetDefault("motion_threshold", d.MotionThreshold)
	v.SetDefault("recognition.debounce_ms", d.Recognition.DebounceMs)
	v.SetDefault("recognition.speech_cooldown_ms", d.Recognition.SpeechCooldownMs)
	v.SetDefault("recognition.pose_rate", d.Recognition.PoseRate)
	v.SetDefault("recognition.max_lag", d.Recognition.MaxLag)
	v.SetDefault("detector.max_hands", d.Detector.MaxHands)
	v.SetDefault("detector.min_confidence", d.Detector.MinConfidence)
	v.SetDefault("detector.min_tracking_confidence", d.Detector.MinTrackingConfidence)
	v.SetDefault("speech.command", d.Speech.Command)
	v.SetDefault("speech.args", d.Speech.Args)
	v.SetDefault("speech.timeout_ms", d.Speech.TimeoutMs)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Prepare points v at the config file and environment. An empty file means
// $HOME/.mudra/config.yaml.
func Prepare(v *viper.Viper, file string) {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(defaultDataDir())
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the config file if present and decodes v into a Config. A
// missing default config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal renders c as YAML.
func Marshal(c Config) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default configuration to path, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := Marshal(Default())
	if err != nil {
		return err
	}

	header := "# mudra configuration\n" +
		"# Priority: flags > MUDRA_* environment > this file > defaults\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultPath returns $HOME/.mudra/config.yaml.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}
