// Package config loads the service configuration from defaults, an optional YAML file, an
// optional dotenv file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	forecaster "github.com/aouyang1/revforecast"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "REVFORECAST"

	// EnvAPIKey holds the language model API key and is read without the prefix
	EnvAPIKey = "GROQ_API_KEY"

	keyAPIKey = "secrets.api_key"

	MissingSecretMessage = "API Key is missing! Set it in the environment or a .env file."
)

var (
	ErrMissingSecret = errors.New("missing api key")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Model   ModelConfig   `mapstructure:"model"`
	Logging LoggingConfig `mapstructure:"logging"`
	Secrets SecretsConfig `mapstructure:"secrets"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MaxUploadMB     int           `mapstructure:"max_upload_mb"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MaxUploadBytes returns the upload limit in bytes
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// ModelConfig holds the forecast horizon, display and model fitting settings
type ModelConfig struct {
	HorizonDays    int           `mapstructure:"horizon_days"`
	TailCount      int           `mapstructure:"tail_count"`
	PreviewRows    int           `mapstructure:"preview_rows"`
	FitTimeout     time.Duration `mapstructure:"fit_timeout"`
	IntervalWidth  float64       `mapstructure:"interval_width"`
	ResidualWindow int           `mapstructure:"residual_window"`
	Regularization float64       `mapstructure:"regularization"`
	Iterations     int           `mapstructure:"iterations"`
	Tolerance      float64       `mapstructure:"tolerance"`
	OutlierPasses  int           `mapstructure:"outlier_passes"`
	Holidays       HolidayConfig `mapstructure:"holidays"`
}

type HolidayConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DaysBefore int  `mapstructure:"days_before"`
	DaysAfter  int  `mapstructure:"days_after"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SecretsConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Load reads the configuration. path is an optional YAML file which must exist when set.
// envFile is an optional dotenv file whose entries apply like environment variables unless the
// variable is already set in the environment.
func Load(path, envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(keyAPIKey, EnvAPIKey); err != nil {
		return nil, fmt.Errorf("unable to bind %s, %w", EnvAPIKey, err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file %s, %w", path, err)
		}
	}

	dotenv, err := readDotenv(envFile)
	if err != nil {
		return nil, err
	}
	for _, key := range v.AllKeys() {
		name := EnvName(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if val, exists := dotenv[strings.ToLower(name)]; exists {
			v.Set(key, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config, %w", err)
	}
	return &cfg, nil
}

// EnvName returns the environment variable overriding a configuration key
func EnvName(key string) string {
	if key == keyAPIKey {
		return EnvAPIKey
	}
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// readDotenv returns the dotenv entries keyed by lower case name. A missing file has no entries.
func readDotenv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to read env file %s, %w", path, err)
	}
	entries := make(map[string]string)
	for _, key := range env.AllKeys() {
		entries[strings.ToLower(key)] = env.GetString(key)
	}
	return entries, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("model.horizon_days", 30)
	v.SetDefault("model.tail_count", 10)
	v.SetDefault("model.preview_rows", 5)
	v.SetDefault("model.fit_timeout", "60s")
	v.SetDefault("model.interval_width", forecaster.DefaultIntervalWidth)
	v.SetDefault("model.residual_window", forecaster.DefaultResidualWindow)
	v.SetDefault("model.regularization", 0.01)
	v.SetDefault("model.iterations", 2000)
	v.SetDefault("model.tolerance", 1e-5)
	v.SetDefault("model.outlier_passes", 0)
	v.SetDefault("model.holidays.enabled", false)
	v.SetDefault("model.holidays.days_before", 0)
	v.SetDefault("model.holidays.days_after", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault(keyAPIKey, "")
}

func invalid(msg string) error {
	return fmt.Errorf("%s, %w", msg, ErrInvalidConfig)
}

// Validate checks every setting except the secrets
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return invalid("server.addr is required")
	}
	if c.Server.MaxUploadMB < 1 {
		return invalid("server.max_upload_mb must be at least 1")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return invalid("server.read_timeout and server.write_timeout must be positive")
	}
	if c.Server.ShutdownTimeout < 0 {
		return invalid("server.shutdown_timeout must not be negative")
	}

	m := c.Model
	if m.HorizonDays < 0 {
		return invalid("model.horizon_days must not be negative")
	}
	if m.TailCount < 1 {
		return invalid("model.tail_count must be at least 1")
	}
	if m.PreviewRows < 0 {
		return invalid("model.preview_rows must not be negative")
	}
	if m.FitTimeout < 0 {
		return invalid("model.fit_timeout must not be negative")
	}
	if m.IntervalWidth <= 0 || m.IntervalWidth >= 1 {
		return invalid("model.interval_width must be between 0 and 1 exclusive")
	}
	if m.ResidualWindow < 0 || m.Regularization < 0 || m.Iterations < 0 || m.Tolerance < 0 {
		return invalid("model.residual_window, model.regularization, model.iterations and model.tolerance must not be negative")
	}
	if m.OutlierPasses < 0 {
		return invalid("model.outlier_passes must not be negative")
	}
	if m.Holidays.DaysBefore < 0 || m.Holidays.DaysAfter < 0 {
		return invalid("model.holidays.days_before and model.holidays.days_after must not be negative")
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return invalid("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return invalid("logging.format must be one of: json, text")
	}
	return nil
}

// CheckSecrets returns ErrMissingSecret when the api key is absent
func (c *Config) CheckSecrets() error {
	if strings.TrimSpace(c.Secrets.APIKey) == "" {
		return fmt.Errorf("%s is not set, %w", EnvAPIKey, ErrMissingSecret)
	}
	return nil
}

// ForecasterOptions converts the model settings into forecaster options
func (m ModelConfig) ForecasterOptions() *forecaster.Options {
	opt := forecaster.NewDefaultOptions()
	opt.IntervalWidth = m.IntervalWidth
	opt.ResidualWindow = m.ResidualWindow

	opt.SeriesOptions.Regularization = m.Regularization
	opt.SeriesOptions.Iterations = m.Iterations
	opt.SeriesOptions.Tolerance = m.Tolerance
	opt.SeriesOptions.HolidayOptions.Enabled = m.Holidays.Enabled
	opt.SeriesOptions.HolidayOptions.DaysBefore = m.Holidays.DaysBefore
	opt.SeriesOptions.HolidayOptions.DaysAfter = m.Holidays.DaysAfter

	if m.OutlierPasses > 0 {
		opt.OutlierOptions = forecaster.NewOutlierOptions()
		opt.OutlierOptions.NumPasses = m.OutlierPasses
	}
	return opt
}

// SlogLevel parses the configured level
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
		if err := level.UnmarshalText([]byte(l.Level)); err != nil {
			return 0, err
		}
		return level, nil
	}
	return 0, fmt.Errorf("unknown level %q", l.Level)
}

// NewLogger creates a structured logger writing to w in the configured format and level
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
