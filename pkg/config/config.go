// Package config provides configuration loading and validation for the runner.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidCacheDirName = errors.New("invalid cache directory name")
	ErrEmptyCargoBinary    = errors.New("cargo binary must not be empty")
	ErrInvalidPackageName  = errors.New("invalid rust package name")
	ErrEmptyInterpreter    = errors.New("python interpreter must not be empty")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidLogFormat    = errors.New("invalid log format")
	ErrInvalidSampleRatio  = errors.New("telemetry sample ratio must be within [0, 1]")
)

const envPrefix = "RUNFILE"

var packageNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Config holds all configuration for the runner.
type Config struct {
	Cache     CacheConfig     `mapstructure:"cache"`
	Rust      RustConfig      `mapstructure:"rust"`
	Python    PythonConfig    `mapstructure:"python"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// CacheConfig locates the persistent build cache.
type CacheConfig struct {
	// Base is the directory the cache lives under. Empty means the working directory.
	Base    string `mapstructure:"base"`
	DirName string `mapstructure:"dir_name"`
}

// RustConfig configures the compiled-language backend.
type RustConfig struct {
	Cargo       string `mapstructure:"cargo"`
	PackageName string `mapstructure:"package_name"`
	Release     bool   `mapstructure:"release"`
}

// PythonConfig configures the interpreted-language backend.
type PythonConfig struct {
	Interpreter string `mapstructure:"interpreter"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from defaults, an optional file, and environment variables.
// An empty configPath searches $HOME/.config/runfile and /etc/runfile for runfile.yaml.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("runfile")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath("$HOME/.config/runfile")
		viperCfg.AddConfigPath("/etc/runfile")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	err := bindEnv(viperCfg)
	if err != nil {
		return nil, err
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// HOME is read here, once, so nothing downstream consults the environment.
	viperCfg.SetDefault("cache.base", os.Getenv("HOME"))
	viperCfg.SetDefault("cache.dir_name", DefaultCacheDirName)

	viperCfg.SetDefault("rust.cargo", DefaultCargoBinary)
	viperCfg.SetDefault("rust.package_name", DefaultPackageName)
	viperCfg.SetDefault("rust.release", DefaultRelease)

	viperCfg.SetDefault("python.interpreter", DefaultPythonInterpreter)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
}

// bindEnv maps telemetry keys onto the standard OTLP variables as well as the
// RUNFILE namespace. The first non-empty variable wins.
func bindEnv(viperCfg *viper.Viper) error {
	bindings := [][]string{
		{"telemetry.otlp_endpoint", envPrefix + "_TELEMETRY_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
		{"telemetry.otlp_headers", envPrefix + "_TELEMETRY_OTLP_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS"},
		{"telemetry.otlp_insecure", envPrefix + "_TELEMETRY_OTLP_INSECURE", "OTEL_EXPORTER_OTLP_INSECURE"},
	}

	for _, binding := range bindings {
		err := viperCfg.BindEnv(binding...)
		if err != nil {
			return fmt.Errorf("bind env for %s: %w", binding[0], err)
		}
	}

	return nil
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	name := config.Cache.DirName
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidCacheDirName, name)
	}

	if config.Rust.Cargo == "" {
		return ErrEmptyCargoBinary
	}

	if !packageNamePattern.MatchString(config.Rust.PackageName) {
		return fmt.Errorf("%w: %q", ErrInvalidPackageName, config.Rust.PackageName)
	}

	if config.Python.Interpreter == "" {
		return ErrEmptyInterpreter
	}

	_, err := config.Logging.SlogLevel()
	if err != nil {
		return err
	}

	if config.Logging.Format != LogFormatText && config.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	return nil
}

// SlogLevel parses Level as an slog level name (debug, info, warn, error).
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(l.Level))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}
