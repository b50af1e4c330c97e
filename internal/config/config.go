package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultStreamCount      = 500
	defaultSpikeProbability = 0.01
	defaultWindowSize       = 50
	defaultThreshold        = 3.0
	defaultTick             = 10 * time.Millisecond
	defaultChannelBuffer    = 100
	defaultRenderEnabled    = true
	defaultRenderHeight     = 15
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultLogFileEnabled   = false
	defaultLogDirectory     = "log"
	defaultLogFilename      = "app.log"
	defaultLogMaxSizeMB     = 100
	defaultLogMaxBackups    = 3
	defaultLogMaxAgeDays    = 7
	defaultLogCompress      = false

	// Environment variable prefix
	envPrefix = "SPIKELENS"
)

type Config struct {
	Stream   StreamConfig   `mapstructure:"stream"`
	Detector DetectorConfig `mapstructure:"detector"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Render   RenderConfig   `mapstructure:"render"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// StreamConfig shapes the synthetic sample generator.
type StreamConfig struct {
	Count            int     `mapstructure:"count"`
	SpikeProbability float64 `mapstructure:"spikeProbability"`
	Seed             int64   `mapstructure:"seed"` // 0 means time-seeded
}

// DetectorConfig holds the z-score detector parameters.
type DetectorConfig struct {
	WindowSize int     `mapstructure:"windowSize"`
	Threshold  float64 `mapstructure:"threshold"`
}

type PipelineConfig struct {
	Tick          time.Duration `mapstructure:"tick"`
	ChannelBuffer int           `mapstructure:"channelBuffer"`
}

type RenderConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Height  int  `mapstructure:"height"`
	Width   int  `mapstructure:"width"` // 0 lets the sink size itself
}

// MetricsConfig controls the optional Prometheus listener.
// An empty Addr keeps the process network-free.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
// A missing config file is not an error: the defaults reproduce the stock
// demonstration run (window 50, threshold 3.0, 500 samples).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("stream.count", defaultStreamCount)
	v.SetDefault("stream.spikeProbability", defaultSpikeProbability)
	v.SetDefault("stream.seed", 0)
	v.SetDefault("detector.windowSize", defaultWindowSize)
	v.SetDefault("detector.threshold", defaultThreshold)
	v.SetDefault("pipeline.tick", defaultTick)
	v.SetDefault("pipeline.channelBuffer", defaultChannelBuffer)
	v.SetDefault("render.enabled", defaultRenderEnabled)
	v.SetDefault("render.height", defaultRenderHeight)
	v.SetDefault("render.width", 0)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
// An absent file leaves the defaults in place; any other read failure is fatal.
func readConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		return nil
	}
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	var configFileNotFoundError viper.ConfigFileNotFoundError
	if errors.As(err, &configFileNotFoundError) {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
}

func validateConfig(cfg *Config) error {
	if cfg.Stream.Count <= 0 {
		return ErrInvalidSampleCount
	}
	if cfg.Stream.SpikeProbability < 0 || cfg.Stream.SpikeProbability > 1 {
		return ErrInvalidSpikeProbability
	}
	if cfg.Detector.WindowSize <= 0 {
		return ErrInvalidWindowSize
	}
	if cfg.Detector.Threshold <= 0 {
		return ErrInvalidThreshold
	}
	if cfg.Pipeline.Tick < 0 {
		return ErrInvalidTick
	}
	if cfg.Pipeline.ChannelBuffer <= 0 {
		return ErrInvalidChannelBuffer
	}
	return nil
}
