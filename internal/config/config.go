// Package config loads pathsense configuration from a config file and
// environment variables. Environment variables use the PATHSENSE_ prefix
// and override file values (PATHSENSE_SERVER_PORT, PATHSENSE_LOG_LEVEL, ...).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level daemon configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Engine struct {
		Target         string        `mapstructure:"target"`          // default target label
		CycleInterval  time.Duration `mapstructure:"cycle_interval"`  // decision cadence
		MemoryInterval time.Duration `mapstructure:"memory_interval"` // spatial memory tick
	} `mapstructure:"engine"`

	Detector struct {
		ModelPath  string  `mapstructure:"model_path"`
		ConfigPath string  `mapstructure:"config_path"`
		LabelsPath string  `mapstructure:"labels_path"`
		Confidence float64 `mapstructure:"confidence"`
	} `mapstructure:"detector"`

	Segmenter struct {
		ModelPath string `mapstructure:"model_path"`
	} `mapstructure:"segmenter"`

	Announcer struct {
		URL string `mapstructure:"url"` // TTS gateway websocket, empty = disabled
	} `mapstructure:"announcer"`

	Identify struct {
		URL string `mapstructure:"url"` // text-understanding service, empty = disabled
	} `mapstructure:"identify"`
}

// Load reads configuration from the given directory (config.yaml) plus
// environment overrides. A missing config file is not an error; defaults
// and environment variables still apply.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)

	v.SetEnvPrefix("pathsense")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("server.port", "8090")
	v.SetDefault("engine.target", "")
	v.SetDefault("engine.cycle_interval", 200*time.Millisecond)
	v.SetDefault("engine.memory_interval", 500*time.Millisecond)
	v.SetDefault("detector.model_path", "models/detector.onnx")
	v.SetDefault("detector.config_path", "")
	v.SetDefault("detector.labels_path", "models/labels.txt")
	v.SetDefault("detector.confidence", 0.5)
	v.SetDefault("segmenter.model_path", "models/floor_seg.onnx")
	v.SetDefault("announcer.url", "")
	v.SetDefault("identify.url", "")
}
