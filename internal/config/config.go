package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Root             string `mapstructure:"root"`
	Database         string `mapstructure:"database"`
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
	CompressionLevel int    `mapstructure:"compression_level"`
	Checksum         bool   `mapstructure:"checksum"`
	Sync             bool   `mapstructure:"sync"`
	Workers          int    `mapstructure:"workers"`
	BatchSize        int    `mapstructure:"batch_size"`
}

// Load reads configuration from cfgFile, or from epack.yaml in the home or
// working directory when cfgFile is empty. A missing default file is not an
// error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("root", defaultRoot())
	v.SetDefault("database", "epack.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("compression_level", -1)
	v.SetDefault("checksum", false)
	v.SetDefault("sync", false)
	v.SetDefault("workers", 0)
	v.SetDefault("batch_size", 1000)

	v.SetEnvPrefix("EPACK")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName("epack")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".epack")
	}
	return filepath.Join(home, ".epack")
}
