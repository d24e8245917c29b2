package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// InspectConfig carries the user-tunable defaults for the inspection
// commands. Flags still win over anything loaded here.
type InspectConfig struct {
	// OutputFormat is the default renderer (text, json, yaml).
	OutputFormat string `mapstructure:"output_format"`
	// AllMirrors makes dump-super default to dumping every copy.
	AllMirrors bool `mapstructure:"all_mirrors"`
	// FullDetail makes dump-super default to the full field dump.
	FullDetail bool `mapstructure:"full_detail"`
}

// LoadInspectConfig loads configuration using Viper from an optional
// btrfs-inspect.yaml and BTRFS_* environment variables.
func LoadInspectConfig() (*InspectConfig, error) {
	v := viper.New()
	v.SetConfigName("btrfs-inspect")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.btrfs-inspect")
	v.AddConfigPath("/etc/btrfs-inspect")

	v.SetDefault("output_format", "text")
	v.SetDefault("all_mirrors", false)
	v.SetDefault("full_detail", false)

	v.SetEnvPrefix("BTRFS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var cfg InspectConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
