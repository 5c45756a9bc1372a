package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/virtual-photofs/vpfs"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Engine EngineConfig `mapstructure:"engine"`
}

// EngineConfig stores the windowed loading engine configuration.
// Only recognized options are honored; unknown keys in the config file are ignored.
type EngineConfig struct {
	// MemoryBudgetBytes is the total cost budget for the primary cache.
	MemoryBudgetBytes int64 `mapstructure:"memoryBudgetBytes"`

	// ConfiguredRadius caps the window radius regardless of collection size tier.
	ConfiguredRadius int `mapstructure:"configuredRadius"`

	// MaxConcurrentDecodes caps the decode worker pool (clamped to 1..50).
	MaxConcurrentDecodes int `mapstructure:"maxConcurrentDecodes"`

	// DecodeTimeoutSeconds bounds a single decode; an exceeded decode is treated as failed.
	DecodeTimeoutSeconds int `mapstructure:"decodeTimeoutSeconds"`

	// Circular enables wraparound windows for collections navigated circularly.
	Circular bool `mapstructure:"circular"`

	LRU      LRUConfig      `mapstructure:"lru"`
	Pressure PressureConfig `mapstructure:"pressure"`
}

// LRUConfig bounds the second-chance LRU tier. Whichever limit is reached
// first wins; a zero value disables that limit.
type LRUConfig struct {
	MaxEntries int   `mapstructure:"maxEntries"`
	MaxBytes   int64 `mapstructure:"maxBytes"`
}

// PressureConfig tunes the memory pressure monitor.
type PressureConfig struct {
	PollIntervalSeconds int `mapstructure:"pollIntervalSeconds"`

	// SoftMarginBytes is how far outside the budget usage may drift before a
	// normal trim pass runs.
	SoftMarginBytes int64 `mapstructure:"softMarginBytes"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("engine.memoryBudgetBytes", internal.DefaultMemoryBudgetBytes)
	viper.SetDefault("engine.configuredRadius", internal.DefaultConfiguredRadius)
	viper.SetDefault("engine.maxConcurrentDecodes", internal.DefaultMaxConcurrentDecodes)
	viper.SetDefault("engine.decodeTimeoutSeconds", internal.DefaultDecodeTimeoutSecs)
	viper.SetDefault("engine.circular", false)
	viper.SetDefault("engine.lru.maxEntries", internal.DefaultLRUMaxEntries)
	viper.SetDefault("engine.lru.maxBytes", internal.DefaultLRUMaxBytes)
	viper.SetDefault("engine.pressure.pollIntervalSeconds", internal.DefaultPressurePollSecs)
	viper.SetDefault("engine.pressure.softMarginBytes", internal.DefaultMemoryBudgetBytes/8)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // engine.memoryBudgetBytes becomes ENGINE_MEMORYBUDGETBYTES

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := AppConfig.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}

	return &AppConfig, nil
}

// Default returns an EngineConfig populated with the built-in defaults,
// for hosts that construct the engine without a config file.
func Default() EngineConfig {
	return EngineConfig{
		MemoryBudgetBytes:    internal.DefaultMemoryBudgetBytes,
		ConfiguredRadius:     internal.DefaultConfiguredRadius,
		MaxConcurrentDecodes: internal.DefaultMaxConcurrentDecodes,
		DecodeTimeoutSeconds: internal.DefaultDecodeTimeoutSecs,
		LRU: LRUConfig{
			MaxEntries: internal.DefaultLRUMaxEntries,
			MaxBytes:   internal.DefaultLRUMaxBytes,
		},
		Pressure: PressureConfig{
			PollIntervalSeconds: internal.DefaultPressurePollSecs,
			SoftMarginBytes:     internal.DefaultMemoryBudgetBytes / 8,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *EngineConfig) Validate() error {
	if c.MemoryBudgetBytes <= 0 {
		return fmt.Errorf("memoryBudgetBytes must be > 0, got %d", c.MemoryBudgetBytes)
	}
	if c.ConfiguredRadius <= 0 {
		return fmt.Errorf("configuredRadius must be > 0, got %d", c.ConfiguredRadius)
	}
	if c.MaxConcurrentDecodes < 1 || c.MaxConcurrentDecodes > 50 {
		return fmt.Errorf("maxConcurrentDecodes must be in [1,50], got %d", c.MaxConcurrentDecodes)
	}
	if c.DecodeTimeoutSeconds <= 0 {
		return fmt.Errorf("decodeTimeoutSeconds must be > 0, got %d", c.DecodeTimeoutSeconds)
	}
	if c.LRU.MaxEntries < 0 || c.LRU.MaxBytes < 0 {
		return fmt.Errorf("lru limits must be >= 0")
	}
	if c.Pressure.PollIntervalSeconds <= 0 {
		return fmt.Errorf("pressure.pollIntervalSeconds must be > 0, got %d", c.Pressure.PollIntervalSeconds)
	}
	return nil
}
