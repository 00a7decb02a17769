// Package config handles tsout configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (TSOUT_*)
//  2. Config file (~/.config/tsout/config.yaml)
//  3. Built-in defaults
//
// Configuration supplies defaults only; command-line flags always win.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Timestamp display modes accepted by display.timestamps.
const (
	TimestampsRelative = "relative"
	TimestampsUnix     = "unix"
	TimestampsUTC      = "utc"
)

// Config holds the tsout configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	// Set defaults
	v.SetDefault("display.timestamps", TimestampsRelative)
	v.SetDefault("display.color", true)
	v.SetDefault("display.verbose", false)
	v.SetDefault("display.space_delim", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	// Config file location
	home, err := os.UserHomeDir()
	if err == nil {
		configDir := filepath.Join(home, ".config", "tsout")
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix("TSOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found, but warn on other errors)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}

	return &Config{v: v}
}

// Timestamps returns the default timestamp display mode, one of the
// Timestamps* constants. Unrecognized values fall back to relative.
func (c *Config) Timestamps() string {
	switch strings.ToLower(strings.TrimSpace(c.v.GetString("display.timestamps"))) {
	case TimestampsUnix:
		return TimestampsUnix
	case TimestampsUTC:
		return TimestampsUTC
	default:
		return TimestampsRelative
	}
}

// Color returns whether prefixes are colored by default.
func (c *Config) Color() bool {
	return c.v.GetBool("display.color")
}

// Verbose returns whether stream ids are shown by default.
func (c *Config) Verbose() bool {
	return c.v.GetBool("display.verbose")
}

// SpaceDelim returns whether the space delimiter is the default.
func (c *Config) SpaceDelim() bool {
	return c.v.GetBool("display.space_delim")
}

// LogLevel returns the structured logging level.
func (c *Config) LogLevel() string {
	return c.v.GetString("log.level")
}

// LogFormat returns the structured logging format (json or text).
func (c *Config) LogFormat() string {
	return c.v.GetString("log.format")
}

// LogFile returns the structured log file path, empty for none.
func (c *Config) LogFile() string {
	return c.v.GetString("log.file")
}
