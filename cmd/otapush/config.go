//go:build !tinygo

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix prefixes environment overrides, e.g. OTAPUSH_BROKER.
const envPrefix = "OTAPUSH"

type pushConfig struct {
	Via      string        `mapstructure:"via"`
	Broker   string        `mapstructure:"broker"`
	Topic    string        `mapstructure:"topic"`
	ClientID string        `mapstructure:"client_id"`
	URL      string        `mapstructure:"url"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Chunk    int           `mapstructure:"chunk"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// Pace is the pause between frames; brokers drop QoS 1 floods.
	Pace time.Duration `mapstructure:"pace"`
}

var defaults = map[string]any{
	"via":       "mqtt",
	"broker":    "tcp://127.0.0.1:1883",
	"topic":     "watch/ota",
	"client_id": "otapush",
	"url":       "ws://127.0.0.1:8080/ota",
	"chunk":     1024,
	"timeout":   "10s",
	"pace":      "0s",
}

// loadConfig layers defaults, an optional YAML file, OTAPUSH_* variables and
// the command's flags, in increasing precedence.
func loadConfig(cmd *cobra.Command, cfgFile string) (*pushConfig, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for key := range defaults {
		if f := cmd.Flags().Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	var c pushConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	switch c.Via {
	case "mqtt", "ws":
	default:
		return nil, fmt.Errorf("unknown transport %q (want mqtt or ws)", c.Via)
	}
	if c.Chunk <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", c.Chunk)
	}
	return &c, nil
}
