// Package config loads ferrugo's tunables: the GC trigger threshold,
// the initial gc_disabled flag, and the metrics listen address. Values
// come from FERRUGO_-prefixed environment variables or an optional
// config file, resolved through viper so a config file and environment
// variables both work without the CLI layer having to know about
// either.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/loojk2008/ferrugo/gc"
)

// Config holds every tunable the CORE honors at startup.
type Config struct {
	// GCThresholdBytes is the byte count that triggers a collection
	// cycle, defaulting to gc.DefaultThresholdBytes.
	GCThresholdBytes int64

	// GCDisabled starts the engine with collection cycles suppressed.
	GCDisabled bool

	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint; empty disables it.
	MetricsAddr string
}

// Load reads configuration from environment variables prefixed
// FERRUGO_ (e.g. FERRUGO_GC_THRESHOLD_BYTES) and, if configFile is
// non-empty, from that file as well. Environment variables win over
// file values.
func Load(configFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FERRUGO")
	v.AutomaticEnv()

	v.SetDefault("gc_threshold_bytes", gc.DefaultThresholdBytes)
	v.SetDefault("gc_disabled", false)
	v.SetDefault("metrics_addr", "")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
	}

	return Config{
		GCThresholdBytes: v.GetInt64("gc_threshold_bytes"),
		GCDisabled:       v.GetBool("gc_disabled"),
		MetricsAddr:      v.GetString("metrics_addr"),
	}, nil
}
