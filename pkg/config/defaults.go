package config

import (
	"os"
	"strings"
	"time"
)

// Default values for configuration.
const (
	DefaultMaxRecords        = 2000000
	DefaultNeighborCap       = 16
	DefaultSwapLevelBound    = -15.0
	DefaultSnapshotNeighbors = 8
	DefaultSampleRows        = 20
	DefaultPCIMajority       = 0.8
	DefaultPCIThreshold      = 1000.0
	DefaultMergeRadiusM      = 2.0
	DefaultMergePrecision    = 5
	DefaultWebhookTimeout    = 10 * time.Second
)

// MaxNeighborCap is the most labels the A/M/D sets can hold.
const MaxNeighborCap = 28

// Environment variable names.
const (
	EnvInputs    = "DRIVELOG_INPUTS"
	EnvStorePath = "DRIVELOG_STORE_PATH"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Inputs: []string{},
		Decoder: DecoderConfig{
			MaxRecords:        DefaultMaxRecords,
			NeighborCap:       DefaultNeighborCap,
			SwapLevelBound:    DefaultSwapLevelBound,
			SnapshotNeighbors: DefaultSnapshotNeighbors,
		},
		Tabular: TabularConfig{
			SampleRows:     DefaultSampleRows,
			PCIMajority:    DefaultPCIMajority,
			PCIThreshold:   DefaultPCIThreshold,
			MergeRadiusM:   DefaultMergeRadiusM,
			MergePrecision: DefaultMergePrecision,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvInputs); v != "" {
		var inputs []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				inputs = append(inputs, p)
			}
		}
		c.Inputs = inputs
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		c.Store.Path = v
	}
}
