// Package config provides configuration loading and validation for drivelog.
package config

import (
	"time"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// Inputs are glob patterns of the files to process.
	Inputs   []string        `yaml:"inputs"`
	Decoder  DecoderConfig   `yaml:"decoder"`
	Tabular  TabularConfig   `yaml:"tabular"`
	Store    StoreConfig     `yaml:"store"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// DecoderConfig tunes tagged log decoding.
type DecoderConfig struct {
	// MaxRecords caps the records read per run. 0 is unlimited.
	MaxRecords int `yaml:"max_records"`

	// NeighborCap is the total of labeled neighbors kept per measurement.
	NeighborCap int `yaml:"neighbor_cap"`

	// SwapLevelBound is the serving level above which a level/frequency
	// pair is considered swapped.
	SwapLevelBound float64 `yaml:"swap_level_bound"`

	// SnapshotNeighbors is how many neighbors signaling points carry.
	SnapshotNeighbors int `yaml:"snapshot_neighbors"`
}

// TabularConfig tunes spreadsheet import.
type TabularConfig struct {
	SampleRows     int     `yaml:"sample_rows"`
	PCIMajority    float64 `yaml:"pci_majority"`
	PCIThreshold   float64 `yaml:"pci_threshold"`
	MergeRadiusM   float64 `yaml:"merge_radius_m"`
	MergePrecision int     `yaml:"merge_precision"`
	MaxRows        int     `yaml:"max_rows"`
}

// StoreConfig locates the session archive.
type StoreConfig struct {
	// Path is the sqlite database file. Empty disables archiving.
	Path string `yaml:"path"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnData fires only when something was decoded (default).
	WebhookTriggerOnData WebhookTrigger = "on_data"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending decode reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_data" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
