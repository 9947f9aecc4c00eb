package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file.
func Load(ctx context.Context, path string) (*Config, error) {
	return Resolve(ctx, path, nil)
}

// Resolve builds a configuration from an optional file, the environment
// and inputs given on the command line, then validates it. An empty path
// starts from DefaultConfig. Non-empty inputs replace the configured ones.
func Resolve(_ context.Context, path string, inputs []string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if len(inputs) > 0 {
		cfg.Inputs = inputs
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills webhook defaults.
func Validate(cfg *Config) error {
	if len(cfg.Inputs) == 0 {
		return errors.New("inputs: at least one input pattern is required")
	}
	for i, in := range cfg.Inputs {
		if strings.TrimSpace(in) == "" {
			return fmt.Errorf("inputs[%d]: empty pattern", i)
		}
	}

	if err := validateDecoder(&cfg.Decoder); err != nil {
		return fmt.Errorf("decoder: %w", err)
	}

	if err := validateTabular(&cfg.Tabular); err != nil {
		return fmt.Errorf("tabular: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateDecoder(d *DecoderConfig) error {
	if d.MaxRecords < 0 {
		return fmt.Errorf("max_records must be >= 0, got %d", d.MaxRecords)
	}
	if d.NeighborCap < 1 || d.NeighborCap > MaxNeighborCap {
		return fmt.Errorf("neighbor_cap must be between 1 and %d, got %d", MaxNeighborCap, d.NeighborCap)
	}
	if d.SnapshotNeighbors < 0 {
		return fmt.Errorf("snapshot_neighbors must be >= 0, got %d", d.SnapshotNeighbors)
	}
	return nil
}

func validateTabular(t *TabularConfig) error {
	if t.SampleRows < 1 {
		return fmt.Errorf("sample_rows must be >= 1, got %d", t.SampleRows)
	}
	if t.PCIMajority <= 0 || t.PCIMajority > 1 {
		return fmt.Errorf("pci_majority must be in (0, 1], got %v", t.PCIMajority)
	}
	if t.PCIThreshold <= 0 {
		return fmt.Errorf("pci_threshold must be > 0, got %v", t.PCIThreshold)
	}
	if t.MergeRadiusM <= 0 {
		return fmt.Errorf("merge_radius_m must be > 0, got %v", t.MergeRadiusM)
	}
	if t.MergePrecision < 1 || t.MergePrecision > 9 {
		return fmt.Errorf("merge_precision must be between 1 and 9, got %d", t.MergePrecision)
	}
	if t.MaxRows < 0 {
		return fmt.Errorf("max_rows must be >= 0, got %d", t.MaxRows)
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnData, WebhookTriggerAlways, WebhookTriggerNever:
		default:
			return fmt.Errorf("invalid trigger %q (must be on_data, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnData
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
