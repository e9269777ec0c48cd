package config

import (
	"fmt"
	"time"
)

// Config represents a pagestream.yaml configuration file.
// All values are optional and act as defaults for pagestream render flags.
// CLI flags always override config values.
type Config struct {
	Endpoint string         `yaml:"endpoint"`
	HomeURL  string         `yaml:"home_url"`
	Storage  StorageConfig  `yaml:"storage"`
	State    StateConfig    `yaml:"state"`
	Notifier NotifierConfig `yaml:"notifier"`
}

// StorageConfig holds final-page storage defaults from the config file.
type StorageConfig struct {
	// Backend selects the publisher: "fs", "s3", or "" for none.
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// StateConfig holds session snapshot store defaults from the config file.
type StateConfig struct {
	// Backend selects the store: "memory", "redis", or "" for none.
	Backend string `yaml:"backend"`
	// URL is the redis connection URL when Backend is "redis".
	URL string `yaml:"url"`
}

// NotifierConfig holds completion notifier defaults from the config file.
type NotifierConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
