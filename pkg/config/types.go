package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent recall configuration stored as config.toml
// in the .recall/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Oracle      OracleConfig      `toml:"oracle"`
	Notify      NotifyConfig      `toml:"notify"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Search      SearchConfig      `toml:"search"`
}

// StorageConfig holds store driver settings.
type StorageConfig struct {
	// Provider selects the store driver: inmemory, sqlite, or postgres.
	Provider string `toml:"provider,omitempty"`

	// Target is the SQLite path or PostgreSQL DSN, depending on provider.
	Target string `toml:"target,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// OracleConfig holds deduplication oracle settings.
type OracleConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// NotifyConfig holds notification gateway settings.
type NotifyConfig struct {
	// Provider selects the notifier: webhook, discord, or nop.
	Provider string `toml:"provider,omitempty"`

	// Target is the webhook base URL for the webhook provider.
	Target string `toml:"target,omitempty"`

	// Token is the bot token for the discord provider.
	Token string `toml:"token,omitempty"`
}

// SchedulerConfig holds reminder scheduler settings.
type SchedulerConfig struct {
	// PollIntervalSeconds is the poll cadence of the serve loop.
	PollIntervalSeconds uint `toml:"poll_interval_seconds,omitempty"`
}

// EventStreamConfig holds event publisher settings.
type EventStreamConfig struct {
	// Provider selects the publisher: kafka or nop.
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated list of Kafka bootstrap addresses.
	Brokers string `toml:"brokers,omitempty"`

	Topic string `toml:"topic,omitempty"`
}

// SearchConfig holds hybrid search settings.
type SearchConfig struct {
	// ConfidenceThreshold is the semantic similarity above which semantic
	// matches take precedence in combined results.
	ConfidenceThreshold float64 `toml:"confidence_threshold,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.target": {
		get: func(c *Config) string { return c.Storage.Target },
		set: func(c *Config, v string) error { c.Storage.Target = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"oracle.provider": {
		get: func(c *Config) string { return c.Oracle.Provider },
		set: func(c *Config, v string) error { c.Oracle.Provider = v; return nil },
	},
	"oracle.target": {
		get: func(c *Config) string { return c.Oracle.Target },
		set: func(c *Config, v string) error { c.Oracle.Target = v; return nil },
	},
	"oracle.model": {
		get: func(c *Config) string { return c.Oracle.Model },
		set: func(c *Config, v string) error { c.Oracle.Model = v; return nil },
	},
	"oracle.api_key": {
		get: func(c *Config) string { return c.Oracle.APIKey },
		set: func(c *Config, v string) error { c.Oracle.APIKey = v; return nil },
	},
	"notify.provider": {
		get: func(c *Config) string { return c.Notify.Provider },
		set: func(c *Config, v string) error { c.Notify.Provider = v; return nil },
	},
	"notify.target": {
		get: func(c *Config) string { return c.Notify.Target },
		set: func(c *Config, v string) error { c.Notify.Target = v; return nil },
	},
	"notify.token": {
		get: func(c *Config) string { return c.Notify.Token },
		set: func(c *Config, v string) error { c.Notify.Token = v; return nil },
	},
	"scheduler.poll_interval_seconds": {
		get: func(c *Config) string {
			if c.Scheduler.PollIntervalSeconds == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Scheduler.PollIntervalSeconds), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for scheduler.poll_interval_seconds: %w", err)
			}
			c.Scheduler.PollIntervalSeconds = uint(n)
			return nil
		},
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error { c.EventStream.Provider = v; return nil },
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
	"search.confidence_threshold": {
		get: func(c *Config) string {
			if c.Search.ConfidenceThreshold == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Search.ConfidenceThreshold, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for search.confidence_threshold: %w", err)
			}
			c.Search.ConfidenceThreshold = f
			return nil
		},
	},
}
