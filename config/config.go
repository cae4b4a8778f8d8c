// Package config defines the application configuration and its JSON loader.
package config

import (
	"time"

	"github.com/kramano/log-export/errors"
	"github.com/kramano/log-export/sink"
	"github.com/kramano/log-export/transform"
)

// Config represents the complete application configuration
type Config struct {
	NATS      NATSConfig       `json:"nats"`
	Pipeline  PipelineConfig   `json:"pipeline"`
	Transform transform.Config `json:"transform,omitempty"`
	Sink      sink.Config      `json:"sink"`
	Metrics   MetricsConfig    `json:"metrics,omitempty"`
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URL           string        `json:"url"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
}

// PipelineConfig selects the message source and the output table.
type PipelineConfig struct {
	// Stream is the JetStream stream holding the log records.
	Stream string `json:"stream"`

	// Subscription names a durable consumer; exactly one of Subscription
	// and Topic must be set.
	Subscription string `json:"subscription,omitempty"`

	// Topic reads via a fresh ephemeral consumer instead of a durable one.
	Topic string `json:"topic,omitempty"`

	// RunBoundedOver stops the run after this many messages; zero means
	// run until cancelled.
	RunBoundedOver int `json:"run_bounded_over,omitempty"`

	// OutputTable is the destination table, optionally schema-qualified.
	OutputTable string `json:"output_table"`

	// Shards is the number of concurrent workers; zero picks the default.
	Shards int `json:"shards,omitempty"`

	// DeadLetterSubject, when set, receives unparseable payloads instead
	// of dropping them.
	DeadLetterSubject string `json:"dead_letter_subject,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// DefaultConfig returns a configuration with operational defaults applied.
// Source selection and the output table have no defaults and must be set.
func DefaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Pipeline: PipelineConfig{
			Shards: 4,
		},
		Metrics: MetricsConfig{
			Port: 9090,
			Path: "/metrics",
		},
	}
}

// Validate checks the configuration for completeness and consistency.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "nats.url is required")
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if c.Sink.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "sink.url is required")
	}
	return nil
}

// Validate checks the pipeline section.
func (p *PipelineConfig) Validate() error {
	if p.Stream == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "PipelineConfig", "Validate",
			"pipeline.stream is required")
	}
	if (p.Subscription == "") == (p.Topic == "") {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PipelineConfig", "Validate",
			"exactly one of pipeline.subscription and pipeline.topic must be set")
	}
	if p.OutputTable == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "PipelineConfig", "Validate",
			"pipeline.output_table is required")
	}
	if p.RunBoundedOver < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PipelineConfig", "Validate",
			"pipeline.run_bounded_over cannot be negative")
	}
	if p.Shards < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PipelineConfig", "Validate",
			"pipeline.shards cannot be negative")
	}
	return nil
}
