package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kramano/log-export/errors"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Pipeline.Stream = "LOGS"
	cfg.Pipeline.Subscription = "exporter"
	cfg.Pipeline.OutputTable = "analytics.request_logs"
	cfg.Sink.URL = "postgres://localhost:5432/logs"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, -1, cfg.NATS.MaxReconnects)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, 4, cfg.Pipeline.Shards)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateSourceSelection(t *testing.T) {
	tests := []struct {
		name         string
		subscription string
		topic        string
		wantErr      bool
	}{
		{"subscription only", "exporter", "", false},
		{"topic only", "", "logs.requests", false},
		{"both", "exporter", "logs.requests", true},
		{"neither", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Pipeline.Subscription = tt.subscription
			cfg.Pipeline.Topic = tt.topic

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRequiredFields(t *testing.T) {
	t.Run("missing output table", func(t *testing.T) {
		cfg := validConfig()
		cfg.Pipeline.OutputTable = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing stream", func(t *testing.T) {
		cfg := validConfig()
		cfg.Pipeline.Stream = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing sink url", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sink.URL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing nats url", func(t *testing.T) {
		cfg := validConfig()
		cfg.NATS.URL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative bound", func(t *testing.T) {
		cfg := validConfig()
		cfg.Pipeline.RunBoundedOver = -5
		assert.Error(t, cfg.Validate())
	})
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"pipeline": {
			"stream": "LOGS",
			"topic": "logs.requests",
			"run_bounded_over": 100,
			"output_table": "request_logs"
		},
		"sink": {"url": "postgres://localhost:5432/logs"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "logs.requests", cfg.Pipeline.Topic)
	assert.Equal(t, 100, cfg.Pipeline.RunBoundedOver)
	assert.Equal(t, 4, cfg.Pipeline.Shards)
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("LOGEXPORT_TEST_DB", "postgres://db:5432/logs")

	cfg, err := Parse([]byte(`{
		"pipeline": {
			"stream": "LOGS",
			"subscription": "exporter",
			"output_table": "request_logs"
		},
		"sink": {"url": "${LOGEXPORT_TEST_DB}"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "postgres://db:5432/logs", cfg.Sink.URL)
}

func TestParsePreservesLiteralDollarSigns(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"pipeline": {
			"stream": "LOGS",
			"subscription": "exporter",
			"output_table": "request_logs"
		},
		"sink": {"url": "postgres://user:pa$$w0rd@db:5432/logs"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "postgres://user:pa$$w0rd@db:5432/logs", cfg.Sink.URL)
}

func TestParseRejectsUnsetEnvReference(t *testing.T) {
	_, err := Parse([]byte(`{
		"pipeline": {
			"stream": "LOGS",
			"subscription": "exporter",
			"output_table": "request_logs"
		},
		"sink": {"url": "${LOGEXPORT_TEST_UNSET_DB}"}
	}`))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Contains(t, err.Error(), "LOGEXPORT_TEST_UNSET_DB")
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"pipeline": `))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"nats": {"url": "nats://broker:4222"},
		"pipeline": {
			"stream": "LOGS",
			"subscription": "exporter",
			"output_table": "analytics.request_logs",
			"dead_letter_subject": "logs.dead"
		},
		"sink": {"url": "postgres://localhost:5432/logs"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, "analytics.request_logs", cfg.Pipeline.OutputTable)
	assert.Equal(t, "logs.dead", cfg.Pipeline.DeadLetterSubject)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}
