package logentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kramano/log-export/errors"
)

func TestParseValidEntry(t *testing.T) {
	payload := []byte(`{
		"insertId": "abc123",
		"severity": "INFO",
		"timestamp": "2024-01-01T00:00:00Z",
		"resource": {"type": "gae_app", "labels": {"module_id": "default"}},
		"textPayload": "hello"
	}`)

	entry, err := Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, "abc123", entry.InsertID)
	assert.Equal(t, "INFO", entry.Severity)
	assert.Equal(t, "2024-01-01T00:00:00Z", entry.Timestamp)
	assert.Equal(t, "gae_app", entry.Resource.Type)
	assert.Equal(t, "default", entry.Resource.Labels["module_id"])
	assert.Equal(t, "hello", entry.TextPayload)
}

func TestParseStructuredPayload(t *testing.T) {
	payload := []byte(`{
		"insertId": "def456",
		"timestamp": "2024-01-01T00:00:00.123456789Z",
		"jsonPayload": {"event": "login", "attempt": 2},
		"labels": {"env": "prod"},
		"httpRequest": {"requestMethod": "GET", "status": 200, "responseSize": "1024"},
		"trace": "projects/p/traces/t1"
	}`)

	entry, err := Parse(payload)
	require.NoError(t, err)

	assert.Equal(t, "login", entry.JSONPayload["event"])
	assert.Equal(t, float64(2), entry.JSONPayload["attempt"])
	assert.Equal(t, "prod", entry.Labels["env"])
	require.NotNil(t, entry.HTTPRequest)
	assert.Equal(t, 200, entry.HTTPRequest.Status)
	assert.Equal(t, int64(1024), entry.HTTPRequest.ResponseSize)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json at all", `not valid json`},
		{"truncated object", `{"insertId": "x"`},
		{"json scalar", `42`},
		{"wrong field type", `{"insertId": "x", "timestamp": "2024-01-01T00:00:00Z", "labels": "oops"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := Parse([]byte(tt.payload))
			require.Error(t, err)
			assert.Nil(t, entry, "a parse failure must never produce an entry")
			assert.True(t, errors.IsInvalid(err), "parse errors are classified invalid")
		})
	}
}

func TestParseRejectsMissingStructuralFields(t *testing.T) {
	t.Run("empty payload", func(t *testing.T) {
		_, err := Parse(nil)
		assert.ErrorIs(t, err, ErrEmptyPayload)
	})

	t.Run("missing insertId", func(t *testing.T) {
		_, err := Parse([]byte(`{"timestamp": "2024-01-01T00:00:00Z"}`))
		assert.ErrorIs(t, err, ErrMissingInsertID)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		_, err := Parse([]byte(`{"insertId": "abc"}`))
		assert.ErrorIs(t, err, ErrMissingTimestamp)
	})

	t.Run("malformed timestamp", func(t *testing.T) {
		_, err := Parse([]byte(`{"insertId": "abc", "timestamp": "yesterday"}`))
		assert.ErrorIs(t, err, ErrBadTimestamp)
	})

	t.Run("malformed receiveTimestamp", func(t *testing.T) {
		_, err := Parse([]byte(
			`{"insertId": "abc", "timestamp": "2024-01-01T00:00:00Z", "receiveTimestamp": "soon"}`))
		assert.ErrorIs(t, err, ErrBadTimestamp)
	})
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	payload := []byte(`{
		"insertId": "abc",
		"timestamp": "2024-01-01T00:00:00Z",
		"protoPayload": {"@type": "type.googleapis.com/google.appengine.logging.v1.RequestLog"},
		"futureField": true
	}`)

	entry, err := Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, "abc", entry.InsertID)
}

func TestEntryCloneIsDeep(t *testing.T) {
	entry := Entry{
		InsertID:  "abc",
		Timestamp: "2024-01-01T00:00:00Z",
		Resource:  Resource{Type: "gae_app", Labels: map[string]string{"module_id": "default"}},
		Labels:    map[string]string{"env": "prod"},
		JSONPayload: map[string]any{
			"nested": map[string]any{"k": "v"},
			"list":   []any{1.0, 2.0},
		},
		HTTPRequest: &HTTPRequest{Status: 200},
	}

	clone := entry.Clone()
	clone.Resource.Labels["module_id"] = "changed"
	clone.Labels["env"] = "changed"
	clone.JSONPayload["nested"].(map[string]any)["k"] = "changed"
	clone.HTTPRequest.Status = 500

	assert.Equal(t, "default", entry.Resource.Labels["module_id"])
	assert.Equal(t, "prod", entry.Labels["env"])
	assert.Equal(t, "v", entry.JSONPayload["nested"].(map[string]any)["k"])
	assert.Equal(t, 200, entry.HTTPRequest.Status)
}
