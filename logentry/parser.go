package logentry

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/kramano/log-export/errors"
)

// Structural validation errors. All of them are surfaced through Parse
// wrapped as invalid, so callers can route the record to the drop or
// dead-letter path without inspecting individual sentinels.
var (
	ErrEmptyPayload     = stderrors.New("empty payload")
	ErrMissingInsertID  = stderrors.New("missing insertId")
	ErrMissingTimestamp = stderrors.New("missing timestamp")
	ErrBadTimestamp     = stderrors.New("malformed timestamp")
)

// Parse performs strict structural decoding of a raw message payload into an
// Entry. A payload that is not well-formed JSON, or that is well-formed but
// misses a required structural field, yields a classified invalid error and
// no Entry. Parsing is stateless and has no side effects.
func Parse(data []byte) (*Entry, error) {
	if len(data) == 0 {
		return nil, errors.WrapInvalid(ErrEmptyPayload, "Parser", "Parse", "read payload")
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrParsingFailed, err),
			"Parser", "Parse", "decode log entry")
	}

	if err := validate(&entry); err != nil {
		return nil, errors.WrapInvalid(err, "Parser", "Parse", "validate log entry")
	}

	return &entry, nil
}

// validate enforces the required structural fields of the log-entry shape.
func validate(e *Entry) error {
	if e.InsertID == "" {
		return ErrMissingInsertID
	}
	if e.Timestamp == "" {
		return ErrMissingTimestamp
	}
	if _, err := time.Parse(time.RFC3339Nano, e.Timestamp); err != nil {
		return fmt.Errorf("%w: %q", ErrBadTimestamp, e.Timestamp)
	}
	if e.ReceiveTimestamp != "" {
		if _, err := time.Parse(time.RFC3339Nano, e.ReceiveTimestamp); err != nil {
			return fmt.Errorf("%w: %q", ErrBadTimestamp, e.ReceiveTimestamp)
		}
	}
	return nil
}
