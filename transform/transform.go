// Package transform applies normalization rules to parsed log entries.
//
// Transformation is a total, pure function: it never fails for a well-formed
// entry, performs no I/O, and holds no mutable state beyond its read-only
// configuration. A rule that cannot apply to a given value skips the value
// rather than erroring. Same input and configuration always yield the same
// output, regardless of processing order or wall-clock time.
package transform

import (
	"sort"
	"strings"

	"github.com/kramano/log-export/logentry"
)

// Config holds the read-only rule configuration.
type Config struct {
	// RenameLabels maps old user-label keys to new ones. Renames only apply
	// when the old key is present; an existing new key is never overwritten.
	// When two renames share a target, the source keys are considered in
	// lexicographic order and only the first rename applies.
	RenameLabels map[string]string `json:"rename_labels,omitempty"`

	// RedactLabels lists user-label keys whose values are replaced with
	// RedactedValue.
	RedactLabels []string `json:"redact_labels,omitempty"`
}

// RedactedValue replaces the value of every redacted label.
const RedactedValue = "[REDACTED]"

// knownSeverities is the closed set of severity names; anything else is
// normalized to DEFAULT.
var knownSeverities = map[string]bool{
	"DEFAULT":   true,
	"DEBUG":     true,
	"INFO":      true,
	"NOTICE":    true,
	"WARNING":   true,
	"ERROR":     true,
	"CRITICAL":  true,
	"ALERT":     true,
	"EMERGENCY": true,
}

// Transformer normalizes parsed log entries.
type Transformer struct {
	rename map[string]string
	redact map[string]bool
}

// New creates a Transformer from configuration. The returned value is safe
// for concurrent use; its configuration is copied and never mutated.
func New(cfg Config) *Transformer {
	t := &Transformer{
		rename: make(map[string]string, len(cfg.RenameLabels)),
		redact: make(map[string]bool, len(cfg.RedactLabels)),
	}
	for from, to := range cfg.RenameLabels {
		if from != "" && to != "" && from != to {
			t.rename[from] = to
		}
	}
	for _, key := range cfg.RedactLabels {
		if key != "" {
			t.redact[key] = true
		}
	}
	return t
}

// Transform returns a normalized copy of the entry. The input is never
// modified.
func (t *Transformer) Transform(e logentry.Entry) logentry.Entry {
	out := e.Clone()
	out.Severity = normalizeSeverity(out.Severity)
	out.Labels = t.applyLabelRules(out.Labels)
	return out
}

// normalizeSeverity upper-cases the severity and collapses unknown names to
// DEFAULT. An absent severity stays absent.
func normalizeSeverity(severity string) string {
	if severity == "" {
		return ""
	}
	upper := strings.ToUpper(strings.TrimSpace(severity))
	if !knownSeverities[upper] {
		return "DEFAULT"
	}
	return upper
}

func (t *Transformer) applyLabelRules(labels map[string]string) map[string]string {
	if len(labels) == 0 || (len(t.rename) == 0 && len(t.redact) == 0) {
		return labels
	}

	// Source keys are processed in sorted order and a written target is
	// never overwritten, so colliding rename targets resolve the same way
	// on every invocation.
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(labels))
	for _, k := range keys {
		v := labels[k]
		if to, ok := t.rename[k]; ok {
			_, inInput := labels[to]
			_, written := out[to]
			if !inInput && !written {
				k = to
			}
		}
		out[k] = v
	}
	for k := range out {
		if t.redact[k] {
			out[k] = RedactedValue
		}
	}
	return out
}
