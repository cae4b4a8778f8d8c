package extract

import (
	"github.com/kramano/log-export/logentry"
)

// fieldMapping binds one output column to its accessor on the entry. The
// accessor reports false when the entry carries no value for the column.
type fieldMapping struct {
	column Column
	get    func(logentry.Entry) (any, bool)
}

// Extractor turns transformed log entries into output rows. It holds the
// compiled field-mapping table, which is immutable after construction.
//
// Construction is cheap enough to do eagerly but is intended to happen once
// per shard, not once per record: every worker builds its own Extractor and
// reuses it for all records it processes. Independent shards may construct
// Extractors concurrently; instances share no mutable state.
type Extractor struct {
	schema Schema
	fields []fieldMapping
}

// NewExtractor compiles the field-mapping table for the log-export schema.
func NewExtractor() *Extractor {
	fields := compileFields()

	columns := make([]Column, len(fields))
	for i, f := range fields {
		columns[i] = f.column
	}

	return &Extractor{
		schema: NewSchema(columns),
		fields: fields,
	}
}

// Schema returns the immutable output schema. The sink reads it to create
// the destination table; it is never mutated after construction.
func (x *Extractor) Schema() Schema {
	return x.schema
}

// ExtractRows maps a transformed entry into output rows. Today every entry
// yields exactly one row, but the contract permits zero or more to allow
// future fan-out (e.g. one row per sub-event).
func (x *Extractor) ExtractRows(e logentry.Entry) []Row {
	row := make(Row, len(x.fields))
	for _, f := range x.fields {
		if v, ok := f.get(e); ok {
			row[f.column.Name] = v
		}
	}
	return []Row{row}
}

// compileFields declares the authoritative column list and the accessor for
// each column. Required columns are guaranteed present by the parser's
// structural validation.
func compileFields() []fieldMapping {
	return []fieldMapping{
		{
			column: Column{Name: "insertId", Type: TypeString, Required: true},
			get: func(e logentry.Entry) (any, bool) {
				return e.InsertID, true
			},
		},
		{
			column: Column{Name: "timestamp", Type: TypeTimestamp, Required: true},
			get: func(e logentry.Entry) (any, bool) {
				return e.Timestamp, true
			},
		},
		{
			column: Column{Name: "receiveTimestamp", Type: TypeTimestamp},
			get: func(e logentry.Entry) (any, bool) {
				return e.ReceiveTimestamp, e.ReceiveTimestamp != ""
			},
		},
		{
			column: Column{Name: "severity", Type: TypeString},
			get: func(e logentry.Entry) (any, bool) {
				return e.Severity, e.Severity != ""
			},
		},
		{
			column: Column{Name: "logName", Type: TypeString},
			get: func(e logentry.Entry) (any, bool) {
				return e.LogName, e.LogName != ""
			},
		},
		{
			column: Column{Name: "resourceType", Type: TypeString},
			get: func(e logentry.Entry) (any, bool) {
				return e.Resource.Type, e.Resource.Type != ""
			},
		},
		{
			column: Column{Name: "resourceLabels", Type: TypeJSON},
			get: func(e logentry.Entry) (any, bool) {
				return e.Resource.Labels, len(e.Resource.Labels) > 0
			},
		},
		{
			column: Column{Name: "labels", Type: TypeJSON},
			get: func(e logentry.Entry) (any, bool) {
				return e.Labels, len(e.Labels) > 0
			},
		},
		{
			column: Column{Name: "payload", Type: TypeString},
			get: func(e logentry.Entry) (any, bool) {
				return e.TextPayload, e.TextPayload != ""
			},
		},
		{
			column: Column{Name: "jsonPayload", Type: TypeJSON},
			get: func(e logentry.Entry) (any, bool) {
				return e.JSONPayload, len(e.JSONPayload) > 0
			},
		},
		{
			column: Column{Name: "httpRequest", Type: TypeJSON},
			get: func(e logentry.Entry) (any, bool) {
				return e.HTTPRequest, e.HTTPRequest != nil
			},
		},
		{
			column: Column{Name: "sourceLocation", Type: TypeJSON},
			get: func(e logentry.Entry) (any, bool) {
				return e.SourceLocation, e.SourceLocation != nil
			},
		},
		{
			column: Column{Name: "trace", Type: TypeString},
			get: func(e logentry.Entry) (any, bool) {
				return e.Trace, e.Trace != ""
			},
		},
		{
			column: Column{Name: "spanId", Type: TypeString},
			get: func(e logentry.Entry) (any, bool) {
				return e.SpanID, e.SpanID != ""
			},
		},
	}
}
