// Package extract maps transformed log entries onto rows of the declared
// output schema. The schema is built once, is immutable afterwards, and is
// the single source of truth both for row extraction and for destination
// table creation.
package extract

// FieldType enumerates the column types of the output schema.
type FieldType string

// Supported column types.
const (
	TypeString    FieldType = "STRING"
	TypeTimestamp FieldType = "TIMESTAMP"
	TypeInteger   FieldType = "INTEGER"
	TypeFloat     FieldType = "FLOAT"
	TypeBoolean   FieldType = "BOOLEAN"
	TypeJSON      FieldType = "JSON"
)

// Column declares one output column.
type Column struct {
	Name     string
	Type     FieldType
	Required bool
}

// Schema is the ordered, immutable list of output columns.
type Schema struct {
	columns []Column
	index   map[string]int
}

// NewSchema builds a schema from an ordered column list.
func NewSchema(columns []Column) Schema {
	cols := make([]Column, len(columns))
	copy(cols, columns)

	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c.Name] = i
	}
	return Schema{columns: cols, index: index}
}

// Columns returns a copy of the ordered column list.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Len returns the number of declared columns.
func (s Schema) Len() int {
	return len(s.columns)
}

// Has reports whether the schema declares a column with the given name.
func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Row maps output column names to typed values. Only columns declared by the
// schema ever appear as keys; required columns are always present.
type Row map[string]any
