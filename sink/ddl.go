package sink

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kramano/log-export/errors"
	"github.com/kramano/log-export/extract"
)

// pgType maps an output-schema field type to its Postgres column type.
func pgType(t extract.FieldType) string {
	switch t {
	case extract.TypeString:
		return "text"
	case extract.TypeTimestamp:
		return "timestamptz"
	case extract.TypeInteger:
		return "bigint"
	case extract.TypeFloat:
		return "double precision"
	case extract.TypeBoolean:
		return "boolean"
	case extract.TypeJSON:
		return "jsonb"
	default:
		return "text"
	}
}

// qualifyTable parses a destination identifier of the form "table" or
// "schema.table" into a sanitized Postgres identifier.
func qualifyTable(name string) (pgx.Identifier, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q has more than two parts", errors.ErrInvalidConfig, name),
			"Writer", "qualifyTable", "parse destination table")
	}
	for _, part := range parts {
		if part == "" {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %q has an empty part", errors.ErrInvalidConfig, name),
				"Writer", "qualifyTable", "parse destination table")
		}
	}
	return pgx.Identifier(parts), nil
}

// createTableSQL renders the CREATE TABLE IF NOT EXISTS statement for the
// output schema. Required columns become NOT NULL.
func createTableSQL(table pgx.Identifier, schema extract.Schema) string {
	cols := schema.Columns()
	defs := make([]string, len(cols))
	for i, col := range cols {
		def := fmt.Sprintf("%s %s", pgx.Identifier{col.Name}.Sanitize(), pgType(col.Type))
		if col.Required {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		table.Sanitize(), strings.Join(defs, ", "))
}

// insertSQL renders the positional-parameter INSERT statement covering every
// schema column.
func insertSQL(table pgx.Identifier, schema extract.Schema) string {
	cols := schema.Columns()
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, col := range cols {
		names[i] = pgx.Identifier{col.Name}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Sanitize(), strings.Join(names, ", "), strings.Join(params, ", "))
}

// rowArgs converts a row into the argument slice for insertSQL, in schema
// column order. Absent optional columns become NULL; timestamp text is
// parsed into time.Time so the driver binds it natively.
func rowArgs(row extract.Row, schema extract.Schema) ([]any, error) {
	cols := schema.Columns()
	args := make([]any, len(cols))
	for i, col := range cols {
		v, ok := row[col.Name]
		if !ok {
			if col.Required {
				return nil, errors.WrapInvalid(
					fmt.Errorf("%w: row missing required column %q", errors.ErrInvalidData, col.Name),
					"Writer", "rowArgs", "bind row")
			}
			args[i] = nil
			continue
		}

		if col.Type == extract.TypeTimestamp {
			s, isStr := v.(string)
			if !isStr {
				args[i] = v
				continue
			}
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, errors.WrapInvalid(
					fmt.Errorf("%w: column %q: %w", errors.ErrInvalidData, col.Name, err),
					"Writer", "rowArgs", "parse timestamp")
			}
			args[i] = ts
			continue
		}

		args[i] = v
	}
	return args, nil
}
