package sink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kramano/log-export/errors"
	"github.com/kramano/log-export/extract"
)

func testSchema() extract.Schema {
	return extract.NewSchema([]extract.Column{
		{Name: "insertId", Type: extract.TypeString, Required: true},
		{Name: "timestamp", Type: extract.TypeTimestamp, Required: true},
		{Name: "severity", Type: extract.TypeString},
		{Name: "labels", Type: extract.TypeJSON},
	})
}

func TestQualifyTable(t *testing.T) {
	t.Run("bare table", func(t *testing.T) {
		id, err := qualifyTable("logs")
		require.NoError(t, err)
		assert.Equal(t, `"logs"`, id.Sanitize())
	})

	t.Run("schema qualified", func(t *testing.T) {
		id, err := qualifyTable("logexport.app_logs")
		require.NoError(t, err)
		assert.Equal(t, `"logexport"."app_logs"`, id.Sanitize())
	})

	t.Run("too many parts", func(t *testing.T) {
		_, err := qualifyTable("a.b.c")
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	})

	t.Run("empty part", func(t *testing.T) {
		_, err := qualifyTable("logexport.")
		assert.Error(t, err)
	})
}

func TestCreateTableSQL(t *testing.T) {
	id, err := qualifyTable("logs")
	require.NoError(t, err)

	sql := createTableSQL(id, testSchema())
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "logs" (`+
			`"insertId" text NOT NULL, `+
			`"timestamp" timestamptz NOT NULL, `+
			`"severity" text, `+
			`"labels" jsonb)`,
		sql)
}

func TestCreateTableSQLNeverDestructive(t *testing.T) {
	id, _ := qualifyTable("logexport.app_logs")
	sql := createTableSQL(id, testSchema())
	assert.Contains(t, sql, "IF NOT EXISTS")
	assert.NotContains(t, sql, "DROP")
	assert.NotContains(t, sql, "ALTER")
}

func TestInsertSQL(t *testing.T) {
	id, _ := qualifyTable("logs")
	sql := insertSQL(id, testSchema())
	assert.Equal(t,
		`INSERT INTO "logs" ("insertId", "timestamp", "severity", "labels") `+
			`VALUES ($1, $2, $3, $4)`,
		sql)
}

func TestRowArgs(t *testing.T) {
	schema := testSchema()

	t.Run("full row in column order", func(t *testing.T) {
		args, err := rowArgs(extract.Row{
			"insertId":  "abc",
			"timestamp": "2024-01-01T00:00:00Z",
			"severity":  "INFO",
			"labels":    map[string]string{"env": "prod"},
		}, schema)
		require.NoError(t, err)
		require.Len(t, args, 4)

		assert.Equal(t, "abc", args[0])
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), args[1])
		assert.Equal(t, "INFO", args[2])
		assert.Equal(t, map[string]string{"env": "prod"}, args[3])
	})

	t.Run("absent optional columns bind NULL", func(t *testing.T) {
		args, err := rowArgs(extract.Row{
			"insertId":  "abc",
			"timestamp": "2024-01-01T00:00:00Z",
		}, schema)
		require.NoError(t, err)
		assert.Nil(t, args[2])
		assert.Nil(t, args[3])
	})

	t.Run("missing required column fails", func(t *testing.T) {
		_, err := rowArgs(extract.Row{"insertId": "abc"}, schema)
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	})

	t.Run("malformed timestamp fails", func(t *testing.T) {
		_, err := rowArgs(extract.Row{
			"insertId":  "abc",
			"timestamp": "yesterday",
		}, schema)
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	})
}

func TestPGTypeMapping(t *testing.T) {
	assert.Equal(t, "text", pgType(extract.TypeString))
	assert.Equal(t, "timestamptz", pgType(extract.TypeTimestamp))
	assert.Equal(t, "bigint", pgType(extract.TypeInteger))
	assert.Equal(t, "double precision", pgType(extract.TypeFloat))
	assert.Equal(t, "boolean", pgType(extract.TypeBoolean))
	assert.Equal(t, "jsonb", pgType(extract.TypeJSON))
}
