package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kramano/log-export/errors"
	"github.com/kramano/log-export/extract"
)

// PostgresWriter appends rows to a Postgres table. It satisfies Writer.
type PostgresWriter struct {
	pool      *pgxpool.Pool
	table     pgx.Identifier
	schema    extract.Schema
	insertStm string
	logger    *slog.Logger
}

// NewPostgres connects to the destination store and prepares the writer for
// the given fully-qualified table ("table" or "schema.table"). The schema is
// captured at construction and never changes afterwards.
func NewPostgres(
	ctx context.Context,
	cfg Config,
	outputTable string,
	schema extract.Schema,
	logger *slog.Logger,
) (*PostgresWriter, error) {
	if cfg.URL == "" {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Writer", "NewPostgres", "sink url required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	table, err := qualifyTable(outputTable)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, errors.WrapFatal(err, "Writer", "NewPostgres", "create connection pool")
	}

	return &PostgresWriter{
		pool:      pool,
		table:     table,
		schema:    schema,
		insertStm: insertSQL(table, schema),
		logger:    logger.With("component", "sink", "table", outputTable),
	}, nil
}

// EnsureTable creates the destination table from the output schema if it
// does not already exist. An existing table is left exactly as it is.
func (w *PostgresWriter) EnsureTable(ctx context.Context) error {
	if len(w.table) == 2 {
		schemaSQL := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s",
			pgx.Identifier{w.table[0]}.Sanitize())
		if _, err := w.pool.Exec(ctx, schemaSQL); err != nil {
			return errors.WrapTransient(err, "Writer", "EnsureTable", "create schema")
		}
	}

	ddl := createTableSQL(w.table, w.schema)
	if _, err := w.pool.Exec(ctx, ddl); err != nil {
		return errors.WrapTransient(err, "Writer", "EnsureTable", "create table")
	}

	w.logger.Info("destination table ready", "columns", w.schema.Len())
	return nil
}

// Append inserts the rows in a single batch. Writes are append-only; the
// statement set contains nothing but INSERTs.
func (w *PostgresWriter) Append(ctx context.Context, rows []extract.Row) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		args, err := rowArgs(row, w.schema)
		if err != nil {
			return err
		}
		batch.Queue(w.insertStm, args...)
	}

	results := w.pool.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			w.logger.Warn("closing batch results", "error", err)
		}
	}()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return errors.WrapTransient(err, "Writer", "Append",
				fmt.Sprintf("insert row %d of %d", i+1, len(rows)))
		}
	}

	w.logger.Debug("rows appended", "count", len(rows))
	return nil
}

// Close releases the connection pool.
func (w *PostgresWriter) Close(_ context.Context) error {
	w.pool.Close()
	return nil
}
