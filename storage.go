package pgmig

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type postgresStorage struct {
	conn   *pgx.Conn
	table  string
	logger Logger
}

func newPostgresStorage(conn *pgx.Conn, table string, logger Logger) *postgresStorage {
	return &postgresStorage{
		conn:   conn,
		table:  table,
		logger: logger,
	}
}

func (s *postgresStorage) Init(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, createTableSQL(s.table)); err != nil {
		return errors.Wrapf(err, "failed to create migrations table %s", s.table)
	}
	return nil
}

func (s *postgresStorage) Begin(ctx context.Context) (Transaction, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ErrTransactionFailed, err)
	}

	return &postgresTransaction{tx: tx, table: s.table}, nil
}

func (s *postgresStorage) GetAppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	return queryApplied(ctx, s.conn, s.table)
}

func (s *postgresStorage) Close(ctx context.Context) error {
	if err := s.conn.Close(ctx); err != nil {
		return errors.Wrap(err, "failed to close database connection")
	}
	s.logger.Debug("pgmig: closed database connection")
	return nil
}

type postgresTransaction struct {
	tx    pgx.Tx
	table string
}

func (t *postgresTransaction) Lock(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, lockTableSQL(t.table))
	return err
}

func (t *postgresTransaction) GetAppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	return queryApplied(ctx, t.tx, t.table)
}

// Exec runs the whole file without arguments, which makes pgx use the simple
// protocol and allows several statements in one file.
func (t *postgresTransaction) Exec(ctx context.Context, sql string) error {
	_, err := t.tx.Exec(ctx, sql)
	return err
}

func (t *postgresTransaction) RecordMigration(ctx context.Context, record MigrationRecord) error {
	_, err := t.tx.Exec(ctx, insertRecordSQL(t.table),
		record.Number,
		record.Filename,
		record.Hash,
		record.Completed,
		record.Duration,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to record migration %s", record.Filename)
	}
	return nil
}

func (t *postgresTransaction) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *postgresTransaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryApplied(ctx context.Context, q querier, table string) ([]MigrationRecord, error) {
	rows, err := q.Query(ctx, selectAppliedSQL(table))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query migrations table %s", table)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[MigrationRecord])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read migrations table %s", table)
	}
	return records, nil
}

// quoteTable quotes each dot-separated part so "app._migrations" stays
// schema-qualified.
func quoteTable(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	number integer PRIMARY KEY NOT NULL,
	filename text UNIQUE NOT NULL,
	hash text NOT NULL,
	completed timestamp with time zone NOT NULL,
	duration bigint NOT NULL
)`, quoteTable(table))
}

func lockTableSQL(table string) string {
	return fmt.Sprintf("LOCK TABLE %s IN ACCESS EXCLUSIVE MODE", quoteTable(table))
}

// Tables created by older releases may hold duplicate numbers, hence the
// secondary order on completed.
func selectAppliedSQL(table string) string {
	return fmt.Sprintf("SELECT number, filename, hash, completed, duration FROM %s ORDER BY number, completed", quoteTable(table))
}

func insertRecordSQL(table string) string {
	return fmt.Sprintf("INSERT INTO %s (number, filename, hash, completed, duration) VALUES ($1, $2, $3, $4, $5)", quoteTable(table))
}
