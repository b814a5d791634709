package pgmig

import "context"

type Migrator interface {
	Run(ctx context.Context) error
	Status(ctx context.Context) ([]MigrationStatus, error)
	Latest(ctx context.Context) (*MigrationRecord, error)
	Close(ctx context.Context) error
}

// Storage owns the database connection used for a single run.
type Storage interface {
	Init(ctx context.Context) error
	Begin(ctx context.Context) (Transaction, error)
	GetAppliedMigrations(ctx context.Context) ([]MigrationRecord, error)
	Close(ctx context.Context) error
}

// Transaction is the unit of work every pending migration is applied in.
// Lock must be called before anything else and holds until Commit or
// Rollback.
type Transaction interface {
	Lock(ctx context.Context) error
	GetAppliedMigrations(ctx context.Context) ([]MigrationRecord, error)
	Exec(ctx context.Context, sql string) error
	RecordMigration(ctx context.Context, record MigrationRecord) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
