package pgmig

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// DefaultMigrationsTable is the bookkeeping table used when none is set.
const DefaultMigrationsTable = "_migrations"

// Config describes a migration run.
//
// Migration files are applied in lexicographic filename order, not numeric:
// "10-a.sql" runs before "2-b.sql". Zero-pad or date-prefix filenames so that
// they sort in the intended order.
type Config struct {
	User     string
	Host     string
	Database string
	Password string
	Port     int
	// SSLMode is passed through as the libpq sslmode parameter when set.
	SSLMode string

	// MigrationsDir is a path on disk, or a directory inside MigrationsFS
	// when that is set.
	MigrationsDir   string
	MigrationsFS    fs.FS
	MigrationsTable string

	Logger Logger
}

// Run connects to the database, applies every pending migration and closes
// the connection on every exit path.
func Run(ctx context.Context, cfg Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	conn, err := connect(ctx, cfg)
	if err != nil {
		return err
	}

	cfg = withDefaults(cfg)
	return runWithStorage(ctx, newPostgresStorage(conn, cfg.MigrationsTable, cfg.Logger), cfg)
}

func runWithStorage(ctx context.Context, storage Storage, cfg Config) (err error) {
	cfg = withDefaults(cfg)
	m := newMigrator(storage, sourceFor(cfg), cfg.MigrationsTable, cfg.Logger)

	defer func() {
		if closeErr := m.Close(ctx); closeErr != nil {
			cfg.Logger.Error("pgmig: failed to close database connection", "error", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}()

	return m.Run(ctx)
}

// New connects to the database and returns a Migrator owning the
// connection. Callers must Close it.
func New(ctx context.Context, cfg Config) (Migrator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	conn, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewWithConn(conn, cfg)
}

// NewWithConn returns a Migrator using an existing connection. Closing the
// Migrator closes the connection.
func NewWithConn(conn *pgx.Conn, cfg Config) (Migrator, error) {
	if err := validateSource(cfg); err != nil {
		return nil, err
	}

	cfg = withDefaults(cfg)
	storage := newPostgresStorage(conn, cfg.MigrationsTable, cfg.Logger)
	return newMigrator(storage, sourceFor(cfg), cfg.MigrationsTable, cfg.Logger), nil
}

func connect(ctx context.Context, cfg Config) (*pgx.Conn, error) {
	connConfig, err := pgx.ParseConfig(connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseConnection, err)
	}

	return conn, nil
}

func connString(cfg Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}

	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{cfg.SSLMode}}.Encode()
	}

	return u.String()
}

func withDefaults(cfg Config) Config {
	if cfg.MigrationsTable == "" {
		cfg.MigrationsTable = DefaultMigrationsTable
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	return cfg
}

func sourceFor(cfg Config) *source {
	if cfg.MigrationsFS != nil {
		return newSource(cfg.MigrationsFS, cfg.MigrationsDir)
	}
	return newSource(os.DirFS(cfg.MigrationsDir), ".")
}

func validateConfig(cfg Config) error {
	if cfg.User == "" {
		return fmt.Errorf("%w: User is required", ErrInvalidConfig)
	}

	if cfg.Host == "" {
		return fmt.Errorf("%w: Host is required", ErrInvalidConfig)
	}

	if cfg.Database == "" {
		return fmt.Errorf("%w: Database is required", ErrInvalidConfig)
	}

	if cfg.Password == "" {
		return fmt.Errorf("%w: Password is required", ErrInvalidConfig)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: Port must be between 1 and 65535", ErrInvalidConfig)
	}

	return validateSource(cfg)
}

func validateSource(cfg Config) error {
	if cfg.MigrationsDir == "" && cfg.MigrationsFS == nil {
		return fmt.Errorf("%w: either MigrationsDir or MigrationsFS must be provided", ErrInvalidConfig)
	}
	return nil
}
