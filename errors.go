package pgmig

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrDatabaseConnection = errors.New("database connection error")
	ErrLockFailed         = errors.New("failed to acquire migrations table lock")
	ErrFileRead           = errors.New("cannot read migration file")
	ErrVerificationFailed = errors.New("migration verification failed")
	ErrStatementFailed    = errors.New("migration statement failed")
	ErrTransactionFailed  = errors.New("transaction failed")
)

// VerificationError reports an applied migration whose file content no
// longer hashes to the value recorded when it was applied.
type VerificationError struct {
	Filename     string
	CurrentHash  string
	RecordedHash string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf(
		"failed verification for migration [%s] - current file content hash [%s] is different from the file content hash [%s] at the time the migration was run, meaning the file content has changed",
		e.Filename, e.CurrentHash, e.RecordedHash,
	)
}

func (e *VerificationError) Is(target error) bool {
	return target == ErrVerificationFailed
}

// MigrationError wraps any failure that occurred while applying a pending
// migration file.
type MigrationError struct {
	Filename string
	Err      error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("error applying migration [%s]: %v", e.Filename, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
