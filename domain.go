package pgmig

import (
	"strings"
	"time"
)

// MigrationFile is a single file discovered in the migrations directory.
type MigrationFile struct {
	Filename string
	Content  []byte
}

// MigrationRecord is a row of the bookkeeping table.
type MigrationRecord struct {
	Number    int       `db:"number"`
	Filename  string    `db:"filename"`
	Hash      string    `db:"hash"`
	Completed time.Time `db:"completed"`
	Duration  int64     `db:"duration"`
}

// Skipped reports whether hash verification is disabled for the record.
func (r MigrationRecord) Skipped() bool {
	return strings.EqualFold(r.Hash, skipHash)
}

type MigrationStatus struct {
	Filename    string
	Applied     bool
	Number      int
	CompletedAt *time.Time
	Duration    time.Duration
	// Missing is set for records whose file no longer exists on disk.
	Missing bool
	// HashMatches is false when the file changed after it was applied.
	HashMatches bool
}
