package pgmig

import (
	"context"
	"fmt"
	"time"
)

type migrator struct {
	storage Storage
	source  *source
	table   string
	logger  Logger
	now     func() time.Time
}

func newMigrator(storage Storage, src *source, table string, logger Logger) *migrator {
	return &migrator{
		storage: storage,
		source:  src,
		table:   table,
		logger:  logger,
		now:     time.Now,
	}
}

// Run applies every pending migration inside a single transaction holding an
// exclusive lock on the migrations table. Nothing from the run is persisted
// unless every pending migration succeeds.
func (m *migrator) Run(ctx context.Context) (err error) {
	if err := m.storage.Init(ctx); err != nil {
		return err
	}

	tx, err := m.storage.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			m.logger.Error("pgmig: failed to roll back migrations transaction", "error", rbErr)
		}
	}()

	m.logger.Debug(fmt.Sprintf("pgmig: acquiring table lock on %s table", m.table))
	if err := tx.Lock(ctx); err != nil {
		return fmt.Errorf("%w on %s: %w", ErrLockFailed, m.table, err)
	}
	m.logger.Debug(fmt.Sprintf("pgmig: acquired table lock on %s table", m.table))

	applied, err := tx.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	m.logger.Debug(fmt.Sprintf("pgmig: %d applied migrations found in %s table", len(applied), m.table))

	if err := m.verify(applied); err != nil {
		return err
	}

	pending, err := m.pending(applied)
	if err != nil {
		return err
	}

	if err := m.apply(ctx, tx, pending, len(applied)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrTransactionFailed, err)
	}

	if len(pending) > 0 {
		m.logger.Info("pgmig: migrations applied", "count", len(pending))
	}
	return nil
}

// verify checks every applied record against the current file on disk before
// anything new is applied.
func (m *migrator) verify(applied []MigrationRecord) error {
	for _, record := range applied {
		m.logger.Debug(fmt.Sprintf("pgmig: verifying migration [%s] content hash: %s", record.Filename, record.Hash))

		if record.Skipped() {
			m.logger.Debug(fmt.Sprintf("pgmig: skipping verification for migration [%s] because hash is set to '%s'", record.Filename, skipHash))
			continue
		}

		file, err := m.readFile(record.Filename)
		if err != nil {
			return err
		}

		if hash := file.Hash(); hash != record.Hash {
			verr := &VerificationError{
				Filename:     record.Filename,
				CurrentHash:  hash,
				RecordedHash: record.Hash,
			}
			m.logger.Error("pgmig: " + verr.Error())
			return verr
		}

		m.logger.Debug(fmt.Sprintf("pgmig: verified migration [%s]", record.Filename))
	}

	return nil
}

// pending returns the sorted filenames on disk that have no record.
func (m *migrator) pending(applied []MigrationRecord) ([]string, error) {
	names, err := m.source.filenames()
	if err != nil {
		return nil, err
	}
	m.logger.Debug(fmt.Sprintf("pgmig: %d migration files found in %s directory", len(names), m.source.dir))

	appliedNames := make(map[string]bool, len(applied))
	for _, record := range applied {
		appliedNames[record.Filename] = true
	}

	var pending []string
	for _, name := range names {
		if !appliedNames[name] {
			pending = append(pending, name)
		}
	}
	m.logger.Debug(fmt.Sprintf("pgmig: %d unapplied migrations found", len(pending)))

	if len(pending) == 0 {
		msg := "pgmig: No pending migrations to apply"
		if len(applied) > 0 {
			msg += fmt.Sprintf(" - latest migration [%s]", applied[len(applied)-1].Filename)
		}
		m.logger.Info(msg)
	}

	return pending, nil
}

func (m *migrator) apply(ctx context.Context, tx Transaction, pending []string, appliedCount int) error {
	for i, name := range pending {
		if err := m.applyOne(ctx, tx, name, appliedCount+i+1); err != nil {
			m.logger.Error(fmt.Sprintf("pgmig: error applying migration [%s]", name))
			return &MigrationError{Filename: name, Err: err}
		}
		m.logger.Debug(fmt.Sprintf("pgmig: applied migration [%s]", name))
	}

	return nil
}

func (m *migrator) applyOne(ctx context.Context, tx Transaction, name string, number int) error {
	file, err := m.readFile(name)
	if err != nil {
		return err
	}

	started := time.Now()
	if err := tx.Exec(ctx, string(file.Content)); err != nil {
		return fmt.Errorf("%w: %w", ErrStatementFailed, err)
	}
	duration := time.Since(started)

	return tx.RecordMigration(ctx, MigrationRecord{
		Number:    number,
		Filename:  name,
		Hash:      file.Hash(),
		Completed: m.now().UTC(),
		Duration:  duration.Milliseconds(),
	})
}

func (m *migrator) readFile(name string) (MigrationFile, error) {
	file, err := m.source.read(name)
	if err != nil {
		m.logger.Error(fmt.Sprintf("pgmig: cannot read migration file [%s]", name))
		return MigrationFile{}, err
	}
	return file, nil
}

// Status reports every migration file and record without taking the lock.
// Records whose file is gone are listed last with Missing set.
func (m *migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.storage.Init(ctx); err != nil {
		return nil, err
	}

	applied, err := m.storage.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	names, err := m.source.filenames()
	if err != nil {
		return nil, err
	}

	appliedMap := make(map[string]MigrationRecord, len(applied))
	for _, record := range applied {
		appliedMap[record.Filename] = record
	}

	statuses := make([]MigrationStatus, 0, len(names))
	onDisk := make(map[string]bool, len(names))
	for _, name := range names {
		onDisk[name] = true

		status := MigrationStatus{Filename: name, HashMatches: true}
		record, ok := appliedMap[name]
		if ok {
			status.Applied = true
			status.Number = record.Number
			completed := record.Completed
			status.CompletedAt = &completed
			status.Duration = time.Duration(record.Duration) * time.Millisecond

			if !record.Skipped() {
				file, err := m.source.read(name)
				if err != nil {
					return nil, err
				}
				status.HashMatches = file.Hash() == record.Hash
				if !status.HashMatches {
					m.logger.Warn("pgmig: hash mismatch", "filename", name)
				}
			}
		}

		statuses = append(statuses, status)
	}

	for _, record := range applied {
		if onDisk[record.Filename] {
			continue
		}
		completed := record.Completed
		statuses = append(statuses, MigrationStatus{
			Filename:    record.Filename,
			Applied:     true,
			Number:      record.Number,
			CompletedAt: &completed,
			Duration:    time.Duration(record.Duration) * time.Millisecond,
			Missing:     true,
		})
	}

	return statuses, nil
}

// Latest returns the most recently applied migration, or nil when the table
// is empty.
func (m *migrator) Latest(ctx context.Context) (*MigrationRecord, error) {
	if err := m.storage.Init(ctx); err != nil {
		return nil, err
	}

	applied, err := m.storage.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	if len(applied) == 0 {
		return nil, nil
	}

	latest := applied[len(applied)-1]
	return &latest, nil
}

func (m *migrator) Close(ctx context.Context) error {
	return m.storage.Close(ctx)
}
