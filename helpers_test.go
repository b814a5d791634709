package pgmig

import (
	"context"
	"errors"
	"sync"
)

// memoryDatabase stands in for the bookkeeping table plus the effects of
// executed migrations. Its table lock is a real mutex so concurrent runs
// serialize the way LOCK TABLE does.
type memoryDatabase struct {
	tableLock sync.Mutex

	mu       sync.Mutex
	records  []MigrationRecord
	executed []string

	// ExecFunc, when set, decides whether a migration statement succeeds.
	ExecFunc func(sql string) error
}

func newMemoryDatabase(records ...MigrationRecord) *memoryDatabase {
	return &memoryDatabase{records: records}
}

func (d *memoryDatabase) Records() []MigrationRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]MigrationRecord(nil), d.records...)
}

func (d *memoryDatabase) Executed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.executed...)
}

type mockStorage struct {
	db *memoryDatabase

	InitFunc   func(ctx context.Context) error
	BeginFunc  func(ctx context.Context) error
	CloseFunc  func(ctx context.Context) error
	LockFunc   func(ctx context.Context) error
	CommitFunc func(ctx context.Context) error

	mu           sync.Mutex
	initCalls    int
	closeCalls   int
	transactions []*mockTransaction
}

func newMockStorage(db *memoryDatabase) *mockStorage {
	return &mockStorage{db: db}
}

func (s *mockStorage) Init(ctx context.Context) error {
	s.mu.Lock()
	s.initCalls++
	s.mu.Unlock()

	if s.InitFunc != nil {
		return s.InitFunc(ctx)
	}
	return nil
}

func (s *mockStorage) Begin(ctx context.Context) (Transaction, error) {
	if s.BeginFunc != nil {
		if err := s.BeginFunc(ctx); err != nil {
			return nil, err
		}
	}

	tx := &mockTransaction{db: s.db, storage: s}

	s.mu.Lock()
	s.transactions = append(s.transactions, tx)
	s.mu.Unlock()

	return tx, nil
}

func (s *mockStorage) GetAppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	return s.db.Records(), nil
}

func (s *mockStorage) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closeCalls++
	s.mu.Unlock()

	if s.CloseFunc != nil {
		return s.CloseFunc(ctx)
	}
	return nil
}

func (s *mockStorage) lastTransaction() *mockTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.transactions) == 0 {
		return nil
	}
	return s.transactions[len(s.transactions)-1]
}

type mockTransaction struct {
	db      *memoryDatabase
	storage *mockStorage

	locked     bool
	records    []MigrationRecord
	executed   []string
	committed  bool
	rolledBack bool
}

var errTransactionDone = errors.New("transaction already finished")

func (t *mockTransaction) Lock(ctx context.Context) error {
	if t.storage.LockFunc != nil {
		if err := t.storage.LockFunc(ctx); err != nil {
			return err
		}
	}

	t.db.tableLock.Lock()
	t.locked = true
	return nil
}

func (t *mockTransaction) GetAppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	return t.db.Records(), nil
}

func (t *mockTransaction) Exec(ctx context.Context, sql string) error {
	if t.db.ExecFunc != nil {
		if err := t.db.ExecFunc(sql); err != nil {
			return err
		}
	}

	t.executed = append(t.executed, sql)
	return nil
}

func (t *mockTransaction) RecordMigration(ctx context.Context, record MigrationRecord) error {
	t.records = append(t.records, record)
	return nil
}

func (t *mockTransaction) Commit(ctx context.Context) error {
	if t.committed || t.rolledBack {
		return errTransactionDone
	}

	if t.storage.CommitFunc != nil {
		if err := t.storage.CommitFunc(ctx); err != nil {
			return err
		}
	}

	t.db.mu.Lock()
	t.db.records = append(t.db.records, t.records...)
	t.db.executed = append(t.db.executed, t.executed...)
	t.db.mu.Unlock()

	t.committed = true
	t.release()
	return nil
}

func (t *mockTransaction) Rollback(ctx context.Context) error {
	if t.committed || t.rolledBack {
		return errTransactionDone
	}

	t.records = nil
	t.executed = nil
	t.rolledBack = true
	t.release()
	return nil
}

func (t *mockTransaction) release() {
	if t.locked {
		t.locked = false
		t.db.tableLock.Unlock()
	}
}

type logEntry struct {
	Level   string
	Message string
}

type mockLogger struct {
	mu      sync.RWMutex
	entries []logEntry
}

func newMockLogger() *mockLogger {
	return &mockLogger{}
}

func (m *mockLogger) Log(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, logEntry{Level: level, Message: message})
}

func (m *mockLogger) Messages(level string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var messages []string
	for _, e := range m.entries {
		if e.Level == level {
			messages = append(messages, e.Message)
		}
	}
	return messages
}
