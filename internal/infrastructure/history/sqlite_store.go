package history

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/ports"
)

// storedTimeFormat has fixed width so timestamps sort lexically.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists invocation history in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewStore opens the SQLite database at path. When the database cannot be
// opened it falls back to a jsonl file next to it.
func NewStore(path string) ports.HistoryRepository {
	store, err := NewSQLiteStore(path)
	if err != nil {
		return NewFileStore(strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl")
	}
	return store
}

// NewSQLiteStore creates (or opens) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS invocations (
		id TEXT PRIMARY KEY,
		timestamp TEXT,
		action TEXT,
		category TEXT,
		risk_level TEXT,
		parameters TEXT,
		success INTEGER,
		exit_code INTEGER,
		attempts INTEGER,
		execution_time_ms INTEGER,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_invocations_timestamp ON invocations(timestamp);`)
	return err
}

// Save inserts a new record.
func (s *SQLiteStore) Save(record domain.HistoryRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO invocations
		(id, timestamp, action, category, risk_level, parameters, success, exit_code, attempts, execution_time_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Timestamp.UTC().Format(storedTimeFormat),
		record.Action,
		record.Category,
		string(record.RiskLevel),
		record.Parameters,
		boolToInt(record.Success),
		record.ExitCode,
		record.Attempts,
		record.ExecutionTimeMS,
		record.Error,
	)
	return err
}

// Records returns history entries, newest first. limit <= 0 means all;
// search matches the action name, category or error text.
func (s *SQLiteStore) Records(limit int, search string) ([]domain.HistoryRecord, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT id, timestamp, action, category, risk_level, parameters, success, exit_code, attempts, execution_time_ms, error FROM invocations")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE action LIKE ? OR category LIKE ? OR error LIKE ?")
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	builder.WriteString(" ORDER BY timestamp DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.HistoryRecord
	for rows.Next() {
		var (
			rec     domain.HistoryRecord
			ts      string
			risk    string
			success int
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Action, &rec.Category, &risk, &rec.Parameters, &success, &rec.ExitCode, &rec.Attempts, &rec.ExecutionTimeMS, &rec.Error); err != nil {
			return nil, err
		}
		if t, err := time.Parse(storedTimeFormat, ts); err == nil {
			rec.Timestamp = t
		}
		rec.RiskLevel = domain.RiskLevel(risk)
		rec.Success = success == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM invocations")
	return err
}

// Prune deletes entries recorded before olderThan.
func (s *SQLiteStore) Prune(olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec("DELETE FROM invocations WHERE timestamp < ?", olderThan.UTC().Format(storedTimeFormat))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExportJSON writes all records to a jsonl file.
func (s *SQLiteStore) ExportJSON(dest string) error {
	records, err := s.Records(0, "")
	if err != nil {
		return err
	}
	return writeJSONL(dest, records)
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func writeJSONL(dest string, records []domain.HistoryRecord) error {
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
