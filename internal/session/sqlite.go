package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/milespries/script-studio-ai/internal/logging"
)

const (
	recordKey = "scriptstudio.session"

	createTable = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`
	selectValue = `SELECT value FROM kv WHERE key = ?`
	upsertValue = `INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`
)

// SQLiteStore keeps the record in a one-row key-value table.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}
	return &SQLiteStore{db: db, logger: logging.OrNop(logger)}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) Record {
	var value string
	err := s.db.QueryRowContext(ctx, selectValue, recordKey).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("session row unreadable, using defaults", zap.Error(err))
		}
		return Default()
	}
	rec, err := decodeRecord([]byte(value))
	if err != nil {
		s.logger.Debug("session row corrupt, using defaults", zap.Error(err))
		return Default()
	}
	return rec
}

func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertValue, recordKey, string(data)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
