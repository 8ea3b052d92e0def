package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/milespries/script-studio-ai/internal/logging"
)

const partialSuffix = ".part"

// FileStore keeps the record as a JSON document on disk.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore stores the record at path. The directory is created on the
// first Save.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logging.OrNop(logger)}
}

func (s *FileStore) Load(ctx context.Context) Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("session unreadable, using defaults", zap.String("path", s.path), zap.Error(err))
		}
		return Default()
	}
	rec, err := decodeRecord(data)
	if err != nil {
		s.logger.Debug("session corrupt, using defaults", zap.String("path", s.path), zap.Error(err))
		return Default()
	}
	return rec
}

// Save writes to a sibling file and renames it over the old record so a
// crash never leaves a half-written session.
func (s *FileStore) Save(ctx context.Context, rec Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	partial := s.path + partialSuffix
	if err := os.WriteFile(partial, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(partial, s.path); err != nil {
		_ = os.Remove(partial)
		return err
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
