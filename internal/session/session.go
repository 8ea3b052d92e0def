// Package session persists the studio's working state between runs: the
// last prompt, the script and the requested length.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/milespries/script-studio-ai/internal/config"
)

// DefaultLengthMinutes is the length used when nothing valid was stored.
const DefaultLengthMinutes = 3

// Record is the single persisted value.
type Record struct {
	Prompt        string  `json:"prompt"`
	Script        string  `json:"script"`
	LengthMinutes float64 `json:"lengthMinutes"`
}

// Default returns the record used for a first run or unreadable state.
func Default() Record {
	return Record{LengthMinutes: DefaultLengthMinutes}
}

// Store reads and writes the record. Load never fails: missing or corrupt
// state yields Default.
type Store interface {
	Load(ctx context.Context) Record
	Save(ctx context.Context, rec Record) error
	Close() error
}

var errNotObject = errors.New("stored session is not a JSON object")

// Open returns the store selected by kind.
func Open(kind, path string, logger *zap.Logger) (Store, error) {
	switch kind {
	case config.StoreJSON, "":
		return NewFileStore(path, logger), nil
	case config.StoreSQLite:
		return OpenSQLite(path, logger)
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
}

func encodeRecord(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

// decodeRecord is lenient per field: a field of the wrong type falls back to
// its default without discarding the others.
func decodeRecord(data []byte) (Record, error) {
	rec := Default()
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return rec, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return rec, errNotObject
	}
	if raw, ok := fields["prompt"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			rec.Prompt = s
		}
	}
	if raw, ok := fields["script"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			rec.Script = s
		}
	}
	if raw, ok := fields["lengthMinutes"]; ok {
		var n float64
		if len(raw) > 0 && raw[0] != '"' && json.Unmarshal(raw, &n) == nil && !math.IsNaN(n) {
			rec.LengthMinutes = n
		}
	}
	return rec, nil
}
