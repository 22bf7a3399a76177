package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FallbackRecord is one line of the local fallback log.
type FallbackRecord struct {
	Kind string          `json:"kind"`
	At   time.Time       `json:"at"`
	Err  string          `json:"error,omitempty"`
	Data json.RawMessage `json:"data"`
}

// FallbackWriter appends records that could not reach the row store to a
// daily JSON Lines file.
type FallbackWriter struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func NewFallbackWriter(dir string) *FallbackWriter {
	return &FallbackWriter{dir: dir, now: time.Now}
}

func (w *FallbackWriter) Write(kind string, v interface{}, cause error) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode fallback record: %w", err)
	}

	rec := FallbackRecord{Kind: kind, At: w.now().UTC(), Data: data}
	if cause != nil {
		rec.Err = cause.Error()
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode fallback record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create fallback directory: %w", err)
	}

	f, err := os.OpenFile(w.path(rec.At), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open fallback file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write fallback record: %w", err)
	}
	return nil
}

func (w *FallbackWriter) path(at time.Time) string {
	return filepath.Join(w.dir, at.Format("2006-01-02")+".jsonl")
}
