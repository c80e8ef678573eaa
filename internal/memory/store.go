// Package memory persists the small user profile the assistant remembers
// between visits.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
)

// DefaultPath is where the record lives unless configured otherwise.
const DefaultPath = "memory.json"

// Record is the remembered profile. Nil fields are written as JSON null.
type Record struct {
	Name        *string `json:"name"`
	Preferences *string `json:"preferences"`
	LastVisit   *string `json:"last_visit"`
}

// Text returns a pointer to s, for filling Record fields.
func Text(s string) *string { return &s }

// FileStore keeps a single Record in a JSON file. It does no locking; callers
// serialize access.
type FileStore struct {
	path string
	log  *log.Logger
}

func NewFileStore(path string, logger *log.Logger) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{path: path, log: logger}
}

func (s *FileStore) Path() string { return s.path }

// Load returns the saved record. A missing file yields the empty record; an
// unreadable or corrupt one is logged and treated the same way.
func (s *FileStore) Load(_ context.Context) Record {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}
	}
	if err != nil {
		s.log.Warn("memory unreadable, starting fresh", "path", s.path, "err", err)
		return Record{}
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Warn("memory corrupt, starting fresh", "path", s.path, "err", err)
		return Record{}
	}
	return rec
}

// Save replaces the stored record. The file is written next to the target and
// renamed over it, so a crash mid-write leaves the previous record intact.
func (s *FileStore) Save(_ context.Context, rec Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".memory-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	s.log.Debug("memory saved", "path", s.path, "bytes", buf.Len())
	return nil
}
