package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"DeskChat/internal/session"
)

const recordExt = ".json"

// FileStore keeps one JSON file per conversation in a single directory,
// with the title as the file name. Simple, human-browsable, and fast
// enough at this volume.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates the chat directory if needed and returns a store
// over it.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chat directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(title string) string {
	return filepath.Join(s.dir, title+recordExt)
}

// List returns stored titles, newest first by file name ordering.
func (s *FileStore) List() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to list chat directory", "dir", s.dir, "error", err)
		return nil
	}
	var titles []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		titles = append(titles, strings.TrimSuffix(e.Name(), recordExt))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(titles)))
	return titles
}

// Save writes the record with a write-then-replace discipline so a
// partial write can never corrupt a previously good file.
func (s *FileStore) Save(rec *session.Record) error {
	if len(rec.Messages) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+rec.Title+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := os.Rename(tmpName, s.path(rec.Title)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace record file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(title string) (*session.Record, error) {
	data, err := os.ReadFile(s.path(title))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, title)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := validate(&rec); err != nil {
		return nil, err
	}
	// The file name is the primary key; a rename moves the file without
	// rewriting the payload, so the payload title can be stale.
	rec.Title = title
	return &rec, nil
}

func (s *FileStore) Rename(oldTitle, newTitle string) error {
	oldPath := s.path(oldTitle)
	if _, err := os.Stat(oldPath); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, oldTitle)
	}
	if err := os.Rename(oldPath, s.path(newTitle)); err != nil {
		return fmt.Errorf("failed to rename record: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(title string) error {
	err := os.Remove(s.path(title))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, title)
	}
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
