package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"appointment-watcher/types"
)

// DefaultStateFile совпадает с именем файла старой версии чекера.
const DefaultStateFile = "appointment_state.json"

// FileStore хранит состояние в JSON-файле, каждое сохранение атомарно заменяет его.
type FileStore struct {
	path string
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultStateFile
	}
	return &FileStore{path: path, now: time.Now}
}

// Path — путь к state-файлу.
func (s *FileStore) Path() string {
	return s.path
}

// Load: нет файла — нет известной записи.
func (s *FileStore) Load(ctx context.Context) (types.MonitorState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return types.MonitorState{}, nil
	}
	if err != nil {
		return types.MonitorState{}, fmt.Errorf("read state file: %w", err)
	}
	return decode(data, s.now())
}

// Save пишет во временный файл рядом и переименовывает, чтобы не оставить полузаписанный state.
func (s *FileStore) Save(ctx context.Context, state types.MonitorState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
