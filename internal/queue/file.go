package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"hemlist/engine/internal/list"
)

// FileStore persists a queue as a JSON file, written atomically via a
// temp file and rename. Suits client processes without Redis.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) ([]list.Event, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read outbox file: %w", err)
	}
	events, err := list.UnmarshalEvents(data)
	if err != nil {
		return nil, fmt.Errorf("decode outbox file: %w", err)
	}
	return events, nil
}

func (s *FileStore) Save(ctx context.Context, events []list.Event) error {
	data, err := list.MarshalEvents(events)
	if err != nil {
		return fmt.Errorf("encode outbox file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create outbox dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write outbox file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace outbox file: %w", err)
	}
	return nil
}
