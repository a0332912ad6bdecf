package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Store is the persistence port for the session collection. The in-memory
// model owned by Service is the source of truth; implementations only
// load it at startup and save it after mutations.
type Store interface {
	Load() ([]ChatSession, error)
	Save(sessions []ChatSession) error
}

// FileStore persists the whole session collection as one JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() ([]ChatSession, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file %s: %w", f.path, err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, nil
	}

	var sessions []ChatSession
	if err := json.Unmarshal(content, &sessions); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", f.path, err)
	}
	return sessions, nil
}

func (f *FileStore) Save(sessions []ChatSession) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session file %s: %w", f.path, err)
	}
	return nil
}
