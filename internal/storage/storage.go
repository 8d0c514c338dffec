// Package storage persists the service state as a JSON snapshot: read once
// at startup, written once at shutdown. The core only supplies and accepts
// the three collections by value; it does not depend on the encoding.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"shortlink/internal/entity"
)

// State is the persisted shape of the service: all live links, all owners,
// and the notifications that were not yet purged.
type State struct {
	Links         []entity.LinkSnapshot         `json:"links"`
	Owners        []entity.OwnerSnapshot        `json:"owners"`
	Notifications []entity.NotificationSnapshot `json:"notifications"`
}

// FileStorage reads and writes the snapshot file.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load reads the snapshot. A missing file is a first run and yields an empty
// state; an unreadable or undecodable file is an error, because starting
// anyway would overwrite the previous state at the next shutdown.
func (s *FileStorage) Load() (*State, error) {
	const op = "storage.FileStorage.Load"

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("%s: failed to read snapshot %s: %w", op, s.path, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%s: failed to decode snapshot %s: %w", op, s.path, err)
	}
	return &state, nil
}

// Save writes the snapshot, creating parent directories as needed.
func (s *FileStorage) Save(state *State) error {
	const op = "storage.FileStorage.Save"

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%s: failed to create snapshot directory %s: %w", op, dir, err)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: failed to encode snapshot: %w", op, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%s: failed to write snapshot %s: %w", op, s.path, err)
	}
	return nil
}
