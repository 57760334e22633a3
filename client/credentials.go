package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Credentials identify a seat in a room. They are the only thing persisted
// between runs; everything else is refetched from the server.
type Credentials struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

// CredentialStore persists the seat across restarts. Clear is called when the
// room is gone or the player exits, so a stale seat never survives.
type CredentialStore interface {
	Load() (Credentials, bool, error)
	Save(Credentials) error
	Clear() error
}

// FileCredentialStore keeps credentials in a small JSON file.
type FileCredentialStore struct {
	Path string
}

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{Path: path}
}

func (s *FileCredentialStore) Load() (Credentials, bool, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, err
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, false, fmt.Errorf("parsing credentials: %w", err)
	}
	if c.RoomCode == "" || c.PlayerID == "" {
		return Credentials{}, false, nil
	}
	return c, true, nil
}

func (s *FileCredentialStore) Save(c Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

func (s *FileCredentialStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryCredentialStore is an in-memory store for tests and ephemeral use.
type MemoryCredentialStore struct {
	creds Credentials
	set   bool
}

func (s *MemoryCredentialStore) Load() (Credentials, bool, error) {
	return s.creds, s.set, nil
}

func (s *MemoryCredentialStore) Save(c Credentials) error {
	s.creds, s.set = c, true
	return nil
}

func (s *MemoryCredentialStore) Clear() error {
	s.creds, s.set = Credentials{}, false
	return nil
}
