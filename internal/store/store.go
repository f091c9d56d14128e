// Package store owns the client-side state: the recordings collection,
// user settings, and the locally generated device identity. Everything is
// persisted as one JSON snapshot restored at startup. The store is an
// explicit service injected into callers, never a package-level global;
// every mutation goes through Update's field-level merge, so concurrent
// writers (poller vs. user action) never conflict below the field level.
// The last writer observed still wins per field.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
)

// Settings are the client-only persisted preferences.
type Settings struct {
	Language       string `json:"language,omitempty"`
	TextSize       string `json:"text_size,omitempty"`
	OnboardingSeen bool   `json:"onboarding_seen,omitempty"`
}

// snapshot is the on-disk shape of the whole local state.
type snapshot struct {
	DeviceID   string           `json:"device_id"`
	Settings   Settings         `json:"settings"`
	Recordings []memo.Recording `json:"recordings"`
}

// Store holds local state in memory and mirrors it to a snapshot file.
type Store struct {
	mu   sync.Mutex
	path string

	deviceID   string
	settings   Settings
	recordings map[string]memo.Recording
}

// Open loads the snapshot at path, creating a fresh state (including a new
// device identity) when no snapshot exists yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:       path,
		recordings: make(map[string]memo.Recording),
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from config, not request input
	if os.IsNotExist(err) {
		s.deviceID = uuid.NewString()
		if err := s.persistLocked(); err != nil {
			return nil, fmt.Errorf("failed to write initial snapshot: %w", err)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	s.deviceID = snap.DeviceID
	if s.deviceID == "" {
		s.deviceID = uuid.NewString()
	}
	s.settings = snap.Settings
	for _, rec := range snap.Recordings {
		s.recordings[rec.ID] = rec
	}

	return s, nil
}

// DeviceID returns the locally generated device/user identifier.
func (s *Store) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}

// Settings returns a copy of the persisted settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetSettings replaces the settings and persists the snapshot.
func (s *Store) SetSettings(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return s.persistLocked()
}

// Get returns the recording with the given id.
func (s *Store) Get(id string) (memo.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recordings[id]
	if !ok {
		return memo.Recording{}, fmt.Errorf("%w: %s", memo.ErrNotFound, id)
	}
	return rec, nil
}

// List returns all recordings, newest first.
func (s *Store) List() []memo.Recording {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]memo.Recording, 0, len(s.recordings))
	for _, rec := range s.recordings {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Put inserts or replaces a recording wholesale and persists the snapshot.
// The poller uses Put to copy the server's authoritative row over the local
// optimistic one.
func (s *Store) Put(rec memo.Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordings[rec.ID] = rec
	return s.persistLocked()
}

// Update merges a partial update into the matching recording and persists
// the snapshot. This is the single mutation entry point for in-place
// changes.
func (s *Store) Update(id string, u memo.Update) (memo.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recordings[id]
	if !ok {
		return memo.Recording{}, fmt.Errorf("%w: %s", memo.ErrNotFound, id)
	}
	rec.Apply(u)
	s.recordings[id] = rec
	if err := s.persistLocked(); err != nil {
		return memo.Recording{}, err
	}
	return rec, nil
}

// Delete removes a recording and persists the snapshot. Deleting an absent
// id is not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recordings, id)
	return s.persistLocked()
}

// persistLocked writes the snapshot atomically: temp file in the same
// directory, then rename. Callers must hold mu.
func (s *Store) persistLocked() error {
	snap := snapshot{
		DeviceID: s.deviceID,
		Settings: s.settings,
	}
	for _, rec := range s.recordings {
		snap.Recordings = append(snap.Recordings, rec)
	}
	sort.Slice(snap.Recordings, func(i, j int) bool {
		return snap.Recordings[i].ID < snap.Recordings[j].ID
	})

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".wisekeep-*.json")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
