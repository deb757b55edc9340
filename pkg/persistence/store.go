package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StoreVersion is the current version of the store file format.
const StoreVersion = 2

// Store errors.
var (
	// ErrNoFreePages indicates the store content is corrupt or truncated.
	ErrNoFreePages = errors.New("credential store has no free pages")

	// ErrNewVersionFound indicates the store was written by another format version.
	ErrNewVersionFound = errors.New("credential store contains a different format version")

	// ErrNotOpen is returned when the store is used before Open.
	ErrNotOpen = errors.New("credential store not open")
)

// Opener is the part of a store needed to make it ready for use.
type Opener interface {
	Open() error
	Erase() error
}

// EnsureReady opens the store. If the store reports a corrupt or
// incompatible-version condition it is erased and opened exactly once more.
// Any other error, or a failure after the repair, is returned.
func EnsureReady(s Opener) error {
	err := s.Open()
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNoFreePages) && !errors.Is(err, ErrNewVersionFound) {
		return err
	}

	if err := s.Erase(); err != nil {
		return fmt.Errorf("erase credential store: %w", err)
	}
	if err := s.Open(); err != nil {
		return fmt.Errorf("reopen credential store: %w", err)
	}
	return nil
}

// StationConfig is a persisted station configuration.
type StationConfig struct {
	SSID     string    `json:"ssid"`
	Password string    `json:"password,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

type storeFile struct {
	Version int            `json:"version"`
	Station *StationConfig `json:"station,omitempty"`
}

// FileStore is a file-backed credential store.
type FileStore struct {
	mu   sync.Mutex
	path string

	open    bool
	station *StationConfig
}

// NewFileStore creates a store backed by path. The file is not touched
// until Open.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Open loads the store. A missing file is an empty store.
func (s *FileStore) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.open = true
		s.station = nil
		return nil
	}
	if err != nil {
		return err
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %v", ErrNoFreePages, err)
	}
	if f.Version != StoreVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrNewVersionFound, f.Version, StoreVersion)
	}

	s.open = true
	s.station = f.Station
	return nil
}

// Erase removes the store file and closes the store.
func (s *FileStore) Erase() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = false
	s.station = nil

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// IsProvisioned reports whether a station configuration is stored.
func (s *FileStore) IsProvisioned() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return false, ErrNotOpen
	}
	return s.station != nil && s.station.SSID != "", nil
}

// SaveStation persists a station configuration.
func (s *FileStore) SaveStation(ssid, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrNotOpen
	}

	station := &StationConfig{
		SSID:     ssid,
		Password: password,
		SavedAt:  time.Now(),
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(storeFile{Version: StoreVersion, Station: station}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return err
	}

	s.station = station
	return nil
}

// LoadStation returns the stored station configuration, or nil if none.
func (s *FileStore) LoadStation() (*StationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrNotOpen
	}
	if s.station == nil {
		return nil, nil
	}
	cfg := *s.station
	return &cfg, nil
}
