package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/SoarinFerret/FocusWarden/internal/blocking"
	"github.com/SoarinFerret/FocusWarden/internal/session"
)

// Key names a record in the state directory.
type Key string

const (
	KeySettings  Key = "settings"
	KeyBlockList Key = "blocklist"
	KeySession   Key = "session"
)

func (k Key) fileName() string {
	return string(k) + ".json"
}

// Manager is a small key/value store backed by one JSON file per key in a
// directory. Writes are atomic per key and the last writer wins.
type Manager struct {
	dir string
	mu  sync.Mutex
	// last content hash written by this manager per key, used to tell our
	// own writes apart from other processes in Watch.
	written map[Key][32]byte
}

// NewManager opens (and creates, if needed) the state directory.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &Manager{
		dir:     dir,
		written: make(map[Key][32]byte),
	}, nil
}

// Dir returns the state directory.
func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) path(k Key) string {
	return filepath.Join(m.dir, k.fileName())
}

// read returns the raw bytes for k, or nil when nothing is stored.
func (m *Manager) read(k Key) ([]byte, error) {
	data, err := os.ReadFile(m.path(k))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", k, err)
	}
	return data, nil
}

// save atomically writes v as the value for k.
func (m *Manager) save(k Key, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", k, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.path(k)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", k, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", k, err)
	}
	m.written[k] = blake3.Sum256(data)
	return nil
}

// isOwnWrite reports whether data is exactly what this manager last wrote
// for k.
func (m *Manager) isOwnWrite(k Key, data []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	last, ok := m.written[k]
	return ok && last == blake3.Sum256(data)
}

// LoadSettings returns the stored settings merged over the defaults, or
// nil when no settings have been stored yet.
func (m *Manager) LoadSettings() (*session.Settings, error) {
	data, err := m.read(KeySettings)
	if err != nil || data == nil {
		return nil, err
	}
	s, err := session.DecodeSettings(data)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *Manager) SaveSettings(s session.Settings) error {
	return m.save(KeySettings, s)
}

// LoadBlockList returns the stored block list, normalized.
func (m *Manager) LoadBlockList() ([]string, error) {
	data, err := m.read(KeyBlockList)
	if err != nil || data == nil {
		return nil, err
	}
	return decodeBlockList(data)
}

func (m *Manager) SaveBlockList(list []string) error {
	if list == nil {
		list = []string{}
	}
	return m.save(KeyBlockList, list)
}

// LoadCurrent returns the current-session record, or nil if none exists.
func (m *Manager) LoadCurrent() (*session.CurrentSession, error) {
	data, err := m.read(KeySession)
	if err != nil || data == nil {
		return nil, err
	}
	var cur session.CurrentSession
	if err := json.Unmarshal(data, &cur); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &cur, nil
}

func (m *Manager) SaveCurrent(cur session.CurrentSession) error {
	return m.save(KeySession, cur)
}

func decodeBlockList(data []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode blocklist: %w", err)
	}
	return blocking.Clean(list), nil
}
