package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/harrylevesque/desuite/internal/crypto"
	"github.com/harrylevesque/desuite/internal/views"
)

// ErrNoSession is returned by Store.Load when nothing is stored.
var ErrNoSession = errors.New("no stored session")

// Store persists the signed-in user between requests or process runs.
type Store interface {
	Load() (*views.User, error)
	Save(*views.User) error
	Clear() error
}

// ===== Memory =====

// MemoryStore keeps the encoded user in memory. The zero value is empty.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load() (*views.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoSession
	}
	return decodeUser(m.data)
}

func (m *MemoryStore) Save(u *views.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = b
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

// SetRaw replaces the stored bytes as-is.
func (m *MemoryStore) SetRaw(b []byte) {
	m.mu.Lock()
	m.data = b
	m.mu.Unlock()
}

// ===== File =====

// FileStore keeps the user in a JSON file. With a key the file is sealed
// with AES-GCM.
type FileStore struct {
	path string
	key  []byte
}

func NewFileStore(path string, key []byte) (*FileStore, error) {
	if key != nil && len(key) != crypto.KeySize {
		return nil, crypto.ErrInvalidKeyLength
	}
	return &FileStore{path: path, key: key}, nil
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load() (*views.User, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if f.key != nil {
		if data, err = crypto.DecryptAESGCM(f.key, data); err != nil {
			return nil, fmt.Errorf("decrypt session file: %w", err)
		}
	}
	return decodeUser(data)
}

func (f *FileStore) Save(u *views.User) error {
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	if f.key != nil {
		if data, err = crypto.EncryptAESGCM(f.key, data); err != nil {
			return fmt.Errorf("encrypt session: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func decodeUser(b []byte) (*views.User, error) {
	var u views.User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if u.ID == "" {
		return nil, errors.New("decode session: missing user id")
	}
	return &u, nil
}
