package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.yaml.in/yaml/v3"
)

const (
	secretsFileName = "secrets.yaml"

	// secretKeyPrefix namespaces repository tokens inside the store so
	// unrelated keys can share the same file.
	secretKeyPrefix = "auth."
)

// SecretStore is the opaque token store contract. Implementations are
// keyed by repository id; values are access tokens or passwords.
type SecretStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// FileStore is a SecretStore backed by a YAML file in the config
// directory, created with owner-only permissions.
type FileStore struct {
	path string

	mu      sync.Mutex
	entries map[string]string
	loaded  bool
}

// NewFileStore returns a FileStore rooted at configDir. The backing file
// is created lazily on first write.
func NewFileStore(configDir string) *FileStore {
	return &FileStore{path: filepath.Join(configDir, secretsFileName)}
}

// Get returns the stored secret for key, reporting whether it exists.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return "", false
	}
	v, ok := s.entries[secretKeyPrefix+key]
	return v, ok
}

// Set stores a secret under key and persists the file with 0600.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	s.entries[secretKeyPrefix+key] = value
	return s.save()
}

// Delete removes the secret for key. Deleting an absent key is not an
// error.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.entries[secretKeyPrefix+key]; !ok {
		return nil
	}
	delete(s.entries, secretKeyPrefix+key)
	return s.save()
}

func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}
	s.entries = make(map[string]string)
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading secret store: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("parsing secret store: %w", err)
	}
	s.loaded = true
	return nil
}

func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("marshaling secret store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing secret store: %w", err)
	}
	return nil
}
