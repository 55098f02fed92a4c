package hal

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore is a ConfigStore backed by a single YAML file, written through
// on every Put. It stands in for the NVS partition of the original hardware;
// durability is whatever the filesystem provides.
type FileStore struct {
	mu      sync.Mutex
	path    string
	strings map[string]string
	ints    map[string]int
}

type fileStoreDoc struct {
	Strings map[string]string `yaml:"strings"`
	Ints    map[string]int    `yaml:"ints"`
}

// NewFileStore loads (or initializes) the store at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		strings: make(map[string]string),
		ints:    make(map[string]int),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hal: read store: %w", err)
	}

	var doc fileStoreDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("hal: decode store: %w", err)
	}
	if doc.Strings != nil {
		s.strings = doc.Strings
	}
	if doc.Ints != nil {
		s.ints = doc.Ints
	}

	return s, nil
}

// GetString returns the stored value or fallback.
func (s *FileStore) GetString(key, fallback string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.strings[key]; ok {
		return v
	}
	return fallback
}

// GetInt returns the stored value or fallback.
func (s *FileStore) GetInt(key string, fallback int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.ints[key]; ok {
		return v
	}
	return fallback
}

// PutString stores and flushes.
func (s *FileStore) PutString(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings[key] = value
	return s.flushLocked()
}

// PutInt stores and flushes.
func (s *FileStore) PutInt(key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ints[key] = value
	return s.flushLocked()
}

// Clear wipes all keys and flushes the empty document.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings = make(map[string]string)
	s.ints = make(map[string]int)
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	doc := fileStoreDoc{Strings: s.strings, Ints: s.ints}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("hal: encode store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("hal: write store: %w", err)
	}
	return nil
}
