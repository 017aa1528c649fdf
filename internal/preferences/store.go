// Package preferences persists the theme flag, the only state kept across
// sessions. A client that has never saved a theme reads back light.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lexi/pkg/models"
)

// Store loads and saves the theme per client key
type Store interface {
	LoadTheme(ctx context.Context, clientKey string) (models.Theme, error)
	SaveTheme(ctx context.Context, clientKey string, theme models.Theme) error
	Close() error
}

// Driver names
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// DefaultClientKey is used when a caller does not identify itself
const DefaultClientKey = "default"

// Options selects and configures a store
type Options struct {
	Driver      string
	Path        string
	DatabaseURL string
}

// Open builds the store named by opts.Driver
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case "", DriverFile:
		return NewFileStore(opts.Path)
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverPostgres:
		return NewPostgresStore(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown preferences driver %q", opts.Driver)
	}
}

func normalizeKey(clientKey string) string {
	if k := strings.TrimSpace(clientKey); k != "" {
		return k
	}
	return DefaultClientKey
}

// MemoryStore keeps themes in a map
type MemoryStore struct {
	mu     sync.RWMutex
	themes map[string]models.Theme
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{themes: map[string]models.Theme{}}
}

func (s *MemoryStore) LoadTheme(ctx context.Context, clientKey string) (models.Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.themes[normalizeKey(clientKey)]; ok {
		return t, nil
	}
	return models.ThemeLight, nil
}

func (s *MemoryStore) SaveTheme(ctx context.Context, clientKey string, theme models.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themes[normalizeKey(clientKey)] = models.ParseTheme(string(theme))
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// FileStore keeps themes in a small JSON document on disk
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileDocument struct {
	Themes map[string]models.Theme `json:"themes"`
}

// DefaultPath returns ~/.lexi/preferences.json, or a relative path when the
// home directory is unknown
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".lexi", "preferences.json")
	}
	return filepath.Join(home, ".lexi", "preferences.json")
}

// NewFileStore creates a FileStore at path (DefaultPath when empty)
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create preferences dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) read() (fileDocument, error) {
	doc := fileDocument{Themes: map[string]models.Theme{}}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read preferences: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		// a corrupt file is treated like a missing one
		log.Warn().Err(err).Str("path", s.path).Msg("Ignoring unreadable preferences file")
		return fileDocument{Themes: map[string]models.Theme{}}, nil
	}
	if doc.Themes == nil {
		doc.Themes = map[string]models.Theme{}
	}
	return doc, nil
}

func (s *FileStore) LoadTheme(ctx context.Context, clientKey string) (models.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return models.ThemeLight, err
	}
	return models.ParseTheme(string(doc.Themes[normalizeKey(clientKey)])), nil
}

func (s *FileStore) SaveTheme(ctx context.Context, clientKey string, theme models.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Themes[normalizeKey(clientKey)] = models.ParseTheme(string(theme))

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
