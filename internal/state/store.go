// Package state remembers which resume contents were already optimized and
// where the result was written.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// Entry is what the store keeps per content hash.
type Entry struct {
	OutputPath string    `toml:"output_path" json:"output_path"`
	Score      float64   `toml:"score,omitempty" json:"score,omitempty"`
	RecordedAt time.Time `toml:"recorded_at" json:"recorded_at"`
}

type file struct {
	Resumes map[string]Entry `toml:"resumes"`
}

// Store is a TOML backed map from content hash to Entry. Lookups may run
// concurrently with each other; Record holds an exclusive lock for the
// whole read-modify-write.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
	logger  *zap.Logger

	rename func(oldpath, newpath string) error
	now    func() time.Time
}

// Open loads the state file. A missing file is an empty store; content that
// does not parse yields ErrCorrupted and the file is left untouched.
func Open(path string, logger *zap.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("state file path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		path:    path,
		entries: map[string]Entry{},
		logger:  logger,
		rename:  os.Rename,
		now:     time.Now,
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	logger.Debug("state loaded", zap.String("path", path), zap.Int("entries", len(s.entries)))
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &Error{Kind: ErrCorrupted, Path: s.path, Err: err}
	}

	var f file
	if err := toml.Unmarshal(raw, &f); err != nil {
		return &Error{Kind: ErrCorrupted, Path: s.path, Err: err}
	}

	var broken []string
	for hash, entry := range f.Resumes {
		if strings.TrimSpace(hash) == "" || strings.TrimSpace(entry.OutputPath) == "" {
			broken = append(broken, hash)
			continue
		}
		s.entries[hash] = entry
	}
	if len(broken) > 0 {
		sort.Strings(broken)
		return &Error{
			Kind: ErrCorrupted,
			Path: s.path,
			Err:  fmt.Errorf("entries without output_path: %s", strings.Join(broken, ", ")),
		}
	}
	return nil
}

func (s *Store) Path() string { return s.path }

// Lookup returns the recorded entry for hash.
func (s *Store) Lookup(hash string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[hash]
	return entry, ok
}

// Record stores hash and rewrites the file atomically. A failed write is
// retried once; after that the in-memory state is left unchanged and an
// ErrWrite is returned.
func (s *Store) Record(hash, outputPath string, score float64) error {
	hash = strings.TrimSpace(hash)
	if hash == "" || strings.TrimSpace(outputPath) == "" {
		return fmt.Errorf("record: hash and output path are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]Entry, len(s.entries)+1)
	for k, v := range s.entries {
		next[k] = v
	}
	next[hash] = Entry{OutputPath: outputPath, Score: score, RecordedAt: s.now().UTC().Truncate(time.Second)}

	err := s.persistLocked(next)
	if err != nil {
		s.logger.Warn("state write failed, retrying", zap.String("path", s.path), zap.Error(err))
		err = s.persistLocked(next)
	}
	if err != nil {
		return &Error{Kind: ErrWrite, Path: s.path, Err: err}
	}

	s.entries = next
	return nil
}

// List returns every entry keyed by hash, sorted by hash.
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, 0, len(s.entries))
	for hash, entry := range s.entries {
		out = append(out, Item{Hash: hash, Entry: entry})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Item pairs a hash with its entry for listing.
type Item struct {
	Hash string `json:"hash"`
	Entry
}

func (s *Store) persistLocked(entries map[string]Entry) error {
	raw, err := toml.Marshal(file{Resumes: entries})
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := s.rename(tmpName, s.path); err != nil {
		cleanup()
		return err
	}
	return nil
}
