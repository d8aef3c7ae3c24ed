package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SourceHealth/internal/shared/utils"
)

// Store reads and writes snapshot files under a directory laid out as
// <lang>/<source>.json.
type Store struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the snapshots directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the snapshot for a source in lang is written.
func (s *Store) Path(lang, source string) string {
	return filepath.Join(s.dir, lang, fileName(source))
}

func fileName(source string) string {
	return strings.ToLower(source) + ".json"
}

// Load returns the snapshot for source, looking first under lang, then
// under every other language directory, then at the top level. A missing
// snapshot is not an error: it returns (nil, nil).
func (s *Store) Load(source, lang string) (*Snapshot, error) {
	for _, path := range s.candidates(source, lang) {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
		}

		var snap Snapshot
		if err := sonic.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
		}
		s.logger.Debug("snapshot loaded", zap.String("source", source), zap.String("path", path))
		return &snap, nil
	}
	return nil, nil
}

func (s *Store) candidates(source, lang string) []string {
	name := fileName(source)
	var paths []string
	if lang != "" {
		paths = append(paths, filepath.Join(s.dir, lang, name))
	}

	entries, err := os.ReadDir(s.dir)
	if err == nil {
		var langs []string
		for _, e := range entries {
			if e.IsDir() && e.Name() != lang {
				langs = append(langs, e.Name())
			}
		}
		sort.Strings(langs)
		for _, l := range langs {
			paths = append(paths, filepath.Join(s.dir, l, name))
		}
	}

	return append(paths, filepath.Join(s.dir, name))
}

// Save writes snap atomically and returns the file path.
func (s *Store) Save(snap *Snapshot) (string, error) {
	if snap == nil {
		return "", errors.New("nil snapshot")
	}
	lang := snap.Lang
	if lang == "" {
		lang = "en"
	}

	data, err := sonic.ConfigStd.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	path := s.Path(lang, snap.Source)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := utils.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	s.logger.Info("snapshot saved", zap.String("source", snap.Source), zap.String("path", path))
	return path, nil
}
