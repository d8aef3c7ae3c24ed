package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

// ErrSourceNotFound is returned when no catalog file matches a name.
var ErrSourceNotFound = errors.New("source not found")

// multisrcDir holds sources generated from shared templates; they are
// searched regardless of the language filter.
const multisrcDir = "multisrc"

var skippedDirs = map[string]bool{"build": true, ".gradle": true, ".git": true}

// Catalog discovers and parses source files under a sources directory laid
// out as <lang>/<source>/**/*.kt.
type Catalog struct {
	root   string
	parser *Parser
	logger *zap.Logger
}

// NewCatalog creates a catalog rooted at the sources directory.
func NewCatalog(root string, parser *Parser, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{root: root, parser: parser, logger: logger}
}

// Root returns the sources directory.
func (c *Catalog) Root() string {
	return c.root
}

// Discover lists Kotlin files for lang (all languages when empty), sorted.
func (c *Catalog) Discover(ctx context.Context, lang string) ([]string, error) {
	patterns := []string{"*/**/*.kt"}
	if lang != "" {
		patterns = []string{lang + "/**/*.kt", multisrcDir + "/**/*.kt"}
	}

	var (
		mu    sync.Mutex
		files []string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, c.root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				mu.Lock()
				files = append(files, p)
				mu.Unlock()
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", c.root, err)
	}

	sort.Strings(files)
	return files, nil
}

// ParseAll discovers and parses every source for lang. Files that are not
// source definitions are skipped.
func (c *Catalog) ParseAll(ctx context.Context, lang string) ([]*SourceDefinition, error) {
	files, err := c.Discover(ctx, lang)
	if err != nil {
		return nil, err
	}

	var defs []*SourceDefinition
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return defs, err
		}
		def, ok := c.parser.ParseFile(f)
		if !ok {
			continue
		}
		if lang != "" && def.Lang != lang {
			continue
		}
		defs = append(defs, def)
	}

	c.logger.Info("catalog parsed",
		zap.String("lang", lang),
		zap.Int("files", len(files)),
		zap.Int("sources", len(defs)),
	)
	return defs, nil
}

// FindByName returns the source whose file stem or declared name equals
// name, case-insensitively; failing that, the first whose stem contains it.
func (c *Catalog) FindByName(ctx context.Context, name, lang string) (*SourceDefinition, error) {
	files, err := c.Discover(ctx, lang)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(name)
	var partial []string
	for _, f := range files {
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(f), ".kt"))
		switch {
		case stem == want:
			if def, ok := c.parser.ParseFile(f); ok {
				return def, nil
			}
		case strings.Contains(stem, want):
			partial = append(partial, f)
		}
	}

	for _, f := range partial {
		if def, ok := c.parser.ParseFile(f); ok {
			return def, nil
		}
	}

	// declared names may differ from file stems ("Novel Gecesi")
	defs, err := c.ParseAll(ctx, lang)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		if strings.ToLower(def.Name) == want {
			return def, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
}
