package fetcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"

	"github.com/GriffinCanCode/SourceHealth/internal/shared/utils"
)

// cacheEntry is the on-disk form of a successful fetch.
type cacheEntry struct {
	URL         string    `json:"url"`
	HTML        string    `json:"html"`
	StatusCode  int       `json:"status_code"`
	FetchTimeMs int64     `json:"fetch_time_ms"`
	UsedJS      bool      `json:"used_js"`
	ContentType string    `json:"content_type,omitempty"`
	CachedAt    time.Time `json:"cached_at"`
}

// Cache is a content-addressed page cache: one gzip-compressed JSON file per
// URL, named by the SHA-256 of the URL. Writes go through a temp file and
// rename, so concurrent writers of the same key leave one complete entry.
type Cache struct {
	dir    string
	ttl    time.Duration
	hasher *utils.Hasher
	now    func() time.Time
}

// NewCache creates a cache in dir whose entries expire after ttl.
func NewCache(dir string, ttl time.Duration) *Cache {
	return &Cache{dir: dir, ttl: ttl, hasher: utils.DefaultHasher(), now: time.Now}
}

// Path returns the entry file for url.
func (c *Cache) Path(url string) string {
	return filepath.Join(c.dir, c.hasher.URLKey(url)+".json.gz")
}

// Key is the short form of url's cache key, for logs.
func (c *Cache) Key(url string) string {
	return utils.ShortHash(c.hasher.URLKey(url))
}

// Get returns a fresh cached result for url. Missing, expired and
// unreadable entries are all misses.
func (c *Cache) Get(url string) (*FetchResult, bool) {
	data, err := os.ReadFile(c.Path(url))
	if err != nil {
		return nil, false
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if entry.URL != url || c.now().Sub(entry.CachedAt) >= c.ttl {
		return nil, false
	}

	return &FetchResult{
		URL:         entry.URL,
		HTML:        entry.HTML,
		StatusCode:  entry.StatusCode,
		Elapsed:     time.Duration(entry.FetchTimeMs) * time.Millisecond,
		UsedJS:      entry.UsedJS,
		ContentType: entry.ContentType,
		Cached:      true,
	}, true
}

// Put stores a successful result. Only HTTP 200 pages are cached.
func (c *Cache) Put(res *FetchResult) error {
	if res == nil || res.StatusCode != 200 || !res.OK() {
		return errors.New("only successful fetches are cached")
	}

	raw, err := sonic.Marshal(cacheEntry{
		URL:         res.URL,
		HTML:        res.HTML,
		StatusCode:  res.StatusCode,
		FetchTimeMs: res.Elapsed.Milliseconds(),
		UsedJS:      res.UsedJS,
		ContentType: res.ContentType,
		CachedAt:    c.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return err
	}
	if _, err := zw.Write(raw); err != nil {
		return fmt.Errorf("failed to compress cache entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress cache entry: %w", err)
	}

	return utils.WriteFileAtomic(c.Path(res.URL), buf.Bytes(), 0o644)
}

// Clear removes every cache entry.
func (c *Cache) Clear() error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json.gz"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
