package snapshot

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
)

// CurrentVersion is written into new snapshot files.
const CurrentVersion = 1

// Snapshot is the recorded known-good state of one source.
type Snapshot struct {
	Source        string                                         `json:"source"`
	BaseURL       string                                         `json:"baseUrl"`
	Lang          string                                         `json:"lang"`
	Version       int                                            `json:"version"`
	LastVerified  Timestamp                                      `json:"lastVerified"`
	SourceFile    string                                         `json:"sourceFile,omitempty"`
	TestURLs      map[string]string                              `json:"testUrls,omitempty"`
	Selectors     map[catalog.PageType]map[string]SelectorRecord `json:"selectors"`
	URLValidation map[string]any                                 `json:"urlValidation,omitempty"`
	Metadata      Metadata                                       `json:"metadata"`
}

// SelectorRecord is the last verified state of one selector.
type SelectorRecord struct {
	Selector         string     `json:"selector"`
	Attribute        *string    `json:"attribute"`
	Expected         *string    `json:"expected"`
	ExpectedMinCount int        `json:"expectedMinCount"`
	LastVerified     *Timestamp `json:"lastVerified,omitempty"`
}

// Metadata carries per-source fetch hints.
type Metadata struct {
	RequiresJS    bool `json:"requiresJs"`
	HasCloudflare bool `json:"hasCloudflare"`
	// RateLimit is the minimum delay between requests, in milliseconds.
	RateLimit int `json:"rateLimit"`
}

// Expected returns the recorded sample value for a selector, if any. A nil
// snapshot has no expectations.
func (s *Snapshot) Expected(pt catalog.PageType, name string) (string, bool) {
	if s == nil {
		return "", false
	}
	rec, ok := s.Selectors[pt][name]
	if !ok || rec.Expected == nil || *rec.Expected == "" {
		return "", false
	}
	return *rec.Expected, true
}

// NeedsScript reports whether pages of this source must be rendered.
func (s *Snapshot) NeedsScript() bool {
	return s != nil && (s.Metadata.RequiresJS || s.Metadata.HasCloudflare)
}

// RequestInterval returns the configured delay between requests.
func (s *Snapshot) RequestInterval() time.Duration {
	if s == nil || s.Metadata.RateLimit <= 0 {
		return 0
	}
	return time.Duration(s.Metadata.RateLimit) * time.Millisecond
}

// Timestamp decodes both RFC 3339 and the zone-less ISO form that older
// tooling wrote ("2024-05-01T10:20:30.123456").
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp{Time: time.Now().UTC()}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}
