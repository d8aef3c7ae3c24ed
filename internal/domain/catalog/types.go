package catalog

import "strings"

// PageType is the kind of page a selector runs against.
type PageType string

const (
	PageExplore  PageType = "explore"
	PageDetail   PageType = "detail"
	PageChapters PageType = "chapters"
	PageContent  PageType = "content"
	PageUnknown  PageType = "unknown"
)

// PageTypes lists the concrete page types in catalog order.
var PageTypes = []PageType{PageExplore, PageDetail, PageChapters, PageContent}

// EndpointType distinguishes listing pages from search pages.
type EndpointType string

const (
	EndpointListing EndpointType = "listing"
	EndpointSearch  EndpointType = "search"
)

// SelectorSpec is one extraction rule declared in a source file.
type SelectorSpec struct {
	Name        string   `json:"name"`
	Selector    string   `json:"selector"`
	Attribute   string   `json:"attribute,omitempty"`
	PageType    PageType `json:"page_type"`
	FetcherName string   `json:"fetcher_name,omitempty"`
	LineNumber  int      `json:"line_number"`

	// Literal is the selector exactly as written between the quotes,
	// escapes included. Repairs substitute against it.
	Literal string `json:"-"`

	block int
}

// UsesText reports whether the rule extracts element text.
func (s SelectorSpec) UsesText() bool {
	return s.Attribute == ""
}

// ExploreEndpoint is a listing or search page declared by an explore fetcher.
type ExploreEndpoint struct {
	Name     string       `json:"name"`
	Endpoint string       `json:"endpoint"`
	Type     EndpointType `json:"type"`
}

// TestFixture holds URLs a source author pinned for verification.
type TestFixture struct {
	NovelURL       string `json:"novel_url,omitempty"`
	ChapterURL     string `json:"chapter_url,omitempty"`
	ExpectedTitle  string `json:"expected_title,omitempty"`
	ExpectedAuthor string `json:"expected_author,omitempty"`
}

// Complete reports whether both the novel and chapter URLs are present.
func (f *TestFixture) Complete() bool {
	return f != nil && f.NovelURL != "" && f.ChapterURL != ""
}

// HasURLs reports whether the fixture pins at least one page.
func (f *TestFixture) HasURLs() bool {
	return f != nil && (f.NovelURL != "" || f.ChapterURL != "")
}

// SourceDefinition is everything the pipeline knows about one website.
// It is re-read from disk on every run and never mutated afterwards.
type SourceDefinition struct {
	Name             string            `json:"name"`
	Package          string            `json:"package,omitempty"`
	BaseURL          string            `json:"base_url"`
	Lang             string            `json:"lang"`
	ID               int64             `json:"id"`
	FilePath         string            `json:"file_path"`
	Selectors        []SelectorSpec    `json:"selectors"`
	ExploreEndpoints []ExploreEndpoint `json:"explore_endpoints,omitempty"`
	Fixture          *TestFixture      `json:"test_fixture,omitempty"`
}

// Key is the lower-cased name used for snapshot file names.
func (d *SourceDefinition) Key() string {
	return strings.ToLower(d.Name)
}

// SelectorsFor returns the rules of one page type in declaration order.
func (d *SourceDefinition) SelectorsFor(pt PageType) []SelectorSpec {
	var out []SelectorSpec
	for _, s := range d.Selectors {
		if s.PageType == pt {
			out = append(out, s)
		}
	}
	return out
}

// HasPageType reports whether any rule targets pt.
func (d *SourceDefinition) HasPageType(pt PageType) bool {
	for _, s := range d.Selectors {
		if s.PageType == pt {
			return true
		}
	}
	return false
}

// Endpoints returns explore endpoints of one type in declaration order.
func (d *SourceDefinition) Endpoints(t EndpointType) []ExploreEndpoint {
	var out []ExploreEndpoint
	for _, e := range d.ExploreEndpoints {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Find looks up a rule by page type and name. When a name repeats (explore
// fetchers commonly share nameSelector) the first declaration wins.
func (d *SourceDefinition) Find(pt PageType, name string) (SelectorSpec, bool) {
	for _, s := range d.Selectors {
		if s.PageType == pt && s.Name == name {
			return s, true
		}
	}
	return SelectorSpec{}, false
}

// FindAt looks up a rule by name and source line.
func (d *SourceDefinition) FindAt(name string, line int) (SelectorSpec, bool) {
	for _, s := range d.Selectors {
		if s.Name == name && s.LineNumber == line {
			return s, true
		}
	}
	return SelectorSpec{}, false
}
