package health

import (
	"sort"
	"strings"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/snapshot"
)

// Test page keys.
const (
	PageNovel   = "novel"
	PageChapter = "chapter"
	PageLatest  = "latest"
	PageSearch  = "search_template"
)

const templateSuffix = "_template"

// pageFor maps a selector's page type to the test page it runs on.
var pageFor = map[catalog.PageType]string{
	catalog.PageDetail:   PageNovel,
	catalog.PageContent:  PageChapter,
	catalog.PageChapters: PageNovel,
	catalog.PageExplore:  PageLatest,
}

// TestURLs is an ordered set of test page URLs keyed by page.
type TestURLs map[string]string

// Keys returns the page keys in a stable order: novel, chapter, latest,
// then the rest alphabetically.
func (u TestURLs) Keys() []string {
	rank := map[string]int{PageNovel: 0, PageChapter: 1, PageLatest: 2}
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// ListingURL derives the first page of the first listing endpoint.
func ListingURL(def *catalog.SourceDefinition) string {
	listings := def.Endpoints(catalog.EndpointListing)
	if len(listings) == 0 {
		return ""
	}
	return absolute(def.BaseURL, strings.ReplaceAll(listings[0].Endpoint, "{page}", "1"))
}

// SearchTemplateURL returns the first search endpoint, placeholders intact.
func SearchTemplateURL(def *catalog.SourceDefinition) string {
	searches := def.Endpoints(catalog.EndpointSearch)
	if len(searches) == 0 {
		return ""
	}
	return absolute(def.BaseURL, searches[0].Endpoint)
}

func absolute(base, endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// ResolveTestURLs picks the pages to fetch. The first non-empty candidate
// set wins: the source's test fixture, then the snapshot's test URLs
// (templates excluded), then a derived listing page. When the winner has no
// listing page and the source declares explore selectors, the listing URL
// is taken from a later candidate.
func ResolveTestURLs(def *catalog.SourceDefinition, snap *snapshot.Snapshot) TestURLs {
	candidates := []TestURLs{fixtureURLs(def), snapshotURLs(snap), derivedURLs(def)}

	for i, urls := range candidates {
		if len(urls) == 0 {
			continue
		}
		if _, ok := urls[PageLatest]; !ok && def.HasPageType(catalog.PageExplore) {
			for _, later := range candidates[i+1:] {
				if latest, ok := later[PageLatest]; ok {
					urls[PageLatest] = latest
					break
				}
			}
		}
		return urls
	}
	return TestURLs{}
}

func fixtureURLs(def *catalog.SourceDefinition) TestURLs {
	urls := TestURLs{}
	if !def.Fixture.HasURLs() {
		return urls
	}
	if u := strings.TrimSpace(def.Fixture.NovelURL); u != "" {
		urls[PageNovel] = u
	}
	if u := strings.TrimSpace(def.Fixture.ChapterURL); u != "" {
		urls[PageChapter] = u
	}
	return urls
}

func snapshotURLs(snap *snapshot.Snapshot) TestURLs {
	urls := TestURLs{}
	if snap == nil {
		return urls
	}
	for k, u := range snap.TestURLs {
		if strings.HasSuffix(k, templateSuffix) || strings.TrimSpace(u) == "" {
			continue
		}
		urls[k] = strings.TrimSpace(u)
	}
	return urls
}

func derivedURLs(def *catalog.SourceDefinition) TestURLs {
	urls := TestURLs{}
	if u := ListingURL(def); u != "" {
		urls[PageLatest] = u
	}
	return urls
}

// Pages holds the test pages fetched for one source.
type Pages struct {
	URLs  TestURLs
	HTML  map[string]string
	order []string
}

func newPages(urls TestURLs) *Pages {
	return &Pages{URLs: urls, HTML: map[string]string{}, order: urls.Keys()}
}

// Len returns the number of fetched pages.
func (p *Pages) Len() int {
	if p == nil {
		return 0
	}
	return len(p.HTML)
}

// For returns the page a selector of type pt runs on: its mapped page when
// fetched, otherwise the first fetched page.
func (p *Pages) For(pt catalog.PageType) (string, string, bool) {
	if p == nil {
		return "", "", false
	}
	if key, ok := pageFor[pt]; ok {
		if html, ok := p.HTML[key]; ok {
			return key, html, true
		}
	}
	for _, key := range p.order {
		if html, ok := p.HTML[key]; ok {
			return key, html, true
		}
	}
	return "", "", false
}
