package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/snapshot"
)

func listingSource() *catalog.SourceDefinition {
	return &catalog.SourceDefinition{
		Name:    "Listing",
		BaseURL: "https://novels.example/",
		Selectors: []catalog.SelectorSpec{
			sel(catalog.PageExplore, "nameSelector", "h3 a"),
			sel(catalog.PageDetail, "nameSelector", "h1"),
		},
		ExploreEndpoints: []catalog.ExploreEndpoint{
			{Name: "Search", Endpoint: "/search?q={query}", Type: catalog.EndpointSearch},
			{Name: "Latest", Endpoint: "/latest?page={page}", Type: catalog.EndpointListing},
			{Name: "Popular", Endpoint: "/popular/{page}", Type: catalog.EndpointListing},
		},
	}
}

func TestResolveTestURLs(t *testing.T) {
	snap := &snapshot.Snapshot{TestURLs: map[string]string{
		"novel":           "https://novels.example/snap-novel",
		"search_template": "https://novels.example/search?q={query}",
		"latest":          "https://novels.example/snap-latest",
		"empty":           " ",
	}}

	tests := []struct {
		name    string
		fixture *catalog.TestFixture
		snap    *snapshot.Snapshot
		want    TestURLs
	}{
		{
			name:    "fixture wins and borrows the snapshot listing",
			fixture: &catalog.TestFixture{NovelURL: novelURL, ChapterURL: chapterURL},
			snap:    snap,
			want:    TestURLs{"novel": novelURL, "chapter": chapterURL, "latest": "https://novels.example/snap-latest"},
		},
		{
			name:    "fixture borrows the derived listing",
			fixture: &catalog.TestFixture{NovelURL: novelURL},
			want:    TestURLs{"novel": novelURL, "latest": latestURL},
		},
		{
			name: "snapshot without templates",
			snap: snap,
			want: TestURLs{"novel": "https://novels.example/snap-novel", "latest": "https://novels.example/snap-latest"},
		},
		{
			name: "derived listing",
			want: TestURLs{"latest": latestURL},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := listingSource()
			def.Fixture = tt.fixture
			assert.Equal(t, tt.want, ResolveTestURLs(def, tt.snap))
		})
	}
}

func TestResolveTestURLsWithoutExploreSelectors(t *testing.T) {
	def := listingSource()
	def.Selectors = def.Selectors[1:]
	def.Fixture = &catalog.TestFixture{NovelURL: novelURL}

	assert.Equal(t, TestURLs{"novel": novelURL}, ResolveTestURLs(def, nil))
}

func TestResolveTestURLsNone(t *testing.T) {
	def := &catalog.SourceDefinition{Name: "x", BaseURL: "https://x.example"}
	assert.Empty(t, ResolveTestURLs(def, &snapshot.Snapshot{TestURLs: map[string]string{"search_template": "https://x.example/s"}}))
}

func TestListingAndSearchURLs(t *testing.T) {
	def := listingSource()
	assert.Equal(t, latestURL, ListingURL(def))
	assert.Equal(t, "https://novels.example/search?q={query}", SearchTemplateURL(def))

	def.ExploreEndpoints = []catalog.ExploreEndpoint{{Endpoint: "https://cdn.example/list/{page}", Type: catalog.EndpointListing}}
	assert.Equal(t, "https://cdn.example/list/1", ListingURL(def))
	assert.Empty(t, SearchTemplateURL(def))
}

func TestTestURLKeysOrder(t *testing.T) {
	urls := TestURLs{"zeta": "z", "latest": "l", "alpha": "a", "chapter": "c", "novel": "n"}
	assert.Equal(t, []string{"novel", "chapter", "latest", "alpha", "zeta"}, urls.Keys())
}

func TestPagesFor(t *testing.T) {
	p := newPages(TestURLs{"novel": "n", "latest": "l"})
	p.HTML["latest"] = "<latest>"

	key, html, ok := p.For(catalog.PageExplore)
	assert.True(t, ok)
	assert.Equal(t, "latest", key)
	assert.Equal(t, "<latest>", html)

	key, _, ok = p.For(catalog.PageDetail)
	assert.True(t, ok)
	assert.Equal(t, "latest", key, "falls back to the first fetched page")

	var none *Pages
	_, _, ok = none.For(catalog.PageDetail)
	assert.False(t, ok)
}
