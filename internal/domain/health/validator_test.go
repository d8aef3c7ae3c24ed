package health

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/snapshot"
)

func strPtr(s string) *string { return &s }

func newFixtureFetcher() *fakeFetcher {
	f := newFakeFetcher()
	f.pages[novelURL] = novelHTML
	f.pages[chapterURL] = chapterHTML
	f.pages[latestURL] = latestHTML
	return f
}

func TestValidateFetchesEachURLOnce(t *testing.T) {
	f := newFixtureFetcher()
	v := NewValidator(f, Options{}, nil, nil)

	res := v.Validate(context.Background(), fixtureSource(), nil)

	assert.Equal(t, 1, f.count(novelURL))
	assert.Equal(t, 1, f.count(chapterURL))
	assert.Equal(t, 2, f.total())
	assert.Equal(t, Healthy, res.OverallStatus)
	assert.Equal(t, 7, res.Passed)
	assert.Empty(t, res.FetchErrors)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, PageNovel, res.Pages[0].Key)
}

func TestValidateSharedURLFetchedOnce(t *testing.T) {
	f := newFixtureFetcher()
	def := fixtureSource()
	def.Fixture.ChapterURL = novelURL

	res := NewValidator(f, Options{}, nil, nil).Validate(context.Background(), def, nil)

	assert.Equal(t, 1, f.total(), "novel and chapter share a URL")
	require.Len(t, res.Pages, 2)
}

func TestValidateScenarioSubstringMismatch(t *testing.T) {
	f := newFixtureFetcher()
	def := &catalog.SourceDefinition{
		Name:      "Moonlit",
		BaseURL:   "https://novels.example",
		Selectors: []catalog.SelectorSpec{sel(catalog.PageDetail, "nameSelector", ".title")},
		Fixture:   &catalog.TestFixture{NovelURL: novelURL},
	}
	snap := &snapshot.Snapshot{
		Selectors: map[catalog.PageType]map[string]snapshot.SelectorRecord{
			catalog.PageDetail: {"nameSelector": {Selector: ".title", Expected: strPtr("Moonlight")}},
		},
	}

	res := NewValidator(f, Options{}, nil, nil).Validate(context.Background(), def, snap)

	check, ok := res.Result(catalog.PageDetail, "nameSelector", 0)
	require.True(t, ok)
	assert.Equal(t, StatusWarn, check.Status)
	assert.Equal(t, "Moonlight", check.Expected)
	assert.Equal(t, "Moonlit Blade", check.Actual)
	assert.Equal(t, "Expected 'Moonlight' but got 'Moonlit Blade...'", check.Message)
	assert.Equal(t, Degraded, res.OverallStatus)
	assert.Equal(t, 1, res.Warnings)
}

func TestValidateSingleWarningAmongMany(t *testing.T) {
	snap := &snapshot.Snapshot{
		Selectors: map[catalog.PageType]map[string]snapshot.SelectorRecord{
			catalog.PageDetail: {"nameSelector": {Selector: "h1.title", Expected: strPtr("Moonlight")}},
		},
	}

	res := NewValidator(newFixtureFetcher(), Options{}, nil, nil).Validate(context.Background(), fixtureSource(), snap)

	assert.Equal(t, 1, res.Warnings)
	assert.Equal(t, Healthy, res.OverallStatus, "1 of 7 warned is under the warn ratio")
}

func TestValidateScenarioNoSnapshot(t *testing.T) {
	var items strings.Builder
	for i := 1; i <= 42; i++ {
		fmt.Fprintf(&items, "<li>Chapter %d</li>", i)
	}
	f := newFakeFetcher()
	f.pages[novelURL] = "<html><body><ul class=\"chapter-list\">" + items.String() + "</ul></body></html>"

	def := &catalog.SourceDefinition{
		Name:      "Chapters",
		BaseURL:   "https://novels.example",
		Selectors: []catalog.SelectorSpec{sel(catalog.PageChapters, "selector", ".chapter-list li")},
		Fixture:   &catalog.TestFixture{NovelURL: novelURL},
	}

	res := NewValidator(f, Options{}, nil, nil).Validate(context.Background(), def, nil)

	require.Len(t, res.Results, 1)
	assert.Equal(t, StatusPass, res.Results[0].Status)
	assert.Equal(t, 42, res.Results[0].MatchCount)
	assert.Equal(t, "Found 42 matches", res.Results[0].Message)
	assert.Equal(t, Healthy, res.OverallStatus)
}

func TestValidateScenarioTimeout(t *testing.T) {
	f := newFakeFetcher()
	f.errs[latestURL] = "request failed: context deadline exceeded"
	def := &catalog.SourceDefinition{
		Name:             "Slow",
		BaseURL:          "https://novels.example",
		Selectors:        []catalog.SelectorSpec{sel(catalog.PageExplore, "selector", "div.novel-item")},
		ExploreEndpoints: []catalog.ExploreEndpoint{{Name: "Latest", Endpoint: "/latest?page={page}", Type: catalog.EndpointListing}},
	}

	res := NewValidator(f, Options{}, nil, nil).Validate(context.Background(), def, nil)

	assert.Equal(t, Skipped, res.OverallStatus)
	assert.Equal(t, []string{"latest: request failed: context deadline exceeded"}, res.FetchErrors)
	assert.Empty(t, res.Results)
	assert.Zero(t, res.Passed+res.Failed+res.Warnings)
	assert.Equal(t, 1, res.TotalSelectors)
}

func TestValidateNoTestURLs(t *testing.T) {
	def := &catalog.SourceDefinition{
		Name:      "Bare",
		BaseURL:   "https://bare.example",
		Selectors: []catalog.SelectorSpec{sel(catalog.PageDetail, "nameSelector", "h1")},
	}
	f := newFakeFetcher()

	res := NewValidator(f, Options{}, nil, nil).Validate(context.Background(), def, nil)

	assert.Equal(t, Skipped, res.OverallStatus)
	assert.Equal(t, []string{MsgNoTestURLs}, res.FetchErrors)
	assert.Zero(t, f.total())
}

func TestValidateNoSelectors(t *testing.T) {
	def := &catalog.SourceDefinition{Name: "Empty", BaseURL: "https://e.example", Fixture: &catalog.TestFixture{NovelURL: novelURL}}
	f := newFixtureFetcher()

	res := NewValidator(f, Options{}, nil, nil).Validate(context.Background(), def, nil)
	assert.Equal(t, Skipped, res.OverallStatus)
	assert.Zero(t, f.total())
}

func TestValidatePartialFetchFailure(t *testing.T) {
	f := newFixtureFetcher()
	delete(f.pages, chapterURL)

	res := NewValidator(f, Options{}, nil, nil).Validate(context.Background(), fixtureSource(), nil)

	assert.Equal(t, []string{"chapter: HTTP 404: 404 Not Found"}, res.FetchErrors)
	require.Len(t, res.Results, 7, "content selectors fall back to the first available page")
	title, ok := res.Result(catalog.PageContent, "pageTitleSelector", 0)
	require.True(t, ok)
	assert.Equal(t, StatusFail, title.Status)
	assert.Equal(t, "No matches found", title.Message)
	assert.Equal(t, Degraded, res.OverallStatus)
}

func TestValidateMalformedSelector(t *testing.T) {
	f := newFixtureFetcher()
	def := fixtureSource()
	def.Selectors[0].Selector = "h1["

	res := NewValidator(f, Options{}, nil, nil).Validate(context.Background(), def, nil)

	assert.Equal(t, StatusFail, res.Results[0].Status)
	assert.True(t, strings.HasPrefix(res.Results[0].Message, "Selector error: "))
}

func TestValidateBrokenBoundary(t *testing.T) {
	tests := []struct {
		failing int
		want    Overall
	}{
		{0, Healthy},
		{1, Degraded},
		{3, Degraded},
		{4, Broken},
		{6, Broken},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_6", tt.failing), func(t *testing.T) {
			def := &catalog.SourceDefinition{Name: "Six", BaseURL: "https://novels.example", Fixture: &catalog.TestFixture{NovelURL: novelURL}}
			for i := 0; i < 6; i++ {
				selector := "h1.title"
				if i < tt.failing {
					selector = ".gone"
				}
				def.Selectors = append(def.Selectors, sel(catalog.PageDetail, fmt.Sprintf("s%dSelector", i), selector))
			}

			res := NewValidator(newFixtureFetcher(), Options{}, nil, nil).Validate(context.Background(), def, nil)
			assert.Equal(t, tt.want, res.OverallStatus)
			assert.Equal(t, tt.failing, res.Failed)
		})
	}
}

func TestValidateForcesScriptRendering(t *testing.T) {
	f := newFixtureFetcher()
	snap := &snapshot.Snapshot{Metadata: snapshot.Metadata{HasCloudflare: true}}

	NewValidator(f, Options{}, nil, nil).Validate(context.Background(), fixtureSource(), snap)
	assert.True(t, f.forced[novelURL])

	f2 := newFixtureFetcher()
	NewValidator(f2, Options{}, nil, nil).Validate(context.Background(), fixtureSource(), nil)
	assert.False(t, f2.forced[novelURL])
}

func TestValidateCancelled(t *testing.T) {
	f := newFixtureFetcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := NewValidator(f, Options{Limiter: NewHostLimiter(time.Second)}, nil, nil)
	res := v.Validate(ctx, fixtureSource(), nil)

	assert.Equal(t, Skipped, res.OverallStatus)
	assert.Zero(t, f.total(), "no fetch starts after cancellation")
	for _, e := range res.FetchErrors {
		assert.Contains(t, e, MsgCancelled)
	}
}

func TestInspectReturnsPages(t *testing.T) {
	f := newFixtureFetcher()
	res, pages := NewValidator(f, Options{}, nil, nil).Inspect(context.Background(), fixtureSource(), nil)

	require.Equal(t, 2, pages.Len())
	key, html, ok := pages.For(catalog.PageContent)
	require.True(t, ok)
	assert.Equal(t, PageChapter, key)
	assert.Equal(t, chapterHTML, html)
	assert.Len(t, res.Failures(), 0)
}
