package health

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/fetcher"
)

// fakeFetcher serves canned pages and counts calls per URL.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]string
	calls  map[string]int
	forced map[string]bool
	delay  time.Duration
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:  map[string]string{},
		errs:   map[string]string{},
		calls:  map[string]int{},
		forced: map[string]bool{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, forceJS bool) *fetcher.FetchResult {
	f.mu.Lock()
	f.calls[url]++
	f.forced[url] = forceJS
	html, ok := f.pages[url]
	errMsg := f.errs[url]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return &fetcher.FetchResult{URL: url, Error: "request failed: " + ctx.Err().Error()}
		}
	}
	switch {
	case errMsg != "":
		return &fetcher.FetchResult{URL: url, Error: errMsg}
	case !ok:
		return &fetcher.FetchResult{URL: url, StatusCode: 404, Error: "HTTP 404: 404 Not Found"}
	}
	return &fetcher.FetchResult{URL: url, HTML: html, StatusCode: 200, Elapsed: 20 * time.Millisecond}
}

func (f *fakeFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func sel(pt catalog.PageType, name, selector string) catalog.SelectorSpec {
	return catalog.SelectorSpec{Name: name, Selector: selector, PageType: pt, Literal: selector}
}

const (
	novelURL   = "https://novels.example/novel/moonlit-blade"
	chapterURL = "https://novels.example/novel/moonlit-blade/1"
	latestURL  = "https://novels.example/latest?page=1"
)

const novelHTML = `<html><body>
<h1 class="title">Moonlit Blade</h1>
<span class="author">Feng</span>
<img class="cover" src="/covers/moonlit.jpg">
<ul class="chapter-list">
<li><a href="/novel/moonlit-blade/1">Chapter 1</a></li>
<li><a href="/novel/moonlit-blade/2">Chapter 2</a></li>
</ul>
</body></html>`

const chapterHTML = `<html><body><h2 class="chapter-title">Chapter 1</h2><div class="text"><p>It was night.</p></div></body></html>`

const latestHTML = `<html><body><div class="novel-item"><h3><a href="/novel/moonlit-blade">Moonlit Blade</a></h3></div></body></html>`

func fixtureSource() *catalog.SourceDefinition {
	return &catalog.SourceDefinition{
		Name:    "Moonlit",
		BaseURL: "https://novels.example",
		Lang:    "en",
		Selectors: []catalog.SelectorSpec{
			sel(catalog.PageDetail, "nameSelector", "h1.title"),
			sel(catalog.PageDetail, "authorBookSelector", "span.author"),
			{Name: "coverSelector", Selector: "img.cover", Attribute: "src", PageType: catalog.PageDetail},
			sel(catalog.PageChapters, "selector", ".chapter-list li"),
			sel(catalog.PageChapters, "nameSelector", ".chapter-list li a"),
			sel(catalog.PageContent, "pageTitleSelector", "h2.chapter-title"),
			sel(catalog.PageContent, "pageContentSelector", "div.text p"),
		},
		Fixture: &catalog.TestFixture{NovelURL: novelURL, ChapterURL: chapterURL},
	}
}
