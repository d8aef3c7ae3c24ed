package health

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/snapshot"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/scraper"
)

const (
	expectedMaxLen   = 200
	defaultRateLimit = 1000
)

// GenerateOptions controls snapshot generation.
type GenerateOptions struct {
	// NovelURL and ChapterURL override the source's test fixture.
	NovelURL   string
	ChapterURL string
	// Verify fetches the test pages and records each selector's first match.
	Verify bool
	UseJS  bool
}

// Generator builds snapshots from source definitions.
type Generator struct {
	validator *Validator
	logger    *zap.Logger
}

// NewGenerator creates a generator that fetches through v.
func NewGenerator(v *Validator, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{validator: v, logger: logger}
}

// Generate returns a fresh snapshot for def and the fetch errors met while
// verifying. Without Verify every selector is recorded with no expected
// value and a minimum count of one.
func (g *Generator) Generate(ctx context.Context, def *catalog.SourceDefinition, opts GenerateOptions) (*snapshot.Snapshot, []string) {
	snap := &snapshot.Snapshot{
		Source:        strings.ToLower(def.Name),
		BaseURL:       def.BaseURL,
		Lang:          def.Lang,
		Version:       snapshot.CurrentVersion,
		LastVerified:  snapshot.Now(),
		SourceFile:    def.FilePath,
		TestURLs:      generatedURLs(def, opts),
		Selectors:     map[catalog.PageType]map[string]snapshot.SelectorRecord{},
		URLValidation: map[string]any{},
		Metadata: snapshot.Metadata{
			RequiresJS: opts.UseJS,
			RateLimit:  defaultRateLimit,
		},
	}

	var pages *Pages
	var fetchErrors []string
	if opts.Verify {
		fetchable := TestURLs{}
		for k, u := range snap.TestURLs {
			if !strings.HasSuffix(k, templateSuffix) {
				fetchable[k] = u
			}
		}
		res := newSourceResult(def)
		pages = g.validator.fetchPages(ctx, fetchable, snap, &res)
		fetchErrors = res.FetchErrors
	}

	parsed := map[string]*scraper.Page{}
	for _, spec := range def.Selectors {
		pt := spec.PageType
		if pt == "" {
			pt = catalog.PageUnknown
		}
		if snap.Selectors[pt] == nil {
			snap.Selectors[pt] = map[string]snapshot.SelectorRecord{}
		}

		rec := snapshot.SelectorRecord{Selector: spec.Selector, ExpectedMinCount: 1}
		if spec.Attribute != "" {
			attr := spec.Attribute
			rec.Attribute = &attr
		}

		if opts.Verify {
			rec.ExpectedMinCount = 0
			if key, html, ok := pages.For(spec.PageType); ok {
				page := parsed[key]
				if page == nil {
					page, _ = scraper.ParsePage(html)
					parsed[key] = page
				}
				if page != nil {
					sel := page.Select(spec.Selector, spec.Attribute, g.validator.opts.SelectorLimit)
					if len(sel.Matches) > 0 {
						expected := scraper.TruncateText(sel.Matches[0], expectedMaxLen)
						rec.Expected = &expected
						rec.ExpectedMinCount = 1
					}
				}
			}
		}
		snap.Selectors[pt][spec.Name] = rec
	}

	g.logger.Info("snapshot generated",
		zap.String("source", def.Name),
		zap.Bool("verified", opts.Verify),
		zap.Int("selectors", len(def.Selectors)),
		zap.Int("fetch_errors", len(fetchErrors)),
	)
	return snap, fetchErrors
}

func generatedURLs(def *catalog.SourceDefinition, opts GenerateOptions) map[string]string {
	urls := map[string]string{}
	novel, chapter := opts.NovelURL, opts.ChapterURL
	if def.Fixture != nil {
		if novel == "" {
			novel = def.Fixture.NovelURL
		}
		if chapter == "" {
			chapter = def.Fixture.ChapterURL
		}
	}
	if novel != "" {
		urls[PageNovel] = novel
	}
	if chapter != "" {
		urls[PageChapter] = chapter
	}
	if u := ListingURL(def); u != "" {
		urls[PageLatest] = u
	}
	if u := SearchTemplateURL(def); u != "" {
		urls[PageSearch] = u
	}
	return urls
}
