package catalog

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// kotlinString matches a double-quoted Kotlin literal, escapes included.
const kotlinString = `"((?:[^"\\\n]|\\.)*)"`

var (
	packagePattern = regexp.MustCompile(`(?m)^\s*package\s+([\w.]+)`)
	namePattern    = identityPattern("name")
	baseURLPattern = identityPattern("baseUrl")
	langPattern    = identityPattern("lang")
	idPattern      = regexp.MustCompile(`override\s+val\s+id\s*(?::\s*Long\s*)?(?:get\(\)\s*)?=\s*(\d+)`)

	selectorPattern  = regexp.MustCompile(`\b(\w+Selector|selector)\s*=\s*` + kotlinString)
	attributePattern = regexp.MustCompile(`\b(\w+)Att\s*=\s*` + kotlinString)

	explorePattern  = regexp.MustCompile(`\bexploreFetchers\b`)
	detailPattern   = regexp.MustCompile(`\bdetailFetcher\b|\bDetail\(`)
	chaptersPattern = regexp.MustCompile(`\bchapterFetcher\b|\bChapters\(`)
	contentPattern  = regexp.MustCompile(`\bcontentFetcher\b|\bContent\(`)

	fetcherOpenPattern = regexp.MustCompile(`\bBaseExploreFetcher\s*\(`)
	fetcherNamePattern = regexp.MustCompile(`\bBaseExploreFetcher\s*\(\s*(?:key\s*=\s*)?` + kotlinString)
	leadingLiteral     = regexp.MustCompile(`^\s*(?:key\s*=\s*)?` + kotlinString)
	endpointPattern    = regexp.MustCompile(`\bendpoint\s*=\s*` + kotlinString)
	searchTypePattern  = regexp.MustCompile(`\btype\s*=\s*SourceFactory\.Type\.Search\b`)
	pageFetcherPattern = regexp.MustCompile(`\b(?:detailFetcher|chapterFetcher|contentFetcher)\b`)

	fixturePattern = regexp.MustCompile(`@TestFixture\s*\(`)
)

func identityPattern(field string) *regexp.Regexp {
	return regexp.MustCompile(`override\s+val\s+` + field + `\s*(?::\s*String\s*)?(?:get\(\)\s*)?=\s*` + kotlinString)
}

// Parser extracts SourceDefinitions from Kotlin source files.
type Parser struct {
	defaultLang string
	logger      *zap.Logger
}

// NewParser creates a parser. Sources that do not declare a language get
// defaultLang.
func NewParser(defaultLang string, logger *zap.Logger) *Parser {
	if defaultLang == "" {
		defaultLang = "en"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{defaultLang: defaultLang, logger: logger}
}

// ParseFile reads and parses one source file. It returns false for files
// that cannot be read or that declare no base URL.
func (p *Parser) ParseFile(path string) (*SourceDefinition, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		p.logger.Warn("cannot read source file", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	return p.ParseContent(path, string(data))
}

// ParseContent parses source text; path is recorded on the definition and
// supplies the fallback name.
func (p *Parser) ParseContent(path, content string) (*SourceDefinition, bool) {
	baseURL := firstGroup(baseURLPattern, content)
	if baseURL == "" {
		p.logger.Debug("skipping file without base URL", zap.String("path", path))
		return nil, false
	}

	def := &SourceDefinition{
		Name:     unescape(firstGroup(namePattern, content)),
		Package:  firstGroup(packagePattern, content),
		BaseURL:  strings.TrimRight(unescape(baseURL), "/"),
		Lang:     firstGroup(langPattern, content),
		FilePath: path,
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if def.Lang == "" {
		def.Lang = p.defaultLang
	}
	if raw := firstGroup(idPattern, content); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			def.ID = n
		}
	}

	selectors, attrs := scanSelectors(content)
	def.Selectors = pairAttributes(selectors, attrs)
	def.ExploreEndpoints = parseEndpoints(content)
	def.Fixture = parseFixture(content)

	p.logger.Debug("parsed source",
		zap.String("name", def.Name),
		zap.Int("selectors", len(def.Selectors)),
		zap.Int("endpoints", len(def.ExploreEndpoints)),
	)
	return def, true
}

// attrDecl is an attribute field seen inside a declaration block.
type attrDecl struct {
	block int
	stem  string
	value string
}

// scanSelectors walks the file line by line, tracking which fetcher
// declaration encloses each selector field.
func scanSelectors(content string) ([]SelectorSpec, []attrDecl) {
	var (
		selectors   []SelectorSpec
		attrs       []attrDecl
		pageType    = PageUnknown
		fetcher     string
		pendingName bool
		block       int
	)

	enter := func(pt PageType) {
		if pt != pageType {
			pageType = pt
			fetcher = ""
			pendingName = false
			block++
		}
	}

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") {
			continue
		}

		switch {
		case explorePattern.MatchString(line):
			enter(PageExplore)
		case detailPattern.MatchString(line):
			enter(PageDetail)
		case chaptersPattern.MatchString(line):
			enter(PageChapters)
		case contentPattern.MatchString(line):
			enter(PageContent)
		}

		if fetcherOpenPattern.MatchString(line) {
			enter(PageExplore)
			block++
			fetcher = ""
			if m := fetcherNamePattern.FindStringSubmatch(line); m != nil {
				fetcher = unescape(m[1])
				pendingName = false
			} else {
				pendingName = true
			}
		} else if pendingName {
			if m := leadingLiteral.FindStringSubmatch(line); m != nil {
				fetcher = unescape(m[1])
				pendingName = false
			}
		}

		for _, m := range selectorPattern.FindAllStringSubmatch(line, -1) {
			if m[2] == "" {
				continue
			}
			spec := SelectorSpec{
				Name:       m[1],
				Selector:   unescape(m[2]),
				Literal:    m[2],
				PageType:   pageType,
				LineNumber: i + 1,
				block:      block,
			}
			if pageType == PageExplore {
				spec.FetcherName = fetcher
			}
			selectors = append(selectors, spec)
		}

		for _, m := range attributePattern.FindAllStringSubmatch(line, -1) {
			if m[2] == "" {
				continue
			}
			attrs = append(attrs, attrDecl{block: block, stem: m[1], value: unescape(m[2])})
		}
	}

	return selectors, attrs
}

// parseEndpoints extracts one endpoint per BaseExploreFetcher block.
func parseEndpoints(content string) []ExploreEndpoint {
	starts := fetcherOpenPattern.FindAllStringIndex(content, -1)
	var endpoints []ExploreEndpoint

	for i, loc := range starts {
		end := len(content)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		block := content[loc[0]:end]
		if next := pageFetcherPattern.FindStringIndex(block); next != nil {
			block = block[:next[0]]
		}

		ep := endpointPattern.FindStringSubmatch(block)
		if ep == nil {
			continue
		}
		name := ""
		if m := fetcherNamePattern.FindStringSubmatch(block); m != nil {
			name = unescape(m[1])
		}

		kind := EndpointListing
		if strings.Contains(name, "Search") || searchTypePattern.MatchString(block) {
			kind = EndpointSearch
		}
		endpoints = append(endpoints, ExploreEndpoint{
			Name:     name,
			Endpoint: unescape(ep[1]),
			Type:     kind,
		})
	}
	return endpoints
}

// parseFixture reads @TestFixture, accepting the novel URL either
// positionally or as novelUrl.
func parseFixture(content string) *TestFixture {
	loc := fixturePattern.FindStringIndex(content)
	if loc == nil {
		return nil
	}
	args := balancedArgs(content[loc[1]:])

	fixture := &TestFixture{
		NovelURL:       namedArg(args, "novelUrl"),
		ChapterURL:     namedArg(args, "chapterUrl"),
		ExpectedTitle:  namedArg(args, "expectedTitle"),
		ExpectedAuthor: namedArg(args, "expectedAuthor"),
	}
	if fixture.NovelURL == "" {
		if m := leadingLiteral.FindStringSubmatch(args); m != nil {
			fixture.NovelURL = unescape(m[1])
		}
	}
	if *fixture == (TestFixture{}) {
		return nil
	}
	return fixture
}

// balancedArgs returns the text up to the parenthesis that closes an
// already opened argument list, ignoring parentheses inside strings.
func balancedArgs(s string) string {
	depth := 1
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[:i]
			}
		}
	}
	return s
}

func namedArg(args, name string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*=\s*` + kotlinString)
	if m := re.FindStringSubmatch(args); m != nil {
		return unescape(m[1])
	}
	return ""
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

var kotlinEscapes = strings.NewReplacer(`\"`, `"`, `\\`, `\`, `\$`, `$`, `\'`, `'`, `\n`, "\n", `\t`, "\t")

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return kotlinEscapes.Replace(s)
}
