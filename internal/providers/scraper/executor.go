package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Page is a parsed document that selectors can be run against repeatedly.
type Page struct {
	doc *goquery.Document
}

// ParsePage parses html once for repeated selector runs.
func ParsePage(html string) (*Page, error) {
	doc, err := LoadHTML(html)
	if err != nil {
		return nil, err
	}
	return &Page{doc: doc}, nil
}

// Document exposes the parsed document.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// Run parses html and runs a single selector against it.
func Run(html, selector, attribute string, limit int) SelectorResult {
	page, err := ParsePage(html)
	if err != nil {
		return SelectorResult{
			Selector:  selector,
			Attribute: attribute,
			Matches:   []string{},
			Error:     err.Error(),
		}
	}
	return page.Select(selector, attribute, limit)
}

// Select runs selector and collects up to limit non-empty values: the named
// attribute when attribute is set, otherwise the element text. Count is the
// total number of matched elements. Malformed selectors are reported in
// Error and never panic.
func (p *Page) Select(selector, attribute string, limit int) (res SelectorResult) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	res = SelectorResult{Selector: selector, Attribute: attribute, Matches: []string{}}

	defer func() {
		if r := recover(); r != nil {
			res.Matches = []string{}
			res.Count = 0
			res.Success = false
			res.Error = fmt.Sprintf("selector panicked: %v", r)
		}
	}()

	if IsXPath(selector) {
		return p.selectXPath(res, limit)
	}

	matcher, err := cascadia.Compile(selector)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	found := p.doc.FindMatcher(matcher)
	res.Count = found.Length()
	res.Success = res.Count > 0
	found.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		var value string
		if attribute != "" {
			value = strings.TrimSpace(s.AttrOr(attribute, ""))
		} else {
			value = NormalizeWhitespace(s.Text())
		}
		if value != "" {
			res.Matches = append(res.Matches, value)
		}
		return true
	})
	return res
}
