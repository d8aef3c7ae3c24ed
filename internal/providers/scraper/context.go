package scraper

import (
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultContextChars is the fragment size targeted by ExtractContext.
const DefaultContextChars = 500

var (
	contextPolicyOnce sync.Once
	contextPolicy     *bluemonday.Policy
)

// ContextPolicy keeps document structure and the attributes selectors are
// written against; everything else is stripped.
func ContextPolicy() *bluemonday.Policy {
	contextPolicyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(
			"html", "body", "main", "article", "section", "header", "footer", "nav", "aside",
			"div", "span", "p", "br", "hr", "a", "img", "figure", "figcaption", "picture",
			"h1", "h2", "h3", "h4", "h5", "h6", "strong", "em", "b", "i", "small", "time",
			"ul", "ol", "li", "dl", "dt", "dd", "table", "thead", "tbody", "tr", "td", "th",
			"label", "button", "form", "select", "option",
		)
		p.AllowAttrs("class", "id", "title").Globally()
		p.AllowDataAttributes()
		p.AllowAttrs("href").OnElements("a")
		p.AllowAttrs("src", "alt").OnElements("img")
		p.AllowURLSchemes("http", "https")
		p.AllowRelativeURLs(true)
		contextPolicy = p
	})
	return contextPolicy
}

// ExtractContext returns a sanitized HTML fragment around the first element
// matching selector: the nearest ancestor whose markup exceeds contextChars,
// capped at twice that. When nothing matches it falls back to <body>, then
// to the start of the raw document.
func ExtractContext(html, selector string, contextChars int) string {
	if contextChars <= 0 {
		contextChars = DefaultContextChars
	}
	limit := contextChars * 2

	doc, err := LoadHTML(html)
	if err != nil {
		return TruncateText(html, limit)
	}
	doc.Find("script, style, noscript, svg, iframe, link, meta").Remove()

	fragment := ""
	if match := firstMatch(doc, selector); match != nil {
		fragment = widen(match, contextChars)
	}
	if fragment == "" {
		if body := doc.Find("body").First(); body.Length() > 0 {
			fragment, _ = goquery.OuterHtml(body)
		}
	}
	if fragment == "" {
		return TruncateText(html, limit)
	}
	return TruncateText(ContextPolicy().Sanitize(fragment), limit)
}

func firstMatch(doc *goquery.Document, selector string) *goquery.Selection {
	if selector == "" || IsXPath(selector) {
		return nil
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	found := doc.FindMatcher(matcher).First()
	if found.Length() == 0 {
		return nil
	}
	return found
}

func widen(match *goquery.Selection, contextChars int) string {
	current := match.Parent()
	if current.Length() == 0 {
		current = match
	}
	markup, _ := goquery.OuterHtml(current)
	for len(markup) < contextChars {
		parent := current.Parent()
		if parent.Length() == 0 {
			break
		}
		current = parent
		markup, _ = goquery.OuterHtml(current)
	}
	return markup
}
