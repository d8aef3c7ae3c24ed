package scraper

import (
	"strings"

	"github.com/antchfx/htmlquery"
)

// IsXPath reports whether selector is an XPath expression rather than CSS.
func IsXPath(selector string) bool {
	s := strings.TrimSpace(selector)
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(")
}

func (p *Page) selectXPath(res SelectorResult, limit int) SelectorResult {
	if len(p.doc.Nodes) == 0 {
		res.Error = "empty document"
		return res
	}

	nodes, err := htmlquery.QueryAll(p.doc.Nodes[0], res.Selector)
	if err != nil {
		res.Error = "xpath: " + err.Error()
		return res
	}

	res.Count = len(nodes)
	res.Success = res.Count > 0
	for i, n := range nodes {
		if i >= limit {
			break
		}
		var value string
		if res.Attribute != "" {
			value = strings.TrimSpace(htmlquery.SelectAttr(n, res.Attribute))
		} else {
			value = NormalizeWhitespace(htmlquery.InnerText(n))
		}
		if value != "" {
			res.Matches = append(res.Matches, value)
		}
	}
	return res
}
