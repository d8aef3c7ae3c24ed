package repair

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/scraper"
)

// DefaultPromptHTMLChars caps the HTML context embedded in a prompt.
const DefaultPromptHTMLChars = 1500

const (
	truncatedMarker  = "\n... (truncated)"
	anyContent       = "any matching content"
	replyPreviewSize = 200
)

const promptTemplate = `Fix this broken CSS selector.

FIELD: %s
SELECTOR: %s
EXPECTED: %s
PAGE TYPE: %s

HTML CONTEXT:
` + "```html\n%s\n```" + `

Return ONLY a JSON object:
{"selector": "new_css_selector", "confidence": 0.0-1.0, "explanation": "brief reason"}`

// BuildPrompt renders the request for spec. context is cut to htmlChars
// with a marker appended when it is longer.
func BuildPrompt(spec catalog.SelectorSpec, context, expected string, htmlChars int) string {
	if htmlChars <= 0 {
		htmlChars = DefaultPromptHTMLChars
	}
	if len(context) > htmlChars {
		context = scraper.TruncateText(context, htmlChars) + truncatedMarker
	}
	if strings.TrimSpace(expected) == "" {
		expected = anyContent
	}
	pageType := spec.PageType
	if pageType == "" {
		pageType = catalog.PageUnknown
	}
	return fmt.Sprintf(promptTemplate, spec.Name, spec.Selector, expected, pageType, context)
}

// EstimateTokens approximates the cost of sending prompt, reply included.
func EstimateTokens(prompt string) int {
	return len(prompt)/4 + 50
}

// ParsedReply is the structured part of a model answer.
type ParsedReply struct {
	Selector    string
	Confidence  float64
	Explanation string
}

// ParseReply extracts the first well-formed JSON object from text.
func ParseReply(text string) (ParsedReply, error) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := objectEnd(text, start); end > start {
			if out, ok := decodeReply(text[start : end+1]); ok {
				return out, nil
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return ParsedReply{}, fmt.Errorf("failed to parse response: %s", scraper.TruncateText(strings.TrimSpace(text), replyPreviewSize))
}

// objectEnd returns the index of the brace closing the object opened at
// start, or -1. Braces inside strings are ignored.
func objectEnd(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func decodeReply(raw string) (ParsedReply, bool) {
	var fields map[string]any
	if err := sonic.UnmarshalString(raw, &fields); err != nil {
		return ParsedReply{}, false
	}
	if _, ok := fields["selector"]; !ok {
		return ParsedReply{}, false
	}

	out := ParsedReply{}
	out.Selector, _ = fields["selector"].(string)
	out.Explanation, _ = fields["explanation"].(string)
	switch c := fields["confidence"].(type) {
	case float64:
		out.Confidence = c
	case string:
		out.Confidence, _ = strconv.ParseFloat(strings.TrimSpace(c), 64)
	}
	out.Selector = strings.TrimSpace(out.Selector)
	out.Confidence = clamp(out.Confidence)
	return out, true
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
