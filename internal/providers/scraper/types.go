package scraper

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

const (
	// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion
	MaxHTMLSize = 10 * 1024 * 1024

	// DefaultLimit caps the sample values kept per selector.
	DefaultLimit = 10
)

// SelectorResult is the outcome of running one selector against one page.
type SelectorResult struct {
	Selector  string   `json:"selector"`
	Attribute string   `json:"attribute,omitempty"`
	Matches   []string `json:"matches"`
	Count     int      `json:"count"`
	Success   bool     `json:"success"`
	Error     string   `json:"error,omitempty"`
}

// ValidateHTML checks HTML size and returns error if too large
func ValidateHTML(html string) error {
	if len(html) == 0 {
		return fmt.Errorf("html content required")
	}
	if len(html) > MaxHTMLSize {
		return fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
	}
	return nil
}

// DetectCharset detects and returns charset from HTML bytes
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// LoadHTML parses a document. Input that is not valid UTF-8 is decoded
// from its detected charset first.
func LoadHTML(htmlStr string) (*goquery.Document, error) {
	if err := ValidateHTML(htmlStr); err != nil {
		return nil, err
	}
	if utf8.ValidString(htmlStr) {
		return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	}

	data := []byte(htmlStr)
	utf8Reader, err := charset.NewReader(bytes.NewReader(data), "text/html; charset="+DetectCharset(data))
	if err != nil {
		return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	}
	return goquery.NewDocumentFromReader(utf8Reader)
}

// NormalizeWhitespace collapses multiple spaces into one
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateText cuts s to at most maxLen bytes without splitting a rune.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
