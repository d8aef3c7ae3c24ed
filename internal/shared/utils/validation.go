package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Request body and parameter limits
const (
	MaxBodySize       = 64 * 1024 // 64KB - dashboard request body limit
	MaxSourceNameSize = 128
	MaxLangLength     = 16
)

// Regular expressions for validation
var (
	// SourceNamePattern allows the characters source authors put in names
	// ("Novel Gecesi", "Re:Library", "wuxia-world.site").
	SourceNamePattern = regexp.MustCompile(`^[\p{L}\p{N} ._:'-]+$`)
	// LangPattern matches language directory names (en, tu, pt-br).
	LangPattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z]{2,4})?$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateSourceName validates a source name given on the command line or
// in a request path.
func ValidateSourceName(name string) error {
	if err := ValidateString(name, "source", 1, MaxSourceNameSize, true); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" || !SourceNamePattern.MatchString(name) {
		return fmt.Errorf("source contains invalid characters")
	}
	return nil
}

// ValidateLang validates an optional language filter.
func ValidateLang(lang string) error {
	if err := ValidateString(lang, "lang", 2, MaxLangLength, false); err != nil {
		return err
	}
	if lang != "" && !LangPattern.MatchString(lang) {
		return fmt.Errorf("lang %q is not a language code", lang)
	}
	return nil
}
