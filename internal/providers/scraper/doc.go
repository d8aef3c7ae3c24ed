// Package scraper runs source selectors against fetched pages.
//
// Built on specialized libraries:
//   - goquery and cascadia: CSS selectors, compiled up front so malformed
//     selectors are reported instead of silently matching nothing
//   - htmlquery: XPath for selectors starting with "/" or "("
//   - bluemonday: trimming repair context down to structure
//   - chardet: charset detection for non UTF-8 pages
//
// Example Usage:
//
//	page, err := scraper.ParsePage(html)
//	res := page.Select("h1.novel-title", "", scraper.DefaultLimit)
package scraper
