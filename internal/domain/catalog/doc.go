// Package catalog reads declarative source definitions from Kotlin files.
//
// A source file declares identity fields (name, baseUrl, lang, id), explore
// fetchers with endpoints, and detail/chapter/content fetchers whose named
// arguments end in Selector or Att. The parser is textual: it never
// compiles Kotlin, and it tolerates reordered declarations.
//
// Attribute pairing is a separate pass (see pairAttributes) keyed by
// declaration block, so linkAtt in one explore fetcher never leaks into
// another.
package catalog
