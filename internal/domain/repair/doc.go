// Package repair proposes and applies replacement selectors.
//
// The Advisor turns each failing selector into one provider request and
// a RepairSuggestion, tracking progress through a small state machine. It
// never returns an error: every failure ends up in the suggestion's
// explanation with zero confidence. The Repairer edits the source file in
// place, gated by confidence, after writing a byte-identical backup.
package repair
