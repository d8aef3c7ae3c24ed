package catalog

import "strings"

// pairAttributes assigns each selector the attribute declared next to it.
//
// A selector named <stem>Selector pairs with <stem>Att from the same
// declaration block. If the block has no such attribute, or declares the
// stem with two different values, the selector extracts text.
func pairAttributes(selectors []SelectorSpec, attrs []attrDecl) []SelectorSpec {
	type key struct {
		block int
		stem  string
	}

	values := make(map[key]string)
	ambiguous := make(map[key]bool)
	for _, a := range attrs {
		k := key{a.block, a.stem}
		if prev, seen := values[k]; seen && prev != a.value {
			ambiguous[k] = true
			continue
		}
		values[k] = a.value
	}

	out := make([]SelectorSpec, len(selectors))
	for i, s := range selectors {
		out[i] = s
		stem, ok := selectorStem(s.Name)
		if !ok {
			continue
		}
		k := key{s.block, stem}
		if ambiguous[k] {
			continue
		}
		out[i].Attribute = values[k]
	}
	return out
}

// selectorStem strips the Selector suffix. The bare element selector has
// no stem and never takes an attribute.
func selectorStem(name string) (string, bool) {
	stem := strings.TrimSuffix(name, "Selector")
	if stem == name || stem == "" {
		return "", false
	}
	return stem, true
}
