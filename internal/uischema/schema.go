// Package uischema builds presentation structures for feature properties:
// the grouped UI ordering schema consumed by form renderers, the grouped
// display properties of read responses, and the inverse flattening of
// grouped submissions.
package uischema

import (
	"github.com/Terralego/terra.backend.crud/internal/crud"
)

// OrderKey is the schema key holding the property ordering sequence.
const OrderKey = "ui:order"

// Wildcard is the ordering sentinel meaning "all remaining properties in
// their natural order".
const Wildcard = "*"

// DefaultGroup is the display-properties key collecting every property
// not claimed by any display group.
const DefaultGroup = "__default__"

// Grouped restructures a raw UI ordering schema around the view's display
// groups: the top-level order becomes the group slugs (in group order)
// followed by "*", and each slug maps to a sub-schema ordering the
// group's properties, merged with the raw per-property widget directives
// for those properties. Directives of ungrouped properties stay at the
// top level. With zero groups the raw schema passes through unchanged.
// The input is never mutated.
func Grouped(raw map[string]any, groups []crud.DisplayGroup) map[string]any {
	if len(groups) == 0 {
		return raw
	}

	out := make(map[string]any, len(groups)+1)
	claimed := make(map[string]bool)
	order := make([]string, 0, len(groups)+1)

	for _, g := range groups {
		order = append(order, g.Slug)
		sub := make(map[string]any, len(g.Properties)+1)
		subOrder := make([]string, 0, len(g.Properties)+1)
		for _, p := range g.Properties {
			subOrder = append(subOrder, p)
			claimed[p] = true
			if directive, ok := raw[p]; ok {
				sub[p] = deepCopy(directive)
			}
		}
		sub[OrderKey] = append(subOrder, Wildcard)
		out[g.Slug] = sub
	}
	out[OrderKey] = append(order, Wildcard)

	for k, v := range raw {
		if k == OrderKey || claimed[k] {
			continue
		}
		out[k] = deepCopy(v)
	}
	return out
}

// deepCopy clones JSON-shaped values so transforms never alias the
// stored schema.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return val
	}
}
