package uischema

import (
	"fmt"
	"sort"

	"github.com/Terralego/terra.backend.crud/internal/crud"
)

// DisplayProperties shapes a feature's flat property bag for read
// responses: group slugs in group order, each holding the properties the
// group claims (in declared order), then "__default__" with every
// unclaimed property. Rendering overrides are applied to values before
// grouping.
func DisplayProperties(props map[string]any, groups []crud.DisplayGroup, renderings []crud.PropertyRendering) (*OrderedMap, error) {
	rendered := make(map[string]any, len(props))
	for k, v := range props {
		rendered[k] = deepCopy(v)
	}
	for _, r := range renderings {
		value, ok := rendered[r.Property]
		if !ok {
			continue
		}
		out, err := Render(r.Widget, value, r.Args)
		if err != nil {
			return nil, fmt.Errorf("rendering property %q: %w", r.Property, err)
		}
		rendered[r.Property] = out
	}

	result := NewOrderedMap()
	claimed := make(map[string]bool)
	for _, g := range groups {
		sub := NewOrderedMap()
		for _, p := range g.Properties {
			claimed[p] = true
			if v, ok := rendered[p]; ok {
				sub.Set(p, v)
			}
		}
		result.Set(g.Slug, sub)
	}

	rest := NewOrderedMap()
	remaining := make([]string, 0, len(rendered))
	for k := range rendered {
		if !claimed[k] {
			remaining = append(remaining, k)
		}
	}
	sort.Strings(remaining)
	for _, k := range remaining {
		rest.Set(k, rendered[k])
	}
	result.Set(DefaultGroup, rest)

	return result, nil
}

// Group shapes a flat property bag the way clients submit and read it:
// one sub-bag per display group slug holding the claimed properties, and
// every unclaimed property at the top level. Inverse of Flatten.
func Group(props map[string]any, groups []crud.DisplayGroup) map[string]any {
	out := make(map[string]any, len(groups))
	claimed := make(map[string]bool)
	for _, g := range groups {
		sub := make(map[string]any)
		for _, p := range g.Properties {
			claimed[p] = true
			if v, ok := props[p]; ok {
				sub[p] = v
			}
		}
		out[g.Slug] = sub
	}
	for k, v := range props {
		if !claimed[k] {
			out[k] = v
		}
	}
	return out
}

// Flatten merges a grouped property submission back into one flat bag
// before persistence: group sub-bags are merged in configured group order
// (a later group wins on a duplicate key), then the top-level ungrouped
// keys, which win over any group.
func Flatten(grouped map[string]any, groups []crud.DisplayGroup) map[string]any {
	flat := make(map[string]any)
	slugs := make(map[string]bool, len(groups))

	for _, g := range groups {
		slugs[g.Slug] = true
		sub, ok := grouped[g.Slug].(map[string]any)
		if !ok {
			continue
		}
		for k, v := range sub {
			flat[k] = v
		}
	}
	for k, v := range grouped {
		if slugs[k] {
			continue
		}
		flat[k] = v
	}
	return flat
}
