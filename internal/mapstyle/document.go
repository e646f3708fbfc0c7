// Package mapstyle resolves and composes map style documents: default
// styles per geometry kind, per-view overrides, and the full composited
// document (basemap + extra geometry layers + primary layer) handed to an
// external map renderer.
package mapstyle

// Document is a declarative map-rendering style: versioned sources plus an
// ordered sequence of style layers. It serializes field-for-field to the
// form the renderer consumes.
type Document struct {
	Version int               `json:"version" doc:"Style spec version, fixed at 8"`
	Sources map[string]Source `json:"sources" doc:"Source definitions keyed by identifier"`
	Layers  []Layer           `json:"layers" doc:"Style layers, later entries render on top"`
}

// Source is a style source: a raster tile set or an inline GeoJSON value.
type Source struct {
	Type     string   `json:"type" doc:"raster or geojson"`
	Data     any      `json:"data,omitempty" doc:"Inline GeoJSON geometry for geojson sources"`
	Tiles    []string `json:"tiles,omitempty" doc:"Tile URL templates for raster sources"`
	TileSize int      `json:"tileSize,omitempty" doc:"Raster tile size"`
	MaxZoom  int      `json:"maxzoom,omitempty" doc:"Maximum source zoom"`
}

// Layer is a raw style-layer fragment. Fragments come from configuration
// (default style table or per-view overrides) and carry at least type and
// paint; composition stamps id and source.
type Layer = map[string]any

// cloneFragment deep-copies a style fragment so composition never mutates
// stored configuration.
func cloneFragment(fragment map[string]any) map[string]any {
	if fragment == nil {
		return nil
	}
	out := make(map[string]any, len(fragment))
	for k, v := range fragment {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneFragment(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
