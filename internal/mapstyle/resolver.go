package mapstyle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/Terralego/terra.backend.crud/internal/config"
	"github.com/Terralego/terra.backend.crud/internal/crud"
	"github.com/Terralego/terra.backend.crud/internal/geostore"
)

// PrimarySourceID is the synthetic identifier of the feature's primary
// geometry in composed style documents.
const PrimarySourceID = "primary"

// styleVersion is the style spec version the renderer expects.
const styleVersion = 8

// Resolver computes effective styles and composes full style documents.
// Styles are resolved from configuration on every call, never cached,
// since the configured table may change independent of stored data.
type Resolver struct {
	styles  config.StyleSet
	basemap config.Basemap
	maxZoom int
}

// NewResolver creates a resolver over the configured style table, basemap
// and maximum zoom.
func NewResolver(cfg config.Config) *Resolver {
	return &Resolver{
		styles:  cfg.Styles,
		basemap: cfg.Basemap,
		maxZoom: cfg.MaxZoom,
	}
}

// DefaultStyle returns the configured default style fragment for a
// geometry kind. An unrecognized kind, or a kind with no configured
// entry, is an error: substituting an arbitrary default would mislead
// renderers about geometry semantics.
func (r *Resolver) DefaultStyle(t geostore.GeometryType) (Layer, error) {
	var entry map[string]any
	switch {
	case t.IsPoint():
		entry = r.styles.Point
	case t.IsLineString():
		entry = r.styles.Line
	case t.IsPolygon():
		entry = r.styles.Polygon
	default:
		return nil, fmt.Errorf("unhandled geometry type %q", t)
	}
	if len(entry) == 0 {
		return nil, fmt.Errorf("no default style configured for geometry type %q", t)
	}
	return cloneFragment(entry), nil
}

// ViewStyle returns a view's effective primary style: its own map style
// override when non-empty, otherwise the default for the layer's geometry
// kind.
func (r *Resolver) ViewStyle(view crud.View, layer geostore.Layer) (Layer, error) {
	if len(view.MapStyle) > 0 {
		return cloneFragment(view.MapStyle), nil
	}
	return r.DefaultStyle(layer.GeomType)
}

// ExtraStyle returns the effective style for one extra geometry
// definition: the (definition, view)-scoped override when it carries a
// non-empty fragment, otherwise the default for the definition's own
// geometry kind. Note the lookup is keyed by the extra geometry, not by
// the view's layer.
func (r *Resolver) ExtraStyle(view crud.View, def geostore.ExtraGeometryDefinition) (Layer, error) {
	if override, ok := view.ExtraLayerStyleFor(def.Name); ok && len(override.MapStyle) > 0 {
		return cloneFragment(override.MapStyle), nil
	}
	return r.DefaultStyle(def.GeomType)
}

// Compose builds the full style document for a feature: the basemap, one
// layer per extra geometry (sorted by definition name for reproducible
// output), and the primary geometry last, so it always renders on top.
// Source identifiers are the basemap ID, the extra geometry definition
// names and "primary"; a collision between them is a configuration error
// on the caller's side.
func (r *Resolver) Compose(feature geostore.Feature, layer geostore.Layer, view crud.View) (Document, error) {
	doc := r.skeleton()

	extras := make([]geostore.ExtraGeometry, len(feature.ExtraGeometries))
	copy(extras, feature.ExtraGeometries)
	sort.SliceStable(extras, func(i, j int) bool {
		return extras[i].Definition < extras[j].Definition
	})

	for _, eg := range extras {
		def, ok := layer.ExtraGeometryDefinition(eg.Definition)
		if !ok {
			return Document{}, fmt.Errorf("extra geometry %q is not declared on layer %q", eg.Definition, layer.ID)
		}
		fragment, err := r.ExtraStyle(view, def)
		if err != nil {
			return Document{}, err
		}
		fragment["id"] = def.Name
		fragment["source"] = def.Name
		doc.Sources[def.Name] = Source{Type: "geojson", Data: geojson.NewGeometry(eg.Geometry)}
		doc.Layers = append(doc.Layers, fragment)
	}

	primary, err := r.ViewStyle(view, layer)
	if err != nil {
		return Document{}, err
	}
	primary["id"] = PrimarySourceID
	primary["source"] = PrimarySourceID
	doc.Sources[PrimarySourceID] = Source{Type: "geojson", Data: geojson.NewGeometry(feature.Geometry)}
	doc.Layers = append(doc.Layers, primary)

	return doc, nil
}

// skeleton returns a fresh style document with the basemap pre-populated.
func (r *Resolver) skeleton() Document {
	baseLayer := Layer{
		"id":     r.basemap.ID,
		"type":   "raster",
		"source": r.basemap.ID,
	}
	if r.basemap.MaxZoom > 0 {
		baseLayer["maxzoom"] = r.basemap.MaxZoom
	}
	return Document{
		Version: styleVersion,
		Sources: map[string]Source{
			r.basemap.ID: {
				Type:     "raster",
				Tiles:    r.basemap.Tiles,
				TileSize: r.basemap.TileSize,
			},
		},
		Layers: []Layer{baseLayer},
	}
}

// Viewport is the viewport bound of a rendered map: either a center/zoom
// pair or a bounding extent, never both.
type Viewport struct {
	Center []float64 `json:"center,omitempty" doc:"[lon, lat] for point features without extra geometries"`
	Zoom   int       `json:"zoom,omitempty" doc:"Zoom level accompanying center"`
	Bounds string    `json:"bounds,omitempty" doc:"minx,miny,maxx,maxy extent"`
}

// Viewport computes the viewport for a feature. A point feature without
// extra geometries gets the geometry centroid as center at the configured
// maximum zoom; anything else gets the bounding extent of the primary
// geometry united with every extra geometry.
func (r *Resolver) Viewport(feature geostore.Feature, layer geostore.Layer) Viewport {
	if layer.GeomType.IsPoint() && len(feature.ExtraGeometries) == 0 {
		var center orb.Point
		switch g := feature.Geometry.(type) {
		case orb.Point:
			center = g
		default:
			center, _ = planar.CentroidArea(g)
		}
		return Viewport{Center: []float64{center[0], center[1]}, Zoom: r.maxZoom}
	}

	bound := feature.Geometry.Bound()
	for _, eg := range feature.ExtraGeometries {
		bound = bound.Union(eg.Geometry.Bound())
	}
	return Viewport{Bounds: formatBounds(bound)}
}

// formatBounds renders a bound as "minx,miny,maxx,maxy".
func formatBounds(b orb.Bound) string {
	values := []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
