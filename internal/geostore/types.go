// Package geostore is the geographic feature store: layers, features and
// their extra geometries, plus file attachments, persisted in DuckDB.
package geostore

import (
	"github.com/paulmach/orb"
)

// GeometryType classifies a layer's geometry kind.
type GeometryType string

const (
	GeometryPoint           GeometryType = "point"
	GeometryMultiPoint      GeometryType = "multipoint"
	GeometryLineString      GeometryType = "linestring"
	GeometryMultiLineString GeometryType = "multilinestring"
	GeometryPolygon         GeometryType = "polygon"
	GeometryMultiPolygon    GeometryType = "multipolygon"
)

// IsPoint reports whether the type is a point kind (single or multi).
func (t GeometryType) IsPoint() bool {
	return t == GeometryPoint || t == GeometryMultiPoint
}

// IsLineString reports whether the type is a line kind (single or multi).
func (t GeometryType) IsLineString() bool {
	return t == GeometryLineString || t == GeometryMultiLineString
}

// IsPolygon reports whether the type is a polygon kind (single or multi).
func (t GeometryType) IsPolygon() bool {
	return t == GeometryPolygon || t == GeometryMultiPolygon
}

// Valid reports whether the type is one of the known geometry kinds.
func (t GeometryType) Valid() bool {
	return t.IsPoint() || t.IsLineString() || t.IsPolygon()
}

// GeometryTypeOf returns the GeometryType matching an orb geometry value.
func GeometryTypeOf(g orb.Geometry) GeometryType {
	switch g.(type) {
	case orb.Point:
		return GeometryPoint
	case orb.MultiPoint:
		return GeometryMultiPoint
	case orb.LineString:
		return GeometryLineString
	case orb.MultiLineString:
		return GeometryMultiLineString
	case orb.Polygon:
		return GeometryPolygon
	case orb.MultiPolygon:
		return GeometryMultiPolygon
	default:
		return ""
	}
}

// ExtraGeometryDefinition declares a secondary geometry a layer's features
// may carry beyond their primary geometry (e.g. a buffer or a related line).
type ExtraGeometryDefinition struct {
	Name     string       `json:"name" doc:"Definition name, unique within the layer" example:"buffer"`
	GeomType GeometryType `json:"geomType" doc:"Geometry kind of this extra geometry" example:"polygon"`
}

// Layer is a named collection of features sharing one geometry kind and
// one declared property schema.
type Layer struct {
	ID              string                    `json:"id,omitempty" doc:"Unique layer identifier" example:"towns"`
	Name            string                    `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name" example:"Towns"`
	GeomType        GeometryType              `json:"geomType" required:"true" enum:"point,multipoint,linestring,multilinestring,polygon,multipolygon" doc:"Geometry kind" example:"point"`
	Schema          []string                  `json:"schema,omitempty" doc:"Declared property names" example:"name,age,country"`
	ExtraGeometries []ExtraGeometryDefinition `json:"extraGeometries,omitempty" doc:"Extra geometry definitions"`
}

// HasProperty reports whether name is part of the layer's declared schema.
func (l Layer) HasProperty(name string) bool {
	for _, p := range l.Schema {
		if p == name {
			return true
		}
	}
	return false
}

// ExtraGeometryDefinition returns the definition with the given name.
func (l Layer) ExtraGeometryDefinition(name string) (ExtraGeometryDefinition, bool) {
	for _, d := range l.ExtraGeometries {
		if d.Name == name {
			return d, true
		}
	}
	return ExtraGeometryDefinition{}, false
}

// ExtraGeometry is a secondary geometry instance attached to a feature,
// referencing one of the layer's extra geometry definitions.
type ExtraGeometry struct {
	Definition string       `json:"definition" doc:"Extra geometry definition name"`
	Geometry   orb.Geometry `json:"-"`
}

// Feature is one geographic record: a geometry plus a flat property bag.
type Feature struct {
	ID              string          `json:"id,omitempty" doc:"Feature identifier (UUID)"`
	LayerID         string          `json:"layerId" doc:"Owning layer"`
	Geometry        orb.Geometry    `json:"-"`
	Properties      map[string]any  `json:"properties" doc:"Flat property bag"`
	ExtraGeometries []ExtraGeometry `json:"-"`
}

// Attachment is a binary file attached to a feature.
type Attachment struct {
	ID       string `json:"id,omitempty" doc:"Attachment identifier"`
	Feature  string `json:"feature" doc:"Owning feature identifier"`
	Category string `json:"category,omitempty" doc:"Attachment category"`
	Legend   string `json:"legend,omitempty" doc:"Human-readable caption"`
	File     string `json:"file" doc:"Stored file path"`
}

// Picture is an image attached to a feature. Kept separate from generic
// attachments so clients can render galleries without content sniffing.
type Picture struct {
	ID       string `json:"id,omitempty" doc:"Picture identifier"`
	Feature  string `json:"feature" doc:"Owning feature identifier"`
	Category string `json:"category,omitempty" doc:"Picture category"`
	Legend   string `json:"legend,omitempty" doc:"Human-readable caption"`
	File     string `json:"file" doc:"Stored file path"`
}
