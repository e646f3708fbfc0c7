// Package crud contains the CRUD view configuration model: groups of views,
// one view per geographic layer, display groups, property renderings and
// per-view style overrides.
package crud

import "sort"

// Group is a named, ordered category of views.
// Deletion is blocked while any view references it.
type Group struct {
	ID        string `json:"id,omitempty" doc:"Unique group identifier" example:"infrastructure"`
	Name      string `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name, unique" example:"Infrastructure"`
	Order     int    `json:"order" minimum:"0" doc:"Display order, not required to be contiguous" example:"0"`
	Pictogram string `json:"pictogram,omitempty" doc:"Icon asset path"`
}

// DisplayGroup is a named subset of a view's properties shown together in
// detail views and forms. Groups partition properties for presentation
// only; a property absent from all groups falls into the implicit default
// bucket.
type DisplayGroup struct {
	Label      string   `json:"label" required:"true" minLength:"1" doc:"Human label" example:"Identity"`
	Slug       string   `json:"slug,omitempty" doc:"Derived from label, unique within the view" example:"identity"`
	Order      int      `json:"order" minimum:"0" doc:"Relative order" example:"0"`
	Properties []string `json:"properties" doc:"Property names, subset of the layer's declared schema"`
}

// Contains reports whether the group claims the named property.
func (g DisplayGroup) Contains(name string) bool {
	for _, p := range g.Properties {
		if p == name {
			return true
		}
	}
	return false
}

// PropertyRendering specifies that a property should be rendered through a
// named transformation instead of verbatim (e.g. a date formatter).
type PropertyRendering struct {
	Property string         `json:"property" required:"true" doc:"Property name" example:"opening_date"`
	Widget   string         `json:"widget" required:"true" doc:"Registered rendering widget name" example:"date"`
	Args     map[string]any `json:"args,omitempty" doc:"Widget options"`
}

// ExtraLayerStyle overrides the style of one of a layer's extra geometry
// sub-layers for this view. An empty fragment falls back to the geometry
// kind's default style.
type ExtraLayerStyle struct {
	ExtraGeometry string         `json:"extraGeometry" required:"true" doc:"Extra geometry definition name" example:"buffer"`
	MapStyle      map[string]any `json:"mapStyle,omitempty" doc:"Style-layer fragment"`
}

// View is the CRUD configuration bound to exactly one geographic layer.
// The layer reference is immutable after creation; destroying the view
// does not destroy the layer. Display groups, renderings and extra layer
// styles are owned by the view and go away with it.
type View struct {
	ID               string `json:"id,omitempty" doc:"Unique view identifier" example:"towns"`
	Name             string `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name, unique" example:"Towns"`
	Order            int    `json:"order" minimum:"0" doc:"Display order" example:"0"`
	GroupID          string `json:"group,omitempty" doc:"Owning group; empty means unclassified"`
	LayerID          string `json:"layer" required:"true" doc:"Geographic layer, one view per layer"`
	Pictogram        string `json:"pictogram,omitempty" doc:"Icon asset path"`
	ObjectName       string `json:"objectName,omitempty" doc:"Singular label for features" example:"Town"`
	ObjectNamePlural string `json:"objectNamePlural,omitempty" doc:"Plural label for features" example:"Towns"`
	Visible          bool   `json:"visible" default:"true" doc:"Whether the view appears in the settings menu"`

	MapStyle              map[string]any `json:"mapStyle,omitempty" doc:"Style-layer fragment overriding the geometry kind default"`
	UISchema              map[string]any `json:"uiSchema,omitempty" doc:"Raw UI ordering schema"`
	Settings              map[string]any `json:"settings,omitempty" doc:"Free-form settings bag"`
	DefaultListProperties []string       `json:"defaultListProperties,omitempty" doc:"Properties shown in list responses"`
	FeatureTitleProperty  string         `json:"featureTitleProperty,omitempty" doc:"Property used to label features"`
	Templates             []string       `json:"templates,omitempty" doc:"Document template names"`

	DisplayGroups      []DisplayGroup      `json:"displayGroups,omitempty" doc:"Property display groups"`
	PropertyRenderings []PropertyRendering `json:"propertyRenderings,omitempty" doc:"Per-property rendering overrides"`
	ExtraLayerStyles   []ExtraLayerStyle   `json:"extraLayerStyles,omitempty" doc:"Per-extra-geometry style overrides"`
}

// OrderedDisplayGroups returns the view's display groups sorted by
// (order, label). The stored slice is left untouched.
func (v View) OrderedDisplayGroups() []DisplayGroup {
	groups := make([]DisplayGroup, len(v.DisplayGroups))
	copy(groups, v.DisplayGroups)
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Order != groups[j].Order {
			return groups[i].Order < groups[j].Order
		}
		return groups[i].Label < groups[j].Label
	})
	return groups
}

// DisplayGroupBySlug returns the display group with the given slug.
func (v View) DisplayGroupBySlug(slug string) (DisplayGroup, bool) {
	for _, g := range v.DisplayGroups {
		if g.Slug == slug {
			return g, true
		}
	}
	return DisplayGroup{}, false
}

// ExtraLayerStyleFor returns the style override scoped to the named extra
// geometry definition, if one exists.
func (v View) ExtraLayerStyleFor(extraGeometry string) (ExtraLayerStyle, bool) {
	for _, s := range v.ExtraLayerStyles {
		if s.ExtraGeometry == extraGeometry {
			return s, true
		}
	}
	return ExtraLayerStyle{}, false
}

// RenderingFor returns the rendering override for the named property.
func (v View) RenderingFor(property string) (PropertyRendering, bool) {
	for _, r := range v.PropertyRenderings {
		if r.Property == property {
			return r, true
		}
	}
	return PropertyRendering{}, false
}

// AttachmentCategory classifies feature attachments and pictures.
type AttachmentCategory struct {
	ID        string `json:"id,omitempty" doc:"Unique category identifier"`
	Name      string `json:"name" required:"true" minLength:"1" doc:"Display name" example:"Photos"`
	Pictogram string `json:"pictogram,omitempty" doc:"Icon asset path"`
}
