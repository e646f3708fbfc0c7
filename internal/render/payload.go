// Package render assembles the payloads handed to the external map-image
// renderer and document templating engine.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/Terralego/terra.backend.crud/internal/config"
	"github.com/Terralego/terra.backend.crud/internal/crud"
	"github.com/Terralego/terra.backend.crud/internal/geostore"
	"github.com/Terralego/terra.backend.crud/internal/mapstyle"
	"github.com/Terralego/terra.backend.crud/internal/uischema"
)

// MapImagePayload is the request body for the external map-image
// renderer. Exactly one of center/zoom or bounds is present.
type MapImagePayload struct {
	Style  string    `json:"style" doc:"String-encoded style document"`
	Width  int       `json:"width" doc:"Image width in pixels"`
	Height int       `json:"height" doc:"Image height in pixels"`
	Token  string    `json:"token,omitempty" doc:"Basemap access token"`
	Center []float64 `json:"center,omitempty" doc:"[lon, lat] viewport center"`
	Zoom   int       `json:"zoom,omitempty" doc:"Zoom accompanying center"`
	Bounds string    `json:"bounds,omitempty" doc:"minx,miny,maxx,maxy viewport extent"`
}

// BuildMapImage composes a feature's style document and viewport into a
// renderer request.
func BuildMapImage(resolver *mapstyle.Resolver, cfg config.Config, feature geostore.Feature, layer geostore.Layer, view crud.View) (MapImagePayload, error) {
	doc, err := resolver.Compose(feature, layer, view)
	if err != nil {
		return MapImagePayload{}, err
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return MapImagePayload{}, fmt.Errorf("encoding style document: %w", err)
	}

	payload := MapImagePayload{
		Style:  string(encoded),
		Width:  cfg.Renderer.Width,
		Height: cfg.Renderer.Height,
		Token:  cfg.Basemap.AccessToken,
	}

	vp := resolver.Viewport(feature, layer)
	if vp.Bounds != "" {
		payload.Bounds = vp.Bounds
	} else {
		payload.Center = vp.Center
		payload.Zoom = vp.Zoom
	}
	return payload, nil
}

// DocumentContext is the context handed to the external document
// templating engine for one feature and template.
type DocumentContext struct {
	Template   string               `json:"template" doc:"Document template name"`
	Feature    string               `json:"feature" doc:"Feature identifier"`
	Title      any                  `json:"title,omitempty" doc:"Value of the view's title property"`
	Properties *uischema.OrderedMap `json:"properties" doc:"Display-grouped feature properties"`
	Map        MapImagePayload      `json:"map" doc:"Map image request for the feature"`
}

// BuildDocumentContext assembles the templating context for a feature:
// its display-grouped properties plus the map image payload.
func BuildDocumentContext(resolver *mapstyle.Resolver, cfg config.Config, feature geostore.Feature, layer geostore.Layer, view crud.View, template string) (DocumentContext, error) {
	props, err := uischema.DisplayProperties(feature.Properties, view.OrderedDisplayGroups(), view.PropertyRenderings)
	if err != nil {
		return DocumentContext{}, err
	}
	img, err := BuildMapImage(resolver, cfg, feature, layer, view)
	if err != nil {
		return DocumentContext{}, err
	}

	ctx := DocumentContext{
		Template:   template,
		Feature:    feature.ID,
		Properties: props,
		Map:        img,
	}
	if view.FeatureTitleProperty != "" {
		ctx.Title = feature.Properties[view.FeatureTitleProperty]
	}
	return ctx, nil
}
