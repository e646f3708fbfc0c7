package api

import (
	"context"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/Terralego/terra.backend.crud/internal/crud"
	"github.com/Terralego/terra.backend.crud/internal/geostore"
	"github.com/Terralego/terra.backend.crud/internal/render"
	"github.com/Terralego/terra.backend.crud/internal/uischema"
)

// FeatureHandler serves the feature endpoints: CRUD scoped by layer, the
// map-image render payload and document templating contexts. Write bodies
// accept properties in the grouped shape and flatten them before they
// reach the store; read bodies carry both the grouped properties and the
// ordered display form.
type FeatureHandler struct {
	svc *Services
}

func NewFeatureHandler(svc *Services) *FeatureHandler {
	return &FeatureHandler{svc: svc}
}

func (h *FeatureHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/crud/layers/{layerId}/features", h.ListFeatures, huma.OperationTags("features"))
	huma.Post(api, "/api/crud/layers/{layerId}/features", h.CreateFeature, huma.OperationTags("features"))
	huma.Get(api, "/api/crud/layers/{layerId}/features/{id}", h.GetFeature, huma.OperationTags("features"))
	huma.Put(api, "/api/crud/layers/{layerId}/features/{id}", h.PutFeature, huma.OperationTags("features"))
	huma.Delete(api, "/api/crud/layers/{layerId}/features/{id}", h.DeleteFeature, huma.OperationTags("features"))

	huma.Get(api, "/api/crud/features/{id}/render", h.RenderFeature, huma.OperationTags("render"))
	huma.Get(api, "/api/crud/features/{id}/documents/{template}", h.FeatureDocument, huma.OperationTags("render"))
}

type FeatureScopeInput struct {
	LayerID string `path:"layerId" doc:"Layer ID" example:"towns"`
}

type FeatureIDInput struct {
	FeatureScopeInput
	ID string `path:"id" doc:"Feature ID (UUID)"`
}

// FeatureListItem is the list representation: the identifier, the title
// property value (identifier when the view declares none) and the view's
// default list properties.
type FeatureListItem struct {
	ID         string         `json:"id" doc:"Feature identifier"`
	Title      any            `json:"title" doc:"Title property value, or the identifier"`
	Properties map[string]any `json:"properties" doc:"Default list properties"`
}

type ExtraGeometryBody struct {
	Definition string          `json:"definition" doc:"Extra geometry definition name" example:"buffer"`
	Geometry   json.RawMessage `json:"geometry" doc:"GeoJSON geometry"`
}

// FeatureBody is the write shape. Properties may be grouped by display
// group slug; grouped bags are flattened before persistence.
type FeatureBody struct {
	Geometry        json.RawMessage     `json:"geometry" required:"true" doc:"GeoJSON geometry"`
	Properties      map[string]any      `json:"properties" doc:"Property bag, optionally grouped by display group slug"`
	ExtraGeometries []ExtraGeometryBody `json:"extraGeometries,omitempty" doc:"Extra geometry instances"`
}

type DocumentLink struct {
	Template string `json:"template" doc:"Document template name"`
	URL      string `json:"url" doc:"Path generating the templating context"`
}

// FeatureDetail is the read shape.
type FeatureDetail struct {
	ID                string               `json:"id" doc:"Feature identifier"`
	LayerID           string               `json:"layerId" doc:"Owning layer"`
	Geometry          json.RawMessage      `json:"geometry" doc:"GeoJSON geometry"`
	Properties        map[string]any       `json:"properties" doc:"Properties grouped by display group slug"`
	DisplayProperties *uischema.OrderedMap `json:"displayProperties,omitempty" doc:"Ordered display form with rendering overrides applied"`
	Title             any                  `json:"title,omitempty" doc:"Title property value"`
	ExtraGeometries   []ExtraGeometryBody  `json:"extraGeometries,omitempty" doc:"Extra geometry instances"`
	Documents         []DocumentLink       `json:"documents,omitempty" doc:"Available document templates"`
}

type FeatureDetailOutput struct {
	Body FeatureDetail
}

// viewFor returns the layer's view, or a zero view when the layer has
// none configured. Features remain usable without a view; grouping and
// display transforms then degrade to identity.
func (h *FeatureHandler) viewFor(layerID string) crud.View {
	v, ok := h.svc.Crud.ViewForLayer(layerID)
	if !ok {
		return crud.View{}
	}
	return v
}

func (h *FeatureHandler) detail(f geostore.Feature, layer geostore.Layer, view crud.View) (FeatureDetail, error) {
	geom, err := json.Marshal(geojson.NewGeometry(f.Geometry))
	if err != nil {
		return FeatureDetail{}, err
	}

	groups := view.OrderedDisplayGroups()
	display, err := uischema.DisplayProperties(f.Properties, groups, view.PropertyRenderings)
	if err != nil {
		return FeatureDetail{}, err
	}

	d := FeatureDetail{
		ID:                f.ID,
		LayerID:           f.LayerID,
		Geometry:          geom,
		Properties:        uischema.Group(f.Properties, groups),
		DisplayProperties: display,
	}
	if view.FeatureTitleProperty != "" {
		d.Title = f.Properties[view.FeatureTitleProperty]
	} else {
		d.Title = f.ID
	}
	for _, eg := range f.ExtraGeometries {
		encoded, err := json.Marshal(geojson.NewGeometry(eg.Geometry))
		if err != nil {
			return FeatureDetail{}, err
		}
		d.ExtraGeometries = append(d.ExtraGeometries, ExtraGeometryBody{
			Definition: eg.Definition,
			Geometry:   encoded,
		})
	}
	for _, tmpl := range view.Templates {
		d.Documents = append(d.Documents, DocumentLink{
			Template: tmpl,
			URL:      "/api/crud/features/" + f.ID + "/documents/" + tmpl,
		})
	}
	return d, nil
}

// decodeBody converts a write body into a store feature: geometry and
// extra geometries decoded from GeoJSON, grouped properties flattened.
func (h *FeatureHandler) decodeBody(body FeatureBody, layerID string, view crud.View) (geostore.Feature, error) {
	geom, err := geojson.UnmarshalGeometry(body.Geometry)
	if err != nil {
		return geostore.Feature{}, huma.Error400BadRequest("invalid geometry: " + err.Error())
	}

	f := geostore.Feature{
		LayerID:    layerID,
		Geometry:   geom.Geometry(),
		Properties: uischema.Flatten(body.Properties, view.OrderedDisplayGroups()),
	}
	for _, eg := range body.ExtraGeometries {
		g, err := geojson.UnmarshalGeometry(eg.Geometry)
		if err != nil {
			return geostore.Feature{}, huma.Error400BadRequest("invalid geometry for extra geometry " + eg.Definition + ": " + err.Error())
		}
		f.ExtraGeometries = append(f.ExtraGeometries, geostore.ExtraGeometry{
			Definition: eg.Definition,
			Geometry:   g.Geometry(),
		})
	}
	return f, nil
}

func (h *FeatureHandler) ListFeatures(ctx context.Context, input *FeatureScopeInput) (*struct{ Body []FeatureListItem }, error) {
	if _, err := h.svc.Store.GetLayer(ctx, input.LayerID); err != nil {
		return nil, mapError(err)
	}
	features, err := h.svc.Store.ListFeatures(ctx, input.LayerID)
	if err != nil {
		return nil, mapError(err)
	}
	view := h.viewFor(input.LayerID)

	out := make([]FeatureListItem, 0, len(features))
	for _, f := range features {
		item := FeatureListItem{ID: f.ID, Title: f.ID, Properties: map[string]any{}}
		if view.FeatureTitleProperty != "" {
			if v, ok := f.Properties[view.FeatureTitleProperty]; ok {
				item.Title = v
			}
		}
		for _, p := range view.DefaultListProperties {
			if v, ok := f.Properties[p]; ok {
				item.Properties[p] = v
			}
		}
		out = append(out, item)
	}
	return &struct{ Body []FeatureListItem }{Body: out}, nil
}

func (h *FeatureHandler) CreateFeature(ctx context.Context, input *struct {
	FeatureScopeInput
	Body FeatureBody
}) (*FeatureDetailOutput, error) {
	layer, err := h.svc.Store.GetLayer(ctx, input.LayerID)
	if err != nil {
		return nil, mapError(err)
	}
	view := h.viewFor(input.LayerID)

	f, err := h.decodeBody(input.Body, input.LayerID, view)
	if err != nil {
		return nil, err
	}
	created, err := h.svc.Store.CreateFeature(ctx, f)
	if err != nil {
		return nil, mapError(err)
	}
	h.svc.Crud.Bus().Publish(crud.Event{Resource: "features", Action: "created", ID: created.ID})

	d, err := h.detail(created, layer, view)
	if err != nil {
		return nil, mapError(err)
	}
	return &FeatureDetailOutput{Body: d}, nil
}

func (h *FeatureHandler) GetFeature(ctx context.Context, input *FeatureIDInput) (*FeatureDetailOutput, error) {
	layer, f, err := h.featureInLayer(ctx, input.LayerID, input.ID)
	if err != nil {
		return nil, err
	}
	d, err := h.detail(f, layer, h.viewFor(input.LayerID))
	if err != nil {
		return nil, mapError(err)
	}
	return &FeatureDetailOutput{Body: d}, nil
}

func (h *FeatureHandler) PutFeature(ctx context.Context, input *struct {
	FeatureIDInput
	Body FeatureBody
}) (*FeatureDetailOutput, error) {
	layer, existing, err := h.featureInLayer(ctx, input.LayerID, input.ID)
	if err != nil {
		return nil, err
	}
	view := h.viewFor(input.LayerID)

	f, err := h.decodeBody(input.Body, input.LayerID, view)
	if err != nil {
		return nil, err
	}
	f.ID = existing.ID
	updated, err := h.svc.Store.UpdateFeature(ctx, f)
	if err != nil {
		return nil, mapError(err)
	}
	h.svc.Crud.Bus().Publish(crud.Event{Resource: "features", Action: "updated", ID: updated.ID})

	d, err := h.detail(updated, layer, view)
	if err != nil {
		return nil, mapError(err)
	}
	return &FeatureDetailOutput{Body: d}, nil
}

func (h *FeatureHandler) DeleteFeature(ctx context.Context, input *FeatureIDInput) (*struct{ Body MessageBody }, error) {
	if _, _, err := h.featureInLayer(ctx, input.LayerID, input.ID); err != nil {
		return nil, err
	}
	if err := h.svc.Store.DeleteFeature(ctx, input.ID); err != nil {
		return nil, mapError(err)
	}
	h.svc.Crud.Bus().Publish(crud.Event{Resource: "features", Action: "deleted", ID: input.ID})
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Feature deleted"}}, nil
}

type RenderInput struct {
	ID string `path:"id" doc:"Feature ID (UUID)"`
}

func (h *FeatureHandler) RenderFeature(ctx context.Context, input *RenderInput) (*struct{ Body render.MapImagePayload }, error) {
	f, err := h.svc.Store.GetFeature(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	layer, err := h.svc.Store.GetLayer(ctx, f.LayerID)
	if err != nil {
		return nil, mapError(err)
	}
	payload, err := render.BuildMapImage(h.svc.Resolver, h.svc.Config, f, layer, h.viewFor(f.LayerID))
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body render.MapImagePayload }{Body: payload}, nil
}

type DocumentInput struct {
	RenderInput
	Template string `path:"template" doc:"Document template name"`
}

func (h *FeatureHandler) FeatureDocument(ctx context.Context, input *DocumentInput) (*struct{ Body render.DocumentContext }, error) {
	f, err := h.svc.Store.GetFeature(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	layer, err := h.svc.Store.GetLayer(ctx, f.LayerID)
	if err != nil {
		return nil, mapError(err)
	}
	view := h.viewFor(f.LayerID)

	known := false
	for _, tmpl := range view.Templates {
		if tmpl == input.Template {
			known = true
			break
		}
	}
	if !known {
		return nil, huma.Error404NotFound("template " + input.Template + " is not configured for this view")
	}

	doc, err := render.BuildDocumentContext(h.svc.Resolver, h.svc.Config, f, layer, view, input.Template)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body render.DocumentContext }{Body: doc}, nil
}

// featureInLayer fetches a feature and checks it belongs to the layer in
// the request path.
func (h *FeatureHandler) featureInLayer(ctx context.Context, layerID, id string) (geostore.Layer, geostore.Feature, error) {
	layer, err := h.svc.Store.GetLayer(ctx, layerID)
	if err != nil {
		return geostore.Layer{}, geostore.Feature{}, mapError(err)
	}
	f, err := h.svc.Store.GetFeature(ctx, id)
	if err != nil {
		return geostore.Layer{}, geostore.Feature{}, mapError(err)
	}
	if f.LayerID != layerID {
		return geostore.Layer{}, geostore.Feature{}, huma.Error404NotFound("feature " + id + " not found in layer " + layerID)
	}
	return layer, f, nil
}
