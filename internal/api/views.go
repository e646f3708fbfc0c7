package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Terralego/terra.backend.crud/internal/crud"
	"github.com/Terralego/terra.backend.crud/internal/geostore"
	"github.com/Terralego/terra.backend.crud/internal/uischema"
)

// ViewHandler serves the CRUD view endpoints. View responses carry the
// effective map style (override or geometry default) and the grouped UI
// schema, both computed per request.
type ViewHandler struct {
	svc *Services
}

func NewViewHandler(svc *Services) *ViewHandler {
	return &ViewHandler{svc: svc}
}

func (h *ViewHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/crud/views", h.ListViews, huma.OperationTags("views"))
	huma.Post(api, "/api/crud/views", h.CreateView, huma.OperationTags("views"))
	huma.Get(api, "/api/crud/views/{id}", h.GetView, huma.OperationTags("views"))
	huma.Put(api, "/api/crud/views/{id}", h.PutView, huma.OperationTags("views"))
	huma.Delete(api, "/api/crud/views/{id}", h.DeleteView, huma.OperationTags("views"))

	huma.Get(api, "/api/crud/views/{id}/display-groups", h.ListDisplayGroups, huma.OperationTags("views"))
	huma.Post(api, "/api/crud/views/{id}/display-groups", h.CreateDisplayGroup, huma.OperationTags("views"))
	huma.Put(api, "/api/crud/views/{id}/display-groups/{slug}", h.PutDisplayGroup, huma.OperationTags("views"))
	huma.Delete(api, "/api/crud/views/{id}/display-groups/{slug}", h.DeleteDisplayGroup, huma.OperationTags("views"))

	huma.Put(api, "/api/crud/views/{id}/renderings/{property}", h.PutRendering, huma.OperationTags("views"))
	huma.Delete(api, "/api/crud/views/{id}/renderings/{property}", h.DeleteRendering, huma.OperationTags("views"))

	huma.Put(api, "/api/crud/views/{id}/extra-styles/{extra}", h.PutExtraStyle, huma.OperationTags("views"))
	huma.Delete(api, "/api/crud/views/{id}/extra-styles/{extra}", h.DeleteExtraStyle, huma.OperationTags("views"))
}

type ViewIDInput struct {
	ID string `path:"id" doc:"View ID" example:"towns"`
}

type ViewOutput struct {
	Body crud.View
}

type ViewsOutput struct {
	Body []crud.View
}

func (h *ViewHandler) layerFor(ctx context.Context, v crud.View) (geostore.Layer, error) {
	return h.svc.Store.GetLayer(ctx, v.LayerID)
}

func (h *ViewHandler) ListViews(ctx context.Context, input *struct{}) (*ViewsOutput, error) {
	views := h.svc.Crud.ListViews()
	out := make([]crud.View, 0, len(views))
	for _, v := range views {
		serialized, err := serializeView(ctx, h.svc, v)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, serialized)
	}
	return &ViewsOutput{Body: out}, nil
}

func (h *ViewHandler) CreateView(ctx context.Context, input *struct{ Body crud.View }) (*ViewOutput, error) {
	layer, err := h.svc.Store.GetLayer(ctx, input.Body.LayerID)
	if err != nil {
		return nil, mapError(err)
	}
	created, err := h.svc.Crud.CreateView(input.Body, layer)
	if err != nil {
		return nil, mapError(err)
	}
	serialized, err := serializeView(ctx, h.svc, created)
	if err != nil {
		return nil, mapError(err)
	}
	return &ViewOutput{Body: serialized}, nil
}

func (h *ViewHandler) GetView(ctx context.Context, input *ViewIDInput) (*ViewOutput, error) {
	v, err := h.svc.Crud.GetView(input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	serialized, err := serializeView(ctx, h.svc, v)
	if err != nil {
		return nil, mapError(err)
	}
	return &ViewOutput{Body: serialized}, nil
}

func (h *ViewHandler) PutView(ctx context.Context, input *struct {
	ViewIDInput
	Body crud.View
}) (*ViewOutput, error) {
	existing, err := h.svc.Crud.GetView(input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	layer, err := h.layerFor(ctx, existing)
	if err != nil {
		return nil, mapError(err)
	}
	updated, err := h.svc.Crud.UpdateView(input.ID, input.Body, layer)
	if err != nil {
		return nil, mapError(err)
	}
	serialized, err := serializeView(ctx, h.svc, updated)
	if err != nil {
		return nil, mapError(err)
	}
	return &ViewOutput{Body: serialized}, nil
}

func (h *ViewHandler) DeleteView(ctx context.Context, input *ViewIDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Crud.DeleteView(input.ID); err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "View deleted"}}, nil
}

// Display groups

type DisplayGroupSlugInput struct {
	ViewIDInput
	Slug string `path:"slug" doc:"Display group slug"`
}

type DisplayGroupOutput struct {
	Body crud.DisplayGroup
}

func (h *ViewHandler) ListDisplayGroups(ctx context.Context, input *ViewIDInput) (*struct{ Body []crud.DisplayGroup }, error) {
	v, err := h.svc.Crud.GetView(input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body []crud.DisplayGroup }{Body: v.OrderedDisplayGroups()}, nil
}

func (h *ViewHandler) CreateDisplayGroup(ctx context.Context, input *struct {
	ViewIDInput
	Body crud.DisplayGroup
}) (*DisplayGroupOutput, error) {
	v, err := h.svc.Crud.GetView(input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	layer, err := h.layerFor(ctx, v)
	if err != nil {
		return nil, mapError(err)
	}
	created, err := h.svc.Crud.AddDisplayGroup(input.ID, input.Body, layer)
	if err != nil {
		return nil, mapError(err)
	}
	return &DisplayGroupOutput{Body: created}, nil
}

func (h *ViewHandler) PutDisplayGroup(ctx context.Context, input *struct {
	DisplayGroupSlugInput
	Body crud.DisplayGroup
}) (*DisplayGroupOutput, error) {
	v, err := h.svc.Crud.GetView(input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	layer, err := h.layerFor(ctx, v)
	if err != nil {
		return nil, mapError(err)
	}
	updated, err := h.svc.Crud.UpdateDisplayGroup(input.ID, input.Slug, input.Body, layer)
	if err != nil {
		return nil, mapError(err)
	}
	return &DisplayGroupOutput{Body: updated}, nil
}

func (h *ViewHandler) DeleteDisplayGroup(ctx context.Context, input *DisplayGroupSlugInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Crud.DeleteDisplayGroup(input.ID, input.Slug); err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Display group deleted"}}, nil
}

// Property renderings

type RenderingInput struct {
	ViewIDInput
	Property string `path:"property" doc:"Property name"`
}

func (h *ViewHandler) PutRendering(ctx context.Context, input *struct {
	RenderingInput
	Body crud.PropertyRendering
}) (*struct{ Body crud.PropertyRendering }, error) {
	v, err := h.svc.Crud.GetView(input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	layer, err := h.layerFor(ctx, v)
	if err != nil {
		return nil, mapError(err)
	}
	r := input.Body
	r.Property = input.Property
	if !uischema.HasWidget(r.Widget) {
		return nil, huma.Error400BadRequest("unknown rendering widget " + r.Widget)
	}
	set, err := h.svc.Crud.SetPropertyRendering(input.ID, r, layer)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body crud.PropertyRendering }{Body: set}, nil
}

func (h *ViewHandler) DeleteRendering(ctx context.Context, input *RenderingInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Crud.DeletePropertyRendering(input.ID, input.Property); err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Rendering deleted"}}, nil
}

// Extra layer styles

type ExtraStyleInput struct {
	ViewIDInput
	Extra string `path:"extra" doc:"Extra geometry definition name"`
}

func (h *ViewHandler) PutExtraStyle(ctx context.Context, input *struct {
	ExtraStyleInput
	Body crud.ExtraLayerStyle
}) (*struct{ Body crud.ExtraLayerStyle }, error) {
	v, err := h.svc.Crud.GetView(input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	layer, err := h.layerFor(ctx, v)
	if err != nil {
		return nil, mapError(err)
	}
	style := input.Body
	style.ExtraGeometry = input.Extra
	set, err := h.svc.Crud.SetExtraLayerStyle(input.ID, style, layer)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body crud.ExtraLayerStyle }{Body: set}, nil
}

func (h *ViewHandler) DeleteExtraStyle(ctx context.Context, input *ExtraStyleInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Crud.DeleteExtraLayerStyle(input.ID, input.Extra); err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Extra layer style deleted"}}, nil
}
