package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Terralego/terra.backend.crud/internal/geostore"
)

// LayerHandler serves the geographic layer endpoints.
type LayerHandler struct {
	svc *Services
}

func NewLayerHandler(svc *Services) *LayerHandler {
	return &LayerHandler{svc: svc}
}

func (h *LayerHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/crud/layers", h.ListLayers, huma.OperationTags("layers"))
	huma.Post(api, "/api/crud/layers", h.CreateLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/crud/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Delete(api, "/api/crud/layers/{id}", h.DeleteLayer, huma.OperationTags("layers"))
}

type LayerIDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"towns"`
}

type LayerOutput struct {
	Body geostore.Layer
}

func (h *LayerHandler) ListLayers(ctx context.Context, input *struct{}) (*struct{ Body []geostore.Layer }, error) {
	layers, err := h.svc.Store.ListLayers(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body []geostore.Layer }{Body: layers}, nil
}

func (h *LayerHandler) CreateLayer(ctx context.Context, input *struct{ Body geostore.Layer }) (*LayerOutput, error) {
	created, err := h.svc.Store.CreateLayer(ctx, input.Body)
	if err != nil {
		return nil, mapError(err)
	}
	return &LayerOutput{Body: created}, nil
}

func (h *LayerHandler) GetLayer(ctx context.Context, input *LayerIDInput) (*LayerOutput, error) {
	layer, err := h.svc.Store.GetLayer(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &LayerOutput{Body: layer}, nil
}

func (h *LayerHandler) DeleteLayer(ctx context.Context, input *LayerIDInput) (*struct{ Body MessageBody }, error) {
	if _, ok := h.svc.Crud.ViewForLayer(input.ID); ok {
		return nil, huma.Error409Conflict("layer " + input.ID + " is referenced by a view")
	}
	if err := h.svc.Store.DeleteLayer(ctx, input.ID); err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Layer deleted"}}, nil
}
