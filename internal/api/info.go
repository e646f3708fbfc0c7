package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// InfoHandler reports service metadata and configuration counts.
type InfoHandler struct {
	svc *Services
}

func NewInfoHandler(svc *Services) *InfoHandler {
	return &InfoHandler{svc: svc}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/crud/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name    string `json:"name" doc:"Service name"`
	Version string `json:"version" doc:"Service version"`
	Groups  int    `json:"groups" doc:"Number of configured groups"`
	Views   int    `json:"views" doc:"Number of configured views"`
	Layers  int    `json:"layers" doc:"Number of geographic layers"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	layers, err := h.svc.Store.ListLayers(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:    "terra-geocrud",
		Version: "1.0.0",
		Groups:  len(h.svc.Crud.ListGroups()),
		Views:   len(h.svc.Crud.ListViews()),
		Layers:  len(layers),
	}}, nil
}
