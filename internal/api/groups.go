package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Terralego/terra.backend.crud/internal/crud"
)

// GroupHandler serves the CRUD view group endpoints.
type GroupHandler struct {
	svc *Services
}

func NewGroupHandler(svc *Services) *GroupHandler {
	return &GroupHandler{svc: svc}
}

func (h *GroupHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/crud/groups", h.ListGroups, huma.OperationTags("groups"))
	huma.Post(api, "/api/crud/groups", h.CreateGroup, huma.OperationTags("groups"))
	huma.Get(api, "/api/crud/groups/{id}", h.GetGroup, huma.OperationTags("groups"))
	huma.Put(api, "/api/crud/groups/{id}", h.PutGroup, huma.OperationTags("groups"))
	huma.Delete(api, "/api/crud/groups/{id}", h.DeleteGroup, huma.OperationTags("groups"))
}

type GroupIDInput struct {
	ID string `path:"id" doc:"Group ID" example:"infrastructure"`
}

type GroupOutput struct {
	Body crud.Group
}

type GroupsOutput struct {
	Body []crud.Group
}

func (h *GroupHandler) ListGroups(ctx context.Context, input *struct{}) (*GroupsOutput, error) {
	return &GroupsOutput{Body: h.svc.Crud.ListGroups()}, nil
}

func (h *GroupHandler) CreateGroup(ctx context.Context, input *struct{ Body crud.Group }) (*GroupOutput, error) {
	created, err := h.svc.Crud.CreateGroup(input.Body)
	if err != nil {
		return nil, mapError(err)
	}
	return &GroupOutput{Body: created}, nil
}

func (h *GroupHandler) GetGroup(ctx context.Context, input *GroupIDInput) (*GroupOutput, error) {
	g, err := h.svc.Crud.GetGroup(input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &GroupOutput{Body: g}, nil
}

func (h *GroupHandler) PutGroup(ctx context.Context, input *struct {
	GroupIDInput
	Body crud.Group
}) (*GroupOutput, error) {
	updated, err := h.svc.Crud.UpdateGroup(input.ID, input.Body)
	if err != nil {
		return nil, mapError(err)
	}
	return &GroupOutput{Body: updated}, nil
}

func (h *GroupHandler) DeleteGroup(ctx context.Context, input *GroupIDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Crud.DeleteGroup(input.ID); err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Group deleted"}}, nil
}
