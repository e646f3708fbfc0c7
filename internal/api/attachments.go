package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Terralego/terra.backend.crud/internal/crud"
	"github.com/Terralego/terra.backend.crud/internal/geostore"
)

// AttachmentHandler serves feature attachments and pictures, plus the
// attachment category collection.
type AttachmentHandler struct {
	svc *Services
}

func NewAttachmentHandler(svc *Services) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

func (h *AttachmentHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/crud/features/{id}/attachments", h.ListAttachments, huma.OperationTags("attachments"))
	huma.Post(api, "/api/crud/features/{id}/attachments", h.AddAttachment, huma.OperationTags("attachments"))
	huma.Delete(api, "/api/crud/features/{id}/attachments/{attachmentId}", h.DeleteAttachment, huma.OperationTags("attachments"))

	huma.Get(api, "/api/crud/features/{id}/pictures", h.ListPictures, huma.OperationTags("attachments"))
	huma.Post(api, "/api/crud/features/{id}/pictures", h.AddPicture, huma.OperationTags("attachments"))
	huma.Delete(api, "/api/crud/features/{id}/pictures/{pictureId}", h.DeletePicture, huma.OperationTags("attachments"))

	huma.Get(api, "/api/crud/attachment-categories", h.ListCategories, huma.OperationTags("attachments"))
	huma.Post(api, "/api/crud/attachment-categories", h.CreateCategory, huma.OperationTags("attachments"))
	huma.Get(api, "/api/crud/attachment-categories/{id}", h.GetCategory, huma.OperationTags("attachments"))
	huma.Put(api, "/api/crud/attachment-categories/{id}", h.PutCategory, huma.OperationTags("attachments"))
	huma.Delete(api, "/api/crud/attachment-categories/{id}", h.DeleteCategory, huma.OperationTags("attachments"))
}

type FeatureRefInput struct {
	ID string `path:"id" doc:"Feature ID (UUID)"`
}

func (h *AttachmentHandler) featureExists(ctx context.Context, id string) error {
	if _, err := h.svc.Store.GetFeature(ctx, id); err != nil {
		return mapError(err)
	}
	return nil
}

// validateCategory rejects unknown category references. Empty means
// uncategorized.
func (h *AttachmentHandler) validateCategory(id string) error {
	if id == "" {
		return nil
	}
	if _, err := h.svc.Crud.GetCategory(id); err != nil {
		return huma.Error400BadRequest("unknown attachment category " + id)
	}
	return nil
}

func (h *AttachmentHandler) ListAttachments(ctx context.Context, input *FeatureRefInput) (*struct{ Body []geostore.Attachment }, error) {
	if err := h.featureExists(ctx, input.ID); err != nil {
		return nil, err
	}
	attachments, err := h.svc.Store.ListAttachments(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body []geostore.Attachment }{Body: attachments}, nil
}

func (h *AttachmentHandler) AddAttachment(ctx context.Context, input *struct {
	FeatureRefInput
	Body geostore.Attachment
}) (*struct{ Body geostore.Attachment }, error) {
	if err := h.featureExists(ctx, input.ID); err != nil {
		return nil, err
	}
	if err := h.validateCategory(input.Body.Category); err != nil {
		return nil, err
	}
	a := input.Body
	a.Feature = input.ID
	created, err := h.svc.Store.AddAttachment(ctx, a)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body geostore.Attachment }{Body: created}, nil
}

func (h *AttachmentHandler) DeleteAttachment(ctx context.Context, input *struct {
	FeatureRefInput
	AttachmentID string `path:"attachmentId" doc:"Attachment ID"`
}) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Store.DeleteAttachment(ctx, input.AttachmentID); err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Attachment deleted"}}, nil
}

func (h *AttachmentHandler) ListPictures(ctx context.Context, input *FeatureRefInput) (*struct{ Body []geostore.Picture }, error) {
	if err := h.featureExists(ctx, input.ID); err != nil {
		return nil, err
	}
	pictures, err := h.svc.Store.ListPictures(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body []geostore.Picture }{Body: pictures}, nil
}

func (h *AttachmentHandler) AddPicture(ctx context.Context, input *struct {
	FeatureRefInput
	Body geostore.Picture
}) (*struct{ Body geostore.Picture }, error) {
	if err := h.featureExists(ctx, input.ID); err != nil {
		return nil, err
	}
	if err := h.validateCategory(input.Body.Category); err != nil {
		return nil, err
	}
	p := input.Body
	p.Feature = input.ID
	created, err := h.svc.Store.AddPicture(ctx, p)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body geostore.Picture }{Body: created}, nil
}

func (h *AttachmentHandler) DeletePicture(ctx context.Context, input *struct {
	FeatureRefInput
	PictureID string `path:"pictureId" doc:"Picture ID"`
}) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Store.DeletePicture(ctx, input.PictureID); err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Picture deleted"}}, nil
}

// Categories

type CategoryIDInput struct {
	ID string `path:"id" doc:"Category ID"`
}

func (h *AttachmentHandler) ListCategories(ctx context.Context, input *struct{}) (*struct{ Body []crud.AttachmentCategory }, error) {
	return &struct{ Body []crud.AttachmentCategory }{Body: h.svc.Crud.ListCategories()}, nil
}

func (h *AttachmentHandler) CreateCategory(ctx context.Context, input *struct{ Body crud.AttachmentCategory }) (*struct{ Body crud.AttachmentCategory }, error) {
	created, err := h.svc.Crud.CreateCategory(input.Body)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body crud.AttachmentCategory }{Body: created}, nil
}

func (h *AttachmentHandler) GetCategory(ctx context.Context, input *CategoryIDInput) (*struct{ Body crud.AttachmentCategory }, error) {
	c, err := h.svc.Crud.GetCategory(input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body crud.AttachmentCategory }{Body: c}, nil
}

func (h *AttachmentHandler) PutCategory(ctx context.Context, input *struct {
	CategoryIDInput
	Body crud.AttachmentCategory
}) (*struct{ Body crud.AttachmentCategory }, error) {
	updated, err := h.svc.Crud.UpdateCategory(input.ID, input.Body)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body crud.AttachmentCategory }{Body: updated}, nil
}

func (h *AttachmentHandler) DeleteCategory(ctx context.Context, input *CategoryIDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Crud.DeleteCategory(input.ID); err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Category deleted"}}, nil
}
