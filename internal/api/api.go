// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"

	"github.com/Terralego/terra.backend.crud/internal/config"
	"github.com/Terralego/terra.backend.crud/internal/crud"
	"github.com/Terralego/terra.backend.crud/internal/geostore"
	"github.com/Terralego/terra.backend.crud/internal/mapstyle"
	"github.com/Terralego/terra.backend.crud/internal/uischema"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Crud     *crud.Service
	Store    *geostore.Store
	Resolver *mapstyle.Resolver
	Config   config.Config
	Logger   *log.Logger
}

// Shared types

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// serializeView returns a copy of the view with the stored style and
// schema replaced by their effective forms: the resolved primary style
// and the display-grouped UI ordering.
func serializeView(ctx context.Context, svc *Services, v crud.View) (crud.View, error) {
	layer, err := svc.Store.GetLayer(ctx, v.LayerID)
	if err != nil {
		return crud.View{}, err
	}
	style, err := svc.Resolver.ViewStyle(v, layer)
	if err != nil {
		return crud.View{}, err
	}
	v.MapStyle = style
	v.UISchema = uischema.Grouped(v.UISchema, v.OrderedDisplayGroups())
	return v, nil
}

// mapError converts service errors to Huma status errors. Lookup
// failures map to 404, protected deletes to 409, validation to 400,
// anything else to 500.
func mapError(err error) error {
	switch {
	case errors.Is(err, crud.ErrNotFound) || errors.Is(err, geostore.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, crud.ErrProtected):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, crud.ErrInvalid):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(humaAPI huma.API, svc *Services) {
	NewGroupHandler(svc).RegisterRoutes(humaAPI)
	NewViewHandler(svc).RegisterRoutes(humaAPI)
	NewSettingsHandler(svc).RegisterRoutes(humaAPI)
	NewLayerHandler(svc).RegisterRoutes(humaAPI)
	NewFeatureHandler(svc).RegisterRoutes(humaAPI)
	NewAttachmentHandler(svc).RegisterRoutes(humaAPI)
	NewEventsHandler(svc).RegisterRoutes(humaAPI)
	NewInfoHandler(svc).RegisterRoutes(humaAPI)

	huma.Get(humaAPI, "/health", getHealth, huma.OperationTags("health"))
}

func getHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}
