package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Terralego/terra.backend.crud/internal/config"
	"github.com/Terralego/terra.backend.crud/internal/crud"
)

// SettingsHandler serves the frontend bootstrap document: the navigation
// menu (groups with their visible views, plus an "Unclassified" section
// for group-less views) and the service configuration block.
type SettingsHandler struct {
	svc *Services
}

func NewSettingsHandler(svc *Services) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/crud/settings", h.GetSettings, huma.OperationTags("settings"))
}

type MenuSection struct {
	ID        string      `json:"id,omitempty" doc:"Group ID, empty for the unclassified section"`
	Name      string      `json:"name" doc:"Section label"`
	Order     int         `json:"order" doc:"Display order"`
	Pictogram string      `json:"pictogram,omitempty" doc:"Icon asset path"`
	Views     []crud.View `json:"crudViews" doc:"Views in this section"`
}

type SettingsConfig struct {
	Default              config.Config `json:"default" doc:"Service configuration"`
	AttachmentCategories string        `json:"attachmentCategories" doc:"Path of the attachment category collection"`
}

type SettingsBody struct {
	Menu   []MenuSection  `json:"menu"`
	Config SettingsConfig `json:"config"`
}

type SettingsOutput struct {
	Body SettingsBody
}

func (h *SettingsHandler) GetSettings(ctx context.Context, input *struct{}) (*SettingsOutput, error) {
	groups := h.svc.Crud.ListGroups()
	views := h.svc.Crud.ListViews()

	menu := make([]MenuSection, 0, len(groups)+1)
	for _, g := range groups {
		section := MenuSection{
			ID:        g.ID,
			Name:      g.Name,
			Order:     g.Order,
			Pictogram: g.Pictogram,
			Views:     []crud.View{},
		}
		for _, v := range views {
			if v.GroupID != g.ID || !v.Visible {
				continue
			}
			serialized, err := serializeView(ctx, h.svc, v)
			if err != nil {
				return nil, mapError(err)
			}
			section.Views = append(section.Views, serialized)
		}
		menu = append(menu, section)
	}

	unclassified := MenuSection{Name: "Unclassified", Views: []crud.View{}}
	for _, v := range views {
		if v.GroupID != "" || !v.Visible {
			continue
		}
		serialized, err := serializeView(ctx, h.svc, v)
		if err != nil {
			return nil, mapError(err)
		}
		unclassified.Views = append(unclassified.Views, serialized)
	}
	menu = append(menu, unclassified)

	return &SettingsOutput{Body: SettingsBody{
		Menu: menu,
		Config: SettingsConfig{
			Default:              h.svc.Config,
			AttachmentCategories: "/api/crud/attachment-categories",
		},
	}}, nil
}
