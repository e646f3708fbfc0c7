package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/Terralego/terra.backend.crud/internal/config"
	"github.com/Terralego/terra.backend.crud/internal/crud"
	"github.com/Terralego/terra.backend.crud/internal/geostore"
	"github.com/Terralego/terra.backend.crud/internal/mapstyle"
)

func newTestAPI(t *testing.T) humatest.TestAPI {
	t.Helper()

	conn, err := geostore.OpenDB(geostore.DBConfig{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	store := geostore.NewStore(conn)
	if err := store.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	logger := log.New(io.Discard)
	svc := &Services{
		Crud:     crud.NewService(t.TempDir(), crud.NewEventBus(), logger),
		Store:    store,
		Resolver: mapstyle.NewResolver(cfg),
		Config:   cfg,
		Logger:   logger,
	}

	_, api := humatest.New(t)
	RegisterRoutes(api, svc)
	return api
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func decode(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decoding %s: %v", data, err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestGroupEndpoints(t *testing.T) {
	api := newTestAPI(t)

	resp := api.Post("/api/crud/groups", map[string]any{"name": "Infrastructure", "order": 1})
	if resp.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", resp.Code, resp.Body)
	}

	resp = api.Get("/api/crud/groups/infrastructure")
	if resp.Code != http.StatusOK {
		t.Fatalf("get status = %d", resp.Code)
	}

	resp = api.Get("/api/crud/groups/nope")
	if resp.Code != http.StatusNotFound {
		t.Errorf("missing group status = %d, want 404", resp.Code)
	}

	resp = api.Post("/api/crud/groups", map[string]any{"name": "Infrastructure"})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("duplicate name status = %d, want 400", resp.Code)
	}
}

func TestViewResponseCarriesResolvedStyle(t *testing.T) {
	api := newTestAPI(t)

	resp := api.Post("/api/crud/layers", map[string]any{
		"name":     "Towns",
		"geomType": "point",
		"schema":   []string{"name"},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("create layer status = %d: %s", resp.Code, resp.Body)
	}

	resp = api.Post("/api/crud/views", map[string]any{
		"name":  "Towns",
		"layer": "towns",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("create view status = %d: %s", resp.Code, resp.Body)
	}
	// no override configured, so the response carries the point default
	body := resp.Body.String()
	if !contains(body, `"circle"`) {
		t.Errorf("view response lacks resolved default style: %s", body)
	}
}

func TestViewLayerImmutableOverAPI(t *testing.T) {
	api := newTestAPI(t)

	api.Post("/api/crud/layers", map[string]any{"name": "Towns", "geomType": "point"})
	api.Post("/api/crud/layers", map[string]any{"name": "Rivers", "geomType": "linestring"})
	api.Post("/api/crud/views", map[string]any{"name": "Towns", "layer": "towns"})

	resp := api.Put("/api/crud/views/towns", map[string]any{"name": "Towns", "layer": "rivers"})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("layer change status = %d, want 400", resp.Code)
	}
}

func TestFeatureGroupedPropertiesFlow(t *testing.T) {
	api := newTestAPI(t)

	api.Post("/api/crud/layers", map[string]any{
		"name":     "Towns",
		"geomType": "point",
		"schema":   []string{"name", "age", "country"},
	})
	api.Post("/api/crud/views", map[string]any{
		"name":  "Towns",
		"layer": "towns",
		"displayGroups": []map[string]any{
			{"label": "Identity", "properties": []string{"name", "age"}},
		},
	})

	// submit properties in the grouped shape
	resp := api.Post("/api/crud/layers/towns/features", map[string]any{
		"geometry": map[string]any{"type": "Point", "coordinates": []float64{1.44, 43.6}},
		"properties": map[string]any{
			"identity": map[string]any{"name": "Toulouse", "age": 2000},
			"country":  "France",
		},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("create feature status = %d: %s", resp.Code, resp.Body)
	}

	body := resp.Body.String()
	// the read shape groups again and carries the ordered display form
	if !contains(body, `"identity"`) || !contains(body, `"__default__"`) {
		t.Errorf("feature detail missing grouped shapes: %s", body)
	}
	if !contains(body, `"Toulouse"`) || !contains(body, `"France"`) {
		t.Errorf("feature detail lost properties: %s", body)
	}
}

func TestRenderEndpoint(t *testing.T) {
	api := newTestAPI(t)

	api.Post("/api/crud/layers", map[string]any{"name": "Towns", "geomType": "point"})
	resp := api.Post("/api/crud/layers/towns/features", map[string]any{
		"geometry": map[string]any{"type": "Point", "coordinates": []float64{1.44, 43.6}},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("create feature status = %d: %s", resp.Code, resp.Body)
	}

	var created struct {
		ID string `json:"id"`
	}
	decode(t, resp.Body.Bytes(), &created)

	resp = api.Get("/api/crud/features/" + created.ID + "/render")
	if resp.Code != http.StatusOK {
		t.Fatalf("render status = %d: %s", resp.Code, resp.Body)
	}
	body := resp.Body.String()
	if !contains(body, `"style"`) || !contains(body, `"center"`) {
		t.Errorf("render payload = %s", body)
	}

	resp = api.Get("/api/crud/features/missing/render")
	if resp.Code != http.StatusNotFound {
		t.Errorf("missing feature status = %d, want 404", resp.Code)
	}
}

func TestSettingsMenu(t *testing.T) {
	api := newTestAPI(t)

	api.Post("/api/crud/groups", map[string]any{"name": "Infrastructure"})
	api.Post("/api/crud/layers", map[string]any{"name": "Towns", "geomType": "point"})
	api.Post("/api/crud/views", map[string]any{
		"name":    "Towns",
		"layer":   "towns",
		"group":   "infrastructure",
		"visible": true,
	})

	resp := api.Get("/api/crud/settings")
	if resp.Code != http.StatusOK {
		t.Fatalf("settings status = %d", resp.Code)
	}
	body := resp.Body.String()
	if !contains(body, `"Infrastructure"`) || !contains(body, `"Unclassified"`) {
		t.Errorf("settings menu = %s", body)
	}
}
