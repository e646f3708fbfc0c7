package render

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"

	"github.com/Terralego/terra.backend.crud/internal/config"
	"github.com/Terralego/terra.backend.crud/internal/crud"
	"github.com/Terralego/terra.backend.crud/internal/geostore"
	"github.com/Terralego/terra.backend.crud/internal/mapstyle"
)

func testSetup() (*mapstyle.Resolver, config.Config) {
	cfg := config.Default()
	cfg.Basemap.AccessToken = "token-123"
	return mapstyle.NewResolver(cfg), cfg
}

func TestBuildMapImagePointFeature(t *testing.T) {
	resolver, cfg := testSetup()
	layer := geostore.Layer{ID: "towns", GeomType: geostore.GeometryPoint}
	feature := geostore.Feature{Geometry: orb.Point{1.44, 43.6}}

	payload, err := BuildMapImage(resolver, cfg, feature, layer, crud.View{})
	if err != nil {
		t.Fatal(err)
	}

	if payload.Width != 1024 || payload.Height != 512 {
		t.Errorf("size = %dx%d, want configured 1024x512", payload.Width, payload.Height)
	}
	if payload.Token != "token-123" {
		t.Errorf("token = %q", payload.Token)
	}

	// point without extras: center/zoom, never bounds
	if payload.Bounds != "" {
		t.Errorf("bounds = %q, want empty", payload.Bounds)
	}
	if len(payload.Center) != 2 || payload.Zoom == 0 {
		t.Errorf("center/zoom = %v/%d, want set", payload.Center, payload.Zoom)
	}

	// the style field is a string-encoded document
	var doc map[string]any
	if err := json.Unmarshal([]byte(payload.Style), &doc); err != nil {
		t.Fatalf("style is not valid JSON: %v", err)
	}
	if doc["version"] != float64(8) {
		t.Errorf("style version = %v, want 8", doc["version"])
	}
}

func TestBuildMapImageBoundsFeature(t *testing.T) {
	resolver, cfg := testSetup()
	layer := geostore.Layer{ID: "rivers", GeomType: geostore.GeometryLineString}
	feature := geostore.Feature{Geometry: orb.LineString{{0, 0}, {2, 1}}}

	payload, err := BuildMapImage(resolver, cfg, feature, layer, crud.View{})
	if err != nil {
		t.Fatal(err)
	}
	if payload.Bounds != "0,0,2,1" {
		t.Errorf("bounds = %q, want 0,0,2,1", payload.Bounds)
	}
	if payload.Center != nil || payload.Zoom != 0 {
		t.Errorf("center/zoom = %v/%d, want unset alongside bounds", payload.Center, payload.Zoom)
	}
}

func TestBuildDocumentContext(t *testing.T) {
	resolver, cfg := testSetup()
	layer := geostore.Layer{ID: "towns", GeomType: geostore.GeometryPoint, Schema: []string{"name", "population"}}
	feature := geostore.Feature{
		ID:         "abc",
		Geometry:   orb.Point{1.44, 43.6},
		Properties: map[string]any{"name": "Toulouse", "population": 479553},
	}
	view := crud.View{
		FeatureTitleProperty: "name",
		DisplayGroups: []crud.DisplayGroup{
			{Label: "Identity", Slug: "identity", Properties: []string{"name"}},
		},
	}

	doc, err := BuildDocumentContext(resolver, cfg, feature, layer, view, "certificate")
	if err != nil {
		t.Fatal(err)
	}

	if doc.Template != "certificate" || doc.Feature != "abc" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Title != "Toulouse" {
		t.Errorf("title = %v, want Toulouse", doc.Title)
	}
	if doc.Map.Style == "" {
		t.Error("map payload missing")
	}

	encoded, err := json.Marshal(doc.Properties)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"identity":{"name":"Toulouse"},"__default__":{"population":479553}}`
	if string(encoded) != want {
		t.Errorf("properties = %s, want %s", encoded, want)
	}
}
