//go:build integration

// Integration test for the client.
// Requires a running server: go run ./cmd/geocrud
//
// Run: go test -tags=integration ./pkg/crudclient/
package crudclient_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/Terralego/terra.backend.crud/pkg/crudclient"
)

func baseURL() string {
	if u := os.Getenv("GEOCRUD_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8086"
}

func client() *crudclient.Client {
	return crudclient.New(baseURL())
}

func TestHealth(t *testing.T) {
	h, err := client().GetHealth(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != "ok" {
		t.Fatalf("status=%q, want ok", h.Status)
	}
}

func TestGroupCRUD(t *testing.T) {
	c := client()
	ctx := context.Background()

	if _, err := c.ListGroups(ctx); err != nil {
		t.Fatal("list:", err)
	}

	created, err := c.CreateGroup(ctx, crudclient.Group{Name: "Integration Test", Order: 99})
	if err != nil {
		t.Fatal("create:", err)
	}
	if created.ID == "" {
		t.Fatal("created group has empty ID")
	}

	if err := c.DeleteGroup(ctx, created.ID); err != nil {
		t.Fatal("delete:", err)
	}
}

func TestViewRoundTrip(t *testing.T) {
	c := client()
	ctx := context.Background()

	group, err := c.CreateGroup(ctx, crudclient.Group{Name: "Integration Views", Order: 98})
	if err != nil {
		t.Fatal("create group:", err)
	}
	defer c.DeleteGroup(ctx, group.ID)

	layer, err := c.CreateLayer(ctx, crudclient.Layer{
		Name:     "Integration View Towns",
		GeomType: "point",
		Schema:   []string{"name"},
	})
	if err != nil {
		t.Fatal("create layer:", err)
	}
	defer c.DeleteLayer(ctx, layer.ID)

	created, err := c.CreateView(ctx, crudclient.View{
		Name:    "Integration Towns",
		GroupID: group.ID,
		LayerID: layer.ID,
		Visible: true,
	})
	if err != nil {
		t.Fatal("create view:", err)
	}
	defer c.DeleteView(ctx, created.ID)

	got, err := c.GetView(ctx, created.ID)
	if err != nil {
		t.Fatal("get view:", err)
	}
	if got.GroupID != group.ID {
		t.Fatalf("group=%q, want %q", got.GroupID, group.ID)
	}
	if got.LayerID != layer.ID {
		t.Fatalf("layer=%q, want %q", got.LayerID, layer.ID)
	}
	if len(got.MapStyle) == 0 {
		t.Fatal("view has no resolved map style")
	}
}

func TestFeatureRoundTrip(t *testing.T) {
	c := client()
	ctx := context.Background()

	layer, err := c.CreateLayer(ctx, crudclient.Layer{
		Name:     "Integration Towns",
		GeomType: "point",
		Schema:   []string{"name", "population"},
	})
	if err != nil {
		t.Fatal("create layer:", err)
	}
	defer c.DeleteLayer(ctx, layer.ID)

	feature, err := c.CreateFeature(ctx, layer.ID, crudclient.Feature{
		Geometry:   json.RawMessage(`{"type":"Point","coordinates":[1.44,43.6]}`),
		Properties: map[string]any{"name": "Toulouse", "population": 479553},
	})
	if err != nil {
		t.Fatal("create feature:", err)
	}
	defer c.DeleteFeature(ctx, layer.ID, feature.ID)

	got, err := c.GetFeature(ctx, layer.ID, feature.ID)
	if err != nil {
		t.Fatal("get feature:", err)
	}
	if got.Properties["name"] != "Toulouse" {
		t.Fatalf("name=%v, want Toulouse", got.Properties["name"])
	}
}
