package geostore

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenDB(DBConfig{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewStore(db)
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func testStoreLayer() Layer {
	return Layer{
		Name:     "Test Towns",
		GeomType: GeometryPoint,
		Schema:   []string{"name", "population"},
		ExtraGeometries: []ExtraGeometryDefinition{
			{Name: "buffer", GeomType: GeometryPolygon},
		},
	}
}

func TestLayerCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateLayer(ctx, testStoreLayer())
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "test_towns" {
		t.Errorf("ID = %q, want derived test_towns", created.ID)
	}

	got, err := s.GetLayer(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Test Towns" || got.GeomType != GeometryPoint {
		t.Errorf("got = %+v", got)
	}
	if len(got.Schema) != 2 || got.Schema[0] != "name" {
		t.Errorf("schema = %v", got.Schema)
	}
	if len(got.ExtraGeometries) != 1 || got.ExtraGeometries[0].Name != "buffer" {
		t.Errorf("extra geometries = %v", got.ExtraGeometries)
	}

	if _, err := s.CreateLayer(ctx, testStoreLayer()); err == nil {
		t.Error("expected error for duplicate layer ID")
	}

	layers, err := s.ListLayers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(layers) != 1 {
		t.Errorf("layer count = %d, want 1", len(layers))
	}

	if err := s.DeleteLayer(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetLayer(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete, err = %v, want ErrNotFound", err)
	}
}

func TestCreateLayerInvalidGeometryType(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateLayer(context.Background(), Layer{Name: "Bad", GeomType: "hexagon"})
	if err == nil {
		t.Error("expected error for invalid geometry type")
	}
}

func TestFeatureCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	layer, err := s.CreateLayer(ctx, testStoreLayer())
	if err != nil {
		t.Fatal(err)
	}

	created, err := s.CreateFeature(ctx, Feature{
		LayerID:    layer.ID,
		Geometry:   orb.Point{1.44, 43.6},
		Properties: map[string]any{"name": "Toulouse", "population": 479553.0},
		ExtraGeometries: []ExtraGeometry{
			{Definition: "buffer", Geometry: orb.Polygon{{{1, 43}, {2, 43}, {2, 44}, {1, 43}}}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("created feature has no ID")
	}

	got, err := s.GetFeature(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	point, ok := got.Geometry.(orb.Point)
	if !ok || point[0] != 1.44 || point[1] != 43.6 {
		t.Errorf("geometry = %v", got.Geometry)
	}
	if got.Properties["name"] != "Toulouse" {
		t.Errorf("properties = %v", got.Properties)
	}
	if len(got.ExtraGeometries) != 1 || got.ExtraGeometries[0].Definition != "buffer" {
		t.Errorf("extra geometries = %v", got.ExtraGeometries)
	}

	// update replaces geometry, properties and extras together
	updated := got
	updated.Geometry = orb.Point{2, 44}
	updated.Properties = map[string]any{"name": "Elsewhere"}
	updated.ExtraGeometries = nil
	if _, err := s.UpdateFeature(ctx, updated); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetFeature(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Properties["name"] != "Elsewhere" {
		t.Errorf("after update, properties = %v", got.Properties)
	}
	if len(got.ExtraGeometries) != 0 {
		t.Errorf("after update, extra geometries = %v, want removed", got.ExtraGeometries)
	}

	features, err := s.ListFeatures(ctx, layer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != 1 {
		t.Errorf("feature count = %d, want 1", len(features))
	}

	if err := s.DeleteFeature(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetFeature(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete, err = %v, want ErrNotFound", err)
	}
}

func TestCreateFeatureUndeclaredExtraGeometry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	layer, err := s.CreateLayer(ctx, testStoreLayer())
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.CreateFeature(ctx, Feature{
		LayerID:  layer.ID,
		Geometry: orb.Point{0, 0},
		ExtraGeometries: []ExtraGeometry{
			{Definition: "ghost", Geometry: orb.Point{1, 1}},
		},
	})
	if err == nil {
		t.Fatal("expected error for undeclared extra geometry")
	}

	// the failed create must not leave a partial feature behind
	features, err := s.ListFeatures(ctx, layer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != 0 {
		t.Errorf("feature count after failed create = %d, want 0", len(features))
	}
}

func TestDeleteLayerCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	layer, err := s.CreateLayer(ctx, testStoreLayer())
	if err != nil {
		t.Fatal(err)
	}
	f, err := s.CreateFeature(ctx, Feature{
		LayerID:  layer.ID,
		Geometry: orb.Point{0, 0},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteLayer(ctx, layer.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetFeature(ctx, f.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("feature should be gone with its layer, err = %v", err)
	}
}

func TestAttachmentsAndPictures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	layer, err := s.CreateLayer(ctx, testStoreLayer())
	if err != nil {
		t.Fatal(err)
	}
	f, err := s.CreateFeature(ctx, Feature{LayerID: layer.ID, Geometry: orb.Point{0, 0}})
	if err != nil {
		t.Fatal(err)
	}

	a, err := s.AddAttachment(ctx, Attachment{Feature: f.ID, Legend: "Plan", File: "plan.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.AddPicture(ctx, Picture{Feature: f.ID, Legend: "Front", File: "front.jpg"})
	if err != nil {
		t.Fatal(err)
	}

	// kinds stay separate
	attachments, err := s.ListAttachments(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(attachments) != 1 || attachments[0].File != "plan.pdf" {
		t.Errorf("attachments = %v", attachments)
	}
	pictures, err := s.ListPictures(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pictures) != 1 || pictures[0].File != "front.jpg" {
		t.Errorf("pictures = %v", pictures)
	}

	if err := s.DeleteAttachment(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePicture(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	attachments, _ = s.ListAttachments(ctx, f.ID)
	if len(attachments) != 0 {
		t.Errorf("attachments after delete = %v", attachments)
	}
}
