package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Terralego/terra.backend.crud/internal/geostore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(t.TempDir(), nil, nil)
}

var testLayer = geostore.Layer{
	ID:       "towns",
	Name:     "Towns",
	GeomType: geostore.GeometryPoint,
	Schema:   []string{"name", "age", "country"},
	ExtraGeometries: []geostore.ExtraGeometryDefinition{
		{Name: "buffer", GeomType: geostore.GeometryPolygon},
	},
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Identity", "identity"},
		{"Base Informations", "base-informations"},
		{"  Trimmed  ", "trimmed"},
		{"Mixed CASE & punctuation!", "mixed-case-punctuation"},
		{"déjà vu", "d-j-vu"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}

func TestGroupCRUD(t *testing.T) {
	s := newTestService(t)

	created, err := s.CreateGroup(Group{Name: "Infrastructure", Order: 2})
	require.NoError(t, err)
	assert.Equal(t, "infrastructure", created.ID)

	got, err := s.GetGroup("infrastructure")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = s.CreateGroup(Group{Name: "Infrastructure"})
	assert.ErrorIs(t, err, ErrInvalid, "duplicate name must be rejected")

	updated, err := s.UpdateGroup("infrastructure", Group{Name: "Networks", Order: 1})
	require.NoError(t, err)
	assert.Equal(t, "infrastructure", updated.ID, "update keeps the ID")
	assert.Equal(t, "Networks", updated.Name)

	require.NoError(t, s.DeleteGroup("infrastructure"))
	_, err = s.GetGroup("infrastructure")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListGroupsSorted(t *testing.T) {
	s := newTestService(t)
	for _, g := range []Group{
		{Name: "Bravo", Order: 1},
		{Name: "Alpha", Order: 1},
		{Name: "Zulu", Order: 0},
	} {
		_, err := s.CreateGroup(g)
		require.NoError(t, err)
	}

	names := []string{}
	for _, g := range s.ListGroups() {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Zulu", "Alpha", "Bravo"}, names)
}

func TestDeleteGroupProtected(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateGroup(Group{Name: "Infrastructure"})
	require.NoError(t, err)

	_, err = s.CreateView(View{Name: "Towns", GroupID: "infrastructure"}, testLayer)
	require.NoError(t, err)

	err = s.DeleteGroup("infrastructure")
	assert.ErrorIs(t, err, ErrProtected)

	// once the referencing view is gone, the delete goes through
	require.NoError(t, s.DeleteView("towns"))
	assert.NoError(t, s.DeleteGroup("infrastructure"))
}

func TestCreateView(t *testing.T) {
	s := newTestService(t)

	created, err := s.CreateView(View{Name: "Towns"}, testLayer)
	require.NoError(t, err)
	assert.Equal(t, "towns", created.ID, "ID slugified from name")
	assert.Equal(t, "towns", created.LayerID, "layer bound from the given layer")

	_, err = s.CreateView(View{Name: "Towns again"}, testLayer)
	assert.ErrorIs(t, err, ErrInvalid, "one view per layer")
}

func TestCreateViewValidation(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name string
		view View
	}{
		{"unknown group", View{Name: "V", GroupID: "nope"}},
		{"unknown list property", View{Name: "V", DefaultListProperties: []string{"altitude"}}},
		{"unknown title property", View{Name: "V", FeatureTitleProperty: "altitude"}},
		{"display group with undeclared property", View{Name: "V", DisplayGroups: []DisplayGroup{
			{Label: "Identity", Properties: []string{"altitude"}},
		}}},
		{"duplicate display group slugs", View{Name: "V", DisplayGroups: []DisplayGroup{
			{Label: "Identity", Properties: []string{"name"}},
			{Label: "identity", Properties: []string{"age"}},
		}}},
		{"rendering for undeclared property", View{Name: "V", PropertyRenderings: []PropertyRendering{
			{Property: "altitude", Widget: "date"},
		}}},
		{"extra style for unknown extra geometry", View{Name: "V", ExtraLayerStyles: []ExtraLayerStyle{
			{ExtraGeometry: "halo"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateView(tt.view, testLayer)
			assert.Error(t, err)
		})
	}
}

func TestUpdateViewLayerImmutable(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateView(View{Name: "Towns"}, testLayer)
	require.NoError(t, err)

	otherLayer := geostore.Layer{ID: "rivers", Name: "Rivers", GeomType: geostore.GeometryLineString}
	_, err = s.UpdateView("towns", View{Name: "Towns", LayerID: "rivers"}, otherLayer)
	assert.ErrorIs(t, err, ErrInvalid)

	// updating everything else is fine; an empty layer ID keeps the binding
	updated, err := s.UpdateView("towns", View{Name: "Renamed", Order: 5}, testLayer)
	require.NoError(t, err)
	assert.Equal(t, "towns", updated.LayerID)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestDeleteViewCascades(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateView(View{
		Name: "Towns",
		DisplayGroups: []DisplayGroup{
			{Label: "Identity", Properties: []string{"name"}},
		},
	}, testLayer)
	require.NoError(t, err)

	require.NoError(t, s.DeleteView("towns"))
	_, err = s.GetView("towns")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewForLayer(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateView(View{Name: "Towns"}, testLayer)
	require.NoError(t, err)

	v, ok := s.ViewForLayer("towns")
	assert.True(t, ok)
	assert.Equal(t, "towns", v.ID)

	_, ok = s.ViewForLayer("rivers")
	assert.False(t, ok)
}

func TestDisplayGroupLifecycle(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateView(View{Name: "Towns"}, testLayer)
	require.NoError(t, err)

	dg, err := s.AddDisplayGroup("towns", DisplayGroup{Label: "Base Informations", Properties: []string{"name"}}, testLayer)
	require.NoError(t, err)
	assert.Equal(t, "base-informations", dg.Slug)

	_, err = s.AddDisplayGroup("towns", DisplayGroup{Label: "Other", Properties: []string{"altitude"}}, testLayer)
	assert.Error(t, err, "properties must be a subset of the layer schema")

	updated, err := s.UpdateDisplayGroup("towns", "base-informations", DisplayGroup{Label: "Base Informations", Properties: []string{"name", "age"}}, testLayer)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, updated.Properties)

	require.NoError(t, s.DeleteDisplayGroup("towns", "base-informations"))
	v, err := s.GetView("towns")
	require.NoError(t, err)
	assert.Empty(t, v.DisplayGroups)
}

func TestDeleteDisplayGroupKeepsSnapshots(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateView(View{Name: "Towns"}, testLayer)
	require.NoError(t, err)

	_, err = s.AddDisplayGroup("towns", DisplayGroup{Label: "Identity", Properties: []string{"name"}}, testLayer)
	require.NoError(t, err)
	_, err = s.AddDisplayGroup("towns", DisplayGroup{Label: "Details", Properties: []string{"age"}}, testLayer)
	require.NoError(t, err)
	_, err = s.AddDisplayGroup("towns", DisplayGroup{Label: "Origin", Properties: []string{"country"}}, testLayer)
	require.NoError(t, err)

	// A view returned earlier must not change under a later delete.
	before, err := s.GetView("towns")
	require.NoError(t, err)

	require.NoError(t, s.DeleteDisplayGroup("towns", "identity"))

	require.Len(t, before.DisplayGroups, 3)
	assert.Equal(t, "identity", before.DisplayGroups[0].Slug)
	assert.Equal(t, "details", before.DisplayGroups[1].Slug)
	assert.Equal(t, "origin", before.DisplayGroups[2].Slug)

	after, err := s.GetView("towns")
	require.NoError(t, err)
	require.Len(t, after.DisplayGroups, 2)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	s := NewService(dir, nil, nil)
	_, err := s.CreateGroup(Group{Name: "Infrastructure"})
	require.NoError(t, err)
	_, err = s.CreateView(View{Name: "Towns", GroupID: "infrastructure"}, testLayer)
	require.NoError(t, err)

	reloaded := NewService(dir, nil, nil)
	g, err := reloaded.GetGroup("infrastructure")
	require.NoError(t, err)
	assert.Equal(t, "Infrastructure", g.Name)
	v, err := reloaded.GetView("towns")
	require.NoError(t, err)
	assert.Equal(t, "infrastructure", v.GroupID)
}

func TestMutationsPublishEvents(t *testing.T) {
	s := newTestService(t)
	ch := s.Bus().Subscribe()
	defer s.Bus().Unsubscribe(ch)

	_, err := s.CreateGroup(Group{Name: "Infrastructure"})
	require.NoError(t, err)

	e := <-ch
	assert.Equal(t, "groups", e.Resource)
	assert.Equal(t, "created", e.Action)
	assert.Equal(t, "infrastructure", e.ID)
}
