package crud

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Terralego/terra.backend.crud/internal/geostore"
)

// state is the persisted configuration: all collections in one document.
type state struct {
	Groups     map[string]Group              `json:"groups"`
	Views      map[string]View               `json:"views"`
	Categories map[string]AttachmentCategory `json:"attachmentCategories"`
}

func newState() state {
	return state{
		Groups:     make(map[string]Group),
		Views:      make(map[string]View),
		Categories: make(map[string]AttachmentCategory),
	}
}

// Service manages the CRUD view configuration. All reads and writes go
// through one mutex; mutations are persisted to disk and published on the
// event bus.
type Service struct {
	dataDir string
	mu      sync.RWMutex
	state   state
	bus     *EventBus
	logger  *log.Logger
}

// NewService creates a configuration service persisting under dataDir.
func NewService(dataDir string, bus *EventBus, logger *log.Logger) *Service {
	if bus == nil {
		bus = NewEventBus()
	}
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	s := &Service{
		dataDir: dataDir,
		state:   newState(),
		bus:     bus,
		logger:  logger,
	}
	s.loadFromDisk()
	return s
}

// Bus returns the event bus mutations are published on.
func (s *Service) Bus() *EventBus {
	return s.bus
}

// Groups

// CreateGroup adds a new group. The ID is derived from the name if empty.
func (s *Service) CreateGroup(g Group) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = Slugify(g.Name)
	}
	if g.Order < 0 {
		return Group{}, fmt.Errorf("%w: group order must be non-negative", ErrInvalid)
	}
	if _, exists := s.state.Groups[g.ID]; exists {
		return Group{}, fmt.Errorf("group with ID %q already exists", g.ID)
	}
	for _, other := range s.state.Groups {
		if other.Name == g.Name {
			return Group{}, fmt.Errorf("%w: group name %q already in use", ErrInvalid, g.Name)
		}
	}

	s.state.Groups[g.ID] = g
	if err := s.saveToDisk(); err != nil {
		return Group{}, err
	}
	s.bus.Publish(Event{Resource: "groups", Action: "created", ID: g.ID})
	return g, nil
}

// GetGroup returns a group by ID.
func (s *Service) GetGroup(id string) (Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.state.Groups[id]
	if !ok {
		return Group{}, fmt.Errorf("group %q: %w", id, ErrNotFound)
	}
	return g, nil
}

// ListGroups returns all groups sorted by (order, name).
func (s *Service) ListGroups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]Group, 0, len(s.state.Groups))
	for _, g := range s.state.Groups {
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Order != groups[j].Order {
			return groups[i].Order < groups[j].Order
		}
		return groups[i].Name < groups[j].Name
	})
	return groups
}

// UpdateGroup replaces a group by ID.
func (s *Service) UpdateGroup(id string, g Group) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.Groups[id]; !exists {
		return Group{}, fmt.Errorf("group %q: %w", id, ErrNotFound)
	}
	if g.Order < 0 {
		return Group{}, fmt.Errorf("%w: group order must be non-negative", ErrInvalid)
	}
	for otherID, other := range s.state.Groups {
		if otherID != id && other.Name == g.Name {
			return Group{}, fmt.Errorf("%w: group name %q already in use", ErrInvalid, g.Name)
		}
	}

	g.ID = id
	s.state.Groups[id] = g
	if err := s.saveToDisk(); err != nil {
		return Group{}, err
	}
	s.bus.Publish(Event{Resource: "groups", Action: "updated", ID: id})
	return g, nil
}

// DeleteGroup removes a group. Deletion is blocked while any view still
// references the group.
func (s *Service) DeleteGroup(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.Groups[id]; !exists {
		return fmt.Errorf("group %q: %w", id, ErrNotFound)
	}
	for _, v := range s.state.Views {
		if v.GroupID == id {
			return fmt.Errorf("%w: group %q is referenced by view %q", ErrProtected, id, v.ID)
		}
	}

	delete(s.state.Groups, id)
	if err := s.saveToDisk(); err != nil {
		return err
	}
	s.bus.Publish(Event{Resource: "groups", Action: "deleted", ID: id})
	return nil
}

// Views

// CreateView adds a new view bound to the given layer. Each layer carries
// at most one view.
func (s *Service) CreateView(v View, layer geostore.Layer) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = Slugify(v.Name)
	}
	if v.LayerID == "" {
		v.LayerID = layer.ID
	}
	if v.LayerID != layer.ID {
		return View{}, fmt.Errorf("%w: view layer %q does not match layer %q", ErrInvalid, v.LayerID, layer.ID)
	}
	if _, exists := s.state.Views[v.ID]; exists {
		return View{}, fmt.Errorf("view with ID %q already exists", v.ID)
	}
	for _, other := range s.state.Views {
		if other.Name == v.Name {
			return View{}, fmt.Errorf("%w: view name %q already in use", ErrInvalid, v.Name)
		}
		if other.LayerID == v.LayerID {
			return View{}, fmt.Errorf("%w: layer %q already has view %q", ErrInvalid, v.LayerID, other.ID)
		}
	}
	if err := s.validateViewLocked(v, layer); err != nil {
		return View{}, err
	}
	for i := range v.DisplayGroups {
		if v.DisplayGroups[i].Slug == "" {
			v.DisplayGroups[i].Slug = Slugify(v.DisplayGroups[i].Label)
		}
	}

	s.state.Views[v.ID] = v
	if err := s.saveToDisk(); err != nil {
		return View{}, err
	}
	s.bus.Publish(Event{Resource: "views", Action: "created", ID: v.ID})
	return v, nil
}

// GetView returns a view by ID.
func (s *Service) GetView(id string) (View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.state.Views[id]
	if !ok {
		return View{}, fmt.Errorf("view %q: %w", id, ErrNotFound)
	}
	return v, nil
}

// ViewForLayer returns the view bound to the given layer, if any.
func (s *Service) ViewForLayer(layerID string) (View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.state.Views {
		if v.LayerID == layerID {
			return v, true
		}
	}
	return View{}, false
}

// ListViews returns all views sorted by (order, name).
func (s *Service) ListViews() []View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]View, 0, len(s.state.Views))
	for _, v := range s.state.Views {
		views = append(views, v)
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Order != views[j].Order {
			return views[i].Order < views[j].Order
		}
		return views[i].Name < views[j].Name
	})
	return views
}

// UpdateView replaces a view by ID. The layer reference is immutable.
func (s *Service) UpdateView(id string, v View, layer geostore.Layer) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.state.Views[id]
	if !ok {
		return View{}, fmt.Errorf("view %q: %w", id, ErrNotFound)
	}
	if v.LayerID == "" {
		v.LayerID = existing.LayerID
	}
	if v.LayerID != existing.LayerID {
		return View{}, fmt.Errorf("%w: the layer of a view cannot change after creation", ErrInvalid)
	}
	if layer.ID != existing.LayerID {
		return View{}, fmt.Errorf("%w: layer %q does not match view layer %q", ErrInvalid, layer.ID, existing.LayerID)
	}
	for otherID, other := range s.state.Views {
		if otherID != id && other.Name == v.Name {
			return View{}, fmt.Errorf("%w: view name %q already in use", ErrInvalid, v.Name)
		}
	}
	if err := s.validateViewLocked(v, layer); err != nil {
		return View{}, err
	}
	for i := range v.DisplayGroups {
		if v.DisplayGroups[i].Slug == "" {
			v.DisplayGroups[i].Slug = Slugify(v.DisplayGroups[i].Label)
		}
	}

	v.ID = id
	s.state.Views[id] = v
	if err := s.saveToDisk(); err != nil {
		return View{}, err
	}
	s.bus.Publish(Event{Resource: "views", Action: "updated", ID: id})
	return v, nil
}

// DeleteView removes a view with its display groups, renderings and extra
// layer styles. The layer itself is untouched.
func (s *Service) DeleteView(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.Views[id]; !exists {
		return fmt.Errorf("view %q: %w", id, ErrNotFound)
	}

	delete(s.state.Views, id)
	if err := s.saveToDisk(); err != nil {
		return err
	}
	s.bus.Publish(Event{Resource: "views", Action: "deleted", ID: id})
	return nil
}

// validateViewLocked checks a view's configuration against the layer's
// declared schema. Callers hold the mutex.
func (s *Service) validateViewLocked(v View, layer geostore.Layer) error {
	if v.GroupID != "" {
		if _, ok := s.state.Groups[v.GroupID]; !ok {
			return fmt.Errorf("group %q: %w", v.GroupID, ErrNotFound)
		}
	}
	for _, p := range v.DefaultListProperties {
		if !layer.HasProperty(p) {
			return fmt.Errorf("%w: default list property %q is not declared on layer %q", ErrInvalid, p, layer.ID)
		}
	}
	if v.FeatureTitleProperty != "" && !layer.HasProperty(v.FeatureTitleProperty) {
		return fmt.Errorf("%w: title property %q is not declared on layer %q", ErrInvalid, v.FeatureTitleProperty, layer.ID)
	}
	slugs := make(map[string]bool)
	for _, dg := range v.DisplayGroups {
		slug := dg.Slug
		if slug == "" {
			slug = Slugify(dg.Label)
		}
		if slugs[slug] {
			return fmt.Errorf("%w: duplicate display group slug %q", ErrInvalid, slug)
		}
		slugs[slug] = true
		for _, p := range dg.Properties {
			if !layer.HasProperty(p) {
				return fmt.Errorf("%w: display group %q claims property %q not declared on layer %q", ErrInvalid, slug, p, layer.ID)
			}
		}
	}
	for _, r := range v.PropertyRenderings {
		if !layer.HasProperty(r.Property) {
			return fmt.Errorf("%w: rendering for property %q not declared on layer %q", ErrInvalid, r.Property, layer.ID)
		}
	}
	for _, es := range v.ExtraLayerStyles {
		if _, ok := layer.ExtraGeometryDefinition(es.ExtraGeometry); !ok {
			return fmt.Errorf("%w: extra layer style targets unknown extra geometry %q", ErrInvalid, es.ExtraGeometry)
		}
	}
	return nil
}

// persistence

func (s *Service) configFile() string {
	return filepath.Join(s.dataDir, "crud.json")
}

func (s *Service) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		return // File doesn't exist yet, start empty
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("ignoring unreadable crud config", "file", s.configFile(), "err", err)
		return
	}
	if st.Groups == nil {
		st.Groups = make(map[string]Group)
	}
	if st.Views == nil {
		st.Views = make(map[string]View)
	}
	if st.Categories == nil {
		st.Categories = make(map[string]AttachmentCategory)
	}
	s.state = st
}

func (s *Service) saveToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configFile(), data, 0644)
}
