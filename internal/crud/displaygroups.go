package crud

import (
	"fmt"
	"sort"

	"github.com/Terralego/terra.backend.crud/internal/geostore"
)

// AddDisplayGroup attaches a display group to a view. The slug is derived
// from the label and must be unique within the view; every claimed
// property must be declared on the layer.
func (s *Service) AddDisplayGroup(viewID string, dg DisplayGroup, layer geostore.Layer) (DisplayGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.state.Views[viewID]
	if !ok {
		return DisplayGroup{}, fmt.Errorf("view %q: %w", viewID, ErrNotFound)
	}
	if dg.Slug == "" {
		dg.Slug = Slugify(dg.Label)
	}
	if _, exists := v.DisplayGroupBySlug(dg.Slug); exists {
		return DisplayGroup{}, fmt.Errorf("%w: display group %q already exists on view %q", ErrInvalid, dg.Slug, viewID)
	}
	for _, p := range dg.Properties {
		if !layer.HasProperty(p) {
			return DisplayGroup{}, fmt.Errorf("%w: property %q is not declared on layer %q", ErrInvalid, p, layer.ID)
		}
	}

	v.DisplayGroups = append(v.DisplayGroups, dg)
	s.state.Views[viewID] = v
	if err := s.saveToDisk(); err != nil {
		return DisplayGroup{}, err
	}
	s.bus.Publish(Event{Resource: "views", Action: "updated", ID: viewID})
	return dg, nil
}

// UpdateDisplayGroup replaces the display group identified by slug.
func (s *Service) UpdateDisplayGroup(viewID, slug string, dg DisplayGroup, layer geostore.Layer) (DisplayGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.state.Views[viewID]
	if !ok {
		return DisplayGroup{}, fmt.Errorf("view %q: %w", viewID, ErrNotFound)
	}
	idx := -1
	for i, g := range v.DisplayGroups {
		if g.Slug == slug {
			idx = i
			break
		}
	}
	if idx < 0 {
		return DisplayGroup{}, fmt.Errorf("display group %q: %w", slug, ErrNotFound)
	}
	if dg.Slug == "" {
		dg.Slug = Slugify(dg.Label)
	}
	if dg.Slug != slug {
		if _, exists := v.DisplayGroupBySlug(dg.Slug); exists {
			return DisplayGroup{}, fmt.Errorf("%w: display group %q already exists on view %q", ErrInvalid, dg.Slug, viewID)
		}
	}
	for _, p := range dg.Properties {
		if !layer.HasProperty(p) {
			return DisplayGroup{}, fmt.Errorf("%w: property %q is not declared on layer %q", ErrInvalid, p, layer.ID)
		}
	}

	v.DisplayGroups[idx] = dg
	s.state.Views[viewID] = v
	if err := s.saveToDisk(); err != nil {
		return DisplayGroup{}, err
	}
	s.bus.Publish(Event{Resource: "views", Action: "updated", ID: viewID})
	return dg, nil
}

// DeleteDisplayGroup removes the display group identified by slug.
func (s *Service) DeleteDisplayGroup(viewID, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.state.Views[viewID]
	if !ok {
		return fmt.Errorf("view %q: %w", viewID, ErrNotFound)
	}
	kept := make([]DisplayGroup, 0, len(v.DisplayGroups))
	found := false
	for _, g := range v.DisplayGroups {
		if g.Slug == slug {
			found = true
			continue
		}
		kept = append(kept, g)
	}
	if !found {
		return fmt.Errorf("display group %q: %w", slug, ErrNotFound)
	}

	v.DisplayGroups = kept
	s.state.Views[viewID] = v
	if err := s.saveToDisk(); err != nil {
		return err
	}
	s.bus.Publish(Event{Resource: "views", Action: "updated", ID: viewID})
	return nil
}

// SetPropertyRendering attaches or replaces a rendering override for one
// property of a view.
func (s *Service) SetPropertyRendering(viewID string, r PropertyRendering, layer geostore.Layer) (PropertyRendering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.state.Views[viewID]
	if !ok {
		return PropertyRendering{}, fmt.Errorf("view %q: %w", viewID, ErrNotFound)
	}
	if !layer.HasProperty(r.Property) {
		return PropertyRendering{}, fmt.Errorf("%w: property %q is not declared on layer %q", ErrInvalid, r.Property, layer.ID)
	}

	replaced := false
	for i, existing := range v.PropertyRenderings {
		if existing.Property == r.Property {
			v.PropertyRenderings[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		v.PropertyRenderings = append(v.PropertyRenderings, r)
	}
	s.state.Views[viewID] = v
	if err := s.saveToDisk(); err != nil {
		return PropertyRendering{}, err
	}
	s.bus.Publish(Event{Resource: "views", Action: "updated", ID: viewID})
	return r, nil
}

// DeletePropertyRendering removes the rendering override for a property.
func (s *Service) DeletePropertyRendering(viewID, property string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.state.Views[viewID]
	if !ok {
		return fmt.Errorf("view %q: %w", viewID, ErrNotFound)
	}
	kept := make([]PropertyRendering, 0, len(v.PropertyRenderings))
	found := false
	for _, r := range v.PropertyRenderings {
		if r.Property == property {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return fmt.Errorf("rendering for %q: %w", property, ErrNotFound)
	}

	v.PropertyRenderings = kept
	s.state.Views[viewID] = v
	if err := s.saveToDisk(); err != nil {
		return err
	}
	s.bus.Publish(Event{Resource: "views", Action: "updated", ID: viewID})
	return nil
}

// SetExtraLayerStyle attaches or replaces the style override for one of
// the layer's extra geometry definitions.
func (s *Service) SetExtraLayerStyle(viewID string, style ExtraLayerStyle, layer geostore.Layer) (ExtraLayerStyle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.state.Views[viewID]
	if !ok {
		return ExtraLayerStyle{}, fmt.Errorf("view %q: %w", viewID, ErrNotFound)
	}
	if _, ok := layer.ExtraGeometryDefinition(style.ExtraGeometry); !ok {
		return ExtraLayerStyle{}, fmt.Errorf("%w: extra geometry %q is not declared on layer %q", ErrInvalid, style.ExtraGeometry, layer.ID)
	}

	replaced := false
	for i, existing := range v.ExtraLayerStyles {
		if existing.ExtraGeometry == style.ExtraGeometry {
			v.ExtraLayerStyles[i] = style
			replaced = true
			break
		}
	}
	if !replaced {
		v.ExtraLayerStyles = append(v.ExtraLayerStyles, style)
	}
	s.state.Views[viewID] = v
	if err := s.saveToDisk(); err != nil {
		return ExtraLayerStyle{}, err
	}
	s.bus.Publish(Event{Resource: "views", Action: "updated", ID: viewID})
	return style, nil
}

// DeleteExtraLayerStyle removes the style override for an extra geometry.
func (s *Service) DeleteExtraLayerStyle(viewID, extraGeometry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.state.Views[viewID]
	if !ok {
		return fmt.Errorf("view %q: %w", viewID, ErrNotFound)
	}
	kept := make([]ExtraLayerStyle, 0, len(v.ExtraLayerStyles))
	found := false
	for _, es := range v.ExtraLayerStyles {
		if es.ExtraGeometry == extraGeometry {
			found = true
			continue
		}
		kept = append(kept, es)
	}
	if !found {
		return fmt.Errorf("extra layer style %q: %w", extraGeometry, ErrNotFound)
	}

	v.ExtraLayerStyles = kept
	s.state.Views[viewID] = v
	if err := s.saveToDisk(); err != nil {
		return err
	}
	s.bus.Publish(Event{Resource: "views", Action: "updated", ID: viewID})
	return nil
}

// Attachment categories

// CreateCategory adds an attachment category.
func (s *Service) CreateCategory(c AttachmentCategory) (AttachmentCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = Slugify(c.Name)
	}
	if _, exists := s.state.Categories[c.ID]; exists {
		return AttachmentCategory{}, fmt.Errorf("category with ID %q already exists", c.ID)
	}

	s.state.Categories[c.ID] = c
	if err := s.saveToDisk(); err != nil {
		return AttachmentCategory{}, err
	}
	s.bus.Publish(Event{Resource: "attachment-categories", Action: "created", ID: c.ID})
	return c, nil
}

// GetCategory returns an attachment category by ID.
func (s *Service) GetCategory(id string) (AttachmentCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.state.Categories[id]
	if !ok {
		return AttachmentCategory{}, fmt.Errorf("category %q: %w", id, ErrNotFound)
	}
	return c, nil
}

// ListCategories returns all attachment categories sorted by name.
func (s *Service) ListCategories() []AttachmentCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]AttachmentCategory, 0, len(s.state.Categories))
	for _, c := range s.state.Categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpdateCategory replaces an attachment category by ID.
func (s *Service) UpdateCategory(id string, c AttachmentCategory) (AttachmentCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.Categories[id]; !exists {
		return AttachmentCategory{}, fmt.Errorf("category %q: %w", id, ErrNotFound)
	}

	c.ID = id
	s.state.Categories[id] = c
	if err := s.saveToDisk(); err != nil {
		return AttachmentCategory{}, err
	}
	s.bus.Publish(Event{Resource: "attachment-categories", Action: "updated", ID: id})
	return c, nil
}

// DeleteCategory removes an attachment category.
func (s *Service) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.Categories[id]; !exists {
		return fmt.Errorf("category %q: %w", id, ErrNotFound)
	}

	delete(s.state.Categories, id)
	if err := s.saveToDisk(); err != nil {
		return err
	}
	s.bus.Publish(Event{Resource: "attachment-categories", Action: "deleted", ID: id})
	return nil
}
