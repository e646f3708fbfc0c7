package geostore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNotFound is returned when a layer, feature or attachment does not exist.
var ErrNotFound = errors.New("not found")

// Store persists layers and features in DuckDB. Geometries are stored as
// GeoJSON text, property bags as JSON text.
type Store struct {
	db *sql.DB
}

// NewStore creates a feature store on top of an open database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the store's tables if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS layers (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			geom_type VARCHAR NOT NULL,
			schema VARCHAR NOT NULL,
			extra_geometries VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS features (
			id VARCHAR PRIMARY KEY,
			layer_id VARCHAR NOT NULL,
			geom VARCHAR NOT NULL,
			properties VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS extra_geometries (
			feature_id VARCHAR NOT NULL,
			definition VARCHAR NOT NULL,
			geom VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id VARCHAR PRIMARY KEY,
			feature_id VARCHAR NOT NULL,
			kind VARCHAR NOT NULL,
			category VARCHAR,
			legend VARCHAR,
			file VARCHAR NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Layers

// CreateLayer adds a new layer. The ID is derived from the name when empty.
func (s *Store) CreateLayer(ctx context.Context, layer Layer) (Layer, error) {
	if layer.ID == "" {
		layer.ID = generateID(layer.Name)
	}
	if !layer.GeomType.Valid() {
		return Layer{}, fmt.Errorf("invalid geometry type %q", layer.GeomType)
	}
	for _, d := range layer.ExtraGeometries {
		if !d.GeomType.Valid() {
			return Layer{}, fmt.Errorf("extra geometry %q: invalid geometry type %q", d.Name, d.GeomType)
		}
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM layers WHERE id = ?`, layer.ID).Scan(&exists); err != nil {
		return Layer{}, err
	}
	if exists > 0 {
		return Layer{}, fmt.Errorf("layer with ID %q already exists", layer.ID)
	}

	schemaJSON, err := json.Marshal(layer.Schema)
	if err != nil {
		return Layer{}, err
	}
	extrasJSON, err := json.Marshal(layer.ExtraGeometries)
	if err != nil {
		return Layer{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO layers (id, name, geom_type, schema, extra_geometries) VALUES (?, ?, ?, ?, ?)`,
		layer.ID, layer.Name, string(layer.GeomType), string(schemaJSON), string(extrasJSON))
	if err != nil {
		return Layer{}, err
	}
	return layer, nil
}

// GetLayer returns a layer by ID.
func (s *Store) GetLayer(ctx context.Context, id string) (Layer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, geom_type, schema, extra_geometries FROM layers WHERE id = ?`, id)
	return scanLayer(row)
}

// ListLayers returns all layers.
func (s *Store) ListLayers(ctx context.Context) ([]Layer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, geom_type, schema, extra_geometries FROM layers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	layers := []Layer{}
	for rows.Next() {
		layer, err := scanLayer(rows)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, rows.Err()
}

// DeleteLayer removes a layer and all of its features.
func (s *Store) DeleteLayer(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM layers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("layer %q: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM extra_geometries WHERE feature_id IN (SELECT id FROM features WHERE layer_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attachments WHERE feature_id IN (SELECT id FROM features WHERE layer_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM features WHERE layer_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Features

// CreateFeature inserts a feature and its extra geometries in one
// transaction, so a partial write is never observable.
func (s *Store) CreateFeature(ctx context.Context, f Feature) (Feature, error) {
	layer, err := s.GetLayer(ctx, f.LayerID)
	if err != nil {
		return Feature{}, err
	}
	if err := validateFeature(layer, f); err != nil {
		return Feature{}, err
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Properties == nil {
		f.Properties = map[string]any{}
	}

	geomJSON, propsJSON, err := encodeFeature(f)
	if err != nil {
		return Feature{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Feature{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO features (id, layer_id, geom, properties) VALUES (?, ?, ?, ?)`,
		f.ID, f.LayerID, geomJSON, propsJSON); err != nil {
		return Feature{}, err
	}
	if err := insertExtraGeometries(ctx, tx, f); err != nil {
		return Feature{}, err
	}
	if err := tx.Commit(); err != nil {
		return Feature{}, err
	}
	return f, nil
}

// UpdateFeature replaces a feature's geometry, properties and extra
// geometries in one transaction.
func (s *Store) UpdateFeature(ctx context.Context, f Feature) (Feature, error) {
	layer, err := s.GetLayer(ctx, f.LayerID)
	if err != nil {
		return Feature{}, err
	}
	if err := validateFeature(layer, f); err != nil {
		return Feature{}, err
	}
	if f.Properties == nil {
		f.Properties = map[string]any{}
	}

	geomJSON, propsJSON, err := encodeFeature(f)
	if err != nil {
		return Feature{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Feature{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE features SET geom = ?, properties = ? WHERE id = ? AND layer_id = ?`,
		geomJSON, propsJSON, f.ID, f.LayerID)
	if err != nil {
		return Feature{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Feature{}, fmt.Errorf("feature %q: %w", f.ID, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM extra_geometries WHERE feature_id = ?`, f.ID); err != nil {
		return Feature{}, err
	}
	if err := insertExtraGeometries(ctx, tx, f); err != nil {
		return Feature{}, err
	}
	if err := tx.Commit(); err != nil {
		return Feature{}, err
	}
	return f, nil
}

// GetFeature returns a feature with its extra geometries.
func (s *Store) GetFeature(ctx context.Context, id string) (Feature, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, layer_id, geom, properties FROM features WHERE id = ?`, id)
	f, err := scanFeature(row)
	if err != nil {
		return Feature{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT definition, geom FROM extra_geometries WHERE feature_id = ? ORDER BY definition`, id)
	if err != nil {
		return Feature{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var definition, geomJSON string
		if err := rows.Scan(&definition, &geomJSON); err != nil {
			return Feature{}, err
		}
		geom, err := decodeGeometry(geomJSON)
		if err != nil {
			return Feature{}, err
		}
		f.ExtraGeometries = append(f.ExtraGeometries, ExtraGeometry{Definition: definition, Geometry: geom})
	}
	return f, rows.Err()
}

// ListFeatures returns all features of a layer, without extra geometries.
func (s *Store) ListFeatures(ctx context.Context, layerID string) ([]Feature, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, layer_id, geom, properties FROM features WHERE layer_id = ? ORDER BY id`, layerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	features := []Feature{}
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// DeleteFeature removes a feature with its extra geometries and attachments.
func (s *Store) DeleteFeature(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM features WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("feature %q: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM extra_geometries WHERE feature_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE feature_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLayer(row rowScanner) (Layer, error) {
	var layer Layer
	var geomType, schemaJSON, extrasJSON string
	if err := row.Scan(&layer.ID, &layer.Name, &geomType, &schemaJSON, &extrasJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Layer{}, fmt.Errorf("layer: %w", ErrNotFound)
		}
		return Layer{}, err
	}
	layer.GeomType = GeometryType(geomType)
	if err := json.Unmarshal([]byte(schemaJSON), &layer.Schema); err != nil {
		return Layer{}, err
	}
	if err := json.Unmarshal([]byte(extrasJSON), &layer.ExtraGeometries); err != nil {
		return Layer{}, err
	}
	return layer, nil
}

func scanFeature(row rowScanner) (Feature, error) {
	var f Feature
	var geomJSON, propsJSON string
	if err := row.Scan(&f.ID, &f.LayerID, &geomJSON, &propsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Feature{}, fmt.Errorf("feature: %w", ErrNotFound)
		}
		return Feature{}, err
	}
	geom, err := decodeGeometry(geomJSON)
	if err != nil {
		return Feature{}, err
	}
	f.Geometry = geom
	if err := json.Unmarshal([]byte(propsJSON), &f.Properties); err != nil {
		return Feature{}, err
	}
	return f, nil
}

func encodeFeature(f Feature) (geomJSON, propsJSON string, err error) {
	g, err := json.Marshal(geojson.NewGeometry(f.Geometry))
	if err != nil {
		return "", "", err
	}
	p, err := json.Marshal(f.Properties)
	if err != nil {
		return "", "", err
	}
	return string(g), string(p), nil
}

func decodeGeometry(s string) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry([]byte(s))
	if err != nil {
		return nil, err
	}
	return g.Geometry(), nil
}

func insertExtraGeometries(ctx context.Context, tx *sql.Tx, f Feature) error {
	for _, eg := range f.ExtraGeometries {
		geomJSON, err := json.Marshal(geojson.NewGeometry(eg.Geometry))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO extra_geometries (feature_id, definition, geom) VALUES (?, ?, ?)`,
			f.ID, eg.Definition, string(geomJSON)); err != nil {
			return err
		}
	}
	return nil
}

func validateFeature(layer Layer, f Feature) error {
	if f.Geometry == nil {
		return fmt.Errorf("feature geometry is required")
	}
	for _, eg := range f.ExtraGeometries {
		if _, ok := layer.ExtraGeometryDefinition(eg.Definition); !ok {
			return fmt.Errorf("extra geometry %q is not declared on layer %q", eg.Definition, layer.ID)
		}
	}
	return nil
}

// generateID creates a URL-safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
