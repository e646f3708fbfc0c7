// Package crudclient is a small typed HTTP client for the geocrud API.
package crudclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client talks to a running geocrud server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL, e.g. http://localhost:8086.
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

// Group mirrors the API group resource.
type Group struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	Pictogram string `json:"pictogram,omitempty"`
}

// View mirrors the API view resource. MapStyle and UISchema hold the
// resolved forms returned by the server.
type View struct {
	ID                    string         `json:"id,omitempty"`
	Name                  string         `json:"name"`
	Order                 int            `json:"order"`
	GroupID               string         `json:"group,omitempty"`
	LayerID               string         `json:"layer"`
	Pictogram             string         `json:"pictogram,omitempty"`
	MapStyle              map[string]any `json:"mapStyle,omitempty"`
	UISchema              map[string]any `json:"uiSchema,omitempty"`
	Settings              map[string]any `json:"settings,omitempty"`
	DefaultListProperties []string       `json:"defaultListProperties,omitempty"`
	FeatureTitleProperty  string         `json:"featureTitleProperty,omitempty"`
	Templates             []string       `json:"templates,omitempty"`
	Visible               bool           `json:"visible"`
}

// Layer mirrors the API layer resource.
type Layer struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	GeomType        string   `json:"geomType"`
	Schema          []string `json:"schema,omitempty"`
	ExtraGeometries []struct {
		Name     string `json:"name"`
		GeomType string `json:"geomType"`
	} `json:"extraGeometries,omitempty"`
}

// Feature mirrors the API feature write shape.
type Feature struct {
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties,omitempty"`
}

// FeatureDetail mirrors the API feature read shape.
type FeatureDetail struct {
	ID                string          `json:"id"`
	LayerID           string          `json:"layerId"`
	Geometry          json.RawMessage `json:"geometry"`
	Properties        map[string]any  `json:"properties"`
	DisplayProperties json.RawMessage `json:"displayProperties,omitempty"`
	Title             any             `json:"title,omitempty"`
}

// Health mirrors the health endpoint body.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (c *Client) GetHealth(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	var out []Group
	err := c.do(ctx, http.MethodGet, "/api/crud/groups", nil, &out)
	return out, err
}

func (c *Client) CreateGroup(ctx context.Context, g Group) (Group, error) {
	var out Group
	err := c.do(ctx, http.MethodPost, "/api/crud/groups", g, &out)
	return out, err
}

func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/crud/groups/"+id, nil, nil)
}

func (c *Client) ListViews(ctx context.Context) ([]View, error) {
	var out []View
	err := c.do(ctx, http.MethodGet, "/api/crud/views", nil, &out)
	return out, err
}

func (c *Client) CreateView(ctx context.Context, v View) (View, error) {
	var out View
	err := c.do(ctx, http.MethodPost, "/api/crud/views", v, &out)
	return out, err
}

func (c *Client) GetView(ctx context.Context, id string) (View, error) {
	var out View
	err := c.do(ctx, http.MethodGet, "/api/crud/views/"+id, nil, &out)
	return out, err
}

func (c *Client) DeleteView(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/crud/views/"+id, nil, nil)
}

func (c *Client) CreateLayer(ctx context.Context, l Layer) (Layer, error) {
	var out Layer
	err := c.do(ctx, http.MethodPost, "/api/crud/layers", l, &out)
	return out, err
}

func (c *Client) ListLayers(ctx context.Context) ([]Layer, error) {
	var out []Layer
	err := c.do(ctx, http.MethodGet, "/api/crud/layers", nil, &out)
	return out, err
}

func (c *Client) DeleteLayer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/crud/layers/"+id, nil, nil)
}

func (c *Client) CreateFeature(ctx context.Context, layerID string, f Feature) (FeatureDetail, error) {
	var out FeatureDetail
	err := c.do(ctx, http.MethodPost, "/api/crud/layers/"+layerID+"/features", f, &out)
	return out, err
}

func (c *Client) GetFeature(ctx context.Context, layerID, id string) (FeatureDetail, error) {
	var out FeatureDetail
	err := c.do(ctx, http.MethodGet, "/api/crud/layers/"+layerID+"/features/"+id, nil, &out)
	return out, err
}

func (c *Client) DeleteFeature(ctx context.Context, layerID, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/crud/layers/"+layerID+"/features/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
