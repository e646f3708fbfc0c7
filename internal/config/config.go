// Package config holds the service configuration: the default style table
// per geometry kind, the basemap tile source, and map renderer defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StyleSet is the statically configured default style table, keyed by
// geometry kind. Each entry is a raw style-layer fragment (type + paint)
// handed to the map renderer as-is.
type StyleSet struct {
	Point   map[string]any `yaml:"point" json:"point,omitempty"`
	Line    map[string]any `yaml:"line" json:"line,omitempty"`
	Polygon map[string]any `yaml:"polygon" json:"polygon,omitempty"`
}

// Basemap describes the base raster tile source pre-populated into every
// composed map style.
type Basemap struct {
	ID          string   `yaml:"id" json:"id"`
	Tiles       []string `yaml:"tiles" json:"tiles"`
	TileSize    int      `yaml:"tile_size" json:"tileSize"`
	MaxZoom     int      `yaml:"max_zoom" json:"maxZoom"`
	AccessToken string   `yaml:"access_token" json:"accessToken,omitempty"`
}

// Renderer holds defaults for map-image rendering payloads.
type Renderer struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Config is the full service configuration.
type Config struct {
	Styles   StyleSet `yaml:"styles" json:"styles"`
	Basemap  Basemap  `yaml:"basemap" json:"basemap"`
	MaxZoom  int      `yaml:"max_zoom" json:"maxZoom"`
	Renderer Renderer `yaml:"renderer" json:"renderer"`
}

// Default returns the built-in configuration: OSM raster basemap and one
// default style per geometry kind.
func Default() Config {
	return Config{
		Styles: StyleSet{
			Point: map[string]any{
				"type": "circle",
				"paint": map[string]any{
					"circle-color":  "#000",
					"circle-radius": 8,
				},
			},
			Line: map[string]any{
				"type": "line",
				"paint": map[string]any{
					"line-color": "#000",
					"line-width": 3,
				},
			},
			Polygon: map[string]any{
				"type": "fill",
				"paint": map[string]any{
					"fill-color": "#000",
				},
			},
		},
		Basemap: Basemap{
			ID:       "basemap",
			Tiles:    []string{"http://a.tile.openstreetmap.org/{z}/{x}/{y}.png"},
			TileSize: 256,
			MaxZoom:  18,
		},
		MaxZoom: 22,
		Renderer: Renderer{
			Width:  1024,
			Height: 512,
		},
	}
}

// Load reads a YAML configuration file over the built-in defaults.
// A missing file is not an error; the defaults apply unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
