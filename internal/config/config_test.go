package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Styles.Point["type"] != "circle" {
		t.Errorf("point style type = %v, want circle", cfg.Styles.Point["type"])
	}
	if cfg.Styles.Line["type"] != "line" {
		t.Errorf("line style type = %v, want line", cfg.Styles.Line["type"])
	}
	if cfg.Styles.Polygon["type"] != "fill" {
		t.Errorf("polygon style type = %v, want fill", cfg.Styles.Polygon["type"])
	}
	if cfg.Basemap.ID != "basemap" || len(cfg.Basemap.Tiles) == 0 {
		t.Errorf("basemap = %+v, want populated defaults", cfg.Basemap)
	}
	if cfg.MaxZoom != 22 {
		t.Errorf("max zoom = %d, want 22", cfg.MaxZoom)
	}
	if cfg.Renderer.Width != 1024 || cfg.Renderer.Height != 512 {
		t.Errorf("renderer = %+v, want 1024x512", cfg.Renderer)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
max_zoom: 15
basemap:
  id: custom
  tiles:
    - https://tiles.example.org/{z}/{x}/{y}.png
  tile_size: 512
  access_token: secret
renderer:
  width: 800
  height: 600
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxZoom != 15 {
		t.Errorf("max zoom = %d, want 15", cfg.MaxZoom)
	}
	if cfg.Basemap.ID != "custom" || cfg.Basemap.TileSize != 512 {
		t.Errorf("basemap = %+v, want file values", cfg.Basemap)
	}
	if cfg.Basemap.AccessToken != "secret" {
		t.Errorf("access token = %q", cfg.Basemap.AccessToken)
	}
	if cfg.Renderer.Width != 800 || cfg.Renderer.Height != 600 {
		t.Errorf("renderer = %+v, want 800x600", cfg.Renderer)
	}

	// sections absent from the file keep their defaults
	if cfg.Styles.Point["type"] != "circle" {
		t.Error("styles should keep defaults when not in the file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxZoom != 22 {
		t.Error("missing file should leave defaults intact")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
