// Package server wires the services together behind an http.ServeMux
// with a humago-adapted Huma API on top.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/Terralego/terra.backend.crud/internal/api"
	"github.com/Terralego/terra.backend.crud/internal/config"
	"github.com/Terralego/terra.backend.crud/internal/crud"
	"github.com/Terralego/terra.backend.crud/internal/geostore"
	"github.com/Terralego/terra.backend.crud/internal/mapstyle"
)

// Config holds the server configuration.
type Config struct {
	Host       string
	Port       string
	DataDir    string
	ConfigFile string // Optional YAML file overriding the built-in defaults
}

// Server is the geocrud HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	store    *geostore.Store
	services *api.Services
	logger   *log.Logger
}

// New creates a new geocrud server.
func New(cfg Config) (*Server, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Prefix:          "geocrud",
	})

	svcConfig, err := config.Load(cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("terra-geocrud API", "1.0.0")
	humaConfig.Info.Description = "CRUD view configuration and map-style rendering over a geographic feature store."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	conn, err := geostore.OpenDB(geostore.DBConfig{
		DataDir: cfg.DataDir,
		DBName:  "geocrud",
	})
	if err != nil {
		return nil, fmt.Errorf("opening feature store: %w", err)
	}
	store := geostore.NewStore(conn)

	bus := crud.NewEventBus()
	services := &api.Services{
		Crud:     crud.NewService(cfg.DataDir, bus, logger),
		Store:    store,
		Resolver: mapstyle.NewResolver(svcConfig),
		Config:   svcConfig,
		Logger:   logger,
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		store:    store,
		services: services,
		logger:   logger,
	}

	s.routes()
	return s, nil
}

// Init prepares the feature store schema. Call once before listening.
func (s *Server) Init(ctx context.Context) error {
	return s.store.Init(ctx)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close closes server resources.
func (s *Server) Close() error {
	return s.store.Close()
}

// OpenAPI returns the OpenAPI document for all registered routes.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

func (s *Server) routes() {
	api.RegisterRoutes(s.humaAPI, s.services)

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"service":"terra-geocrud","status":"running"}`)
}
