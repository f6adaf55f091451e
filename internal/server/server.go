package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/a11yscan/internal/app"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"

	_ "github.com/raysh454/a11yscan/internal/server/docs" // swagger spec
)

// UserHeader carries the caller identity set by the upstream proxy.
const UserHeader = "X-User-ID"

// Server is the HTTP + WebSocket API surface for a11yscan.
type Server struct {
	cfg      Config
	app      *app.Application
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer wires a new Application and mounts the API on it.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = cfg.AppConfig.ListenAddr
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	a, err := app.New(cfg.AppConfig, logger, cfg.Components)
	if err != nil {
		return nil, fmt.Errorf("creating application: %w", err)
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:    cfg,
		app:    a,
		router: r,
		logger: logger.With(logging.Field{Key: "component", Value: "server"}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origins once the dashboard has a fixed host
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// App returns the underlying application (tests, background work).
func (s *Server) App() *app.Application {
	return s.app
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/scans", s.optionsHandler("GET, POST"))
	r.Options("/scans/{id}", s.optionsHandler("GET, PATCH, DELETE"))
	r.Options("/scans/{id}/run", s.optionsHandler("POST"))
	r.Options("/scans/{id}/schedule", s.optionsHandler("POST"))
	r.Options("/scans/{id}/results", s.optionsHandler("GET"))
	r.Options("/scans/{id}/report", s.optionsHandler("GET"))
	r.Options("/scans/{id}/compare", s.optionsHandler("GET"))
	r.Options("/descriptions", s.optionsHandler("GET, PUT"))
	r.Options("/descriptions/{ruleID}", s.optionsHandler("DELETE"))
	r.Options("/devices", s.optionsHandler("GET, PUT"))
	r.Options("/jobs", s.optionsHandler("GET"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))

	// Scan requests
	r.Post("/scans", s.handleCreateScan)
	r.Get("/scans", s.handleListScans)
	r.Get("/scans/{id}", s.handleGetScan)
	r.Patch("/scans/{id}", s.handleUpdateScan)
	r.Delete("/scans/{id}", s.handleDeleteScan)
	r.Post("/scans/{id}/run", s.handleRunScan)
	r.Post("/scans/{id}/schedule", s.handleScheduleScan)
	r.Get("/scans/{id}/results", s.handleListResults)
	r.Get("/scans/{id}/report", s.handleGetReport)
	r.Get("/scans/{id}/compare", s.handleCompareRuns)

	// Settings and reference data
	r.Get("/descriptions", s.handleGetDescriptions)
	r.Put("/descriptions", s.handleSetDescription)
	r.Delete("/descriptions/{ruleID}", s.handleDeleteDescription)
	r.Get("/devices", s.handleListDevices)
	r.Put("/devices", s.handleUpsertDevice)
	r.Get("/guidance", s.handleListGuidance)
	r.Get("/rules", s.handleListRules)

	// Jobs over REST
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSockets for job progress
	r.Get("/ws/scans/{id}/run", s.handleRunWS)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+UserHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Start launches the application's background work.
func (s *Server) Start(ctx context.Context) {
	s.app.Start(ctx)
}

// Close stops running jobs and releases the store.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.app.Shutdown(ctx); err != nil {
		s.logger.Warn("shutting down application", logging.Field{Key: "error", Value: err.Error()})
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps error kinds to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and writes it with the status its kind maps to.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op, logging.Field{Key: "error", Value: err.Error()})
	} else {
		s.logger.Warn(op, logging.Field{Key: "error", Value: err.Error()})
	}
	writeError(w, status, err.Error())
}

func userID(r *http.Request) string {
	return r.Header.Get(UserHeader)
}

// decodeBody decodes an optional JSON body; an empty body leaves v as is.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
