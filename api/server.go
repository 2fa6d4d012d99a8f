// Package api serves customer account statements over HTTP.
// The database-backed endpoint is only available when the server is given a
// statement service; bundle statements work without one.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/h2316307-design/adhub-pro-sub009/ledger"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/export"
	"github.com/h2316307-design/adhub-pro-sub009/statement"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// maxBodyBytes bounds POST /statement payloads.
const maxBodyBytes = 32 << 20

// Config holds the API server configuration
type Config struct {
	Port           string
	AllowedOrigins []string
	Patterns       ledger.Patterns
	PDF            export.PDFOptions
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port:           ":8080",
		AllowedOrigins: []string{"*"},
		Patterns:       ledger.DefaultPatterns(),
	}
}

// Server represents the HTTP API server
type Server struct {
	config   Config
	router   *mux.Router
	service  *statement.Service
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

// New creates a new API server. service may be nil, in which case only
// bundle statements are served.
func New(cfg Config, service *statement.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	s := &Server{
		config:   cfg,
		router:   mux.NewRouter(),
		service:  service,
		logger:   logger,
		registry: registry,
		metrics:  newMetrics(registry),
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up the API endpoints
func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/statement", s.handleBundleStatement).Methods(http.MethodPost)
	s.router.HandleFunc("/customers/{id}/statement", s.handleCustomerStatement).Methods(http.MethodGet)
}

// Handler returns the http.Handler for the server
// This allows the server to be used with custom http.Server configurations
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	})
	return c.Handler(s.router)
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.config.Port), zap.Bool("database", s.service != nil))
	srv := &http.Server{
		Addr:              s.config.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// bundleRequest is the body of POST /statement.
type bundleRequest struct {
	Customer             common.Customer      `json:"customer"`
	From                 string               `json:"from"`
	To                   string               `json:"to"`
	ExcludeFriendRentals bool                 `json:"exclude_friend_rentals"`
	Records              common.SourceRecords `json:"records"`
}

// handleBundleStatement builds a statement from records posted in the body.
func (s *Server) handleBundleStatement(w http.ResponseWriter, r *http.Request) {
	opts, err := parseOutputOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body bundleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "could not decode request body: "+err.Error())
		return
	}

	rng, err := common.ParseRange(body.From, body.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	svc := statement.NewService(statement.BundleSource{Bundle: common.Bundle{
		Customer:      body.Customer,
		SourceRecords: body.Records,
	}}, s.logger, s.config.Patterns)

	start := time.Now()
	stmt, err := svc.Generate(r.Context(), statement.Request{
		CustomerID:           body.Customer.ID,
		CustomerName:         body.Customer.Name,
		Range:                rng,
		ExcludeFriendRentals: body.ExcludeFriendRentals,
	})
	s.record(sourceBundle, start, stmt, err)
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}
	s.respond(w, *stmt, opts)
}

// handleCustomerStatement builds a statement from the database.
func (s *Server) handleCustomerStatement(w http.ResponseWriter, r *http.Request) {
	if s.service == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	opts, err := parseOutputOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := r.URL.Query()
	rng, err := common.ParseRange(query.Get("from"), query.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	stmt, err := s.service.Generate(r.Context(), statement.Request{
		CustomerID:           mux.Vars(r)["id"],
		CustomerName:         query.Get("name"),
		Range:                rng,
		ExcludeFriendRentals: query.Get("exclude_friend_rentals") == "true",
	})
	s.record(sourceDatabase, start, stmt, err)
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}
	s.respond(w, *stmt, opts)
}

func (s *Server) record(source string, start time.Time, stmt *common.Statement, err error) {
	lines := 0
	if stmt != nil {
		lines = len(stmt.Lines)
	}
	s.metrics.observe(source, start, lines, err)
}

func (s *Server) writeGenerateError(w http.ResponseWriter, err error) {
	if errors.Is(err, statement.ErrNoCustomer) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("failed to build statement", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to build statement")
}

// OutputOptions selects the response representation.
type OutputOptions struct {
	Format      string
	LinesOnly   bool
	SummaryOnly bool
}

func parseOutputOptions(r *http.Request) (OutputOptions, error) {
	q := r.URL.Query()
	opts := OutputOptions{
		Format:      coalesce(q.Get("format"), "json"),
		LinesOnly:   q.Get("lines_only") == "true",
		SummaryOnly: q.Get("summary_only") == "true",
	}
	switch opts.Format {
	case "json", "csv", "pdf":
	default:
		return opts, fmt.Errorf("unsupported format %q", opts.Format)
	}
	if opts.LinesOnly && opts.SummaryOnly {
		return opts, errors.New("lines_only and summary_only are mutually exclusive")
	}
	return opts, nil
}

func (s *Server) respond(w http.ResponseWriter, stmt common.Statement, opts OutputOptions) {
	var buf bytes.Buffer
	var contentType string

	switch opts.Format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		if err := export.WriteCSV(&buf, stmt); err != nil {
			s.logger.Error("failed to write csv", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to export statement")
			return
		}
	case "pdf":
		contentType = "application/pdf"
		if err := export.WritePDF(&buf, stmt, s.config.PDF); err != nil {
			s.logger.Error("failed to write pdf", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to export statement")
			return
		}
	default:
		writeJSON(w, http.StatusOK, ledger.CreateFinalOutput(stmt, opts.LinesOnly, opts.SummaryOnly))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(stmt, opts.Format)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// coalesce returns the first non-empty string
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
