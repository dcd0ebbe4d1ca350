// Package server provides the upload web interface and JSON API for timecheck.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ccollicutt/timecheck/pkg/analyzer"
	"github.com/ccollicutt/timecheck/pkg/config"
	"github.com/ccollicutt/timecheck/pkg/output"
	"github.com/ccollicutt/timecheck/pkg/webhook"
)

//go:embed templates/*.html
var templateFS embed.FS

// Version is reported by the health endpoint.
var Version = "dev"

// Server serves the upload form, HTML reports and the JSON API.
type Server struct {
	router    *chi.Mux
	analyzer  *analyzer.Analyzer
	cfg       *config.Config
	templates *template.Template
	webhooks  *webhook.Client
	logger    *slog.Logger
}

// New creates a server that checks uploads with a.
func New(cfg *config.Config, a *analyzer.Analyzer, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	funcMap := template.FuncMap{
		"seconds": output.FormatSeconds,
		"rows":    output.FormatRows,
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		analyzer:  a,
		cfg:       cfg,
		templates: templates,
		webhooks:  webhook.NewClient(),
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Post("/check", s.handleCheckPage)
	s.router.Post("/api/check", s.handleCheckAPI)
	s.router.Get("/healthz", s.handleHealth)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type reportPage struct {
	Report     *output.Report
	StartLabel string
	EndLabel   string
	DiffLabel  string
}

type errorPage struct {
	Error string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	s.render(w, http.StatusOK, "index", nil)
}

func (s *Server) handleCheckPage(w http.ResponseWriter, r *http.Request) {
	report, status, err := s.check(r, w)
	if err != nil {
		s.render(w, status, "error", errorPage{Error: err.Error()})
		return
	}

	s.render(w, http.StatusOK, "report", reportPage{
		Report:     report,
		StartLabel: config.StartTimeLabel,
		EndLabel:   config.EndTimeLabel,
		DiffLabel:  config.TimeDifferenceLabel,
	})
}

func (s *Server) handleCheckAPI(w http.ResponseWriter, r *http.Request) {
	report, status, err := s.check(r, w)
	if err != nil {
		s.writeJSON(w, status, output.NewErrorReport(err))
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
	})
}

// check runs the pipeline on the uploaded file. On failure it returns the
// HTTP status to answer with.
func (s *Server) check(r *http.Request, w http.ResponseWriter) (*output.Report, int, error) {
	limit := s.cfg.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file too large (limit %d bytes)", limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".xlsx" {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid file type %q: upload an .xlsx workbook", ext)
	}

	result, err := s.analyzer.Analyze(r.Context(), header.Filename, file)
	if err != nil {
		status := http.StatusBadRequest
		if output.ClassifyError(err) == output.ErrorKindProcessing {
			status = http.StatusInternalServerError
		}
		s.logger.Warn("check failed", "file", header.Filename, "kind", output.ClassifyError(err), "error", err)
		return nil, status, err
	}

	report := output.NewReport(result)
	s.logger.Info("check complete",
		"file", header.Filename,
		"run_id", report.Metadata.RunID,
		"status", report.Status,
		"rows", report.Summary.RowsRead,
		"skipped", report.Summary.RowsDropped,
		"violations", report.Summary.Violations)

	s.notify(r.Context(), report)
	return report, http.StatusOK, nil
}

// notify delivers the report to configured webhooks. Failures are only logged.
func (s *Server) notify(ctx context.Context, report *output.Report) {
	for _, d := range s.webhooks.Dispatch(ctx, s.cfg.Webhooks, report) {
		if d.Response == nil {
			continue
		}
		if d.Response.Success() {
			s.logger.Info("webhook sent", "name", d.Name, "status", d.Response.StatusCode, "duration", d.Response.Duration)
		} else {
			s.logger.Warn("webhook failed", "name", d.Name, "error", d.Response.Error)
		}
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", "template", name, "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}
