// Package api exposes the locale service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"locale-tool/internal/locale"
	"locale-tool/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const (
	serviceName    = "Locale Tool API"
	serviceVersion = "1.0.0"

	// multipartOverhead is allowed on top of the document limit for form
	// fields and part headers.
	multipartOverhead = 1 << 20
)

// Server serves the locale API.
type Server struct {
	svc            *locale.Service
	recorder       store.Recorder
	maxBytes       int
	allowedOrigins []string
	fileRoot       string
}

// Options configures a Server.
type Options struct {
	MaxDocumentBytes   int
	CORSAllowedOrigins []string
	// Recorder receives one run per search or apply; nil discards them.
	Recorder store.Recorder
	// FileRoot limits POST /api/file to paths under it. Empty allows any
	// path the process can read and write.
	FileRoot string
}

// NewServer creates a Server around svc.
func NewServer(svc *locale.Service, opts Options) *Server {
	rec := opts.Recorder
	if rec == nil {
		rec = store.Discard
	}
	return &Server{
		svc:            svc,
		recorder:       rec,
		maxBytes:       opts.MaxDocumentBytes,
		allowedOrigins: opts.CORSAllowedOrigins,
		fileRoot:       opts.FileRoot,
	}
}

// Routes builds the router. POST /api/file reads and overwrites files on the
// server's own disk; set Options.FileRoot to confine it.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors(s.allowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/search", s.handleSearchUpload)
		r.Post("/search/content", s.handleSearchContent)
		r.Post("/apply", s.handleApplyUpload)
		r.Post("/apply/content", s.handleApplyContent)
		r.Post("/file", s.handleFile)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("API server stopped")
	return nil
}

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Success: false, Error: msg})
}

func (s *Server) record(ctx context.Context, run store.Run) {
	if err := s.recorder.Record(ctx, run); err != nil {
		log.Warn().Err(err).Str("file", run.FilePath).Msg("Failed to record run")
	}
}
