// Package web provides the optional -serve preview: a read-only HTTP
// server over the generated output directory, so the static calendar page
// and its JSON can be checked locally before publishing.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "hkholiday/internal/log"
)

// Server serves the generated holiday JSON and the static calendar page.
type Server struct {
	outDir string
	mux    *http.ServeMux
}

// NewServer constructs a Server over the given output directory.
func NewServer(outDir string) *Server {
	s := &Server{
		outDir: outDir,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// shutdownTimeout bounds how long in-flight preview requests may delay
// process exit after ctx is canceled.
const shutdownTimeout = 5 * time.Second

// ListenAndServe blocks serving the preview on the given address until
// ctx is canceled, then shuts the server down gracefully and returns nil.
func ListenAndServe(ctx context.Context, listen, outDir string) error {
	s := NewServer(outDir)
	appLog.Info("preview server listening", "listen", "http://"+listen, "out_dir", outDir)

	srv := &http.Server{
		Addr:    listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		// Bind failure or other serve error before any shutdown request.
		return err
	case <-ctx.Done():
		appLog.Info("preview server shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/holidays", s.handleHolidays)
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleHolidays serves the generated holidays.json verbatim. The file is
// re-read per request so a re-run of the pipeline shows up immediately.
func (s *Server) handleHolidays(w http.ResponseWriter, _ *http.Request) {
	path := filepath.Join(s.outDir, "holidays.json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "holidays.json not generated yet")
			return
		}
		appLog.Error("failed to read holidays.json", err, "path", path)
		writeError(w, http.StatusInternalServerError, "failed to read holiday data")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// staticFileServer serves the output directory (the calendar page and its
// assets live next to the generated JSON). API paths never fall through
// to it.
func (s *Server) staticFileServer() http.Handler {
	fileServer := http.FileServer(http.Dir(s.outDir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
