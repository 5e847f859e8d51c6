// Package server serves the widget loader scripts and frame pages.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/platapay/widget"
	"github.com/platapay/widget/internal/config"
	"github.com/platapay/widget/internal/digest"
	"go.uber.org/zap"
)

type asset struct {
	body        []byte
	etag        string
	contentType string
}

func newAsset(body []byte, contentType string) *asset {
	return &asset{
		body:        body,
		etag:        digest.ETag(body),
		contentType: contentType,
	}
}

// Server serves the embeddable widgets. Assets are rendered once on creation.
type Server struct {
	conf       *config.Config
	scripts    map[string]*asset
	frames     map[string]*asset
	httpServer *http.Server
	logger     *zap.Logger
}

func New(conf *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		conf:    conf,
		scripts: make(map[string]*asset),
		frames:  make(map[string]*asset),
		logger:  logger,
	}

	for _, v := range widget.Variants() {
		script, err := RenderLoaderScript(v, conf.EmbedOrigin(v))
		if err != nil {
			return nil, fmt.Errorf("failed to render %s loader: %w", v.Name, err)
		}
		s.scripts[v.ScriptPath] = newAsset(script, "application/javascript; charset=utf-8")

		page, err := RenderFramePage(v)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s frame: %w", v.Name, err)
		}
		s.frames[v.EmbedPath] = newAsset(page, "text/html; charset=utf-8")
	}

	s.httpServer = &http.Server{
		Addr:              conf.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler for every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for path := range s.scripts {
		mux.HandleFunc("GET "+path, s.scriptHandler)
	}
	for path := range s.frames {
		mux.HandleFunc("GET "+path, s.frameHandler)
	}
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/env-check", s.envCheckHandler)
	return s.logRequests(mux)
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", zap.String("addr", s.conf.Server.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) scriptHandler(w http.ResponseWriter, r *http.Request) {
	a := s.scripts[r.URL.Path]
	w.Header().Set("Cache-Control", "public, max-age=300")
	s.serveAsset(w, r, a)
}

func (s *Server) frameHandler(w http.ResponseWriter, r *http.Request) {
	a := s.frames[r.URL.Path]
	w.Header().Set("Content-Security-Policy", "frame-ancestors "+s.frameAncestors())
	w.Header().Set("Cache-Control", "no-cache")
	s.serveAsset(w, r, a)
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, a *asset) {
	if a == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("ETag", a.etag)
	if etagMatches(r.Header.Get("If-None-Match"), a.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", a.contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(a.body); err != nil {
		s.logger.Debug("failed to write response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// envCheckHandler reports which of the configured environment variables are
// set. Values are never included.
func (s *Server) envCheckHandler(w http.ResponseWriter, r *http.Request) {
	present := make(map[string]bool, len(s.conf.EnvCheck))
	for _, name := range s.conf.EnvCheck {
		_, ok := os.LookupEnv(name)
		present[name] = ok
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(present); err != nil {
		s.logger.Error("failed to encode env check", zap.Error(err))
	}
}

func (s *Server) frameAncestors() string {
	if len(s.conf.Embed.FrameAncestors) == 0 {
		return "*"
	}
	return strings.Join(s.conf.Embed.FrameAncestors, " ")
}

func etagMatches(ifNoneMatch string, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug(
			"request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote-addr", r.RemoteAddr),
		)
	})
}
