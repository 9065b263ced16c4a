// Package server wires the upload handler, the file listing and the
// static site into one HTTP server.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"gopher-upload/internal/cache"
	"gopher-upload/internal/config"
	"gopher-upload/internal/discovery"
	"gopher-upload/internal/errors"
	"gopher-upload/internal/security"
	"gopher-upload/internal/upload"
	"gopher-upload/web/handler"
)

const (
	listKey         = "list"
	shutdownTimeout = 10 * time.Second
)

// Server serves the upload endpoint, the file listing and static files.
type Server struct {
	cfg     *config.Config
	logger  *log.Logger
	cache   cache.Cache
	uploads *upload.Handler
	router  *mux.Router
}

// New builds a server. The cache is owned by the caller.
func New(cfg *config.Config, c cache.Cache, logger *log.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		cache:  c,
	}

	hooks := upload.Chain(
		upload.LogHooks{Logger: logger},
		invalidateHooks{cache: c, logger: logger},
	)
	uploads, err := upload.New(cfg.Upload, upload.WithHooks(hooks), upload.WithPrefix(upload.DefaultPrefix))
	if err != nil {
		return nil, err
	}
	s.uploads = uploads
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	// Plain GET/PUT/DELETE on the upload endpoint go back home; only
	// the upload middleware's own verbs reach it.
	r.HandleFunc(upload.DefaultPrefix, redirectHome).Methods(http.MethodGet, http.MethodPut, http.MethodDelete)
	r.Handle(upload.DefaultPrefix, s.uploads)
	r.PathPrefix(upload.DefaultPrefix + "/").Handler(s.uploads)

	r.HandleFunc("/list", s.list).Methods(http.MethodGet, http.MethodHead)

	uploadURL := s.cfg.Upload.URL
	r.PathPrefix(uploadURL + "/").Handler(http.StripPrefix(uploadURL, handler.Files(s.cfg.Upload.Dir)))

	r.PathPrefix("/").Handler(handler.Static(s.cfg.PublicDir))
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, hit, err := s.cache.Get(ctx, listKey)
	if err != nil {
		s.logger.Warn("list cache read failed", "err", err)
	}
	if !hit {
		files, err := s.uploads.Manager().Files(ctx)
		if err != nil {
			s.logger.Error("list failed", "err", err)
			http.Error(w, errors.UserMessage(err), errors.HTTPStatus(err))
			return
		}
		data, err = json.Marshal(files)
		if err != nil {
			http.Error(w, "Server Error", http.StatusInternalServerError)
			return
		}
		if err := s.cache.Set(ctx, listKey, data, s.cfg.Cache.TTL); err != nil {
			s.logger.Warn("list cache write failed", "err", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// invalidateHooks drops the cached listing whenever the upload
// directory changes.
type invalidateHooks struct {
	upload.NoopHooks
	cache  cache.Cache
	logger *log.Logger
}

func (h invalidateHooks) OnEnd(ctx context.Context, info upload.FileInfo) {
	if info.Name != "" {
		h.invalidate(ctx)
	}
}

func (h invalidateHooks) OnDelete(ctx context.Context, _ string) {
	h.invalidate(ctx)
}

func (h invalidateHooks) invalidate(ctx context.Context) {
	if err := h.cache.Delete(ctx, listKey); err != nil {
		h.logger.Warn("list cache invalidation failed", "err", err)
	}
}

// Run listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", s.cfg.Addr())
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. With TLS enabled, ln is
// wrapped with a freshly generated self-signed certificate.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := os.MkdirAll(s.cfg.Upload.Dir, 0755); err != nil {
		ln.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "create upload dir")
	}

	scheme := "http"
	if s.cfg.TLS {
		tlsConfig, err := security.GenerateTLSConfig(s.cfg.Host)
		if err != nil {
			ln.Close()
			return errors.Wrap(errors.ErrCodeInternal, err, "generate certificate")
		}
		ln = tls.NewListener(ln, tlsConfig)
		scheme = "https"
	}

	port := s.cfg.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	if s.cfg.DiscoveryPort > 0 {
		go func() {
			if err := discovery.Listen(ctx, s.cfg.DiscoveryPort, scheme, port, s.logger); err != nil {
				s.logger.Warn("discovery disabled", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("server started", "url", scheme+"://"+ln.Addr().String())

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
