// Package server is the Dressify edge server. It serves the storefront
// assets and the widget loader, and proxies /api and /images to the backend.
//
//	GET  /embed.js          rendered widget loader
//	GET  /healthz           liveness + process stats
//	ANY  /api/*, /images/*  reverse proxy to BACKEND_URL
//	GET  /*                 static asset, else index.html (SPA fallback)
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/process"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vesaa/dressify/internal/config"
	"github.com/vesaa/dressify/internal/loader"
)

// Server wires the edge routes onto a Gin engine.
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	proxy   *httputil.ReverseProxy
	loader  *loader.Loader
	assets  fs.FS
	proc    *process.Process
	started time.Time
	log     *log.Entry
}

// New builds the server from cfg. cfg must already be normalized.
func New(cfg *config.Config) (*Server, error) {
	target, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}

	ldr, err := loader.New(loader.Options{WidgetURL: cfg.WidgetURL})
	if err != nil {
		return nil, fmt.Errorf("building widget loader: %w", err)
	}

	assets, err := staticAssets(cfg.StaticDir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		loader:  ldr,
		assets:  assets,
		started: time.Now(),
		log:     log.WithField("component", "server"),
	}
	s.proxy = newBackendProxy(target, s.log)

	// Process stats are best-effort; /healthz omits them when unavailable.
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestID(), requestLogger(s.log))
	s.registerRoutes(s.engine)
	s.registerStaticFiles(s.engine)
	return s, nil
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Loader returns the widget loader served at /embed.js.
func (s *Server) Loader() *loader.Loader {
	return s.loader
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Infof("listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeoutDuration())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
