// Package frontend serves the built single-page frontend on the local address
// the window loads, and forwards its API calls to the backend.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hsdesk/internal/desk"
	"hsdesk/internal/metrics"
)

// Options configures a Server.
type Options struct {
	Listen    string
	StaticDir string
	APITarget string // empty disables the /api proxy
	Ignore    []string
	Metrics   *metrics.Metrics // nil disables /metrics
	Logger    desk.Logger
}

// Server is the local frontend server.
type Server struct {
	router   *chi.Mux
	opts     Options
	logger   desk.Logger
	server   *http.Server
	listener net.Listener
}

// New builds the router. Nothing listens until Start.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = desk.NewNopLogger()
	}

	patterns := append([]string(nil), opts.Ignore...)
	filePatterns, err := ParseIgnoreFile(filepath.Join(opts.StaticDir, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, filePatterns...)

	s := &Server{
		router: chi.NewRouter(),
		opts:   opts,
		logger: opts.Logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)
	if opts.Metrics != nil {
		s.router.Use(opts.Metrics.Middleware(routeLabel))
	}

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	if opts.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	if opts.APITarget != "" {
		proxy, err := s.newAPIProxy(opts.APITarget)
		if err != nil {
			return nil, err
		}
		s.router.Handle("/api/*", proxy)
	}

	spa := spaHandler{root: opts.StaticDir, ignore: NewIgnoreMatcher(patterns)}
	s.router.Method(http.MethodGet, "/*", spa)
	s.router.Method(http.MethodHead, "/*", spa)

	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address and serves in the background.
// Listen errors are returned; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Listen, err)
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("frontend server listening", "addr", ln.Addr().String(), "static_dir", s.opts.StaticDir, "api_target", s.opts.APITarget)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("frontend server stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for active ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) newAPIProxy(target string) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api target %q", target)
	}
	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Warn("backend unreachable", "path", r.URL.Path, "target", target, "error", err)
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordProxyError()
		}
		http.Error(w, "backend unreachable", http.StatusBadGateway)
	}
	return proxy, nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func routeLabel(r *http.Request) string {
	switch p := r.URL.Path; {
	case strings.HasPrefix(p, "/api/"):
		return "api"
	case p == "/metrics", p == "/healthz":
		return strings.TrimPrefix(p, "/")
	default:
		return "static"
	}
}
