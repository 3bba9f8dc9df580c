// Package server serves evaluated catalogs over HTTP.
//
// Routes:
//
//	GET /healthz               liveness, build version and cache backend
//	GET /catalog?env=<stage>   catalog JSON
//	GET /catalog.dot?env=...   ordering graph as Graphviz DOT
//	GET /catalog.svg?env=...   ordering graph as SVG
//
// Catalogs are cached per stage, configuration hash and input file
// fingerprints; pass refresh=true
// to re-evaluate. Evaluation errors map to HTTP statuses by error code.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"regexp"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/railcar/pkg/cache"
	"github.com/matzehuels/railcar/pkg/catalog"
	"github.com/matzehuels/railcar/pkg/config"
	"github.com/matzehuels/railcar/pkg/errors"
)

// Evaluator evaluates the configured manifest for a stage.
type Evaluator func(ctx context.Context, env string) (*catalog.Catalog, error)

// Options configures a Server.
type Options struct {
	Config   *config.Config // Required
	Evaluate Evaluator      // Required
	Cache    cache.Cache    // Catalog cache (default: none)
	Keyer    cache.Keyer    // Catalog cache keys (default: unscoped)
	TTL      time.Duration  // Catalog cache lifetime (default: 10m)
	Version  string         // Reported by /healthz
	Logger   *log.Logger    // Request log (default: discard)

	// Inputs fingerprints the files a stage is evaluated from (Gemfile,
	// lockfile, inventory snapshot). Cached catalogs are keyed by them.
	Inputs func(env string) []string
}

// DefaultTTL is how long an evaluated catalog is served from cache.
const DefaultTTL = 10 * time.Minute

// Server is the catalog HTTP service.
type Server struct {
	opts   Options
	router chi.Router
}

// New creates a server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Evaluate == nil {
		return nil, errors.New(errors.ErrCodeConfig, "server needs a configuration and an evaluator")
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	s := &Server{opts: opts}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/catalog", s.handleCatalog)
	r.Get("/catalog.dot", s.handleDOT)
	r.Get("/catalog.svg", s.handleSVG)
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.opts.Logger.Info("serving catalogs", "addr", l.Addr().String())
	if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "listen on %s", addr)
	}
	return s.Serve(ctx, l)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.opts.Logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "took", time.Since(start).Round(time.Millisecond),
			"id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status":  "ok",
		"version": s.opts.Version,
		"cache":   cache.Backend(s.opts.Cache),
	}
	status := http.StatusOK
	if p, ok := s.opts.Cache.(cache.Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.opts.Logger.Warn("cache unreachable", "err", err)
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, body)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := c.WriteJSON(&buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	io.WriteString(w, catalog.ToDOT(c, catalog.Options{Detailed: r.URL.Query().Get("detailed") == "true"}))
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	svg, err := catalog.RenderSVG(r.Context(), catalog.ToDOT(c, catalog.Options{}))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render svg"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

var envPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// catalog returns the catalog for the requested stage, writing an error
// response when it cannot.
func (s *Server) catalog(w http.ResponseWriter, r *http.Request) (*catalog.Catalog, bool) {
	q := r.URL.Query()
	env := q.Get("env")
	if env == "" {
		env = s.opts.Config.RailsEnv
	}
	if !envPattern.MatchString(env) {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid env %q", env))
		return nil, false
	}

	ctx := r.Context()
	keyOpts := cache.CatalogKeyOpts{ConfigHash: s.opts.Config.ForEnv(env).Hash()}
	if s.opts.Inputs != nil {
		keyOpts.Inputs = s.opts.Inputs(env)
	}
	key := s.opts.Keyer.CatalogKey(env, keyOpts)
	if q.Get("refresh") != "true" {
		if data, ok, err := s.opts.Cache.Get(ctx, key); err == nil && ok {
			if c, err := catalog.ReadJSON(bytes.NewReader(data)); err == nil {
				w.Header().Set("X-Cache", "hit")
				return c, true
			}
		}
	}

	c, err := s.opts.Evaluate(ctx, env)
	if err != nil {
		s.opts.Logger.Warn("evaluation failed", "env", env, "err", err)
		writeError(w, err)
		return nil, false
	}
	var buf bytes.Buffer
	if err := c.WriteJSON(&buf); err == nil {
		if err := s.opts.Cache.Set(ctx, key, buf.Bytes(), s.opts.TTL); err != nil {
			s.opts.Logger.Warn("catalog cache write failed", "err", err)
		}
	}
	w.Header().Set("X-Cache", "miss")
	return c, true
}

// StatusCode maps an evaluation error to an HTTP status.
func StatusCode(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPackage, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodePackageNotFound:
		return http.StatusNotFound
	case errors.ErrCodeIdentityConflict, errors.ErrCodeGraphCycle, errors.ErrCodeInvalidManifest, errors.ErrCodeConfig:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork, errors.ErrCodeRateLimited:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := map[string]string{"error": errors.UserMessage(err)}
	if code := errors.GetCode(err); code != "" {
		body["code"] = string(code)
	}
	writeJSON(w, StatusCode(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
