// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the query resolver over HTTP. Each route maps to
// exactly one access pattern and answers with the result envelope
// {pattern, parameters, results, count, elapsed_ms}.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-catalog/internal/metrics"
	"github.com/pdiddy/paper-catalog/internal/query"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Server routes HTTP requests to a query resolver.
type Server struct {
	resolver *query.Resolver
	logger   *zap.Logger
	metrics  *metrics.Collector
	router   *chi.Mux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics counts requests in c and serves c on /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// New returns a Server over resolver.
func New(resolver *query.Resolver, opts ...Option) *Server {
	s := &Server{resolver: resolver, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/papers", func(r chi.Router) {
		r.Get("/recent", s.handleRecent)
		r.Get("/search", s.handleDateRange)
		r.Get("/author/{author}", s.handleAuthor)
		r.Get("/keyword/{keyword}", s.handleKeyword)
		r.Get("/{id}", s.handlePaper)
	})
	return r
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.resolve(w, r, query.Recent(stringParam(r, "category", query.DefaultCategory), limit))
}

func (s *Server) handleDateRange(w http.ResponseWriter, r *http.Request) {
	s.resolve(w, r, query.DateRange(
		stringParam(r, "category", query.DefaultCategory),
		stringParam(r, "start", query.DefaultStart),
		stringParam(r, "end", query.DefaultEnd),
	))
}

func (s *Server) handleAuthor(w http.ResponseWriter, r *http.Request) {
	s.resolve(w, r, query.ByAuthor(pathParam(r, "author")))
}

func (s *Server) handleKeyword(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.resolve(w, r, query.ByKeyword(pathParam(r, "keyword"), limit))
}

func (s *Server) handlePaper(w http.ResponseWriter, r *http.Request) {
	res, ok := s.run(w, r, query.ByID(pathParam(r, "id")))
	if !ok {
		return
	}
	if !res.Found() {
		writeError(w, http.StatusNotFound, "Paper not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request, req query.Request) {
	if res, ok := s.run(w, r, req); ok {
		writeJSON(w, http.StatusOK, res)
	}
}

// run resolves req and writes the error response on failure.
func (s *Server) run(w http.ResponseWriter, r *http.Request, req query.Request) (query.Result, bool) {
	res, err := s.resolver.Resolve(r.Context(), req)
	switch {
	case err == nil:
		return res, true
	case errors.Is(err, query.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("query failed",
			zap.String("pattern", string(req.Pattern)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
	return query.Result{}, false
}

// logRequests logs each request and counts it by route pattern and status.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// LambdaHandler returns a handler for API Gateway HTTP API events that
// serves the same routes as Handler.
func (s *Server) LambdaHandler() func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	adapter := chiadapter.NewV2(s.router)
	return adapter.ProxyWithContextV2
}

func stringParam(r *http.Request, name, def string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return def
}

func limitParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return query.DefaultLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return n, nil
}

func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
