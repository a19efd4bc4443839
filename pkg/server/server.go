// Package server serves the mocked responses over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Semior001/restmock/pkg/dispatch"
	"github.com/Semior001/restmock/pkg/resource"
	"github.com/Semior001/restmock/pkg/server/middleware"
	"github.com/Semior001/restmock/pkg/xpathx"
	"github.com/cappuccinotm/slogx"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

//go:generate moq -out mocks/resolver.go -pkg mocks -skip-ensure -fmt goimports . Resolver

// Resolver resolves the request to the content of the response.
type Resolver interface {
	Resolve(ctx context.Context, req dispatch.Request) (content string, found bool, err error)
}

// ServicePrefix is the path prefix of the endpoints served by restmock itself.
// Rules under this prefix are shadowed when the metrics are enabled.
const ServicePrefix = "/_restmock"

// Server is an HTTP server.
type Server struct {
	version     string
	debug       bool
	maxBodySize int64
	metrics     *metrics

	resolver Resolver
	http     *http.Server
}

// NewServer creates a new server.
func NewServer(r Resolver, opts ...Option) *Server {
	s := &Server{resolver: r}

	for _, opt := range opts {
		opt(s)
	}

	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP)
	r.Use(middleware.Chain(
		middleware.RequestID,
		middleware.Recoverer("{restmock} panic"),
		middleware.AppInfo("restmock", "Semior001", s.version),
		middleware.Log(s.debug),
		middleware.Maybe(s.metrics != nil, s.metrics.middleware),
	))

	if s.metrics != nil {
		r.Route(ServicePrefix, func(r chi.Router) {
			r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				_, _ = io.WriteString(w, "ok")
			})
			r.Method(http.MethodGet, "/metrics", s.metrics.handler())
		})
	}

	r.Get("/*", s.handle)
	r.Post("/*", s.handle)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, POST")
		s.respondError(w, r, http.StatusMethodNotAllowed, outcomeRejected,
			fmt.Sprintf("{restmock} method %s is not supported", r.Method))
	})

	return r
}

// Listen starts the server on the given address.
// Blocking call.
func (s *Server) Listen(addr string) (err error) {
	slog.Info("starting HTTP server", slog.String("addr", addr))
	defer func() { slog.Warn("HTTP server stopped", slogx.Error(err)) }()

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("register listener: %w", err)
	}

	if err = s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

// Close gracefully stops the server.
func (s *Server) Close(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := s.readBody(w, r)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.respondError(w, r, http.StatusRequestEntityTooLarge, outcomeRejected,
				fmt.Sprintf("{restmock} request body exceeds %d bytes", mbe.Limit))
			return
		}

		slog.WarnContext(ctx, "failed to read request body", slogx.Error(err))
		s.respondError(w, r, http.StatusBadRequest, outcomeRejected, "{restmock} failed to read request body")
		return
	}

	content, found, err := s.resolver.Resolve(ctx, dispatch.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   string(body),
	})

	var (
		malformed   *xpathx.MalformedBodyError
		unavailable *resource.UnavailableError
	)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.DebugContext(ctx, "request is gone before the response", slogx.Error(err))
		return
	case errors.As(err, &malformed):
		slog.WarnContext(ctx, "request body is not XML", slogx.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, outcomeMalformed,
			"{restmock} failed to parse request body")
		return
	case errors.As(err, &unavailable):
		slog.ErrorContext(ctx, "response resource is unavailable", slogx.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, outcomeUnavailable,
			fmt.Sprintf("{restmock} resource %q is unavailable", unavailable.Location))
		return
	case err != nil:
		slog.ErrorContext(ctx, "failed to resolve request", slogx.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, outcomeError, "{restmock} internal error")
		return
	case !found:
		s.respondError(w, r, http.StatusNotFound, outcomeNotFound,
			"{restmock} didn't match request to any rule")
		return
	}

	s.metrics.observe(r.Method, outcomeMatched)

	w.Header().Set("Content-Type", contentType(content))
	w.WriteHeader(http.StatusOK)
	if _, err = io.WriteString(w, content); err != nil {
		slog.WarnContext(ctx, "failed to write response", slogx.Error(err))
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	rd := r.Body
	if s.maxBodySize > 0 {
		rd = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	}

	return io.ReadAll(rd)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, code int, outcome, msg string) {
	s.metrics.observe(r.Method, outcome)
	http.Error(w, msg, code)
}

// contentType guesses the media type of the resource content.
func contentType(content string) string {
	trimmed := bytes.TrimSpace([]byte(content))
	switch {
	case len(trimmed) == 0:
		return "text/plain; charset=utf-8"
	case trimmed[0] == '<':
		return "application/xml; charset=utf-8"
	case (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed):
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}
