// Package middleware contains HTTP middlewares of the mock server.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/cappuccinotm/slogx/slogm"
	"github.com/go-chi/chi/v5/middleware"
)

// Middleware is a function that intercepts the execution of an HTTP handler.
type Middleware func(http.Handler) http.Handler

// Wrap is a chain of middlewares.
func Wrap(base http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// Chain chains the middlewares.
func Chain(mws ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		return Wrap(next, mws...)
	}
}

// AppInfo adds the app info to the response headers.
func AppInfo(app, author, version string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-App-Name", app)
			w.Header().Set("X-App-Author", author)
			w.Header().Set("X-App-Version", version)
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID puts the request ID, assigned by chi, into the logging context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(slogm.ContextWithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// Recoverer recovers from panics, logs the panic and responds
// with the internal server error.
func Recoverer(responseMessage string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}

				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				slog.ErrorContext(r.Context(), "request panic",
					slog.String("method", r.Method),
					slog.String("uri", r.URL.RequestURI()),
					slog.String("remote", r.RemoteAddr),
					slog.Any("panic", rvr))

				http.Error(w, responseMessage, http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Maybe is a middleware that conditionally applies the given middleware.
func Maybe(apply bool, mw Middleware) Middleware {
	if !apply {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
