package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Log logs the HTTP requests.
func Log(debug bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statsWriter{ResponseWriter: w, status: http.StatusOK}

			start := time.Now()
			defer func() {
				attrs := []any{
					slog.String("method", r.Method),
					slog.String("uri", r.URL.RequestURI()),
					slog.String("remote", r.RemoteAddr),
					slog.Duration("elapsed", time.Since(start)),
					slog.Int("status", sw.status),
					slog.Int64("recv_size", r.ContentLength),
					slog.Int64("send_size", sw.size),
				}

				if debug {
					attrs = append(attrs,
						slog.Any("request_header", filterHeader(r.Header)),
						slog.Any("response_header", filterHeader(sw.Header())),
					)
				}

				slog.InfoContext(r.Context(), "request", attrs...)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}

var hideHeaders = map[string]struct{}{
	"Authorization": {},
	"Cookie":        {},
	"Set-Cookie":    {},
}

func filterHeader(h http.Header) http.Header {
	if h == nil {
		return nil
	}

	out := make(http.Header, len(h))
	for k, v := range h {
		if _, ok := hideHeaders[http.CanonicalHeaderKey(k)]; ok {
			out[k] = []string{"***"}
			continue
		}
		out[k] = v
	}

	return out
}

type statsWriter struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func (w *statsWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statsWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

func (w *statsWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
