package server

// Option is a functional option for the server.
type Option func(*Server)

// Version sets the version of the server.
func Version(v string) Option {
	return func(s *Server) { s.version = v }
}

// Debug enables the debug mode, request and response headers are logged.
func Debug() Option {
	return func(s *Server) { s.debug = true }
}

// MaxBodySize limits the size of the request body, zero means no limit.
func MaxBodySize(n int64) Option {
	return func(s *Server) { s.maxBodySize = n }
}

// WithMetrics enables the request metrics and mounts the metrics and health
// endpoints under the service prefix.
func WithMetrics() Option {
	return func(s *Server) { s.metrics = newMetrics() }
}
