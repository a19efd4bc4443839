package fileprovider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/Semior001/restmock/pkg/discovery"
)

// Stdin discovers routing rules from standard input.
// The format is detected from the content.
type Stdin struct {
	// Reader is the source of configuration data.
	// Defaults to os.Stdin if not specified.
	Reader io.Reader

	once sync.Once
	data []byte
	err  error
}

// Name returns the name of the provider.
func (s *Stdin) Name() string {
	return "stdin"
}

// Events sends a single event, stdin is never re-read.
func (s *Stdin) Events(ctx context.Context) <-chan string {
	res := make(chan string, 1)
	res <- s.Name()

	go func() {
		<-ctx.Done()
		close(res)
	}()

	return res
}

// State parses stdin and returns the routing rules from it.
// The input is read once, subsequent calls parse the same data.
func (s *Stdin) State(ctx context.Context) (*discovery.State, error) {
	s.once.Do(func() {
		reader := s.Reader
		if reader == nil {
			reader = os.Stdin
		}
		s.data, s.err = io.ReadAll(reader)
	})
	if s.err != nil {
		return nil, &ConfigurationError{Source: s.Name(), Err: fmt.Errorf("read: %w", s.err)}
	}

	format := SniffFormat(s.data)
	slog.DebugContext(ctx, "parsing configuration from stdin", slog.String("format", string(format)))

	cfg, err := Decode(bytes.NewReader(s.data), format)
	if err != nil {
		return nil, &ConfigurationError{Source: s.Name(), Err: err}
	}

	rules, err := parseRules(ctx, cfg)
	if err != nil {
		return nil, &ConfigurationError{Source: s.Name(), Err: err}
	}

	return &discovery.State{Name: s.Name(), Rules: rules}, nil
}
