package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cappuccinotm/slogx"
	"github.com/samber/lo"
)

//go:generate moq -out mock_provider.go -fmt goimports . Provider

// Service keeps the active rule index and rebuilds it
// on the signals, received from providers.
type Service struct {
	Providers []Provider

	// OnUpdate is called after a new index has been applied.
	OnUpdate func(ctx context.Context, idx *Index)

	idx *Index
	mu  sync.RWMutex
}

// Load builds the index from the current state of all providers.
// Rules of later providers override rules of earlier ones with the same
// method and path. On error the active index is left untouched.
func (s *Service) Load(ctx context.Context) error {
	var rules []*Rule
	for _, p := range s.Providers {
		st, err := p.State(ctx)
		if err != nil {
			return fmt.Errorf("get state of provider %s: %w", p.Name(), err)
		}
		rules = append(rules, st.Rules...)
	}

	idx := NewIndex(rules)
	get, post := idx.Len()
	slog.InfoContext(ctx, "rules loaded",
		slog.Int("total", len(rules)),
		slog.Int("get", get),
		slog.Int("post", post))

	s.mu.Lock()
	s.idx = idx
	s.mu.Unlock()

	if s.OnUpdate != nil {
		s.OnUpdate(ctx, idx)
	}

	return nil
}

// Run starts a blocking loop that reloads the routing rules
// on the signals, received from providers. Providers signal with their
// name. If the rules were loaded before Run, the first signal of every
// provider, announcing its initial state, is skipped.
func (s *Service) Run(ctx context.Context) (err error) {
	slog.InfoContext(ctx, "starting discovery service")
	defer func() { slog.WarnContext(ctx, "discovery service stopped", slogx.Error(err)) }()

	s.mu.RLock()
	loaded := s.idx != nil
	s.mu.RUnlock()

	initial := map[string]bool{}
	chs := make([]<-chan string, 0, len(s.Providers))
	for _, p := range s.Providers {
		if loaded {
			initial[p.Name()] = true
		}
		chs = append(chs, p.Events(ctx))
	}

	ch := lo.FanIn(0, chs...)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				<-ctx.Done()
				return ctx.Err()
			}

			if initial[ev] {
				delete(initial, ev)
				slog.DebugContext(ctx, "initial state is already loaded", slog.String("event", ev))
				continue
			}

			slog.DebugContext(ctx, "new event update received", slog.String("event", ev))

			if lerr := s.Load(ctx); lerr != nil {
				slog.ErrorContext(ctx, "failed to reload rules, keeping the previous ones",
					slog.String("event", ev),
					slogx.Error(lerr))
			}
		}
	}
}

// Lookup returns the rule for the method and the path.
func (s *Service) Lookup(method, path string) (*Rule, bool) {
	s.mu.RLock()
	idx := s.idx
	s.mu.RUnlock()

	if idx == nil {
		return nil, false
	}

	return idx.Lookup(method, path)
}
