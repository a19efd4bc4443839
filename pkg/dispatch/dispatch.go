// Package dispatch selects the response content for an incoming request.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Semior001/restmock/pkg/discovery"
	"github.com/Semior001/restmock/pkg/xpathx"
)

//go:generate moq -out mocks/mocks.go -pkg mocks -skip-ensure -fmt goimports . Matcher Loader

// Matcher finds the rule for the method and the path.
type Matcher interface {
	Lookup(method, path string) (*discovery.Rule, bool)
}

// Loader resolves a resource to its content.
type Loader interface {
	Get(ctx context.Context, res discovery.Resource) (string, error)
}

// Request is an incoming call.
type Request struct {
	Method string
	Path   string
	Body   string
}

// Dispatcher resolves requests to response contents.
type Dispatcher struct {
	Matcher Matcher
	Loader  Loader
}

// Resolve returns the content of the response for the request.
// found is false when no rule matches the method and the path, or when
// no group of a POST rule matches the body. The error is either
// *xpathx.MalformedBodyError or *resource.UnavailableError.
func (d *Dispatcher) Resolve(ctx context.Context, req Request) (content string, found bool, err error) {
	rule, ok := d.Matcher.Lookup(req.Method, req.Path)
	if !ok {
		slog.DebugContext(ctx, "no rule for request",
			slog.String("method", req.Method),
			slog.String("path", req.Path))
		return "", false, nil
	}

	var res discovery.Resource
	switch strings.ToUpper(req.Method) {
	case discovery.MethodGet:
		if rule.Resource == nil {
			return "", false, nil
		}
		res = *rule.Resource
	case discovery.MethodPost:
		if res, ok, err = d.matchGroup(ctx, rule, req.Body); err != nil || !ok {
			return "", false, err
		}
	default:
		return "", false, nil
	}

	if content, err = d.Loader.Get(ctx, res); err != nil {
		return "", false, fmt.Errorf("load response of %s: %w", rule, err)
	}

	return content, true, nil
}

// matchGroup returns the resource of the first group, in declaration order,
// whose condition holds for the body. The body is parsed lazily, only when
// a conditional group is reached.
func (d *Dispatcher) matchGroup(ctx context.Context, rule *discovery.Rule, body string) (discovery.Resource, bool, error) {
	if len(rule.Groups) == 0 {
		if rule.Resource == nil {
			return discovery.Resource{}, false, nil
		}
		return *rule.Resource, true, nil
	}

	var doc *xpathx.Document
	for idx, g := range rule.Groups {
		if g.Unconditional() {
			slog.DebugContext(ctx, "unconditional group matched",
				slog.String("rule", rule.String()),
				slog.Int("group", idx))
			return g.Resource, true, nil
		}

		if doc == nil {
			var err error
			if doc, err = xpathx.ParseDocument(body); err != nil {
				return discovery.Resource{}, false, fmt.Errorf("evaluate group #%d of %s: %w", idx, rule, err)
			}
		}

		if g.Condition.Eval(doc) {
			slog.DebugContext(ctx, "group matched",
				slog.String("rule", rule.String()),
				slog.Int("group", idx),
				slog.String("xpath", g.Condition.String()))
			return g.Resource, true, nil
		}
	}

	return discovery.Resource{}, false, nil
}
