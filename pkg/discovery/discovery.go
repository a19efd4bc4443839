// Package discovery provides the rule set model and the index used to match
// HTTP requests to rules.
package discovery

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Semior001/restmock/pkg/xpathx"
)

// Supported methods.
const (
	MethodGet  = "GET"
	MethodPost = "POST"
)

// Provider provides routing rules for the Service.
type Provider interface {
	// Name returns the name of the provider.
	Name() string

	// Events returns the events of the routing rules.
	// It returns the name of the provider to update the routing rules.
	Events(ctx context.Context) <-chan string

	// State returns the current state of the provider.
	State(ctx context.Context) (*State, error)
}

// State contains the state of the provider.
type State struct {
	// Name is the name of the provider.
	Name string

	// Rules contains the routing rules in declaration order.
	Rules []*Rule
}

// Rule is a routing entry: a method and a path mapped to candidate responses.
type Rule struct {
	// Method is either GET or POST, compared case-insensitively.
	Method string

	// URL is the exact request path.
	URL string

	// Resource is the response of GET rules and of POST rules
	// without groups.
	Resource *Resource

	// Groups are evaluated in declaration order, the first
	// matching group wins.
	Groups []Group

	// Namespaces maps prefixes used in group conditions to URIs.
	Namespaces map[string]string
}

// String returns a short description of the rule.
func (r *Rule) String() string {
	sb := &strings.Builder{}
	_, _ = sb.WriteString("(")
	_, _ = sb.WriteString(strings.ToUpper(r.Method))
	_, _ = sb.WriteString(" ")
	_, _ = sb.WriteString(r.URL)
	if len(r.Groups) > 0 {
		_, _ = sb.WriteString("; ")
		_, _ = sb.WriteString(strconv.Itoa(len(r.Groups)))
		_, _ = sb.WriteString(" groups")
	}
	_, _ = sb.WriteString(")")
	return sb.String()
}

// Group is a conditional branch of a POST rule.
type Group struct {
	// Condition is the body query. Nil means the group
	// matches any body.
	Condition *xpathx.Expr

	Resource Resource
}

// Unconditional returns true if the group matches any body.
func (g Group) Unconditional() bool { return g.Condition == nil }

// Resource describes the response payload.
type Resource struct {
	// Location addresses the content, e.g. a file path.
	Location string

	// Delay is paid on every response served from this resource.
	Delay time.Duration
}
