// Package xpathx evaluates boolean XPath expressions against XML request bodies.
package xpathx

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var errEmptyBody = errors.New("empty body")

// MalformedBodyError is returned when the request body can't be parsed
// as an XML document, so no expression could be evaluated against it.
type MalformedBodyError struct {
	Err error
}

// Error returns the error message.
func (e *MalformedBodyError) Error() string {
	return fmt.Sprintf("malformed body: %v", e.Err)
}

// Unwrap returns the parse error.
func (e *MalformedBodyError) Unwrap() error { return e.Err }

// Expr is a compiled XPath expression together with the namespace
// bindings its prefixes resolve against. It is safe for concurrent use.
type Expr struct {
	raw string
	ns  map[string]string

	// compiled xpath.Expr keeps the iterator state of its last evaluation,
	// each one is used by a single evaluation at a time
	compiled sync.Pool
}

// Compile checks the expression and binds it to the namespaces.
// Every prefix used in the expression must be bound in ns.
func Compile(expr string, ns map[string]string) (*Expr, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("empty expression")
	}

	// a nil map turns off the prefix resolution
	ns = maps.Clone(ns)
	if ns == nil {
		ns = map[string]string{}
	}

	compiled, err := xpath.CompileWithNS(expr, ns)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}

	e := &Expr{raw: expr, ns: ns}
	e.compiled.New = func() any {
		c, err := xpath.CompileWithNS(e.raw, e.ns)
		if err != nil {
			panic(fmt.Sprintf("xpathx: recompile validated expression %q: %v", e.raw, err))
		}
		return c
	}
	e.compiled.Put(compiled)

	return e, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string, ns map[string]string) *Expr {
	e, err := Compile(expr, ns)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the source of the expression.
func (e *Expr) String() string { return e.raw }

// Eval reports whether the expression holds for the document.
// Non-boolean results are converted the way XPath boolean() does it.
func (e *Expr) Eval(doc *Document) bool {
	compiled := e.compiled.Get().(*xpath.Expr)
	defer e.compiled.Put(compiled)

	switch v := compiled.Evaluate(xmlquery.CreateXPathNavigator(doc.root)).(type) {
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	case *xpath.NodeIterator:
		return v.MoveNext()
	default:
		return false
	}
}

// Document is a parsed XML body.
type Document struct {
	root *xmlquery.Node
}

// ParseDocument parses the body as XML. The body must contain a root element.
func ParseDocument(body string) (*Document, error) {
	if strings.TrimSpace(body) == "" {
		return nil, &MalformedBodyError{Err: errEmptyBody}
	}

	root, err := xmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return nil, &MalformedBodyError{Err: err}
	}

	return &Document{root: root}, nil
}

// Match evaluates the expression against the body under the given namespace
// bindings. It returns *MalformedBodyError if the body is not XML.
func Match(expr, body string, ns map[string]string) (bool, error) {
	e, err := Compile(expr, ns)
	if err != nil {
		return false, err
	}

	doc, err := ParseDocument(body)
	if err != nil {
		return false, err
	}

	return e.Eval(doc), nil
}
