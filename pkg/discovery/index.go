package discovery

import "strings"

// Index holds rules partitioned by method and keyed by path.
// It is immutable once built.
type Index struct {
	get  map[string]*Rule
	post map[string]*Rule
}

// NewIndex partitions the rules by method. When two rules share the method
// and the path, the later one wins. Rules with other methods are skipped.
func NewIndex(rules []*Rule) *Index {
	idx := &Index{
		get:  make(map[string]*Rule),
		post: make(map[string]*Rule),
	}

	for _, r := range rules {
		switch strings.ToUpper(r.Method) {
		case MethodGet:
			idx.get[r.URL] = r
		case MethodPost:
			idx.post[r.URL] = r
		}
	}

	return idx
}

// Get returns the GET rule for the path.
func (idx *Index) Get(path string) (*Rule, bool) {
	r, ok := idx.get[path]
	return r, ok
}

// Post returns the POST rule for the path.
func (idx *Index) Post(path string) (*Rule, bool) {
	r, ok := idx.post[path]
	return r, ok
}

// Lookup returns the rule for the method and the path.
func (idx *Index) Lookup(method, path string) (*Rule, bool) {
	switch strings.ToUpper(method) {
	case MethodGet:
		return idx.Get(path)
	case MethodPost:
		return idx.Post(path)
	default:
		return nil, false
	}
}

// Len returns the number of GET and POST rules in the index.
func (idx *Index) Len() (get, post int) {
	return len(idx.get), len(idx.post)
}
