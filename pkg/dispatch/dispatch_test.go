package dispatch

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Semior001/restmock/pkg/discovery"
	"github.com/Semior001/restmock/pkg/dispatch/mocks"
	"github.com/Semior001/restmock/pkg/resource"
	"github.com/Semior001/restmock/pkg/xpathx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(rules ...*discovery.Rule) *Dispatcher {
	return &Dispatcher{
		Matcher: discovery.NewIndex(rules),
		Loader: resource.NewCache(resource.FS{FS: fstest.MapFS{
			"r1.xml":    {Data: []byte("<r1/>")},
			"r2.xml":    {Data: []byte("<r2/>")},
			"r3.xml":    {Data: []byte("<r3/>")},
			"ping.json": {Data: []byte(`{"pong":true}`)},
		}}),
	}
}

func TestDispatcher_Resolve_Get(t *testing.T) {
	d := newDispatcher(&discovery.Rule{
		Method:   "GET",
		URL:      "/ping",
		Resource: &discovery.Resource{Location: "ping.json", Delay: 50 * time.Millisecond},
	})

	t.Run("known path, delay paid on every call", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			start := time.Now()
			content, found, err := d.Resolve(context.Background(), Request{Method: "GET", Path: "/ping"})
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, `{"pong":true}`, content)
			assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
		}
	})

	t.Run("lowercase method", func(t *testing.T) {
		_, found, err := d.Resolve(context.Background(), Request{Method: "get", Path: "/ping"})
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("unknown path", func(t *testing.T) {
		content, found, err := d.Resolve(context.Background(), Request{Method: "GET", Path: "/nope"})
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, content)
	})

	t.Run("GET rule is not served for POST", func(t *testing.T) {
		_, found, err := d.Resolve(context.Background(), Request{Method: "POST", Path: "/ping"})
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestDispatcher_Resolve_Post(t *testing.T) {
	ns := map[string]string{"o": "urn:orders"}
	groups := []discovery.Group{
		{Condition: xpathx.MustCompile("/order/@status = 'PAID'", nil), Resource: discovery.Resource{Location: "r1.xml"}},
		{Condition: xpathx.MustCompile("//o:item", ns), Resource: discovery.Resource{Location: "r2.xml"}},
		{Resource: discovery.Resource{Location: "r3.xml"}},
	}

	d := newDispatcher(
		&discovery.Rule{Method: "POST", URL: "/orders", Groups: groups, Namespaces: ns},
		&discovery.Rule{Method: "POST", URL: "/strict", Groups: groups[:2], Namespaces: ns},
		&discovery.Rule{Method: "POST", URL: "/simple", Resource: &discovery.Resource{Location: "ping.json"}},
	)

	tests := []struct {
		name      string
		path      string
		body      string
		want      string
		wantFound bool
	}{
		{
			name:      "first condition",
			path:      "/orders",
			body:      `<order status="PAID"/>`,
			want:      "<r1/>",
			wantFound: true,
		},
		{
			name:      "first condition wins over the second",
			path:      "/orders",
			body:      `<order status="PAID" xmlns:o="urn:orders"><o:item/></order>`,
			want:      "<r1/>",
			wantFound: true,
		},
		{
			name:      "only second condition",
			path:      "/orders",
			body:      `<order status="NEW" xmlns:o="urn:orders"><o:item/></order>`,
			want:      "<r2/>",
			wantFound: true,
		},
		{
			name:      "catch-all",
			path:      "/orders",
			body:      `<order status="NEW"/>`,
			want:      "<r3/>",
			wantFound: true,
		},
		{
			name:      "no catch-all, no match",
			path:      "/strict",
			body:      `<order status="NEW"/>`,
			wantFound: false,
		},
		{
			name:      "rule without groups answers with its resource",
			path:      "/simple",
			body:      "anything, even not xml",
			want:      `{"pong":true}`,
			wantFound: true,
		},
		{
			name:      "unknown path",
			path:      "/nope",
			body:      `<order/>`,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, found, err := d.Resolve(context.Background(), Request{Method: "POST", Path: tt.path, Body: tt.body})
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, content)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		for _, path := range []string{"/orders", "/strict"} {
			_, found, err := d.Resolve(context.Background(), Request{Method: "POST", Path: path, Body: "not xml"})
			var mbe *xpathx.MalformedBodyError
			require.ErrorAs(t, err, &mbe, path)
			assert.False(t, found)
		}
	})
}

func TestDispatcher_Resolve_UnconditionalGroupShadowsFollowing(t *testing.T) {
	d := newDispatcher(&discovery.Rule{Method: "POST", URL: "/a", Groups: []discovery.Group{
		{Resource: discovery.Resource{Location: "r1.xml"}},
		{Condition: xpathx.MustCompile("/a", nil), Resource: discovery.Resource{Location: "r2.xml"}},
	}})

	content, found, err := d.Resolve(context.Background(), Request{Method: "POST", Path: "/a", Body: "<a/>"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "<r1/>", content)

	// the body is not examined before the catch-all
	content, found, err = d.Resolve(context.Background(), Request{Method: "POST", Path: "/a", Body: "not xml"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "<r1/>", content)
}

func TestDispatcher_Resolve_LoaderError(t *testing.T) {
	failure := &resource.UnavailableError{Location: "gone.xml", Err: errors.New("no such file")}
	loader := &mocks.LoaderMock{
		GetFunc: func(context.Context, discovery.Resource) (string, error) { return "", failure },
	}
	matcher := &mocks.MatcherMock{
		LookupFunc: func(method, path string) (*discovery.Rule, bool) {
			return &discovery.Rule{Method: method, URL: path, Resource: &discovery.Resource{Location: "gone.xml"}}, true
		},
	}

	d := &Dispatcher{Matcher: matcher, Loader: loader}
	_, found, err := d.Resolve(context.Background(), Request{Method: "GET", Path: "/gone"})
	assert.False(t, found)

	var ue *resource.UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "gone.xml", ue.Location)

	require.Len(t, loader.GetCalls(), 1)
	assert.Equal(t, "gone.xml", loader.GetCalls()[0].Res.Location)
	require.Len(t, matcher.LookupCalls(), 1)
	assert.Equal(t, "/gone", matcher.LookupCalls()[0].Path)
}
