package fileprovider

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		doc     string
		wantErr string
	}{
		{
			name:    "unsupported version",
			format:  FormatYAML,
			doc:     `version: "2"`,
			wantErr: "/version",
		},
		{
			name:    "unknown field",
			format:  FormatYAML,
			doc:     "version: \"1\"\nupstreams: []",
			wantErr: "field upstreams not found",
		},
		{
			name:   "unsupported method",
			format: FormatYAML,
			doc: `
version: "1"
rules:
  - method: PUT
    url: /a
    resource: {location: a.json}`,
			wantErr: "/rules/0/method",
		},
		{
			name:   "negative delay",
			format: FormatYAML,
			doc: `
version: "1"
rules:
  - method: GET
    url: /a
    resource: {location: a.json, delay: -5}`,
			wantErr: "/rules/0/resource/delay",
		},
		{
			name:   "no response",
			format: FormatYAML,
			doc: `
version: "1"
rules:
  - method: POST
    url: /a`,
			wantErr: "/rules/0",
		},
		{
			name:   "empty location",
			format: FormatYAML,
			doc: `
version: "1"
rules:
  - method: POST
    url: /a
    groups:
      - resource: {location: ""}`,
			wantErr: "/rules/0/groups/0/resource/location",
		},
		{
			name:    "empty yaml",
			format:  FormatYAML,
			doc:     "",
			wantErr: "empty document",
		},
		{
			name:    "wrong xml root",
			format:  FormatXML,
			doc:     `<rules/>`,
			wantErr: "expected <configurations> root element",
		},
		{
			name:    "unexpected xml element",
			format:  FormatXML,
			doc:     `<configurations><configuration type="GET" url="/a"><body>x</body></configuration></configurations>`,
			wantErr: "unexpected element <body>",
		},
		{
			name:    "bad xml delay",
			format:  FormatXML,
			doc:     `<configurations><configuration type="GET" url="/a"><resource delay="soon">a</resource></configuration></configurations>`,
			wantErr: `parse delay "soon"`,
		},
		{
			name:    "xml group without resource",
			format:  FormatXML,
			doc:     `<configurations><configuration type="POST" url="/a"><resource-groups><resource-group><xpath>/a</xpath></resource-group></resource-groups></configuration></configurations>`,
			wantErr: "missing <resource>",
		},
		{
			name:    "xml without url",
			format:  FormatXML,
			doc:     `<configurations><configuration type="GET"><resource>a</resource></configuration></configurations>`,
			wantErr: "/rules/0/url",
		},
		{
			name:    "malformed xml",
			format:  FormatXML,
			doc:     `<configurations><configuration>`,
			wantErr: "read xml",
		},
		{
			name:    "unknown format",
			format:  "toml",
			doc:     `version = "1"`,
			wantErr: `unsupported format "toml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecode_EmptyRuleSet(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`version: "1"`), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, cfg.Rules)

	cfg, err = Decode(strings.NewReader(`<configurations/>`), FormatXML)
	require.NoError(t, err)
	assert.Empty(t, cfg.Rules)
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr string
	}{
		{
			name:    "GET without resource",
			rule:    Rule{Method: "GET", URL: "/a", Groups: []Group{{Resource: Resource{Location: "a"}}}},
			wantErr: "GET rule must have a resource",
		},
		{
			name: "GET with groups",
			rule: Rule{Method: "get", URL: "/a", Resource: &Resource{Location: "a"},
				Groups: []Group{{Resource: Resource{Location: "a"}}}},
			wantErr: "GET rule can't have groups",
		},
		{
			name: "POST with both resource and groups",
			rule: Rule{Method: "POST", URL: "/a", Resource: &Resource{Location: "a"},
				Groups: []Group{{Resource: Resource{Location: "a"}}}},
			wantErr: "can't set both resource and groups",
		},
		{
			name:    "POST without response",
			rule:    Rule{Method: "POST", URL: "/a"},
			wantErr: "empty response in rule",
		},
		{
			name: "unbound namespace prefix",
			rule: Rule{Method: "POST", URL: "/a",
				Groups: []Group{{XPath: "/x:a", Resource: Resource{Location: "a"}}}},
			wantErr: "group #0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRules(context.Background(), Config{Version: "1", Rules: []Rule{tt.rule}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRules_KeepsDeclaredOrder(t *testing.T) {
	rules, err := parseRules(context.Background(), Config{Version: "1", Rules: []Rule{
		{Method: "POST", URL: "/a", Groups: []Group{
			{Resource: Resource{Location: "catch-all"}},
			{XPath: "/a", Resource: Resource{Location: "shadowed"}},
		}},
		{Method: "GET", URL: "/b", Resource: &Resource{Location: "b1"}},
		{Method: "GET", URL: "/b", Resource: &Resource{Location: "b2"}},
	}})
	require.NoError(t, err)

	require.Len(t, rules, 3)
	require.Len(t, rules[0].Groups, 2)
	assert.True(t, rules[0].Groups[0].Unconditional())
	assert.Equal(t, "shadowed", rules[0].Groups[1].Resource.Location)
	assert.Equal(t, "b1", rules[1].Resource.Location)
	assert.Equal(t, "b2", rules[2].Resource.Location)
}

func TestSniffFormat(t *testing.T) {
	assert.Equal(t, FormatXML, SniffFormat([]byte("  \n<?xml version=\"1.0\"?><configurations/>")))
	assert.Equal(t, FormatXML, SniffFormat([]byte("<configurations/>")))
	assert.Equal(t, FormatYAML, SniffFormat([]byte("version: \"1\"")))
	assert.Equal(t, FormatYAML, SniffFormat(nil))
}
