package fileprovider

// Config defines a set of rules for the mock to use.
type Config struct {
	Version string `yaml:"version" json:"version" jsonschema:"enum=1,description=Version of the rule document"`
	Rules   []Rule `yaml:"rules"   json:"rules"`
}

// Rule maps a method and a path to the response.
// GET rules have a resource, POST rules have either a resource
// or a list of groups.
type Rule struct {
	Method     string            `yaml:"method"               json:"method"               jsonschema:"pattern=^([Gg][Ee][Tt]|[Pp][Oo][Ss][Tt])$"`
	URL        string            `yaml:"url"                  json:"url"                  jsonschema:"minLength=1,description=Exact request path"`
	Resource   *Resource         `yaml:"resource,omitempty"   json:"resource,omitempty"   jsonschema:"anyof_required=resource"`
	Groups     []Group           `yaml:"groups,omitempty"     json:"groups,omitempty"     jsonschema:"anyof_required=groups,minItems=1"`
	Namespaces map[string]string `yaml:"namespaces,omitempty" json:"namespaces,omitempty" jsonschema:"description=Prefix to namespace URI bindings for the XPath of groups"`
}

// Group is a response of a POST rule, selected when the
// XPath holds for the request body. A group without XPath
// matches any body.
type Group struct {
	XPath    string   `yaml:"xpath,omitempty" json:"xpath,omitempty" jsonschema:"description=XPath 1.0 condition on the request body"`
	Resource Resource `yaml:"resource"        json:"resource"`
}

// Resource specifies where the response is stored and how long
// to wait before responding, in milliseconds.
type Resource struct {
	Location string `yaml:"location"        json:"location"        jsonschema:"minLength=1"`
	Delay    int    `yaml:"delay,omitempty" json:"delay,omitempty" jsonschema:"minimum=0,description=Delay before the response in milliseconds"`
}
