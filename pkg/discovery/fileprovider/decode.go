package fileprovider

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Format is an encoding of the rule document.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
)

// ConfigurationError is returned when the rule document can't be decoded,
// doesn't conform to the schema or describes invalid rules.
type ConfigurationError struct {
	Source string
	Err    error
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration in %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error { return e.Err }

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if schemaErr = compiler.AddResource("schema.json", strings.NewReader(schemaJSON)); schemaErr != nil {
			return
		}
		schema, schemaErr = compiler.Compile("schema.json")
	})
	return schema, schemaErr
}

// Decode reads the rule document in the given format and validates it
// against the schema.
func Decode(r io.Reader, format Format) (Config, error) {
	var cfg Config
	var err error

	switch format {
	case FormatXML:
		cfg, err = decodeXML(r)
	case FormatYAML, "":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err = dec.Decode(&cfg); errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", format, err)
	}

	if cfg.Rules == nil {
		cfg.Rules = []Rule{}
	}

	if err = validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SniffFormat guesses the format of the document by its first
// significant character.
func SniffFormat(bts []byte) Format {
	if bytes.HasPrefix(bytes.TrimSpace(bts), []byte("<")) {
		return FormatXML
	}
	return FormatYAML
}

func validate(cfg Config) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	// the schema validator works on JSON values, not on Go structs
	bts, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var doc any
	if err = json.Unmarshal(bts, &doc); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err = sch.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("schema violation: %s", schemaViolations(verr))
		}
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func schemaViolations(err *jsonschema.ValidationError) string {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return fmt.Sprintf("%s: %s", loc, err.Message)
	}

	msgs := make([]string, 0, len(err.Causes))
	for _, cause := range err.Causes {
		msgs = append(msgs, schemaViolations(cause))
	}
	return strings.Join(msgs, "; ")
}

// decodeXML reads the document in the form of
//
//	<configurations>
//	  <configuration type="POST" url="/path">
//	    <namespaces><namespace prefix="p">uri</namespace></namespaces>
//	    <resource-groups>
//	      <resource-group><xpath>expr</xpath><resource delay="10">file</resource></resource-group>
//	    </resource-groups>
//	  </configuration>
//	</configurations>
func decodeXML(r io.Reader) (Config, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return Config{}, fmt.Errorf("read xml: %w", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "configurations" {
		return Config{}, errors.New("expected <configurations> root element")
	}

	cfg := Config{Version: "1"}
	for idx, el := range root.ChildElements() {
		if el.Tag != "configuration" {
			return Config{}, fmt.Errorf("unexpected element <%s> at #%d", el.Tag, idx)
		}

		rule, err := xmlRule(el)
		if err != nil {
			return Config{}, fmt.Errorf("configuration #%d: %w", idx, err)
		}
		cfg.Rules = append(cfg.Rules, rule)
	}

	return cfg, nil
}

func xmlRule(el *etree.Element) (rule Rule, err error) {
	rule.Method = el.SelectAttrValue("type", "")
	rule.URL = el.SelectAttrValue("url", "")

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "resource":
			res, err := xmlResource(child)
			if err != nil {
				return Rule{}, err
			}
			rule.Resource = &res
		case "resource-groups":
			for _, g := range child.SelectElements("resource-group") {
				group, err := xmlGroup(g)
				if err != nil {
					return Rule{}, fmt.Errorf("resource group #%d: %w", len(rule.Groups), err)
				}
				rule.Groups = append(rule.Groups, group)
			}
		case "namespaces":
			rule.Namespaces = map[string]string{}
			for _, ns := range child.SelectElements("namespace") {
				rule.Namespaces[ns.SelectAttrValue("prefix", "")] = strings.TrimSpace(ns.Text())
			}
		default:
			return Rule{}, fmt.Errorf("unexpected element <%s>", child.Tag)
		}
	}

	return rule, nil
}

func xmlGroup(el *etree.Element) (group Group, err error) {
	if xp := el.SelectElement("xpath"); xp != nil {
		group.XPath = strings.TrimSpace(xp.Text())
	}

	res := el.SelectElement("resource")
	if res == nil {
		return Group{}, errors.New("missing <resource>")
	}

	if group.Resource, err = xmlResource(res); err != nil {
		return Group{}, err
	}

	return group, nil
}

func xmlResource(el *etree.Element) (res Resource, err error) {
	res.Location = strings.TrimSpace(el.Text())
	if d := el.SelectAttrValue("delay", ""); d != "" {
		if res.Delay, err = strconv.Atoi(d); err != nil {
			return Resource{}, fmt.Errorf("parse delay %q: %w", d, err)
		}
	}
	return res, nil
}
