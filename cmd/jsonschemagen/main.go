// Package main generates the JSON schema of the YAML rule document,
// to be used by editors for completion and validation.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/Semior001/restmock/pkg/discovery/fileprovider"
	"github.com/invopop/jsonschema"
	"github.com/jessevdk/go-flags"
)

type options struct {
	Output string `long:"output" description:"Output file for the schema" default:"schema.json"`

	Title       string `long:"title"       description:"Title for the schema"       default:"restmock rules"`
	Description string `long:"description" description:"Description for the schema"`
	ID          string `long:"id"          description:"ID for the schema"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	bts, err := generate(opts)
	if err != nil {
		log.Fatalf("failed to generate schema: %v", err)
	}

	if err = os.WriteFile(opts.Output, bts, 0o644); err != nil {
		log.Fatalf("failed to write schema to file: %v", err)
	}

	log.Printf("schema written to %s", opts.Output)
}

func generate(opts options) ([]byte, error) {
	reflector := &jsonschema.Reflector{FieldNameTag: "yaml"}

	schema := reflector.Reflect(&fileprovider.Config{})
	schema.Title = opts.Title
	schema.Description = opts.Description
	if opts.ID != "" {
		schema.ID = jsonschema.ID(opts.ID)
	}

	bts, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return bts, nil
}
