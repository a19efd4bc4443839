// Package fileprovider provides discovery providers that read
// the rule document from a file or from standard input.
package fileprovider

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Semior001/restmock/pkg/discovery"
	"github.com/cappuccinotm/slogx"
)

// File discovers the changes in routing rules from a file.
// Files with the .xml extension are read as XML documents,
// any other file as YAML.
type File struct {
	FileName      string
	CheckInterval time.Duration
	Delay         time.Duration
}

// Name returns the name of the provider.
func (d *File) Name() string {
	return fmt.Sprintf("file:%s", d.FileName)
}

// Format returns the format of the document, based on the file extension.
func (d *File) Format() Format {
	if strings.EqualFold(filepath.Ext(d.FileName), ".xml") {
		return FormatXML
	}
	return FormatYAML
}

// Events emits an event once the file is readable and then
// on every modification, settled for at least Delay.
func (d *File) Events(ctx context.Context) <-chan string {
	res := make(chan string)

	go func() {
		defer close(res)

		ticker := time.NewTicker(d.CheckInterval)
		defer ticker.Stop()

		var applied time.Time
		if modif, ok := d.modifTime(ctx); ok {
			select {
			case res <- d.Name():
				applied = modif
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			modif, ok := d.modifTime(ctx)
			if !ok || !d.settled(applied, modif) {
				continue
			}

			slog.DebugContext(ctx, "file changed",
				slog.String("file", d.FileName),
				slog.String("last_modified", applied.Format(time.RFC3339Nano)),
				slog.String("current_modified", modif.Format(time.RFC3339Nano)))

			// skip the change if nobody listens right now,
			// it'll be picked up on the next tick
			select {
			case res <- d.Name():
				applied = modif
			default:
			}
		}
	}()

	return res
}

// settled returns true if the file has been modified after the last
// applied change and the change is old enough.
func (d *File) settled(applied, modif time.Time) bool {
	return !modif.Equal(applied) && modif.Sub(applied) >= d.Delay
}

// State parses the file and returns the routing rules from it.
func (d *File) State(ctx context.Context) (*discovery.State, error) {
	bts, err := os.ReadFile(d.FileName)
	if err != nil {
		return nil, &ConfigurationError{Source: d.Name(), Err: fmt.Errorf("read file: %w", err)}
	}

	cfg, err := Decode(bytes.NewReader(bts), d.Format())
	if err != nil {
		return nil, &ConfigurationError{Source: d.Name(), Err: err}
	}

	rules, err := parseRules(ctx, cfg)
	if err != nil {
		return nil, &ConfigurationError{Source: d.Name(), Err: err}
	}

	return &discovery.State{Name: d.Name(), Rules: rules}, nil
}

func (d *File) modifTime(ctx context.Context) (modif time.Time, ok bool) {
	fi, err := os.Stat(d.FileName)
	if err != nil {
		slog.WarnContext(ctx, "failed to read file",
			slog.String("file", d.FileName),
			slogx.Error(err))
		return time.Time{}, false
	}

	if fi.IsDir() {
		slog.WarnContext(ctx, "expected file, but found a directory",
			slog.String("file", d.FileName))
		return time.Time{}, false
	}

	return fi.ModTime(), true
}
