// Package resource resolves response resources to their content,
// keeping the content in memory after the first read.
package resource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Semior001/restmock/pkg/discovery"
	"golang.org/x/sync/singleflight"
)

// UnavailableError is returned when the content of a resource can't be read.
type UnavailableError struct {
	Location string
	Err      error
}

// Error returns the error message.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("resource %q is unavailable: %v", e.Location, e.Err)
}

// Unwrap returns the read error.
func (e *UnavailableError) Unwrap() error { return e.Err }

// Cache serves resource contents. Each location is read from the source
// once; concurrent first reads of the same location share a single load.
// Failed reads are not remembered.
type Cache struct {
	src Source

	contents sync.Map // location -> string
	loads    singleflight.Group

	// gen is bumped by Reset, loads started before it don't store
	// their content
	mu  sync.RWMutex
	gen uint64
}

// NewCache makes a new cache over the source.
func NewCache(src Source) *Cache {
	return &Cache{src: src}
}

// Get waits for the resource delay and returns its content.
// The delay is paid on every call, not only on the first read.
// It returns early with the context error if the context is done
// while waiting.
func (c *Cache) Get(ctx context.Context, res discovery.Resource) (string, error) {
	if res.Delay > 0 {
		slog.DebugContext(ctx, "delaying response",
			slog.String("location", res.Location),
			slog.Duration("delay", res.Delay))

		timer := time.NewTimer(res.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if content, ok := c.contents.Load(res.Location); ok {
		return content.(string), nil
	}

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	v, err, _ := c.loads.Do(fmt.Sprintf("%d:%s", gen, res.Location), func() (any, error) {
		if content, ok := c.contents.Load(res.Location); ok {
			return content, nil
		}

		bts, err := c.src.ReadFile(res.Location)
		if err != nil {
			return nil, &UnavailableError{Location: res.Location, Err: err}
		}

		slog.DebugContext(ctx, "resource loaded",
			slog.String("location", res.Location),
			slog.Int("size", len(bts)))

		content := string(bts)

		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.gen == gen {
			c.contents.Store(res.Location, content)
		}

		return content, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// Reset drops all loaded contents, so the next Get of every
// resource reads the source again.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.contents.Clear()
}
