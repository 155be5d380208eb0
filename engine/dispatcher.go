package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// Dispatcher tries engines one after another in configured order and returns
// the first success. The engine that last worked for a domain is tried first.
type Dispatcher struct {
	engines []Engine
	memory  *DomainMemory
}

// NewDispatcher creates a Dispatcher. memory may be nil.
func NewDispatcher(engines []Engine, memory *DomainMemory) *Dispatcher {
	return &Dispatcher{engines: engines, memory: memory}
}

// Engines returns the engine names in configured order.
func (d *Dispatcher) Engines() []string {
	names := make([]string, len(d.engines))
	for i, e := range d.engines {
		names[i] = e.Name()
	}
	return names
}

// Dispatch runs the engines for req until one succeeds. If all fail, the
// joined errors are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(d.engines) == 0 {
		return nil, fmt.Errorf("dispatcher: no engines configured")
	}

	domain := extractDomain(req.URL)
	remembered := d.memory.Get(domain)

	var errs []error
	for _, eng := range d.order(remembered) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slog.Debug("engine starting", "engine", eng.Name(), "url", req.URL)
		result, err := eng.Fetch(ctx, req)
		if err != nil {
			slog.Debug("engine failed", "engine", eng.Name(), "url", req.URL, "error", err)
			if eng.Name() == remembered {
				d.memory.Delete(domain)
			}
			errs = append(errs, err)
			continue
		}

		if result.EngineName == "" {
			result.EngineName = eng.Name()
		}
		d.memory.Set(domain, result.EngineName)
		return result, nil
	}

	return nil, fmt.Errorf("dispatcher: all engines failed for %s: %w", req.URL, errors.Join(errs...))
}

// order puts the remembered engine first and keeps the rest in configured order.
func (d *Dispatcher) order(remembered string) []Engine {
	if remembered == "" {
		return d.engines
	}
	ordered := make([]Engine, 0, len(d.engines))
	for _, e := range d.engines {
		if e.Name() == remembered {
			ordered = append(ordered, e)
		}
	}
	if len(ordered) == 0 {
		return d.engines
	}
	for _, e := range d.engines {
		if e.Name() != remembered {
			ordered = append(ordered, e)
		}
	}
	return ordered
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
