package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Options holds backend connection parameters. Relational backends use DSN
// and the pool settings; the local backend uses DataDir.
type Options struct {
	DSN            string
	DataDir        string
	MaxOpenConns   int
	ConnectTimeout time.Duration
}

// Factory creates an unconnected-or-connected Backend for the given options.
type Factory func(opts Options) (Backend, error)

// Registry maps backend names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterDriver registers a backend factory under name.
func (r *Registry) RegisterDriver(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Drivers returns the registered backend names, sorted.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the named backend and waits until it answers Ping, retrying
// with exponential backoff until opts.ConnectTimeout elapses. A zero timeout
// means a single attempt.
func (r *Registry) Open(ctx context.Context, name string, opts Options) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownBackend, name, r.Drivers())
	}

	backend, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", name, err)
	}

	if opts.ConnectTimeout <= 0 {
		if err := backend.Ping(ctx); err != nil {
			backend.Close()
			return nil, err
		}
		return backend, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	backoff := retry.WithCappedDuration(5*time.Second, retry.NewExponential(250*time.Millisecond))
	var lastErr error
	err = retry.Do(pingCtx, backoff, func(ctx context.Context) error {
		if err := backend.Ping(ctx); err != nil {
			lastErr = err
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		backend.Close()
		// Do reports the context error on timeout; the last ping failure is
		// the useful one.
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}
	return backend, nil
}
