// Package urls maps route names to paths so handlers and middleware can refer
// to routes by name instead of hard-coding paths.
package urls

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrNoReverseMatch = errors.New("urls: no route with this name")
	ErrDuplicateName  = errors.New("urls: route name already registered")
	ErrInvalidPath    = errors.New("urls: path must start with /")
)

// Resolver turns a route name into a path.
type Resolver interface {
	Reverse(name string) (string, error)
}

// Registry is a concurrency-safe Resolver populated while routes are mounted.
type Registry struct {
	mu    sync.RWMutex
	paths map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{paths: make(map[string]string)}
}

// Register binds name to path. Names are unique.
func (r *Registry) Register(name, path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.paths[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	r.paths[name] = path
	return nil
}

// MustRegister is Register that panics, for use during router setup.
func (r *Registry) MustRegister(name, path string) string {
	if err := r.Register(name, path); err != nil {
		panic(err)
	}
	return path
}

// Reverse returns the path registered for name, or an error wrapping
// ErrNoReverseMatch.
func (r *Registry) Reverse(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, ok := r.paths[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoReverseMatch, name)
	}
	return path, nil
}
