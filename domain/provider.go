package domain

import "fmt"

// Provider holds either a configured client handle or the reason it is
// unavailable. It is decided once at startup and passed to the gateways.
type Provider[T any] struct {
	handle     T
	configured bool
	reason     string
}

func Configured[T any](handle T) Provider[T] {
	return Provider[T]{handle: handle, configured: true}
}

func Unconfigured[T any](reason string) Provider[T] {
	return Provider[T]{reason: reason}
}

func (p Provider[T]) IsConfigured() bool { return p.configured }

// Reason is empty for a configured provider.
func (p Provider[T]) Reason() string { return p.reason }

// Get returns the handle, or an error wrapping ErrNotConfigured.
func (p Provider[T]) Get() (T, error) {
	if !p.configured {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotConfigured, p.reason)
	}
	return p.handle, nil
}
