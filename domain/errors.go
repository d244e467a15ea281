package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPersona is returned for any persona id outside the registry.
	ErrUnknownPersona = errors.New("unknown conversation type")

	// ErrNotConfigured is returned when a provider credential or identity is missing.
	ErrNotConfigured = errors.New("provider not configured")
)

// Category classifies an upstream failure at the point it is detected.
type Category string

const (
	CategoryTimeout           Category = "timeout"
	CategoryAuth              Category = "auth"
	CategoryRateLimited       Category = "rate_limited"
	CategoryNetwork           Category = "network"
	CategoryContractViolation Category = "contract_violation"
	CategoryUnknown           Category = "unknown"
)

// ProviderError is a failure reported by one of the upstream providers.
type ProviderError struct {
	Provider   string
	Category   Category
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s (status %d): %v", e.Provider, e.Category, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Category, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CategoryOf returns the category of the first ProviderError in err's chain,
// or CategoryUnknown.
func CategoryOf(err error) Category {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryUnknown
}

// CategoryForStatus maps an upstream HTTP status to a failure category.
func CategoryForStatus(status int) Category {
	switch {
	case status == 401 || status == 403:
		return CategoryAuth
	case status == 429:
		return CategoryRateLimited
	case status == 408 || status == 504:
		return CategoryTimeout
	case status == 502 || status == 503:
		return CategoryNetwork
	}
	return CategoryUnknown
}
