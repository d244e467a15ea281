package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vivatalk/mediator/domain"
)

// classify wraps err in a domain.ProviderError tagged with the failure
// category detected from its type.
func classify(provider string, err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}

	category := domain.CategoryUnknown
	var (
		netErr    net.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		apiErr    genai.APIError
	)
	status := 0
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		category = domain.CategoryTimeout
	case errors.As(err, &apiErr):
		status = apiErr.Code
		category = domain.CategoryForStatus(apiErr.Code)
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			category = domain.CategoryTimeout
		} else {
			category = domain.CategoryNetwork
		}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		category = domain.CategoryContractViolation
	}

	return &domain.ProviderError{Provider: provider, Category: category, StatusCode: status, Err: err}
}

// openStream returns a context that is cancelled with
// context.DeadlineExceeded unless the returned stop is called within
// timeout. It bounds opening a stream; once chunks flow, generation runs
// for as long as the caller's context allows.
func openStream(ctx context.Context, timeout time.Duration) (context.Context, func() bool, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	timer := time.AfterFunc(timeout, func() { cancel(context.DeadlineExceeded) })
	return ctx, timer.Stop, func() { cancel(nil) }
}

// timedOut rewrites err as a deadline error when the open timer cancelled ctx.
func timedOut(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

func statusError(provider string, status int, detail string) error {
	if len(detail) > 512 {
		detail = detail[:512]
	}
	return &domain.ProviderError{
		Provider:   provider,
		Category:   domain.CategoryForStatus(status),
		StatusCode: status,
		Err:        fmt.Errorf("upstream returned status %d: %s", status, strings.TrimSpace(detail)),
	}
}
