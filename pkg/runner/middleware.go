package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/blade/pkg/domain"
)

// ErrBadRequest marks a request that was rejected before reaching the engine.
// A Listener reports it and keeps reading.
var ErrBadRequest = errors.New("bad request")

// Interceptor inspects, rewrites or rejects a request before it is queued.
type Interceptor func(ctx context.Context, req *domain.RunRequest) error

// MultiInterceptor chains interceptors; the first error stops the chain.
func MultiInterceptor(interceptors ...Interceptor) Interceptor {
	return func(ctx context.Context, req *domain.RunRequest) error {
		for _, ic := range interceptors {
			if err := ic(ctx, req); err != nil {
				return err
			}
		}
		return nil
	}
}

// SanitizeInterceptor cleans the phrase with SanitizePhrase.
func SanitizeInterceptor() Interceptor {
	return func(ctx context.Context, req *domain.RunRequest) error {
		if req.Phrase == "" {
			return nil
		}
		clean, err := SanitizePhrase(req.Phrase)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		req.Phrase = clean
		return nil
	}
}

// DryRunInterceptor forces every request into dry-run mode.
func DryRunInterceptor() Interceptor {
	return func(ctx context.Context, req *domain.RunRequest) error {
		req.DryRun = true
		return nil
	}
}

// NoInjectionInterceptor keeps requests from staging pending intents.
func NoInjectionInterceptor() Interceptor {
	return func(ctx context.Context, req *domain.RunRequest) error {
		req.AllowInjection = false
		return nil
	}
}
