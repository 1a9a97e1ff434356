package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/blade/pkg/ports"
)

// Host calls go through these helpers so that a panicking host surfaces as
// an error at a single point.

func safePoll(ctx context.Context, cmd ports.Command) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("poll panicked: %v", r)
		}
	}()
	return cmd.Poll(ctx), nil
}

func safeInvoke(ctx context.Context, cmd ports.Command, args []any, kwargs map[string]any) (out ports.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command panicked: %v", r)
		}
	}()
	return cmd.Invoke(ctx, args, kwargs)
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host panicked: %v", r)
		}
	}()
	return fn()
}
