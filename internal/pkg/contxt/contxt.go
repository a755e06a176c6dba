// Package contxt builds bounded contexts for fire-and-forget publish
// paths that must not hold the event loop hostage.
package contxt

import (
	"context"
	"os"
	"time"
)

// NewContext returns a context that expires after timeout. Set
// CONTEXT_TEST to get an unbounded context in tests.
func NewContext(timeout time.Duration) context.Context {
	if os.Getenv("CONTEXT_TEST") != "" {
		return context.Background()
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}
