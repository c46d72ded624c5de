package hostfuncs

import (
	"context"
	"log/slog"
	"time"
)

// Middleware is a function that wraps a NativeFunc to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next NativeFunc) NativeFunc

// RegistryOption is a functional option for configuring a NativeRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware returns a middleware that converts panics in native
// functions into *PanicError instead of unwinding through the runtime.
func PanicRecoveryMiddleware() Middleware {
	return func(next NativeFunc) NativeFunc {
		return func(ctx context.Context, args []uint64) (results []uint64, err error) {
			defer func() {
				if r := recover(); r != nil {
					results = nil
					err = &PanicError{Value: r}
				}
			}()
			return next(ctx, args)
		}
	}
}

// LoggingMiddleware returns a middleware that logs native function calls at
// debug level. Failures are returned to the guest call and reported there.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next NativeFunc) NativeFunc {
		return func(ctx context.Context, args []uint64) ([]uint64, error) {
			funcName, guestName := "unknown", ""
			if hc, ok := ctx.(HostContext); ok {
				funcName = hc.FunctionName()
				guestName = hc.GuestName()
			}
			start := time.Now()
			results, err := next(ctx, args)
			if err != nil {
				logger.DebugContext(ctx, "host function failed",
					"function", funcName, "guest", guestName, "duration", time.Since(start), "error", err)
			} else {
				logger.DebugContext(ctx, "host function completed",
					"function", funcName, "guest", guestName, "args", args, "results", results, "duration", time.Since(start))
			}
			return results, err
		}
	}
}
