package host

import (
	"io"
	"log/slog"

	"github.com/reglet-dev/guestcall/config"
	"github.com/reglet-dev/guestcall/hostfuncs"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithConfig sets the runtime configuration. Defaults to config.Default().Runtime.
func WithConfig(cfg config.Runtime) Option {
	return func(e *Executor) {
		e.cfg = cfg
	}
}

// WithNativeFunctions replaces the default native function registry.
func WithNativeFunctions(registry *hostfuncs.NativeRegistry) Option {
	return func(e *Executor) {
		e.natives = registry
	}
}

// WithArgs sets the argv guests observe through WASI. The slice is passed
// through unmodified.
func WithArgs(args []string) Option {
	return func(e *Executor) {
		e.args = args
	}
}

// WithStdout sets the writer behind guest file descriptor 1.
func WithStdout(w io.Writer) Option {
	return func(e *Executor) {
		e.stdout = w
	}
}

// WithStderr sets the writer behind guest file descriptor 2.
func WithStderr(w io.Writer) Option {
	return func(e *Executor) {
		e.stderr = w
	}
}

// WithLogger sets the logger for lifecycle events and native calls.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// GuestOption configures a single LoadGuest call.
type GuestOption func(*guestConfig)

type guestConfig struct {
	name            string
	requiredExports []string
}

// WithGuestName names the guest module instance. Names must be unique
// within an executor; the default is anonymous.
func WithGuestName(name string) GuestOption {
	return func(c *guestConfig) {
		c.name = name
	}
}

// WithRequiredExports replaces the exports LoadGuest verifies before
// instantiation. The default is hello and times_six.
func WithRequiredExports(names ...string) GuestOption {
	return func(c *guestConfig) {
		c.requiredExports = names
	}
}
