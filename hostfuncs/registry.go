package hostfuncs

import (
	"context"
	"fmt"
	"sort"
)

// NativeRegistry is an immutable collection of named native functions.
// Once created via NewRegistry, functions cannot be added or removed.
// This ensures thread safety and lock-free lookups during execution.
type NativeRegistry struct {
	natives map[string]Native
	names   []string // sorted for consistent iteration
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	natives    map[string]Native
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable NativeRegistry with the given options.
// Returns an error if any function name is registered twice.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithBundle(ArithmeticBundle()),
//	    WithNative(NewI32Native("negate", negate)),
//	)
func NewRegistry(opts ...RegistryOption) (*NativeRegistry, error) {
	b := &registryBuilder{
		natives: make(map[string]Native),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	names := make([]string, 0, len(b.natives))
	for name := range b.natives {
		names = append(names, name)
	}
	sort.Strings(names)

	// Apply middleware in reverse order so first middleware wraps outermost.
	wrapped := make(map[string]Native, len(b.natives))
	for name, n := range b.natives {
		fn := n.Func
		for i := len(b.middleware) - 1; i >= 0; i-- {
			fn = b.middleware[i](fn)
		}
		n.Func = fn
		wrapped[name] = n
	}

	return &NativeRegistry{
		natives: wrapped,
		names:   names,
	}, nil
}

// Invoke dispatches a native function call by name.
func (r *NativeRegistry) Invoke(ctx context.Context, name string, args []uint64) ([]uint64, error) {
	n, ok := r.natives[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	if len(args) != len(n.Signature.Params) {
		return nil, &ArityError{Name: name, Kind: "args", Want: len(n.Signature.Params), Got: len(args)}
	}

	results, err := n.Func(HostContextFrom(ctx, name), args)
	if err != nil {
		return nil, err
	}
	if len(results) != len(n.Signature.Results) {
		return nil, &ArityError{Name: name, Kind: "results", Want: len(n.Signature.Results), Got: len(results)}
	}
	return results, nil
}

// Signature returns the signature of a registered function.
func (r *NativeRegistry) Signature(name string) (Signature, bool) {
	n, ok := r.natives[name]
	return n.Signature, ok
}

// Has returns true if a function with the given name is registered.
func (r *NativeRegistry) Has(name string) bool {
	_, ok := r.natives[name]
	return ok
}

// Names returns a sorted list of all registered function names.
func (r *NativeRegistry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

// addNative registers a function, rejecting empty and duplicate names.
func (b *registryBuilder) addNative(n Native) error {
	if n.Name == "" {
		return fmt.Errorf("host function name cannot be empty")
	}
	if n.Func == nil {
		return fmt.Errorf("host function %q has no implementation", n.Name)
	}
	if _, exists := b.natives[n.Name]; exists {
		return fmt.Errorf("duplicate host function name: %q", n.Name)
	}
	b.natives[n.Name] = n
	return nil
}

// WithNative registers a single native function.
func WithNative(n Native) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addNative(n); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithBundle registers every function in the bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for _, n := range bundle.Natives() {
			if err := b.addNative(n); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
