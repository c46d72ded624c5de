package wazero

import (
	"context"
	"fmt"

	"github.com/reglet-dev/guestcall/hostfuncs"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// DefaultModuleName is the import module guests use for native functions.
const DefaultModuleName = "env"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// ModuleName is the host module name (default: "env").
	ModuleName string

	// CustomHandlers allows adding wazero-specific handlers that need direct
	// access to the calling module, such as guest memory.
	CustomHandlers []CustomHandler
}

// CustomHandler is a raw wazero host function.
type CustomHandler struct {
	// Name is the exported function name.
	Name string

	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "env").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName: DefaultModuleName,
	}
}

// RegisterWithRuntime instantiates a host module exporting every function in
// the registry, plus any custom handlers, under the configured module name.
// It must run before instantiating guests that import the module.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.NativeRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ModuleName == "" {
		return fmt.Errorf("wazero: host module name cannot be empty")
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	for _, name := range registry.Names() {
		sig, _ := registry.Signature(name)
		params, err := toAPIValueTypes(sig.Params)
		if err != nil {
			return fmt.Errorf("wazero: host function %q: %w", name, err)
		}
		results, err := toAPIValueTypes(sig.Results)
		if err != nil {
			return fmt.Errorf("wazero: host function %q: %w", name, err)
		}

		builder.NewFunctionBuilder().
			WithGoModuleFunction(nativeModuleFunc(registry, name, len(params)), params, results).
			WithName(name).
			Export(name)
	}

	for _, ch := range cfg.CustomHandlers {
		if registry.Has(ch.Name) {
			return fmt.Errorf("wazero: custom handler %q shadows a registry function", ch.Name)
		}
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("wazero: instantiate host module %q: %w", cfg.ModuleName, err)
	}
	return nil
}

// nativeModuleFunc adapts a registry entry to the wazero value stack.
// The stack holds the parameters on entry and receives the results.
func nativeModuleFunc(registry *hostfuncs.NativeRegistry, name string, nParams int) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		args := make([]uint64, nParams)
		copy(args, stack[:nParams])

		ctx = hostfuncs.WithGuestName(ctx, mod.Name())
		results, err := registry.Invoke(ctx, name, args)
		if err != nil {
			// wazero recovers host panics and returns them from the guest call.
			panic(fmt.Errorf("host function %q: %w", name, err))
		}
		copy(stack, results)
	}
}

func toAPIValueTypes(vts []hostfuncs.ValueType) ([]api.ValueType, error) {
	out := make([]api.ValueType, len(vts))
	for i, vt := range vts {
		switch vt {
		case hostfuncs.ValueTypeI32:
			out[i] = api.ValueTypeI32
		case hostfuncs.ValueTypeI64:
			out[i] = api.ValueTypeI64
		default:
			return nil, fmt.Errorf("unsupported value type %v", vt)
		}
	}
	return out, nil
}
