package wazero

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wabin/binary"
	"github.com/tetratelabs/wabin/wasm"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/guestcall/hostfuncs"
	"github.com/reglet-dev/guestcall/internal/wasmgen"
)

// forwardingGuest imports module.name (i32)->i32 and re-exports it as "call".
func forwardingGuest(module, name string) []byte {
	unary := &wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
	return binary.EncodeModule(&wasm.Module{
		TypeSection:     []*wasm.FunctionType{unary},
		ImportSection:   []*wasm.Import{wasmgen.ImportFunc(module, name, 0)},
		FunctionSection: []wasm.Index{0},
		ExportSection:   []*wasm.Export{wasmgen.ExportFunc("call", 1)},
		CodeSection:     []*wasm.Code{new(wasmgen.Code).LocalGet(0).Call(0).End()},
	})
}

func callI32(ctx context.Context, t *testing.T, mod api.Module, x int32) (int32, error) {
	t.Helper()
	results, err := mod.ExportedFunction("call").Call(ctx, api.EncodeI32(x))
	if err != nil {
		return 0, err
	}
	return api.DecodeI32(results[0]), nil
}

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()
	assert.Equal(t, "env", cfg.ModuleName)
	assert.Empty(t, cfg.CustomHandlers)
}

func TestWithModuleName(t *testing.T) {
	cfg := defaultAdapterConfig()
	WithModuleName("custom_module")(&cfg)
	assert.Equal(t, "custom_module", cfg.ModuleName)
}

func TestWithCustomHandler(t *testing.T) {
	cfg := defaultAdapterConfig()
	WithCustomHandler(CustomHandler{Name: "test_handler"})(&cfg)

	require.Len(t, cfg.CustomHandlers, 1)
	assert.Equal(t, "test_handler", cfg.CustomHandlers[0].Name)
}

func TestToAPIValueTypes(t *testing.T) {
	got, err := toAPIValueTypes([]hostfuncs.ValueType{hostfuncs.ValueTypeI32, hostfuncs.ValueTypeI64})
	require.NoError(t, err)
	assert.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI64}, got)

	_, err = toAPIValueTypes([]hostfuncs.ValueType{hostfuncs.ValueType(99)})
	require.Error(t, err)
}

func TestRegisterWithRuntime_CallsNative(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	registry, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.ArithmeticBundle()))
	require.NoError(t, err)
	require.NoError(t, RegisterWithRuntime(ctx, rt, registry))

	mod, err := rt.InstantiateWithConfig(ctx, forwardingGuest("env", "times_two"),
		wazero.NewModuleConfig().WithName("forwarder"))
	require.NoError(t, err)

	got, err := callI32(ctx, t, mod, 21)
	require.NoError(t, err)
	assert.Equal(t, int32(42), got)

	got, err = callI32(ctx, t, mod, -5)
	require.NoError(t, err)
	assert.Equal(t, int32(-10), got)
}

func TestRegisterWithRuntime_RecordsGuestName(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	var seen string
	registry, err := hostfuncs.NewRegistry(hostfuncs.WithNative(
		hostfuncs.NewI32Native("whoami", func(ctx context.Context, x int32) int32 {
			if hc, ok := ctx.(hostfuncs.HostContext); ok {
				seen = hc.GuestName()
			}
			return x
		}),
	))
	require.NoError(t, err)
	require.NoError(t, RegisterWithRuntime(ctx, rt, registry, WithModuleName("native")))

	mod, err := rt.InstantiateWithConfig(ctx, forwardingGuest("native", "whoami"),
		wazero.NewModuleConfig().WithName("greeter"))
	require.NoError(t, err)

	_, err = callI32(ctx, t, mod, 1)
	require.NoError(t, err)
	assert.Equal(t, "greeter", seen)
}

func TestRegisterWithRuntime_NativeErrorAbortsCall(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	registry, err := hostfuncs.NewRegistry(
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
		hostfuncs.WithNative(hostfuncs.NewI32Native("explode", func(context.Context, int32) int32 {
			panic("kaboom")
		})),
	)
	require.NoError(t, err)
	require.NoError(t, RegisterWithRuntime(ctx, rt, registry))

	mod, err := rt.Instantiate(ctx, forwardingGuest("env", "explode"))
	require.NoError(t, err)

	_, err = callI32(ctx, t, mod, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	var pe *hostfuncs.PanicError
	assert.True(t, errors.As(err, &pe))
}

func TestRegisterWithRuntime_CustomHandler(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	registry, err := hostfuncs.NewRegistry()
	require.NoError(t, err)

	err = RegisterWithRuntime(ctx, rt, registry, WithCustomHandler(CustomHandler{
		Name: "add_one",
		Handler: api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(api.DecodeI32(stack[0]) + 1)
		}),
		ParamTypes:  []api.ValueType{api.ValueTypeI32},
		ResultTypes: []api.ValueType{api.ValueTypeI32},
	}))
	require.NoError(t, err)

	mod, err := rt.Instantiate(ctx, forwardingGuest("env", "add_one"))
	require.NoError(t, err)

	got, err := callI32(ctx, t, mod, 41)
	require.NoError(t, err)
	assert.Equal(t, int32(42), got)
}

func TestRegisterWithRuntime_Errors(t *testing.T) {
	ctx := context.Background()

	registry, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.ArithmeticBundle()))
	require.NoError(t, err)

	t.Run("empty module name", func(t *testing.T) {
		rt := wazero.NewRuntime(ctx)
		defer rt.Close(ctx)
		err := RegisterWithRuntime(ctx, rt, registry, WithModuleName(""))
		require.Error(t, err)
	})

	t.Run("custom handler shadows registry", func(t *testing.T) {
		rt := wazero.NewRuntime(ctx)
		defer rt.Close(ctx)
		err := RegisterWithRuntime(ctx, rt, registry, WithCustomHandler(CustomHandler{Name: "times_two"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "shadows")
	})

	t.Run("module registered twice", func(t *testing.T) {
		rt := wazero.NewRuntime(ctx)
		defer rt.Close(ctx)
		require.NoError(t, RegisterWithRuntime(ctx, rt, registry))
		err := RegisterWithRuntime(ctx, rt, registry)
		require.Error(t, err)
	})
}
