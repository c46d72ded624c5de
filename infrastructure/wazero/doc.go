// Package wazero binds the host's native functions to the wazero runtime.
//
// This package bridges the pure Go implementations in hostfuncs with the
// wazero WebAssembly runtime. It handles:
//
//   - Translating hostfuncs signatures to wazero value types
//   - Copying arguments off and results onto the wazero value stack
//   - Recording the calling guest's module name on the call context
//   - Registering everything on a single host module builder
//
// # Basic Usage
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.AllBundles()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//
//	err = wazeroadapter.RegisterWithRuntime(ctx, runtime, registry,
//	    wazeroadapter.WithModuleName("env"),
//	)
//
// A native function that returns an error aborts the guest call; the error
// surfaces from api.Function.Call on the host side.
package wazero
