// Package hostfuncs provides the native functions the host exports to guests.
//
// Implementations here have NO WASM runtime dependencies. Arguments and
// results travel as raw uint64 stack slots, the common denominator of WASM
// runtimes; infrastructure/wazero binds a NativeRegistry to wazero.
//
// # Basic Usage
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
//	    hostfuncs.WithBundle(hostfuncs.ArithmeticBundle()),
//	)
//
//	results, err := registry.Invoke(ctx, "times_two", []uint64{hostfuncs.EncodeI32(21)})
package hostfuncs
