// Package host owns the WebAssembly runtime context and calls into guests.
//
// An Executor is the runtime context: NewExecutor acquires it (wazero runtime,
// WASI preview1 and the native host module) and Close releases it. Guests
// loaded through the executor share that context and are released with it.
//
//	executor, err := host.NewExecutor(ctx, host.WithArgs(os.Args))
//	if err != nil {
//	    return err
//	}
//	defer executor.Close(ctx)
//
//	g, err := executor.LoadGuest(ctx, guest.Module(executor.NativeModule()))
//	if err != nil {
//	    return err
//	}
//	n, err := g.TimesSix(ctx, 2)
package host
