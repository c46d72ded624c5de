// Command guestcall starts a WebAssembly runtime, calls into the embedded
// guest and shuts the runtime down.
//
// Output:
//
//	Hello from Go
//	Hello from WebAssembly!
//	2 x 6 = 12
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/reglet-dev/guestcall/config"
	"github.com/reglet-dev/guestcall/guest"
	"github.com/reglet-dev/guestcall/host"
	"github.com/reglet-dev/guestcall/log"
)

const operand = 2

func main() {
	ctx := context.Background()
	cfg := config.Default()

	logger, err := log.New(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "guestcall: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := run(ctx, cfg, os.Args, os.Stdout, os.Stderr, logger); err != nil {
		logger.Error("guestcall failed", log.ErrorAttr(err))
		os.Exit(1)
	}
}

// run acquires the runtime context, makes the three calls and releases the
// context on every path after a successful acquisition.
func run(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer, logger *slog.Logger) (err error) {
	executor, err := host.NewExecutor(ctx,
		host.WithConfig(cfg.Runtime),
		host.WithArgs(args),
		host.WithStdout(stdout),
		host.WithStderr(stderr),
		host.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := executor.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	fmt.Fprintln(stdout, "Hello from Go")

	g, err := executor.LoadGuest(ctx, guest.Module(executor.NativeModule()), host.WithGuestName("guest"))
	if err != nil {
		return err
	}

	if err := g.Hello(ctx); err != nil {
		return err
	}

	product, err := g.TimesSix(ctx, operand)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d x 6 = %d\n", operand, product)
	return nil
}
