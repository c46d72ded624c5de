package host

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/guestcall/domain/errors"
	"github.com/reglet-dev/guestcall/guest"
)

func defaultRequiredExports() []string {
	return []string{guest.ExportHello, guest.ExportTimesSix}
}

// Guest is an instantiated guest module.
type Guest struct {
	module api.Module
	logger *slog.Logger
}

// Name returns the module instance name; empty for anonymous guests.
func (g *Guest) Name() string {
	return g.module.Name()
}

// Exports returns the sorted names of the guest's exported functions.
func (g *Guest) Exports() []string {
	defs := g.module.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes an exported function with raw stack values.
func (g *Guest) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := g.module.ExportedFunction(name)
	if fn == nil {
		return nil, &errors.ExportNotFoundError{Name: name}
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		g.logger.DebugContext(ctx, "guest call failed", "guest", g.module.Name(), "export", name, "error", err)
		return nil, &errors.CallError{Export: name, Err: err}
	}
	return results, nil
}

// Hello runs the guest's greeting, which writes to the guest's stdout.
func (g *Guest) Hello(ctx context.Context) error {
	_, err := g.Call(ctx, guest.ExportHello)
	return err
}

// TimesSix returns six times x as computed by the guest.
func (g *Guest) TimesSix(ctx context.Context, x int32) (int32, error) {
	results, err := g.Call(ctx, guest.ExportTimesSix, api.EncodeI32(x))
	if err != nil {
		return 0, err
	}
	if len(results) != 1 {
		return 0, &errors.CallError{
			Export: guest.ExportTimesSix,
			Err:    fmt.Errorf("expected 1 result, got %d", len(results)),
		}
	}
	return api.DecodeI32(results[0]), nil
}

// Close releases the guest instance. The executor's Close releases it too.
func (g *Guest) Close(ctx context.Context) error {
	return g.module.Close(ctx)
}
