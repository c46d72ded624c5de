package hostfuncs

import (
	"context"
)

// HostFuncBundle is a pre-configured set of related native functions.
// Bundles allow registering multiple functions at once.
type HostFuncBundle interface {
	// Natives returns the functions in the bundle.
	Natives() []Native
}

// staticBundle implements HostFuncBundle with a fixed set of functions.
type staticBundle struct {
	natives []Native
}

func (b *staticBundle) Natives() []Native {
	return b.natives
}

// ArithmeticBundle returns a bundle with the arithmetic helpers guests import:
// times_two.
func ArithmeticBundle() HostFuncBundle {
	return &staticBundle{
		natives: []Native{
			NewI32Native("times_two", TimesTwo),
		},
	}
}

// AllBundles returns a bundle combining all built-in native functions.
func AllBundles() HostFuncBundle {
	var all []Native
	for _, b := range []HostFuncBundle{ArithmeticBundle()} {
		all = append(all, b.Natives()...)
	}
	return &staticBundle{natives: all}
}

// TimesTwo doubles x with wrapping i32 arithmetic.
func TimesTwo(_ context.Context, x int32) int32 {
	return x * 2
}
