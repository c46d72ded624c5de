package hostfuncs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoNative(name string) Native {
	return Native{
		Name:      name,
		Signature: Signature{Params: []ValueType{ValueTypeI64}, Results: []ValueType{ValueTypeI64}},
		Func: func(ctx context.Context, args []uint64) ([]uint64, error) {
			return []uint64{args[0]}, nil
		},
	}
}

func TestNewRegistry_Empty(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Empty(t, reg.Names())
}

func TestNewRegistry_WithNative(t *testing.T) {
	reg, err := NewRegistry(
		WithNative(echoNative("echo")),
	)
	require.NoError(t, err)

	assert.True(t, reg.Has("echo"))
	assert.False(t, reg.Has("nonexistent"))
	assert.Equal(t, []string{"echo"}, reg.Names())

	sig, ok := reg.Signature("echo")
	require.True(t, ok)
	assert.Equal(t, []ValueType{ValueTypeI64}, sig.Params)
}

func TestNewRegistry_DuplicateNative(t *testing.T) {
	_, err := NewRegistry(
		WithNative(echoNative("test")),
		WithNative(echoNative("test")), // duplicate
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate host function name")
}

func TestNewRegistry_BundleConflict(t *testing.T) {
	_, err := NewRegistry(
		WithBundle(ArithmeticBundle()),
		WithNative(NewI32Native("times_two", TimesTwo)),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "times_two")
}

func TestNewRegistry_InvalidNative(t *testing.T) {
	_, err := NewRegistry(WithNative(echoNative("")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")

	_, err = NewRegistry(WithNative(Native{Name: "nil_func"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no implementation")
}

func TestNativeRegistry_Invoke(t *testing.T) {
	reg, err := NewRegistry(
		WithNative(echoNative("echo")),
		WithNative(Native{
			Name:      "broken",
			Signature: Signature{Results: []ValueType{ValueTypeI32}},
			Func: func(ctx context.Context, args []uint64) ([]uint64, error) {
				return nil, nil
			},
		}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		results, err := reg.Invoke(ctx, "echo", []uint64{42})
		require.NoError(t, err)
		assert.Equal(t, []uint64{42}, results)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := reg.Invoke(ctx, "missing", nil)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "missing", nf.Name)
	})

	t.Run("wrong arg count", func(t *testing.T) {
		_, err := reg.Invoke(ctx, "echo", []uint64{1, 2})
		var ae *ArityError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, "args", ae.Kind)
		assert.Equal(t, 1, ae.Want)
		assert.Equal(t, 2, ae.Got)
	})

	t.Run("wrong result count", func(t *testing.T) {
		_, err := reg.Invoke(ctx, "broken", nil)
		var ae *ArityError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, "results", ae.Kind)
	})
}

func TestNativeRegistry_InvokePassesHostContext(t *testing.T) {
	var gotName, gotGuest string
	reg, err := NewRegistry(WithNative(Native{
		Name: "whoami",
		Func: func(ctx context.Context, args []uint64) ([]uint64, error) {
			hc, ok := ctx.(HostContext)
			if ok {
				gotName = hc.FunctionName()
				gotGuest = hc.GuestName()
			}
			return nil, nil
		},
	}))
	require.NoError(t, err)

	_, err = reg.Invoke(WithGuestName(context.Background(), "greeter"), "whoami", nil)
	require.NoError(t, err)
	assert.Equal(t, "whoami", gotName)
	assert.Equal(t, "greeter", gotGuest)
}

func TestNativeRegistry_NamesImmutable(t *testing.T) {
	reg, err := NewRegistry(
		WithNative(echoNative("b")),
		WithNative(echoNative("a")),
	)
	require.NoError(t, err)

	names := reg.Names()
	assert.Equal(t, []string{"a", "b"}, names)
	names[0] = "modified"
	assert.Equal(t, []string{"a", "b"}, reg.Names())
}
