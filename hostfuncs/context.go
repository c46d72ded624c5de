package hostfuncs

import (
	"context"
)

// HostContext wraps a standard context.Context with the invoked native
// function and the calling guest.
type HostContext interface {
	context.Context

	// FunctionName returns the name of the native function being invoked.
	FunctionName() string

	// GuestName returns the name of the calling guest module, if known.
	GuestName() string
}

type hostContext struct {
	context.Context
	funcName string
}

// NewHostContext creates a new HostContext wrapping the given context.
func NewHostContext(ctx context.Context, funcName string) HostContext {
	return &hostContext{
		Context:  ctx,
		funcName: funcName,
	}
}

func (c *hostContext) FunctionName() string {
	return c.funcName
}

func (c *hostContext) GuestName() string {
	name, _ := GuestNameFromContext(c.Context)
	return name
}

// HostContextFrom returns ctx when it already is a HostContext for funcName,
// and wraps it otherwise.
func HostContextFrom(ctx context.Context, funcName string) HostContext {
	if hc, ok := ctx.(HostContext); ok && hc.FunctionName() == funcName {
		return hc
	}
	return NewHostContext(ctx, funcName)
}

type contextKey struct {
	name string
}

var guestNameKey = &contextKey{name: "guest_name"}

// WithGuestName records the calling guest's module name on ctx.
func WithGuestName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, guestNameKey, name)
}

// GuestNameFromContext retrieves the guest name set by WithGuestName.
func GuestNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(guestNameKey).(string)
	return name, ok
}
