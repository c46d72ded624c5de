package hostfuncs

import (
	"context"
	"fmt"
)

// ValueType is the type of a native function parameter or result.
type ValueType byte

const (
	ValueTypeI32 ValueType = iota + 1
	ValueTypeI64
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	default:
		return fmt.Sprintf("ValueType(%d)", byte(v))
	}
}

// Signature describes the parameters and results of a native function.
type Signature struct {
	Params  []ValueType
	Results []ValueType
}

func (s Signature) String() string {
	return fmt.Sprintf("%v -> %v", s.Params, s.Results)
}

// HostFunc is a generic function signature for typed host functions.
type HostFunc[Req any, Resp any] func(context.Context, Req) Resp

// NativeFunc receives raw stack slots and returns raw result slots.
// This is the common interface that WASM runtimes can easily use.
type NativeFunc func(ctx context.Context, args []uint64) ([]uint64, error)

// Native is a named native function with its signature.
type Native struct {
	Name      string
	Signature Signature
	Func      NativeFunc
}

// EncodeI32 stores v in a stack slot.
func EncodeI32(v int32) uint64 {
	return uint64(uint32(v)) //nolint:gosec // G115: two's complement reinterpretation
}

// DecodeI32 reads an i32 from a stack slot.
func DecodeI32(slot uint64) int32 {
	return int32(uint32(slot)) //nolint:gosec // G115: two's complement reinterpretation
}

// NewI32Native wraps a typed (i32) -> i32 HostFunc into a Native.
func NewI32Native(name string, fn HostFunc[int32, int32]) Native {
	return Native{
		Name: name,
		Signature: Signature{
			Params:  []ValueType{ValueTypeI32},
			Results: []ValueType{ValueTypeI32},
		},
		Func: func(ctx context.Context, args []uint64) ([]uint64, error) {
			return []uint64{EncodeI32(fn(ctx, DecodeI32(args[0])))}, nil
		},
	}
}
