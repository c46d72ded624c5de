// Package wasmgen assembles function bodies and constant expressions for
// modules described with wabin's wasm.Module and encoded by binary.EncodeModule.
package wasmgen

import (
	"github.com/tetratelabs/wabin/leb128"
	"github.com/tetratelabs/wabin/wasm"
)

// Code accumulates a function body.
type Code struct {
	b []byte
}

// LocalGet pushes local idx.
func (c *Code) LocalGet(idx wasm.Index) *Code {
	c.b = append(c.b, wasm.OpcodeLocalGet)
	c.b = append(c.b, leb128.EncodeUint32(idx)...)
	return c
}

// I32Const pushes a constant.
func (c *Code) I32Const(v int32) *Code {
	c.b = append(c.b, wasm.OpcodeI32Const)
	c.b = append(c.b, leb128.EncodeInt32(v)...)
	return c
}

// I32Load loads an i32 from the address on the stack. align is log2 of the
// alignment in bytes.
func (c *Code) I32Load(align, offset uint32) *Code {
	c.b = append(c.b, wasm.OpcodeI32Load)
	c.b = append(c.b, leb128.EncodeUint32(align)...)
	c.b = append(c.b, leb128.EncodeUint32(offset)...)
	return c
}

// Call calls function idx. Imported functions come first in the index space.
func (c *Code) Call(idx wasm.Index) *Code {
	c.b = append(c.b, wasm.OpcodeCall)
	c.b = append(c.b, leb128.EncodeUint32(idx)...)
	return c
}

// Op appends an instruction without immediates.
func (c *Code) Op(op wasm.Opcode) *Code {
	c.b = append(c.b, op)
	return c
}

// End terminates the body.
func (c *Code) End() *wasm.Code {
	body := make([]byte, 0, len(c.b)+1)
	body = append(body, c.b...)
	return &wasm.Code{Body: append(body, wasm.OpcodeEnd)}
}

// ConstI32 is an i32.const initializer, as used for data segment offsets.
func ConstI32(v int32) *wasm.ConstantExpression {
	return &wasm.ConstantExpression{
		Opcode: wasm.OpcodeI32Const,
		Data:   leb128.EncodeInt32(v),
	}
}

// ExportFunc exports function idx under name.
func ExportFunc(name string, idx wasm.Index) *wasm.Export {
	return &wasm.Export{Type: wasm.ExternTypeFunc, Name: name, Index: idx}
}

// ImportFunc imports module.name with the signature at typeIdx.
func ImportFunc(module, name string, typeIdx wasm.Index) *wasm.Import {
	return &wasm.Import{Type: wasm.ExternTypeFunc, Module: module, Name: name, DescFunc: typeIdx}
}
