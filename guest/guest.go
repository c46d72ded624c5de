// Package guest provides the pre-built WebAssembly module the host calls into.
//
// The module imports fd_write from WASI preview1 and times_two from the host's
// native module, and exports:
//
//	hello()           writes Greeting to stdout
//	times_six(i32)    returns 3 * times_two(x)
package guest

import (
	"encoding/binary"
	"sync"

	wabin "github.com/tetratelabs/wabin/binary"
	"github.com/tetratelabs/wabin/wasm"

	"github.com/reglet-dev/guestcall/internal/wasmgen"
)

// Export and import names.
const (
	ExportMemory   = "memory"
	ExportHello    = "hello"
	ExportTimesSix = "times_six"

	ImportModuleWASI = "wasi_snapshot_preview1"
	ImportFdWrite    = "fd_write"
	ImportTimesTwo   = "times_two"
)

// DefaultNativeModule is the import module for times_two unless the host
// exports its native functions under another name.
const DefaultNativeModule = "env"

// Greeting is the line hello writes, without its trailing newline.
const Greeting = "Hello from WebAssembly!"

// Linear memory layout.
const (
	iovecOffset    = 0
	textOffset     = 8
	nwrittenOffset = 1024
	stdoutFd       = 1
)

// Type section indices.
const (
	typeFdWrite wasm.Index = iota
	typeUnary
	typeNullary
)

// Function index space: imports first, then defined functions.
const (
	funcFdWrite wasm.Index = iota
	funcTimesTwo
	funcHello
	funcTimesSix
)

var (
	mu    sync.Mutex
	built = make(map[string][]byte)
)

// Module returns the guest binary importing times_two from nativeModule.
// The returned slice must not be modified.
func Module(nativeModule string) []byte {
	mu.Lock()
	defer mu.Unlock()
	if bin, ok := built[nativeModule]; ok {
		return bin
	}
	bin := wabin.EncodeModule(Definition(nativeModule))
	built[nativeModule] = bin
	return bin
}

// Definition returns the module description. Tests derive variants from it.
func Definition(nativeModule string) *wasm.Module {
	text := []byte(Greeting + "\n")

	// ciovec{buf: textOffset, buf_len: len(text)}, little endian.
	iovec := make([]byte, 8)
	binary.LittleEndian.PutUint32(iovec[0:4], textOffset)
	binary.LittleEndian.PutUint32(iovec[4:8], uint32(len(text))) //nolint:gosec // G115: constant text

	i32 := wasm.ValueTypeI32
	return &wasm.Module{
		TypeSection: []*wasm.FunctionType{
			typeFdWrite: {Params: []wasm.ValueType{i32, i32, i32, i32}, Results: []wasm.ValueType{i32}},
			typeUnary:   {Params: []wasm.ValueType{i32}, Results: []wasm.ValueType{i32}},
			typeNullary: {},
		},
		ImportSection: []*wasm.Import{
			wasmgen.ImportFunc(ImportModuleWASI, ImportFdWrite, typeFdWrite),
			wasmgen.ImportFunc(nativeModule, ImportTimesTwo, typeUnary),
		},
		FunctionSection: []wasm.Index{typeNullary, typeUnary},
		MemorySection:   &wasm.Memory{Min: 1},
		ExportSection: []*wasm.Export{
			wasmgen.ExportFunc(ExportHello, funcHello),
			wasmgen.ExportFunc(ExportTimesSix, funcTimesSix),
			{Type: wasm.ExternTypeMemory, Name: ExportMemory, Index: 0},
		},
		CodeSection: []*wasm.Code{
			new(wasmgen.Code).
				I32Const(stdoutFd).
				I32Const(iovecOffset).
				I32Const(1).
				I32Const(nwrittenOffset).
				Call(funcFdWrite).
				Op(wasm.OpcodeDrop).
				End(),
			new(wasmgen.Code).
				LocalGet(0).
				Call(funcTimesTwo).
				I32Const(3).
				Op(wasm.OpcodeI32Mul).
				End(),
		},
		DataSection: []*wasm.DataSegment{
			{OffsetExpression: wasmgen.ConstI32(iovecOffset), Init: iovec},
			{OffsetExpression: wasmgen.ConstI32(textOffset), Init: text},
		},
	}
}
