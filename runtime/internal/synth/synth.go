// Package synth builds the synthetic "env" WASM module that OPA policy
// modules import: it defines and exports the linear memory, and
// re-exports the host builtin functions registered in a plain host
// module, so both kinds of import resolve under one module name.
package synth

import (
	"github.com/tetratelabs/wazero/api"
)

// Func declares a function to import from the host module and re-export.
type Func struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// EnvModuleBuilder assembles the env module binary.
type EnvModuleBuilder struct {
	hostModuleName   string
	memoryExportName string
	funcs            []Func
	memoryMinPages   uint32
}

// NewEnvModuleBuilder creates a builder importing functions from
// hostModuleName.
func NewEnvModuleBuilder(hostModuleName string) *EnvModuleBuilder {
	return &EnvModuleBuilder{
		hostModuleName:   hostModuleName,
		memoryExportName: "memory",
		memoryMinPages:   2,
	}
}

// AddFunc adds a function to import and re-export.
func (b *EnvModuleBuilder) AddFunc(name string, params, results []api.ValueType) {
	b.funcs = append(b.funcs, Func{Name: name, Params: params, Results: results})
}

// SetMemoryMinPages sets the minimum size of the exported memory.
func (b *EnvModuleBuilder) SetMemoryMinPages(pages uint32) {
	b.memoryMinPages = pages
}

// Build generates the WASM module bytes.
func (b *EnvModuleBuilder) Build() []byte {
	var wasm []byte

	// Magic and version
	wasm = append(wasm, 0x00, 0x61, 0x73, 0x6d)
	wasm = append(wasm, 0x01, 0x00, 0x00, 0x00)

	hasFuncs := len(b.funcs) > 0

	if hasFuncs {
		typeSection := b.buildTypeSection()
		wasm = append(wasm, 0x01)
		wasm = append(wasm, EncodeULEB128(uint32(len(typeSection)))...)
		wasm = append(wasm, typeSection...)

		importSection := b.buildImportSection()
		wasm = append(wasm, 0x02)
		wasm = append(wasm, EncodeULEB128(uint32(len(importSection)))...)
		wasm = append(wasm, importSection...)

		funcSection := b.buildFuncSection()
		wasm = append(wasm, 0x03)
		wasm = append(wasm, EncodeULEB128(uint32(len(funcSection)))...)
		wasm = append(wasm, funcSection...)
	}

	memSection := b.buildMemorySection()
	wasm = append(wasm, 0x05)
	wasm = append(wasm, EncodeULEB128(uint32(len(memSection)))...)
	wasm = append(wasm, memSection...)

	exportSection := b.buildExportSection()
	wasm = append(wasm, 0x07)
	wasm = append(wasm, EncodeULEB128(uint32(len(exportSection)))...)
	wasm = append(wasm, exportSection...)

	if hasFuncs {
		codeSection := b.buildCodeSection()
		wasm = append(wasm, 0x0a)
		wasm = append(wasm, EncodeULEB128(uint32(len(codeSection)))...)
		wasm = append(wasm, codeSection...)
	}

	return wasm
}

func (b *EnvModuleBuilder) buildTypeSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)))...)

	for _, f := range b.funcs {
		section = append(section, 0x60)
		section = append(section, EncodeULEB128(uint32(len(f.Params)))...)
		for _, t := range f.Params {
			section = append(section, ValTypeToWasm(t))
		}
		section = append(section, EncodeULEB128(uint32(len(f.Results)))...)
		for _, t := range f.Results {
			section = append(section, ValTypeToWasm(t))
		}
	}

	return section
}

func (b *EnvModuleBuilder) buildImportSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)))...)

	for i, f := range b.funcs {
		section = append(section, EncodeULEB128(uint32(len(b.hostModuleName)))...)
		section = append(section, []byte(b.hostModuleName)...)
		section = append(section, EncodeULEB128(uint32(len(f.Name)))...)
		section = append(section, []byte(f.Name)...)
		section = append(section, 0x00)
		section = append(section, EncodeULEB128(uint32(i))...)
	}

	return section
}

func (b *EnvModuleBuilder) buildFuncSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)))...)
	for i := range b.funcs {
		section = append(section, EncodeULEB128(uint32(i))...)
	}
	return section
}

func (b *EnvModuleBuilder) buildMemorySection() []byte {
	var section []byte
	section = append(section, 0x01)
	// No maximum: the guest grows the memory as its heap expands.
	section = append(section, 0x00)
	section = append(section, EncodeULEB128(b.memoryMinPages)...)
	return section
}

func (b *EnvModuleBuilder) buildExportSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)+1))...)

	// Memory export
	section = append(section, EncodeULEB128(uint32(len(b.memoryExportName)))...)
	section = append(section, []byte(b.memoryExportName)...)
	section = append(section, 0x02)
	section = append(section, 0x00)

	// Function exports: the wrapper bodies follow the imports in the
	// function index space.
	numImports := len(b.funcs)
	for i, f := range b.funcs {
		section = append(section, EncodeULEB128(uint32(len(f.Name)))...)
		section = append(section, []byte(f.Name)...)
		section = append(section, 0x00)
		section = append(section, EncodeULEB128(uint32(numImports+i))...)
	}

	return section
}

func (b *EnvModuleBuilder) buildCodeSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)))...)

	for i, f := range b.funcs {
		body := buildFuncBody(i, f)
		section = append(section, EncodeULEB128(uint32(len(body)))...)
		section = append(section, body...)
	}

	return section
}

func buildFuncBody(importIdx int, f Func) []byte {
	var body []byte
	body = append(body, 0x00)

	for i := range f.Params {
		body = append(body, 0x20)
		body = append(body, EncodeULEB128(uint32(i))...)
	}

	body = append(body, 0x10)
	body = append(body, EncodeULEB128(uint32(importIdx))...)
	body = append(body, 0x0b)

	return body
}

// ParseMemoryImportMin scans a module's import section for a memory
// import from the given module name and returns its minimum page count.
// ok is false when the module imports no such memory.
func ParseMemoryImportMin(wasmBytes []byte, moduleName string) (pages uint32, ok bool) {
	if len(wasmBytes) < 8 {
		return 0, false
	}

	pos := 8
	for pos < len(wasmBytes) {
		sectionID := wasmBytes[pos]
		pos++
		sectionSize, n := DecodeULEB128(wasmBytes[pos:])
		pos += n
		sectionEnd := pos + int(sectionSize)
		if sectionEnd > len(wasmBytes) {
			return 0, false
		}
		if sectionID != 0x02 {
			pos = sectionEnd
			continue
		}

		count, n := DecodeULEB128(wasmBytes[pos:])
		pos += n
		for i := uint32(0); i < count && pos < sectionEnd; i++ {
			modLen, n := DecodeULEB128(wasmBytes[pos:])
			pos += n
			if pos+int(modLen) > sectionEnd {
				return 0, false
			}
			modName := string(wasmBytes[pos : pos+int(modLen)])
			pos += int(modLen)

			nameLen, n := DecodeULEB128(wasmBytes[pos:])
			pos += n
			if pos+int(nameLen) > sectionEnd {
				return 0, false
			}
			impName := string(wasmBytes[pos : pos+int(nameLen)])
			pos += int(nameLen)

			kind := wasmBytes[pos]
			pos++

			switch kind {
			case 0x00: // function: type index
				_, n := DecodeULEB128(wasmBytes[pos:])
				pos += n
			case 0x01: // table: reftype + limits
				pos++
				flags := wasmBytes[pos]
				pos++
				_, n := DecodeULEB128(wasmBytes[pos:])
				pos += n
				if flags&0x01 != 0 {
					_, n := DecodeULEB128(wasmBytes[pos:])
					pos += n
				}
			case 0x02: // memory: limits
				flags := wasmBytes[pos]
				pos++
				min, n := DecodeULEB128(wasmBytes[pos:])
				pos += n
				if flags&0x01 != 0 {
					_, n := DecodeULEB128(wasmBytes[pos:])
					pos += n
				}
				if modName == moduleName && impName == "memory" {
					return min, true
				}
			case 0x03: // global: valtype + mutability
				pos += 2
			default:
				return 0, false
			}
		}
		return 0, false
	}
	return 0, false
}

// DecodeULEB128 decodes an unsigned LEB128 value.
func DecodeULEB128(data []byte) (uint32, int) {
	var result uint32
	var shift uint32
	for i, b := range data {
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, i + 1
		}
		shift += 7
		if shift > 35 {
			return result, i + 1
		}
	}
	return result, len(data)
}

// EncodeULEB128 encodes an unsigned value in LEB128 format.
func EncodeULEB128(v uint32) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		result = append(result, b)
		if v == 0 {
			break
		}
	}
	return result
}

// ValTypeToWasm converts a wazero value type to WASM encoding.
func ValTypeToWasm(t api.ValueType) byte {
	switch t {
	case api.ValueTypeI32:
		return 0x7f
	case api.ValueTypeI64:
		return 0x7e
	case api.ValueTypeF32:
		return 0x7d
	case api.ValueTypeF64:
		return 0x7c
	default:
		return 0x7f
	}
}
