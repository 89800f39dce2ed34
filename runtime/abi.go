package runtime

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/opa-wasm-runtime/errors"
)

// Exports the guest must provide.
const (
	exportEval                 = "eval"
	exportBuiltins             = "builtins"
	exportEntrypoints          = "entrypoints"
	exportEvalCtxNew           = "opa_eval_ctx_new"
	exportEvalCtxSetInput      = "opa_eval_ctx_set_input"
	exportEvalCtxSetData       = "opa_eval_ctx_set_data"
	exportEvalCtxSetEntrypoint = "opa_eval_ctx_set_entrypoint"
	exportEvalCtxGetResult     = "opa_eval_ctx_get_result"
	exportMalloc               = "opa_malloc"
	exportFree                 = "opa_free"
	exportJSONParse            = "opa_json_parse"
	exportJSONDump             = "opa_json_dump"
	exportHeapPtrGet           = "opa_heap_ptr_get"
	exportHeapPtrSet           = "opa_heap_ptr_set"
	exportOpaEval              = "opa_eval"

	globalABIVersion      = "opa_wasm_abi_version"
	globalABIMinorVersion = "opa_wasm_abi_minor_version"
)

// Imports the guest requires, re-exported through the env shim.
const (
	hostModuleName = "opa_host"
	envModuleName  = "env"

	importAbort   = "opa_abort"
	importPrintln = "opa_println"
	importBuiltin = "opa_builtin" // opa_builtin0 .. opa_builtin4
)

// ABIVersion identifies the wasm ABI of a compiled policy.
type ABIVersion struct {
	Major int32
	Minor int32
}

func (v ABIVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// hasEvalFastPath reports whether the one-shot opa_eval export is
// available.
func (v ABIVersion) hasEvalFastPath() bool {
	return v.Major == 1 && v.Minor >= 2
}

func abiVersionFromModule(mod api.Module) (ABIVersion, error) {
	major := mod.ExportedGlobal(globalABIVersion)
	if major == nil {
		return ABIVersion{}, errors.MissingExport(globalABIVersion)
	}
	minor := mod.ExportedGlobal(globalABIMinorVersion)
	if minor == nil {
		return ABIVersion{}, errors.MissingExport(globalABIMinorVersion)
	}

	v := ABIVersion{Major: int32(major.Get()), Minor: int32(minor.Get())}
	if v.Major != 1 || v.Minor < 0 {
		return ABIVersion{}, errors.ABIMismatch("unsupported ABI version %s", v)
	}
	return v, nil
}

// guestABI caches the guest's exported functions.
type guestABI struct {
	eval                 api.Function
	builtins             api.Function
	entrypoints          api.Function
	evalCtxNew           api.Function
	evalCtxSetInput      api.Function
	evalCtxSetData       api.Function
	evalCtxSetEntrypoint api.Function
	evalCtxGetResult     api.Function
	malloc               api.Function
	free                 api.Function
	jsonParse            api.Function
	jsonDump             api.Function
	heapPtrGet           api.Function
	heapPtrSet           api.Function

	// Only present from ABI 1.2 on.
	opaEval api.Function
}

func guestABIFromModule(mod api.Module, version ABIVersion) (guestABI, error) {
	required := map[string]*api.Function{}
	abi := guestABI{}
	required[exportEval] = &abi.eval
	required[exportBuiltins] = &abi.builtins
	required[exportEntrypoints] = &abi.entrypoints
	required[exportEvalCtxNew] = &abi.evalCtxNew
	required[exportEvalCtxSetInput] = &abi.evalCtxSetInput
	required[exportEvalCtxSetData] = &abi.evalCtxSetData
	required[exportEvalCtxSetEntrypoint] = &abi.evalCtxSetEntrypoint
	required[exportEvalCtxGetResult] = &abi.evalCtxGetResult
	required[exportMalloc] = &abi.malloc
	required[exportFree] = &abi.free
	required[exportJSONParse] = &abi.jsonParse
	required[exportJSONDump] = &abi.jsonDump
	required[exportHeapPtrGet] = &abi.heapPtrGet
	required[exportHeapPtrSet] = &abi.heapPtrSet

	for name, slot := range required {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			return guestABI{}, errors.MissingExport(name)
		}
		*slot = fn
	}

	if version.hasEvalFastPath() {
		abi.opaEval = mod.ExportedFunction(exportOpaEval)
		if abi.opaEval == nil {
			return guestABI{}, errors.MissingExport(exportOpaEval)
		}
	}

	return abi, nil
}

// call1 invokes fn and returns its single i32 result.
func call1(ctx context.Context, fn api.Function, params ...uint64) (int32, error) {
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return 0, err
	}
	if len(res) != 1 {
		return 0, errors.ABIMismatch("%s returned %d results, want 1", fn.Definition().Name(), len(res))
	}
	return int32(res[0]), nil
}

// call0 invokes fn, discarding results.
func call0(ctx context.Context, fn api.Function, params ...uint64) error {
	_, err := fn.Call(ctx, params...)
	return err
}
