package runtime

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/opa-wasm-runtime/builtins"
	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/runtime/internal/synth"
	"github.com/wippyai/opa-wasm-runtime/value"
)

type state int

const (
	stateLoaded state = iota
	statePrepared
	stateEvaluating
)

// Runtime is a booted policy module with builtins and entrypoints
// resolved but no data document yet. It owns one WASM store and is NOT
// safe for concurrent use.
type Runtime struct {
	wz      wazero.Runtime
	guest   api.Module
	env     api.Module
	heap    *Heap
	abi     guestABI
	version ABIVersion

	registry *builtins.Registry
	evalCtx  *builtins.Context
	strict   bool

	entrypoints map[string]int32
	dispatch    map[int32]dispatchEntry

	state       state
	baseHeapPtr int32
	dataHeapPtr int32
	dataAddr    int32

	trapErr error
}

// Option configures a Runtime before boot.
type Option func(*Runtime)

// WithRegistry overrides the builtin registry. Use it to slim the
// library or to add embedder builtins such as http.send.
func WithRegistry(reg *builtins.Registry) Option {
	return func(r *Runtime) { r.registry = reg }
}

// WithEvaluationContext overrides the builtin evaluation context, e.g.
// to pin the clock and randomness in tests.
func WithEvaluationContext(bctx *builtins.Context) Option {
	return func(r *Runtime) { r.evalCtx = bctx }
}

// WithStrictBuiltinErrors makes missing builtins and soft handler errors
// abort the evaluation instead of producing undefined results.
func WithStrictBuiltinErrors() Option {
	return func(r *Runtime) { r.strict = true }
}

// New boots a compiled OPA policy module.
func New(ctx context.Context, wasm []byte, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		registry: builtins.DefaultRegistry(),
		evalCtx:  builtins.NewContext(),
	}
	for _, opt := range opts {
		opt(r)
	}

	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	r.wz = wazero.NewRuntimeWithConfig(ctx, cfg)

	booted := false
	defer func() {
		if !booted {
			_ = r.wz.Close(ctx)
		}
	}()

	if err := r.registerHostModule(ctx); err != nil {
		return nil, err
	}

	env, err := r.instantiateEnv(ctx, wasm)
	if err != nil {
		return nil, err
	}
	r.env = env
	r.heap = newHeap(env.ExportedMemory("memory"), nil)

	guest, err := r.instantiateGuest(ctx, wasm)
	if err != nil {
		return nil, err
	}
	r.guest = guest

	r.version, err = abiVersionFromModule(guest)
	if err != nil {
		return nil, err
	}
	Logger().Debug("module ABI version", zap.String("version", r.version.String()))

	r.abi, err = guestABIFromModule(guest, r.version)
	if err != nil {
		return nil, err
	}
	r.heap.abi = &r.abi

	if err := r.loadBuiltinTable(ctx); err != nil {
		return nil, err
	}
	if err := r.loadEntrypointTable(ctx); err != nil {
		return nil, err
	}

	r.baseHeapPtr, err = call1(ctx, r.abi.heapPtrGet)
	if err != nil {
		return nil, errors.Load("read heap pointer", err)
	}

	r.state = stateLoaded
	booted = true
	return r, nil
}

// instantiateEnv builds and instantiates the synthetic env module that
// carries the linear memory and re-exports the host functions. The
// memory is sized to the guest's declared import minimum.
func (r *Runtime) instantiateEnv(ctx context.Context, wasm []byte) (api.Module, error) {
	i32 := api.ValueTypeI32

	b := synth.NewEnvModuleBuilder(hostModuleName)
	if min, ok := synth.ParseMemoryImportMin(wasm, envModuleName); ok && min > 2 {
		b.SetMemoryMinPages(min)
	}
	b.AddFunc(importAbort, []api.ValueType{i32}, nil)
	b.AddFunc(importPrintln, []api.ValueType{i32}, nil)
	for arity := 0; arity <= 4; arity++ {
		params := make([]api.ValueType, 2+arity)
		for i := range params {
			params[i] = i32
		}
		b.AddFunc(importBuiltin+string(rune('0'+arity)), params, []api.ValueType{i32})
	}

	env, err := r.wz.InstantiateWithConfig(ctx, b.Build(),
		wazero.NewModuleConfig().WithName(envModuleName))
	if err != nil {
		return nil, errors.Load("instantiate env module", err)
	}
	if env.ExportedMemory("memory") == nil {
		return nil, errors.MissingExport("env.memory")
	}
	return env, nil
}

func (r *Runtime) instantiateGuest(ctx context.Context, wasm []byte) (guest api.Module, err error) {
	// The start function may already call host imports; a trap raised
	// there unwinds as a panic when the engine does not catch it.
	defer func() {
		if rec := recover(); rec != nil {
			if trap, ok := rec.(guestTrap); ok {
				guest, err = nil, trap.err
				return
			}
			panic(rec)
		}
	}()

	guest, err = r.wz.InstantiateWithConfig(ctx, wasm,
		wazero.NewModuleConfig().WithName("policy"))
	if err != nil {
		if r.trapErr != nil {
			trapped := r.trapErr
			r.trapErr = nil
			return nil, trapped
		}
		return nil, errors.Load("instantiate policy module", err)
	}
	return guest, nil
}

// loadBuiltinTable reads the module's name→id table and binds each id to
// a registry handler. Unknown names stay in the table unbound: they fail
// only when called, so feature-slim builds still load any policy.
func (r *Runtime) loadBuiltinTable(ctx context.Context) error {
	table, err := r.dumpTable(ctx, r.abi.builtins)
	if err != nil {
		return errors.Load("read builtin table", err)
	}

	r.dispatch = make(map[int32]dispatchEntry, table.Len())
	return table.Iter(func(k, v value.Value) error {
		name, ok := k.(value.String)
		if !ok {
			return errors.ABIMismatch("builtin table key is %s, want string", k.Kind())
		}
		id, err := tableID(v)
		if err != nil {
			return err
		}

		b, found := r.registry.Lookup(string(name))
		if !found {
			Logger().Debug("module declares unknown builtin", zap.String("name", string(name)))
			r.dispatch[id] = dispatchEntry{name: string(name)}
			return nil
		}
		r.dispatch[id] = dispatchEntry{name: string(name), builtin: b}
		return nil
	})
}

func (r *Runtime) loadEntrypointTable(ctx context.Context) error {
	table, err := r.dumpTable(ctx, r.abi.entrypoints)
	if err != nil {
		return errors.Load("read entrypoint table", err)
	}

	r.entrypoints = make(map[string]int32, table.Len())
	return table.Iter(func(k, v value.Value) error {
		name, ok := k.(value.String)
		if !ok {
			return errors.ABIMismatch("entrypoint table key is %s, want string", k.Kind())
		}
		id, err := tableID(v)
		if err != nil {
			return err
		}
		r.entrypoints[string(name)] = id
		return nil
	})
}

// dumpTable calls a table-returning export and decodes the JSON object.
func (r *Runtime) dumpTable(ctx context.Context, fn api.Function) (*value.Object, error) {
	addr, err := call1(ctx, fn)
	if err != nil {
		return nil, err
	}
	text, err := r.heap.DumpJSON(ctx, addr)
	if err != nil {
		return nil, err
	}
	v, err := value.Parse(text)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*value.Object)
	if !ok {
		return nil, errors.ABIMismatch("table is %s, want object", v.Kind())
	}
	return obj, nil
}

func tableID(v value.Value) (int32, error) {
	n, ok := v.(value.Number)
	if !ok {
		return 0, errors.ABIMismatch("table id is %s, want number", v.Kind())
	}
	id, ok := n.Int()
	if !ok {
		return 0, errors.ABIMismatch("table id %s is not an integer", string(n))
	}
	return int32(id), nil
}

// ABIVersion returns the ABI version detected for this module.
func (r *Runtime) ABIVersion() ABIVersion {
	return r.version
}

// Entrypoints returns the names of the module's evaluation targets.
func (r *Runtime) Entrypoints() []string {
	names := make([]string, 0, len(r.entrypoints))
	for name := range r.entrypoints {
		names = append(names, name)
	}
	return names
}

// DefaultEntrypoint returns the entrypoint with id 0, or "" if none.
func (r *Runtime) DefaultEntrypoint() string {
	for name, id := range r.entrypoints {
		if id == 0 {
			return name
		}
	}
	return ""
}

// WithData injects the data document and produces an evaluable Policy.
func (r *Runtime) WithData(ctx context.Context, data value.Value) (*Policy, error) {
	if r.state != stateLoaded {
		return nil, errors.State("WithData requires a freshly loaded module")
	}
	p := &Policy{rt: r}
	if err := p.SetData(ctx, data); err != nil {
		return nil, err
	}
	return p, nil
}

// WithoutData produces a Policy over an empty data document.
func (r *Runtime) WithoutData(ctx context.Context) (*Policy, error) {
	return r.WithData(ctx, value.NewObject())
}

// Close releases the WASM store. All evaluation must have completed.
func (r *Runtime) Close(ctx context.Context) error {
	return r.wz.Close(ctx)
}

// wrapGuestErr turns a raw guest call failure into a structured error,
// preferring the error captured inside a host function.
func (r *Runtime) wrapGuestErr(ctx context.Context, op string, err error) error {
	if r.trapErr != nil {
		trapped := r.trapErr
		r.trapErr = nil
		return trapped
	}
	if ctx.Err() != nil {
		return errors.Cancelled(ctx.Err())
	}
	return &errors.Error{
		Phase:  errors.PhaseEval,
		Kind:   errors.KindInvalidData,
		Detail: op,
		Cause:  err,
	}
}
