package runtime

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/opa-wasm-runtime/builtins"
	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

// dispatchEntry binds a module-assigned builtin id to a handler. The
// handler is nil when the registry has nothing under the published name;
// that is only an error if the policy actually calls it.
type dispatchEntry struct {
	builtin *builtins.Builtin
	name    string
}

// guestTrap carries a structured error out of a host function. The panic
// unwinds the guest call; Evaluate picks the error back up.
type guestTrap struct {
	err error
}

func (r *Runtime) trap(err error) {
	r.trapErr = err
	panic(guestTrap{err: err})
}

// registerHostModule instantiates the opa_host module holding the real
// host functions; the env shim re-exports them next to the memory.
func (r *Runtime) registerHostModule(ctx context.Context) error {
	i32 := api.ValueTypeI32
	b := r.wz.NewHostModuleBuilder(hostModuleName)

	b.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(r.hostAbort), []api.ValueType{i32}, nil).
		Export(importAbort)

	b.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(r.hostPrintln), []api.ValueType{i32}, nil).
		Export(importPrintln)

	// One import per arity: opa_builtin<N>(builtin_id, ctx, arg1..argN).
	for arity := 0; arity <= 4; arity++ {
		arity := arity
		params := make([]api.ValueType, 2+arity)
		for i := range params {
			params[i] = i32
		}
		b.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, _ api.Module, stack []uint64) {
				r.hostBuiltin(ctx, stack, arity)
			}), params, []api.ValueType{i32}).
			Export(fmt.Sprintf("%s%d", importBuiltin, arity))
	}

	_, err := b.Instantiate(ctx)
	if err != nil {
		return errors.Load("instantiate host module", err)
	}
	return nil
}

func (r *Runtime) hostAbort(_ context.Context, _ api.Module, stack []uint64) {
	msg := "opa_abort"
	if r.heap != nil {
		if b, err := r.heap.ReadString(uint32(stack[0])); err == nil {
			msg = string(b)
		}
	}
	Logger().Error("opa_abort", zap.String("msg", msg))
	r.trap(errors.Abort(msg))
}

func (r *Runtime) hostPrintln(_ context.Context, _ api.Module, stack []uint64) {
	if r.heap == nil {
		return
	}
	if b, err := r.heap.ReadString(uint32(stack[0])); err == nil {
		Logger().Info("opa_println", zap.String("msg", string(b)))
	}
}

func (r *Runtime) hostBuiltin(ctx context.Context, stack []uint64, arity int) {
	id := int32(uint32(stack[0]))
	// stack[1] is the reserved context handle, opaque to the host.
	addr, err := r.dispatchBuiltin(ctx, id, stack[2:2+arity])
	if err != nil {
		r.trap(err)
	}
	stack[0] = uint64(uint32(addr))
}

// dispatchBuiltin decodes the arguments, runs the handler and encodes the
// result back into guest memory. A zero return address means undefined.
func (r *Runtime) dispatchBuiltin(ctx context.Context, id int32, argAddrs []uint64) (int32, error) {
	select {
	case <-ctx.Done():
		return 0, errors.Cancelled(ctx.Err())
	default:
	}

	entry, ok := r.dispatch[id]
	if !ok {
		return 0, errors.ABIMismatch("module called unknown builtin id %d", id)
	}
	if entry.builtin == nil {
		err := errors.BuiltinMissing(entry.name)
		if r.strict {
			return 0, err
		}
		Logger().Debug("builtin not registered", zap.String("name", entry.name))
		return 0, nil
	}
	if len(argAddrs) != entry.builtin.Arity {
		return 0, errors.ABIMismatch("builtin %s called with %d args, declared arity %d",
			entry.name, len(argAddrs), entry.builtin.Arity)
	}

	args := make([]value.Value, len(argAddrs))
	for i, addr := range argAddrs {
		text, err := r.heap.DumpJSON(ctx, int32(uint32(addr)))
		if err != nil {
			return 0, err
		}
		v, parseErr := value.Parse(text)
		if parseErr != nil {
			return 0, errors.Decode(fmt.Sprintf("argument %d of %s", i+1, entry.name), parseErr)
		}
		args[i] = v
	}

	r.evalCtx.SetStdContext(ctx)
	out, handlerErr := entry.builtin.Fn(r.evalCtx, args)
	if handlerErr != nil {
		if errors.IsSoft(handlerErr) && !r.strict {
			Logger().Debug("builtin returned undefined",
				zap.String("name", entry.name),
				zap.Error(handlerErr))
			return 0, nil
		}
		return 0, handlerErr
	}

	text, err := value.Marshal(out)
	if err != nil {
		return 0, errors.Encode(fmt.Sprintf("result of %s", entry.name), err)
	}
	return r.heap.LoadJSON(ctx, text)
}
