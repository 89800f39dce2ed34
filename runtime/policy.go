package runtime

import (
	"context"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

// wasmPageSize is the WASM linear memory page granularity.
const wasmPageSize = 64 * 1024

// Policy is a Runtime with a data document injected, ready to evaluate.
// Like the Runtime it is NOT safe for concurrent use; evaluations on one
// policy are serialized by the caller.
type Policy struct {
	rt *Runtime
}

// Runtime returns the underlying runtime.
func (p *Policy) Runtime() *Runtime { return p.rt }

// SetData replaces the data document. The previous document's heap space
// is reclaimed by resetting the guest heap pointer before the new load,
// so the swap cannot leak.
func (p *Policy) SetData(ctx context.Context, data value.Value) error {
	r := p.rt
	if r.state == stateEvaluating {
		return errors.State("SetData while an evaluation is running")
	}

	text, err := value.Marshal(data)
	if err != nil {
		return errors.Encode("data document", err)
	}

	if err := call0(ctx, r.abi.heapPtrSet, uint64(uint32(r.baseHeapPtr))); err != nil {
		return r.wrapGuestErr(ctx, "reset heap pointer", err)
	}

	addr, err := r.heap.LoadJSON(ctx, text)
	if err != nil {
		return err
	}
	r.dataAddr = addr

	r.dataHeapPtr, err = call1(ctx, r.abi.heapPtrGet)
	if err != nil {
		return r.wrapGuestErr(ctx, "read heap pointer", err)
	}

	r.state = statePrepared
	return nil
}

// Evaluate runs the named entrypoint against input and decodes the
// result set. Transient guest allocations from the previous call are
// reclaimed by the heap pointer reset at the start of each call.
func (p *Policy) Evaluate(ctx context.Context, entrypoint string, input value.Value) (out value.Value, err error) {
	r := p.rt
	if r.state != statePrepared {
		return nil, errors.State("Evaluate requires a prepared policy")
	}

	eid, ok := r.entrypoints[entrypoint]
	if !ok {
		return nil, errors.NotFound(errors.PhaseEval, "entrypoint", entrypoint)
	}

	r.state = stateEvaluating
	defer func() { r.state = statePrepared }()

	r.trapErr = nil
	r.evalCtx.BeginEvaluation()
	r.evalCtx.SetStdContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			if trap, ok := rec.(guestTrap); ok {
				out, err = nil, trap.err
				return
			}
			panic(rec)
		}
	}()

	text, marshalErr := value.Marshal(input)
	if marshalErr != nil {
		return nil, errors.Encode("input document", marshalErr)
	}

	if r.abi.opaEval != nil {
		return p.evaluateFastPath(ctx, eid, text)
	}
	return p.evaluateSlowPath(ctx, eid, text)
}

// evaluateFastPath uses the one-shot opa_eval export available from ABI
// 1.2 on: the input is written raw at the data high-water mark and the
// guest returns the result JSON in a single call.
func (p *Policy) evaluateFastPath(ctx context.Context, eid int32, input []byte) (value.Value, error) {
	r := p.rt

	inputPtr := uint32(r.dataHeapPtr)
	heapPtr := inputPtr + uint32(len(input))

	// Grow the memory if the raw input does not fit.
	if needed := (heapPtr + wasmPageSize - 1) / wasmPageSize; needed*wasmPageSize > r.heap.mem.Size() {
		current := r.heap.mem.Size() / wasmPageSize
		if _, ok := r.heap.mem.Grow(needed - current); !ok {
			return nil, errors.Allocation(uint32(len(input)), nil)
		}
	}
	if !r.heap.mem.Write(inputPtr, input) {
		return nil, errors.OutOfBounds(inputPtr, "write input document")
	}

	resAddr, err := call1(ctx, r.abi.opaEval,
		0,
		uint64(uint32(eid)),
		uint64(uint32(r.dataAddr)),
		uint64(inputPtr),
		uint64(uint32(len(input))),
		uint64(heapPtr),
		0,
	)
	if err != nil {
		return nil, r.wrapGuestErr(ctx, "opa_eval", err)
	}

	text, err := r.heap.ReadString(uint32(resAddr))
	if err != nil {
		return nil, err
	}
	out, parseErr := value.Parse(text)
	if parseErr != nil {
		return nil, errors.Decode("evaluation result", parseErr)
	}
	return out, nil
}

func (p *Policy) evaluateSlowPath(ctx context.Context, eid int32, input []byte) (value.Value, error) {
	r := p.rt

	// Reclaim everything past the data document.
	if err := call0(ctx, r.abi.heapPtrSet, uint64(uint32(r.dataHeapPtr))); err != nil {
		return nil, r.wrapGuestErr(ctx, "reset heap pointer", err)
	}

	inputAddr, err := r.heap.LoadJSON(ctx, input)
	if err != nil {
		return nil, err
	}

	ctxAddr, err := call1(ctx, r.abi.evalCtxNew)
	if err != nil {
		return nil, r.wrapGuestErr(ctx, "opa_eval_ctx_new", err)
	}
	if err := call0(ctx, r.abi.evalCtxSetData, uint64(uint32(ctxAddr)), uint64(uint32(r.dataAddr))); err != nil {
		return nil, r.wrapGuestErr(ctx, "opa_eval_ctx_set_data", err)
	}
	if err := call0(ctx, r.abi.evalCtxSetInput, uint64(uint32(ctxAddr)), uint64(uint32(inputAddr))); err != nil {
		return nil, r.wrapGuestErr(ctx, "opa_eval_ctx_set_input", err)
	}
	if err := call0(ctx, r.abi.evalCtxSetEntrypoint, uint64(uint32(ctxAddr)), uint64(uint32(eid))); err != nil {
		return nil, r.wrapGuestErr(ctx, "opa_eval_ctx_set_entrypoint", err)
	}

	if err := call0(ctx, r.abi.eval, uint64(uint32(ctxAddr))); err != nil {
		return nil, r.wrapGuestErr(ctx, "eval", err)
	}

	resAddr, err := call1(ctx, r.abi.evalCtxGetResult, uint64(uint32(ctxAddr)))
	if err != nil {
		return nil, r.wrapGuestErr(ctx, "opa_eval_ctx_get_result", err)
	}

	text, err := r.heap.DumpJSON(ctx, resAddr)
	if err != nil {
		return nil, err
	}
	out, parseErr := value.Parse(text)
	if parseErr != nil {
		return nil, errors.Decode("evaluation result", parseErr)
	}
	return out, nil
}
