package runtime

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	opawasm "github.com/wippyai/opa-wasm-runtime"
	"github.com/wippyai/opa-wasm-runtime/errors"
)

// Region is a guest heap allocation owned by the host until freed.
type Region struct {
	Ptr   uint32
	Len   uint32
	freed bool
}

// End returns the first address past the region.
func (r *Region) End() uint32 { return r.Ptr + r.Len }

// Heap is a thin facade over the module's linear memory and its exported
// allocator. Every WriteString is matched by an eventual Free; LoadJSON
// results are guest values owned by the guest heap and reclaimed by the
// heap pointer reset between evaluations.
type Heap struct {
	mem     opawasm.Memory
	abi     *guestABI
	pending int
}

func newHeap(mem api.Memory, abi *guestABI) *Heap {
	return &Heap{mem: mem, abi: abi}
}

// Compile-time check that wazero memories satisfy the root contract.
var _ opawasm.Memory = (api.Memory)(nil)

// Alloc implements opawasm.GuestAllocator.
func (h *Heap) Alloc(ctx context.Context, size uint32) (uint32, error) {
	addr, err := call1(ctx, h.abi.malloc, uint64(size))
	if err != nil {
		return 0, errors.Allocation(size, err)
	}
	if addr == 0 {
		return 0, errors.Allocation(size, nil)
	}
	return uint32(addr), nil
}

// Free implements opawasm.GuestAllocator.
func (h *Heap) Free(ctx context.Context, ptr uint32) error {
	return call0(ctx, h.abi.free, uint64(ptr))
}

// WriteString copies b into a fresh guest allocation with a trailing NUL
// and returns the owning region.
func (h *Heap) WriteString(ctx context.Context, b []byte) (*Region, error) {
	size := uint32(len(b) + 1)
	addr, err := h.Alloc(ctx, size)
	if err != nil {
		return nil, err
	}
	if !h.mem.Write(addr, b) || !h.mem.WriteByte(addr+uint32(len(b)), 0) {
		_ = h.Free(ctx, addr)
		return nil, errors.OutOfBounds(addr, "write past end of linear memory")
	}
	h.pending++
	return &Region{Ptr: addr, Len: size}, nil
}

// FreeRegion releases a region back to the guest allocator. Releasing
// twice is a no-op.
func (h *Heap) FreeRegion(ctx context.Context, r *Region) error {
	if r == nil || r.freed {
		return nil
	}
	r.freed = true
	h.pending--
	return h.Free(ctx, r.Ptr)
}

// PendingRegions returns the number of live host-owned allocations. It is
// zero between calls when the free discipline holds.
func (h *Heap) PendingRegions() int { return h.pending }

const maxStringScan = 64 * 1024 * 1024

// ReadString reads a NUL-terminated byte sequence from guest memory.
func (h *Heap) ReadString(addr uint32) ([]byte, error) {
	if addr == 0 {
		return nil, errors.OutOfBounds(addr, "null address")
	}

	// Scan forward in chunks until the terminator.
	var out []byte
	pos := addr
	for scanned := 0; scanned < maxStringScan; {
		chunkLen := uint32(256)
		if remaining := h.mem.Size() - pos; remaining < chunkLen {
			chunkLen = remaining
		}
		if chunkLen == 0 {
			return nil, errors.OutOfBounds(addr, "unterminated string")
		}
		chunk, ok := h.mem.Read(pos, chunkLen)
		if !ok {
			return nil, errors.OutOfBounds(pos, "read past end of linear memory")
		}
		for i, c := range chunk {
			if c == 0 {
				out = append(out, chunk[:i]...)
				return out, nil
			}
		}
		out = append(out, chunk...)
		pos += chunkLen
		scanned += int(chunkLen)
	}
	return nil, errors.OutOfBounds(addr, "unterminated string")
}

// LoadJSON places JSON text into the guest heap, parses it into a guest
// value and frees the text region. The returned address is a guest value
// handle.
func (h *Heap) LoadJSON(ctx context.Context, b []byte) (int32, error) {
	region, err := h.WriteString(ctx, b)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := h.FreeRegion(ctx, region); err != nil {
			Logger().Warn("free JSON text region",
				zap.Uint32("ptr", region.Ptr),
				zap.Error(err))
		}
	}()

	// Length excludes the NUL terminator.
	addr, err := call1(ctx, h.abi.jsonParse, uint64(region.Ptr), uint64(region.Len-1))
	if err != nil {
		return 0, errors.Encode("opa_json_parse", err)
	}
	if addr == 0 {
		return 0, errors.Encode("opa_json_parse rejected the document", nil)
	}
	return addr, nil
}

// DumpJSON renders a guest value as JSON text and reads it back.
func (h *Heap) DumpJSON(ctx context.Context, valueAddr int32) ([]byte, error) {
	strAddr, err := call1(ctx, h.abi.jsonDump, uint64(uint32(valueAddr)))
	if err != nil {
		return nil, errors.Decode("opa_json_dump", err)
	}
	return h.ReadString(uint32(strAddr))
}

// Compile-time check that Heap satisfies the root allocator contract.
var _ opawasm.GuestAllocator = (*Heap)(nil)
