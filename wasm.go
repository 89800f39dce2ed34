package opawasm

import "context"

// Memory is the subset of WASM linear memory access the runtime needs.
// wazero's api.Memory satisfies it.
type Memory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
	WriteByte(offset uint32, v byte) bool
	Size() uint32
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
}

// GuestAllocator allocates memory on the guest heap through the module's
// exported allocator. Addresses it returns are owned by the caller until
// passed back to Free.
type GuestAllocator interface {
	Alloc(ctx context.Context, size uint32) (uint32, error)
	Free(ctx context.Context, ptr uint32) error
}
