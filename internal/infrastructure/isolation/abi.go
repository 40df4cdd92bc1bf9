package isolation

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// Guest functions exchange variable-length buffers as a packed (ptr<<32|len)
// uint64, the same convention idiomatic WASM plugins use for describe/
// schema/observe exports. allocate/deallocate are optional guest exports; when
// absent the host falls back to writing into existing linear memory only
// for reads, never allocating on the guest's behalf.

func writeArgs(ctx context.Context, mod api.Module, data []byte) (uint32, error) {
	allocate := mod.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("isolation: guest does not export allocate()")
	}
	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("isolation: allocate() failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("isolation: allocate() returned no results")
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
	if ptr == 0 && len(data) > 0 {
		return 0, fmt.Errorf("isolation: allocate() returned null pointer")
	}
	if !mod.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("isolation: failed writing %d bytes at offset %d", len(data), ptr)
	}
	return ptr, nil
}

func readResult(ctx context.Context, mod api.Module, packed uint64) ([]byte, error) {
	ptr := uint32(packed >> 32)         //nolint:gosec // G115: WASM32 pointers are always 32-bit
	size := uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: WASM32 lengths are always 32-bit
	if size == 0 {
		return nil, nil
	}

	data, ok := mod.Memory().Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("isolation: failed reading %d bytes at offset %d", size, ptr)
	}
	out := make([]byte, size)
	copy(out, data)

	if dealloc := mod.ExportedFunction("deallocate"); dealloc != nil {
		//nolint:errcheck,gosec // G104: deallocation is best-effort cleanup
		dealloc.Call(ctx, uint64(ptr), uint64(size))
	}
	return out, nil
}
