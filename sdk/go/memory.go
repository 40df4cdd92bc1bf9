package lion

import "unsafe"

// allocations pins guest memory handed to the host so the Go GC never
// reclaims it while the host still holds the pointer. The host is expected
// to call deallocate once it has copied a result out.
var allocations = make(map[uint32][]byte)

// allocBuffer reserves size bytes of linear memory and returns a pointer the
// host can read from or write into.
func allocBuffer(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))
	allocations[ptr] = buf
	return ptr
}

func freeBuffer(ptr uint32) {
	delete(allocations, ptr)
}

func copyToMemory(ptr uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	dest := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), len(data))
	copy(dest, data)
}

func readFromMemory(ptr, length uint32) []byte {
	if length == 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	out := make([]byte, length)
	copy(out, src)
	return out
}

// packPtrLen packs a pointer and a length into the single uint64 every
// lion_* function and wasmexport uses as its variable-length-buffer
// convention: pointer in the high 32 bits, length in the low 32 bits.
func packPtrLen(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

// putBytes allocates room for data, copies it in, and returns the packed
// (ptr<<32|len) result a wasmexport function hands back to the host.
func putBytes(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	ptr := allocBuffer(uint32(len(data)))
	copyToMemory(ptr, data)
	return packPtrLen(ptr, uint32(len(data)))
}
