//go:build wasip1

package lion

// Allocate is the guest's allocate() export: the host calls it before
// writing a request payload (config JSON, a message, an RPC argument) into
// this module's own linear memory.
//
//go:wasmexport allocate
func Allocate(size uint32) uint32 { return allocBuffer(size) }

// Deallocate is the guest's deallocate() export, called by the host once it
// has finished reading a pointer Allocate returned.
//
//go:wasmexport deallocate
func Deallocate(ptr uint32, _ uint32) { freeBuffer(ptr) }
