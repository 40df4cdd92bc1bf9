//go:build wasip1

package lion

// The six stable lion_* host imports. Every argument that is a buffer is a
// (ptr, len) pair into this module's own linear memory; every function
// returns a negative Code on failure rather than trapping, so a guest can
// branch on the result instead of crashing when a capability is denied.

//go:wasmimport lion lion_log
func hostLog(level, ptr, length uint32)

//go:wasmimport lion lion_file_read
func hostFileRead(pathPtr, pathLen, bufPtr, bufCap uint32) int32

//go:wasmimport lion lion_file_write
func hostFileWrite(pathPtr, pathLen, bufPtr, bufLen uint32) int32

//go:wasmimport lion lion_net_connect
func hostNetConnect(hostPtr, hostLen, port uint32) int32

//go:wasmimport lion lion_send_message
func hostSendMessage(destPtr, destLen, payloadPtr, payloadLen uint32) int32

//go:wasmimport lion lion_call_plugin
func hostCallPlugin(targetPtr, targetLen, fnPtr, fnLen, argsPtr, argsLen, outPtr, outCap uint32) int32
