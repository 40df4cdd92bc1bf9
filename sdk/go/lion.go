// Package lion is the low-level guest SDK for plugins hosted by the Lion
// microkernel: thin, allocation-aware wrappers around the six lion_* host
// imports (lion_log, lion_file_read, lion_file_write, lion_net_connect,
// lion_send_message, lion_call_plugin), plus a small harness (see plugin.go)
// that wires a Plugin implementation's Describe/Schema/Check methods to the
// describe/schema/observe wasmexports the host actually calls.
//
// A guest module built against this package should import it under
// GOOS=wasip1 GOARCH=wasm; a plain `go test` on a developer machine still
// builds and runs everything that doesn't need the host module itself.
package lion

import "fmt"

// Code is the stable negative error code the host returns in place of a
// successful length or handle. It never changes meaning between host
// versions: a guest can match on it without knowing which kernel build it's
// running under.
type Code int32

const (
	CodeSuccess          Code = 0
	CodeCapabilityDenied Code = -1
	CodeInvalidArgs      Code = -2
	CodeResourceExceeded Code = -3
	CodeNotFound         Code = -4
	CodeIOFailure        Code = -5
)

func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeCapabilityDenied:
		return "capability_denied"
	case CodeInvalidArgs:
		return "invalid_args"
	case CodeResourceExceeded:
		return "resource_exceeded"
	case CodeNotFound:
		return "not_found"
	case CodeIOFailure:
		return "io_failure"
	default:
		return "unknown"
	}
}

// HostError wraps a negative Code returned by a lion_* call. Plugin code
// that wants to report structured evidence should convert it with
// ToErrorDetail rather than just printing Error().
type HostError struct {
	Op   string
	Code Code
}

func (e *HostError) Error() string {
	return fmt.Sprintf("lion: %s: %s", e.Op, e.Code)
}

// LogLevel mirrors the u32 level argument of lion_log.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Log sends a line to the host's audit/observability sink via lion_log.
// Unconditionally allowed: logging never touches the capability system.
func Log(level LogLevel, msg string) {
	ptr := allocBuffer(uint32(len(msg)))
	copyToMemory(ptr, []byte(msg))
	hostLog(uint32(level), ptr, uint32(len(msg)))
}

const initialReadBuf = 4096

// ReadFile reads path through lion_file_read, gated by the plugin's
// FileRead capability. The host truncates a result to the buffer capacity
// it was given and returns the (possibly truncated) length, so an
// exact-fill read is ambiguous with "the file is exactly this long" — this
// doubles the buffer and retries until a read comes back strictly shorter
// than the capacity it was offered.
func ReadFile(path string) ([]byte, error) {
	pathPtr := allocBuffer(uint32(len(path)))
	copyToMemory(pathPtr, []byte(path))

	bufCap := uint32(initialReadBuf)
	for {
		bufPtr := allocBuffer(bufCap)
		n := hostFileRead(pathPtr, uint32(len(path)), bufPtr, bufCap)
		if n < 0 {
			return nil, &HostError{Op: "file_read(" + path + ")", Code: Code(n)}
		}
		length := uint32(n)
		if length < bufCap || bufCap >= 1<<28 {
			return readFromMemory(bufPtr, length), nil
		}
		bufCap *= 2
	}
}

// WriteFile writes data to path through lion_file_write, gated by the
// plugin's FileWrite capability.
func WriteFile(path string, data []byte) error {
	pathPtr := allocBuffer(uint32(len(path)))
	copyToMemory(pathPtr, []byte(path))
	bufPtr := allocBuffer(uint32(len(data)))
	copyToMemory(bufPtr, data)

	n := hostFileWrite(pathPtr, uint32(len(path)), bufPtr, uint32(len(data)))
	if n < 0 {
		return &HostError{Op: "file_write(" + path + ")", Code: Code(n)}
	}
	return nil
}

// Connect dials host:port through lion_net_connect, gated by the plugin's
// NetworkClient capability, and returns an opaque host-side socket handle.
// The stable ABI defines only this one network primitive — there is no
// paired read/write — so Connect can only prove reachability, not exchange
// payloads with the remote peer.
func Connect(host string, port uint32) (int32, error) {
	hostPtr := allocBuffer(uint32(len(host)))
	copyToMemory(hostPtr, []byte(host))

	n := hostNetConnect(hostPtr, uint32(len(host)), port)
	if n < 0 {
		return 0, &HostError{Op: fmt.Sprintf("net_connect(%s:%d)", host, port), Code: Code(n)}
	}
	return n, nil
}

// Send delivers payload to dest through lion_send_message, gated by the
// plugin's InterPluginComm capability. dest is a destination selector the
// host parses (a plugin name, or "*" for a topic broadcast, depending on
// how the receiving plugin's capability was minted).
func Send(dest string, payload []byte) error {
	destPtr := allocBuffer(uint32(len(dest)))
	copyToMemory(destPtr, []byte(dest))
	payloadPtr := allocBuffer(uint32(len(payload)))
	copyToMemory(payloadPtr, payload)

	n := hostSendMessage(destPtr, uint32(len(dest)), payloadPtr, uint32(len(payload)))
	if n < 0 {
		return &HostError{Op: "send_message(" + dest + ")", Code: Code(n)}
	}
	return nil
}

const initialCallBuf = 4096

// Call invokes fn on the plugin named target through lion_call_plugin,
// gated by the plugin's PluginCall capability, doubling its output buffer
// on the same truncation-ambiguity grounds as ReadFile.
func Call(target, fn string, args []byte) ([]byte, error) {
	targetPtr := allocBuffer(uint32(len(target)))
	copyToMemory(targetPtr, []byte(target))
	fnPtr := allocBuffer(uint32(len(fn)))
	copyToMemory(fnPtr, []byte(fn))
	argsPtr := allocBuffer(uint32(len(args)))
	copyToMemory(argsPtr, args)

	outCap := uint32(initialCallBuf)
	for {
		outPtr := allocBuffer(outCap)
		n := hostCallPlugin(targetPtr, uint32(len(target)), fnPtr, uint32(len(fn)), argsPtr, uint32(len(args)), outPtr, outCap)
		if n < 0 {
			return nil, &HostError{Op: "call_plugin(" + target + "." + fn + ")", Code: Code(n)}
		}
		length := uint32(n)
		if length < outCap || outCap >= 1<<28 {
			return readFromMemory(outPtr, length), nil
		}
		outCap *= 2
	}
}
