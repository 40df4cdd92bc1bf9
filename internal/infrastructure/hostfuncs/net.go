package hostfuncs

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"

	"github.com/lion-wasm/lion/internal/domain/access"
)

// socketTable hands out monotonically increasing handles for open
// connections so the guest can refer back to one without ever seeing a raw
// fd or pointer. The stable ABI only defines lion_net_connect itself; there
// is no paired lion_net_read/write, so a connection is dialed
// to prove reachability and authorization, then held open under its handle
// for a future read/write extension rather than closed immediately.
type socketTable struct {
	mu    sync.Mutex
	next  atomic.Int32
	conns map[int32]net.Conn
}

func newSocketTable() *socketTable {
	return &socketTable{conns: make(map[int32]net.Conn)}
}

func (t *socketTable) store(conn net.Conn) int32 {
	handle := t.next.Add(1)
	t.mu.Lock()
	t.conns[handle] = conn
	t.mu.Unlock()
	return handle
}

// netConnect implements lion_net_connect(host_ptr, host_len, port: u32) → i32 socket_handle.
func (h *host) netConnect(ctx context.Context, mod api.Module, stack []uint64) {
	hostPtr, hostLen := uint32(stack[0]), uint32(stack[1])
	port := uint32(stack[2])

	hostBytes, ok := readGuestBytes(mod, hostPtr, hostLen)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}
	host := string(hostBytes)

	id, ok := callerPlugin(ctx)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}

	req := access.Request{
		Kind:       access.KindNetConnect,
		Plugin:     id,
		Target:     host,
		Parameters: map[string]string{"port": strconv.FormatUint(uint64(port), 10)},
	}
	if !h.checker.Check(id, req).Allowed {
		setResult(stack, codeCapabilityDenied)
		return
	}

	conn, err := net.Dial("tcp", net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10)))
	if err != nil {
		slog.WarnContext(ctx, "hostfuncs: lion_net_connect failed", "host", host, "port", port, "error", err)
		setResult(stack, codeIOFailure)
		return
	}

	setResult(stack, h.sockets.store(conn))
}
