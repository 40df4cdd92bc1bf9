package hostfuncs

import (
	"context"
	"log/slog"
	"os"

	"github.com/tetratelabs/wazero/api"

	"github.com/lion-wasm/lion/internal/domain/access"
)

// fileRead implements lion_file_read(path_ptr, path_len, buf_ptr, buf_cap) → i32.
// On success it writes up to buf_cap bytes of the file's contents into the
// guest's own buffer and returns the byte count; on failure it returns a
// negative error code without touching the guest buffer.
func (h *host) fileRead(ctx context.Context, mod api.Module, stack []uint64) {
	pathPtr, pathLen := uint32(stack[0]), uint32(stack[1])
	bufPtr, bufCap := uint32(stack[2]), uint32(stack[3])

	path, ok := readGuestBytes(mod, pathPtr, pathLen)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}

	id, ok := callerPlugin(ctx)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}

	req := access.Request{Kind: access.KindFileRead, Plugin: id, Target: string(path)}
	if !h.checker.Check(id, req).Allowed {
		setResult(stack, codeCapabilityDenied)
		return
	}

	data, err := os.ReadFile(string(path))
	if err != nil {
		if os.IsNotExist(err) {
			setResult(stack, codeNotFound)
			return
		}
		slog.WarnContext(ctx, "hostfuncs: lion_file_read I/O failure", "path", string(path), "error", err)
		setResult(stack, codeIOFailure)
		return
	}

	if uint32(len(data)) > bufCap {
		data = data[:bufCap]
	}
	if !writeGuestBytes(mod, bufPtr, data) {
		setResult(stack, codeIOFailure)
		return
	}
	setResult(stack, int32(len(data))) //nolint:gosec // G115: bounded by bufCap, a guest-supplied u32
}

// fileWrite implements lion_file_write(path_ptr, path_len, buf_ptr, buf_len) → i32.
func (h *host) fileWrite(ctx context.Context, mod api.Module, stack []uint64) {
	pathPtr, pathLen := uint32(stack[0]), uint32(stack[1])
	bufPtr, bufLen := uint32(stack[2]), uint32(stack[3])

	path, ok := readGuestBytes(mod, pathPtr, pathLen)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}
	data, ok := readGuestBytes(mod, bufPtr, bufLen)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}

	id, ok := callerPlugin(ctx)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}

	req := access.Request{Kind: access.KindFileWrite, Plugin: id, Target: string(path)}
	if !h.checker.Check(id, req).Allowed {
		setResult(stack, codeCapabilityDenied)
		return
	}

	if err := os.WriteFile(string(path), data, 0o644); err != nil {
		slog.WarnContext(ctx, "hostfuncs: lion_file_write I/O failure", "path", string(path), "error", err)
		setResult(stack, codeIOFailure)
		return
	}
	setResult(stack, int32(len(data))) //nolint:gosec // G115: bounded by bufLen, a guest-supplied u32
}
