package hostfuncs

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero/api"
)

// log implements lion_log(level: u32, ptr, len): unconditionally allowed —
// logging never touches the capability system.
func (h *host) log(ctx context.Context, mod api.Module, stack []uint64) {
	level := int32(stack[0]) //nolint:gosec // G115: wazero stack slots are raw uint64
	ptr := uint32(stack[1])  //nolint:gosec // G115: WASM32 pointers are always 32-bit
	length := uint32(stack[2])

	msg, ok := readGuestBytes(mod, ptr, length)
	if !ok {
		slog.ErrorContext(ctx, "hostfuncs: lion_log could not read guest memory")
		return
	}

	id, _ := callerPlugin(ctx)
	slog.LogAttrs(ctx, slogLevel(level), h.redactor.ScrubString(string(msg)), slog.String("plugin", id.String()))
}

// slogLevel maps the guest's u32 level (0=debug,1=info,2=warn,3=error) to
// slog.Level, defaulting unknown values to Info.
func slogLevel(level int32) slog.Level {
	switch level {
	case 0:
		return slog.LevelDebug
	case 2:
		return slog.LevelWarn
	case 3:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
