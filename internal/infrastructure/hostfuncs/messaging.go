package hostfuncs

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/lion-wasm/lion/internal/application/manager"
	"github.com/lion-wasm/lion/internal/domain/access"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// parseDestination accepts either a canonical plugin UUID string (direct
// send) or a "topic:<name>" string (broadcast), matching plugin.Destination.String().
func parseDestination(raw string) (plugin.Destination, error) {
	if topic, ok := strings.CutPrefix(raw, "topic:"); ok {
		return plugin.ToTopic(ids.Topic(topic)), nil
	}
	id, err := ids.ParsePluginID(raw)
	if err != nil {
		return plugin.Destination{}, err
	}
	return plugin.ToPlugin(id), nil
}

// sendMessage implements lion_send_message(dest_ptr, dest_len, payload_ptr, payload_len) → i32.
// Authorization is delegated entirely to MessageSender.Send (manager.Manager.Send),
// which runs the same KindSendMessage check CLI-issued sends go through.
func (h *host) sendMessage(ctx context.Context, mod api.Module, stack []uint64) {
	destPtr, destLen := uint32(stack[0]), uint32(stack[1])
	payloadPtr, payloadLen := uint32(stack[2]), uint32(stack[3])

	destBytes, ok := readGuestBytes(mod, destPtr, destLen)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}
	payload, ok := readGuestBytes(mod, payloadPtr, payloadLen)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}

	id, ok := callerPlugin(ctx)
	if !ok || h.sender == nil {
		setResult(stack, codeNotFound)
		return
	}

	dest, err := parseDestination(string(destBytes))
	if err != nil {
		setResult(stack, codeInvalidArgs)
		return
	}

	if err := h.sender.Send(ctx, id, dest, payload); err != nil {
		var denied *manager.NotGrantedError
		if errors.As(err, &denied) {
			setResult(stack, codeCapabilityDenied)
			return
		}
		slog.WarnContext(ctx, "hostfuncs: lion_send_message failed", "error", err)
		setResult(stack, codeIOFailure)
		return
	}
	setResult(stack, codeSuccess)
}

// callPlugin implements lion_call_plugin(target_ptr, target_len, fn_ptr,
// fn_len, args_ptr, args_len, out_ptr, out_cap) → i32. Unlike a host-issued
// CallFunction, this guest-issued path is gated by KindCallPlugin before
// Caller.CallFunction ever runs.
func (h *host) callPlugin(ctx context.Context, mod api.Module, stack []uint64) {
	targetPtr, targetLen := uint32(stack[0]), uint32(stack[1])
	fnPtr, fnLen := uint32(stack[2]), uint32(stack[3])
	argsPtr, argsLen := uint32(stack[4]), uint32(stack[5])
	outPtr, outCap := uint32(stack[6]), uint32(stack[7])

	targetBytes, ok := readGuestBytes(mod, targetPtr, targetLen)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}
	fnBytes, ok := readGuestBytes(mod, fnPtr, fnLen)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}
	args, ok := readGuestBytes(mod, argsPtr, argsLen)
	if !ok {
		setResult(stack, codeInvalidArgs)
		return
	}

	id, ok := callerPlugin(ctx)
	if !ok || h.caller == nil {
		setResult(stack, codeNotFound)
		return
	}

	target, err := ids.ParsePluginID(string(targetBytes))
	if err != nil {
		setResult(stack, codeInvalidArgs)
		return
	}

	req := access.Request{
		Kind:       access.KindCallPlugin,
		Plugin:     id,
		Target:     target.String(),
		Parameters: map[string]string{"function": string(fnBytes)},
	}
	if !h.checker.Check(id, req).Allowed {
		setResult(stack, codeCapabilityDenied)
		return
	}

	out, err := h.caller.CallFunction(ctx, target, string(fnBytes), args)
	if err != nil {
		slog.WarnContext(ctx, "hostfuncs: lion_call_plugin failed", "target", target, "error", err)
		setResult(stack, codeIOFailure)
		return
	}

	if uint32(len(out)) > outCap {
		out = out[:outCap]
	}
	if !writeGuestBytes(mod, outPtr, out) {
		setResult(stack, codeIOFailure)
		return
	}
	setResult(stack, int32(len(out))) //nolint:gosec // G115: bounded by outCap, a guest-supplied u32
}
