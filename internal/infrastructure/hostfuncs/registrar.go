package hostfuncs

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/lion-wasm/lion/internal/application/checker"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
	"github.com/lion-wasm/lion/internal/infrastructure/redaction"
)

// MessageSender is the narrow slice of the Plugin Manager lion_send_message
// needs. manager.Manager.Send satisfies this exactly.
type MessageSender interface {
	Send(ctx context.Context, src ids.PluginID, dest plugin.Destination, payload []byte) error
}

// PluginCaller is the narrow slice of the Plugin Manager lion_call_plugin
// needs. manager.Manager.CallFunction satisfies this exactly. Unlike a
// host-issued CallFunction (the Manager's own public entry point),
// lion_call_plugin is guest-issued and so is gated by the Checker's
// KindCallPlugin check before Caller is ever invoked.
type PluginCaller interface {
	CallFunction(ctx context.Context, id ids.PluginID, function string, args []byte) ([]byte, error)
}

// Register builds the "lion" host module and instantiates it against
// runtime, wiring every lion_* function through chk for authorization.
// sender and caller may be nil if the embedding process only ever loads
// plugins that don't use messaging (e.g. a bare invoke-plugin CLI run);
// lion_send_message/lion_call_plugin then always return codeNotFound.
// redactor may be nil to disable log scrubbing (tests only in this
// repo — a production process should always wire one in).
func Register(ctx context.Context, runtime wazero.Runtime, chk *checker.Checker, sender MessageSender, caller PluginCaller, redactor *redaction.Redactor) error {
	h := &host{checker: chk, sender: sender, caller: caller, sockets: newSocketTable(), redactor: redactor}

	builder := runtime.NewHostModuleBuilder("lion")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.log),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{}).
		Export("lion_log")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.fileRead),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32}).
		Export("lion_file_read")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.fileWrite),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32}).
		Export("lion_file_write")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.netConnect),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32}).
		Export("lion_net_connect")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.sendMessage),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32}).
		Export("lion_send_message")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.callPlugin),
			[]api.ValueType{
				api.ValueTypeI32, api.ValueTypeI32, // target_ptr, target_len
				api.ValueTypeI32, api.ValueTypeI32, // fn_ptr, fn_len
				api.ValueTypeI32, api.ValueTypeI32, // args_ptr, args_len
				api.ValueTypeI32, api.ValueTypeI32, // out_ptr, out_cap
			},
			[]api.ValueType{api.ValueTypeI32}).
		Export("lion_call_plugin")

	_, err := builder.Instantiate(ctx)
	return err
}

// host closes over the Checker and Manager-narrow interfaces every lion_*
// function needs; its methods are the api.GoModuleFunc bodies registered
// above.
type host struct {
	checker  *checker.Checker
	sender   MessageSender
	caller   PluginCaller
	sockets  *socketTable
	redactor *redaction.Redactor
}

// callerPlugin returns the calling plugin's identity, attached to ctx by
// the isolation backend before it invoked the guest function that is now
// calling back into the host.
func callerPlugin(ctx context.Context) (ids.PluginID, bool) {
	return ids.PluginIDFromContext(ctx)
}

func readGuestBytes(mod api.Module, ptr, length uint32) ([]byte, bool) {
	return mod.Memory().Read(ptr, length)
}

func writeGuestBytes(mod api.Module, ptr uint32, data []byte) bool {
	return mod.Memory().Write(ptr, data)
}
