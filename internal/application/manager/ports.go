// Package manager implements the Plugin Manager: the orchestrator that
// threads a plugin's manifest through capability grant, isolated
// instantiation, invocation, message delivery, and unload, following the
// lifecycle state machine of internal/domain/plugin.
package manager

import (
	"context"

	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// InstanceHandle is an opaque reference to a live isolated instance, minted
// and interpreted only by the Isolation implementation. The manager never
// inspects it.
type InstanceHandle interface{}

// Isolation abstracts the sandboxing backend (internal/infrastructure/isolation,
// backed by wazero) so the manager can be tested without a real WASM runtime:
// the application layer depends on this interface, not on a concrete
// runtime type.
type Isolation interface {
	// Instantiate compiles (or reuses a cached compilation of) the module
	// described by source and returns a fresh instance bounded by limits.
	// id is threaded through so every subsequent Call can attribute its
	// host-function access requests to the correct plugin.
	Instantiate(ctx context.Context, id ids.PluginID, source plugin.Source, limits plugin.ResourceLimits) (InstanceHandle, error)

	// Call invokes an exported guest function on handle and returns its
	// result. A resource-limit breach or trap returns a non-nil error; the
	// manager decides from CrashIsFatal whether that error is terminal.
	Call(ctx context.Context, handle InstanceHandle, function string, args []byte) ([]byte, error)

	// Usage reports the instance's live resource accounting.
	Usage(handle InstanceHandle) plugin.ResourceUsage

	// Release discards the instance. Idempotent.
	Release(ctx context.Context, handle InstanceHandle) error
}

// Bus abstracts the message bus (internal/infrastructure/bus) for
// capability-gated inter-plugin delivery.
type Bus interface {
	Send(ctx context.Context, msg plugin.Message) error
}
