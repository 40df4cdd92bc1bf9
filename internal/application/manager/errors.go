package manager

import (
	"fmt"

	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// UnknownPluginError is returned by any operation referencing a plugin id
// the manager has never loaded, or has already unloaded.
type UnknownPluginError struct {
	Plugin ids.PluginID
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("manager: unknown plugin %s", e.Plugin)
}

// InvalidTransitionError is returned when an operation would move a plugin
// through an illegal lifecycle edge (internal/domain/plugin.State.CanTransition).
type InvalidTransitionError struct {
	Plugin ids.PluginID
	From   plugin.Phase
	To     plugin.Phase
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("manager: plugin %s cannot transition %s -> %s", e.Plugin, e.From, e.To)
}

// CrashError wraps an isolation-layer failure (trap or resource breach).
// Fatal mirrors the manifest's CrashIsFatal: when true the plugin moves to
// Failed permanently; when false it falls back to Loaded so a fresh instance
// can be obtained on the next call.
type CrashError struct {
	Plugin ids.PluginID
	Cause  error
	Fatal  bool
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("manager: plugin %s crashed: %v", e.Plugin, e.Cause)
}

func (e *CrashError) Unwrap() error { return e.Cause }

// DuplicatePluginError is returned by LoadWithID when the supplied id is
// already registered with this manager.
type DuplicatePluginError struct {
	Plugin ids.PluginID
}

func (e *DuplicatePluginError) Error() string {
	return fmt.Sprintf("manager: plugin %s already loaded", e.Plugin)
}

// NotGrantedError wraps a denial returned by the capability checker for an
// operation the manager itself gates (currently: Send).
type NotGrantedError struct {
	Plugin ids.PluginID
	Reason string
}

func (e *NotGrantedError) Error() string {
	return fmt.Sprintf("manager: plugin %s not granted: %s", e.Plugin, e.Reason)
}
