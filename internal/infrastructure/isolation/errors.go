package isolation

import "fmt"

// SourceError wraps a failure resolving a plugin.Source to WASM bytes,
// whether the file is missing, the embedded bytes are malformed base64, or
// the URL fetch fails.
type SourceError struct {
	Source string
	Cause  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("isolation: resolving source %s: %v", e.Source, e.Cause)
}

func (e *SourceError) Unwrap() error { return e.Cause }

// CompileError wraps a wazero compilation failure for a resolved module.
type CompileError struct {
	Cause error
}

func (e *CompileError) Error() string { return fmt.Sprintf("isolation: compile: %v", e.Cause) }
func (e *CompileError) Unwrap() error { return e.Cause }

// TrapError wraps a guest-side trap or non-zero exit surfaced by wazero
// during Call; the Manager interprets this as a crash per the manifest's
// CrashIsFatal flag.
type TrapError struct {
	Function string
	Cause    error
}

func (e *TrapError) Error() string {
	return fmt.Sprintf("isolation: %s trapped: %v", e.Function, e.Cause)
}

func (e *TrapError) Unwrap() error { return e.Cause }

// WallTimeExceededError is returned when a call does not return before its
// manifest's ResourceLimits.MaxWallTime elapses.
type WallTimeExceededError struct {
	Function string
}

func (e *WallTimeExceededError) Error() string {
	return fmt.Sprintf("isolation: %s exceeded its wall-time budget", e.Function)
}

// MissingExportError is returned when a plugin does not export the function
// a caller asked to invoke.
type MissingExportError struct {
	Function string
}

func (e *MissingExportError) Error() string {
	return fmt.Sprintf("isolation: function %q is not exported", e.Function)
}
