package main

import (
	"errors"

	"github.com/lion-wasm/lion/internal/application/manager"
	"github.com/lion-wasm/lion/internal/infrastructure/bus"
	"github.com/lion-wasm/lion/internal/infrastructure/isolation"
)

// Exit codes for the CLI's error-to-exit-status mapping.
const (
	exitSuccess      = 0
	exitUserError    = 1
	exitUnauthorized = 2
	exitRuntime      = 3
)

// exitCodeFor classifies an error returned by a run*Action function into
// one of three failure exit codes: authorization failures get their own
// code so a calling script can tell "denied" apart from "broken".
// Errors no command ever returns (a nil check elsewhere, a cobra usage
// error) fall through to exitRuntime, never exitSuccess.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}

	var notGranted *manager.NotGrantedError
	var unknownPlugin *manager.UnknownPluginError
	var duplicatePlugin *manager.DuplicatePluginError
	if errors.As(err, &notGranted) || errors.As(err, &unknownPlugin) || errors.As(err, &duplicatePlugin) {
		return exitUnauthorized
	}

	var crash *manager.CrashError
	var invalidTransition *manager.InvalidTransitionError
	var busFull *bus.BusFullError
	var tooLarge *bus.MessageTooLargeError
	var rateLimited *bus.RateLimitedError
	var compile *isolation.CompileError
	var trap *isolation.TrapError
	var wallTime *isolation.WallTimeExceededError
	var missingExport *isolation.MissingExportError
	var sourceErr *isolation.SourceError
	switch {
	case errors.As(err, &crash),
		errors.As(err, &invalidTransition),
		errors.As(err, &busFull),
		errors.As(err, &tooLarge),
		errors.As(err, &rateLimited),
		errors.As(err, &compile),
		errors.As(err, &trap),
		errors.As(err, &wallTime),
		errors.As(err, &missingExport),
		errors.As(err, &sourceErr):
		return exitRuntime
	}

	// A plain flag/argument problem (bad UUID, bad JSON, missing file) is a
	// user error; everything else defaults to a runtime failure rather than
	// the misleadingly generic "success".
	var userErr *userError
	if errors.As(err, &userErr) {
		return exitUserError
	}
	return exitRuntime
}

// userError marks an error as exit-code-1 class: a malformed flag,
// argument, or input the user supplied, as opposed to a failure inside the
// kernel itself.
type userError struct {
	cause error
}

func (e *userError) Error() string { return e.cause.Error() }
func (e *userError) Unwrap() error { return e.cause }

func userErrorf(cause error) error {
	if cause == nil {
		return nil
	}
	return &userError{cause: cause}
}
