//go:build !wasip1

package lion

// Non-wasip1 builds (plain `go test` on a developer machine) never have the
// "lion" host module available, so the low-level imports are stubbed to
// codeNotFound instead of failing to link. Guest logic that only exercises
// the Plugin harness (Describe/Schema/Check, validation, evidence shaping)
// builds and tests fine on this path; anything that actually calls through
// to ReadFile/WriteFile/Connect/Send/Call needs a wasip1 build or a real
// kernel instance to run against.

// These are package-level vars, not plain funcs, so a non-wasip1 test
// (plugin_test.go in a plugin package, or this package's own tests) can
// substitute a fake host implementation rather than always seeing
// codeNotFound.

var hostLog = func(_, _, _ uint32) {}

var hostFileRead = func(_, _, _, _ uint32) int32 { return int32(CodeNotFound) }

var hostFileWrite = func(_, _, _, _ uint32) int32 { return int32(CodeNotFound) }

var hostNetConnect = func(_, _, _ uint32) int32 { return int32(CodeNotFound) }

var hostSendMessage = func(_, _, _, _ uint32) int32 { return int32(CodeNotFound) }

var hostCallPlugin = func(_, _, _, _, _, _, _, _ uint32) int32 { return int32(CodeNotFound) }
