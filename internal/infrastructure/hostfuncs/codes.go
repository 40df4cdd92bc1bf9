// Package hostfuncs implements the stable guest ABI: the lion_* host
// functions every guest module may import, each gated by the capability
// Checker before it touches the host. Expected failures (a denied
// capability, a bad path, a resource breach) return a negative error code
// to the guest rather than trapping — only an unexpected host-side bug
// traps.
package hostfuncs

// Error codes returned to the guest in the low 32 bits of a host function's
// i32 result.
const (
	codeSuccess          int32 = 0
	codeCapabilityDenied int32 = -1
	codeInvalidArgs      int32 = -2
	codeResourceExceeded int32 = -3
	codeNotFound         int32 = -4
	codeIOFailure        int32 = -5
)
