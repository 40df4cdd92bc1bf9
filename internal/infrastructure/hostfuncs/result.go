package hostfuncs

// setResult overwrites stack[0] with code, sign-extended the way wazero
// expects an i32 result to be packed into its uint64 stack slot.
func setResult(stack []uint64, code int32) {
	stack[0] = uint64(uint32(code)) //nolint:gosec // G115: intentional two's-complement reinterpretation
}
