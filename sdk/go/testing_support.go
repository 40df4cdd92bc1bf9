//go:build !wasip1

package lion

// Package-level test doubles for the "lion" host module, used by a plugin's
// own _test.go files (built without GOOS=wasip1) to simulate a host without
// a real kernel instance. A wasip1 build never sees this file; the real
// lion_* imports in imports.go are used instead.

// SetFileReadHook substitutes the lion_file_read implementation. fn
// receives the path and the buffer capacity offered and must return either
// a non-negative length (writing that many bytes into buf via the into
// callback) or a negative Code.
func SetFileReadHook(fn func(path string, bufCap uint32) (data []byte, code Code)) {
	hostFileRead = func(pathPtr, pathLen, bufPtr, bufCap uint32) int32 {
		path := string(readFromMemory(pathPtr, pathLen))
		data, code := fn(path, bufCap)
		if code != CodeSuccess {
			return int32(code)
		}
		n := uint32(len(data))
		if n > bufCap {
			n = bufCap
		}
		copyToMemory(bufPtr, data[:n])
		return int32(n)
	}
}

// SetFileWriteHook substitutes the lion_file_write implementation.
func SetFileWriteHook(fn func(path string, data []byte) Code) {
	hostFileWrite = func(pathPtr, pathLen, bufPtr, bufLen uint32) int32 {
		path := string(readFromMemory(pathPtr, pathLen))
		data := readFromMemory(bufPtr, bufLen)
		code := fn(path, data)
		if code != CodeSuccess {
			return int32(code)
		}
		return int32(len(data))
	}
}

// SetNetConnectHook substitutes the lion_net_connect implementation.
func SetNetConnectHook(fn func(host string, port uint32) (handle int32, code Code)) {
	hostNetConnect = func(hostPtr, hostLen, port uint32) int32 {
		host := string(readFromMemory(hostPtr, hostLen))
		handle, code := fn(host, port)
		if code != CodeSuccess {
			return int32(code)
		}
		return handle
	}
}

// ResetHooks restores every lion_* stub to its default codeNotFound
// behavior, for use in a test's cleanup.
func ResetHooks() {
	hostLog = func(_, _, _ uint32) {}
	hostFileRead = func(_, _, _, _ uint32) int32 { return int32(CodeNotFound) }
	hostFileWrite = func(_, _, _, _ uint32) int32 { return int32(CodeNotFound) }
	hostNetConnect = func(_, _, _ uint32) int32 { return int32(CodeNotFound) }
	hostSendMessage = func(_, _, _, _ uint32) int32 { return int32(CodeNotFound) }
	hostCallPlugin = func(_, _, _, _, _, _, _, _ uint32) int32 { return int32(CodeNotFound) }
}
