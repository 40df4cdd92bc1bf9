// Command lion is the reference CLI over the capability-based WASM plugin
// kernel: load a manifest or a bare module, invoke its exports, route
// messages between plugins, and tear them down again.
package main

import "os"

func main() {
	os.Exit(Execute())
}
