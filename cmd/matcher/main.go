//go:build wasip1

// Command matcher is the Wasm entry point: a single synchronous pass
// wiring a real hostabi.Host into matcher.Run. There is no server loop
// here, no signal handling, because there is no process to signal; the
// Wasm instance is invoked once and exits.
package main

import (
	"github.com/dc4eu/credmatcher/internal/hostabi"
	"github.com/dc4eu/credmatcher/internal/matcher"
)

func main() {
	host := hostabi.NewWasmHost()
	if err := matcher.Run(host); err != nil {
		host.LogMessage(hostabi.LogError, err.Error())
	}
}
