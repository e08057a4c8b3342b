//go:build !unix

package launcher

import (
	"io"
	"os"
)

// relayedSignals are caught while the child runs and forwarded to it.
var relayedSignals = []os.Signal{os.Interrupt}

// terminalSignals is empty: there are no process groups to share.
var terminalSignals []os.Signal

// childSharesTerminal always reports false outside unix.
func childSharesTerminal(_ io.Reader) bool {
	return false
}

// terminatingSignal is not available outside unix; a missing status is
// reported without a signal.
func terminatingSignal(_ *os.ProcessState) (int, string) {
	return 0, ""
}
