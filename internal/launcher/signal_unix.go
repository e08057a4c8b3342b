//go:build unix

package launcher

import (
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// relayedSignals are caught while the child runs and forwarded to it.
var relayedSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// terminalSignals are sent by the terminal driver to every process in
// the foreground process group (Ctrl-C, hangup).
var terminalSignals = []os.Signal{os.Interrupt, syscall.SIGHUP}

// childSharesTerminal reports whether in is a terminal whose foreground
// process group is the launcher's own. The child is started without a
// new process group, so it then receives terminalSignals directly.
func childSharesTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	fg, err := unix.IoctlGetInt(int(f.Fd()), unix.TIOCGPGRP)
	if err != nil {
		// Not a terminal, or no controlling terminal.
		return false
	}
	return fg == unix.Getpgrp()
}

// terminatingSignal returns the number and name of the signal that
// ended the process, or 0 and "" when it exited normally.
func terminatingSignal(state *os.ProcessState) (int, string) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, ""
	}
	return int(ws.Signal()), ws.Signal().String()
}
