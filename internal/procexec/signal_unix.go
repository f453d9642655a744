//go:build !windows

package procexec

import (
	"os"
	"syscall"
)

// processTerminateSignal is the signal sent to ask a timed-out process to
// exit gracefully before the kill-grace period elapses.
func processTerminateSignal() os.Signal {
	return syscall.SIGTERM
}
