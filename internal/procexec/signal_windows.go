//go:build windows

package procexec

import "os"

// processTerminateSignal: Windows has no POSIX-style graceful terminate
// signal for an arbitrary process, so the grace period simply delays the
// unconditional kill.
func processTerminateSignal() os.Signal {
	return os.Kill
}
