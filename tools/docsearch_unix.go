//go:build unix

package tools

import "syscall"

// isProcessRunning reports whether a process with the given PID exists, by
// sending signal 0 (no-op probe).
func isProcessRunning(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	if err == nil {
		return true
	}

	if err == syscall.ESRCH {
		return false
	}

	// EPERM means the process exists but belongs to someone else; that
	// still counts as running.
	if err == syscall.EPERM {
		return true
	}

	return false
}
