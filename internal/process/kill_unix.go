//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group of pid (negative PID
// targets the whole group), taking any child renderers down with it.
func KillProcessGroup(pid int) {
	// Best effort; the launcher's own Kill is the fallback.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
