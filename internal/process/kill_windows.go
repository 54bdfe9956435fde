//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup terminates pid and its children via taskkill
// (/F force, /T tree).
func KillProcessGroup(pid int) {
	// Best effort; the launcher's own Kill is the fallback.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
