//go:build unix

package gateways

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// killProcessGroup starts the shell in its own process group and makes
// cancellation kill the whole group, so commands forked by the shell do
// not outlive it.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
