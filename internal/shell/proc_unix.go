//go:build !windows

package shell

import (
	"os/exec"
	"syscall"
)

// setProcessGroup запускает команду в своей группе, чтобы отмена
// убивала и порождённые оболочкой процессы.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
