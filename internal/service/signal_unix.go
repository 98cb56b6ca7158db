//go:build unix

package service

import (
	"os/exec"
	"syscall"
)

// The worker leads its own process group so helpers it forks die with it.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func (p *process) signal(force bool) error {
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	return syscall.Kill(-p.pid(), sig)
}
