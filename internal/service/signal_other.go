//go:build !unix

package service

import (
	"os"
	"os/exec"
)

func configureSysProcAttr(*exec.Cmd) {}

// Only the direct child is signalled here; grandchildren are not tracked.
func (p *process) signal(force bool) error {
	if !force {
		return p.cmd.Process.Signal(os.Interrupt)
	}
	return p.cmd.Process.Kill()
}
