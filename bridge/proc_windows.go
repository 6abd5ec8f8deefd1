//go:build windows

package bridge

import "os/exec"

func prepareProcess(c *exec.Cmd) {
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return c.Process.Kill()
	}
}
