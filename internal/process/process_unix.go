//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own group so Terminate also reaches
// helpers it spawned (yt-dlp runs ffmpeg for post-processing).
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}
