//go:build unix

// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// waitStatus is an alias for syscall.WaitStatus, following the teacher's
// handler_unix.go/handler_other.go split so exitCodeOf's type switch on
// ProcessState.Sys() compiles on every target the module cares about.
type waitStatus = syscall.WaitStatus

// prepareCommand puts cmd in its own process group, so job control (SIGTSTP,
// SIGCONT, terminal handoff via tcsetpgrp) can target the whole pipeline
// rather than a single pid (spec §4.5).
func prepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func interruptCommand(cmd *exec.Cmd) error {
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGINT)
}

func killCommand(cmd *exec.Cmd) error {
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

// tcsetpgrp hands the controlling terminal to pgid, used by the `fg` builtin
// before waiting on a foreground job and to reclaim the terminal for the
// shell's own process group afterwards (spec §4.5).
func tcsetpgrp(f *os.File, pgid int) error {
	return unix.IoctlSetPointerInt(int(f.Fd()), unix.TIOCSPGRP, pgid)
}

func tcgetpgrp(f *os.File) (int, error) {
	return unix.IoctlGetInt(int(f.Fd()), unix.TIOCGPGRP)
}

func sendSignal(pid int, sig syscall.Signal) error {
	return syscall.Kill(pid, sig)
}

func getpgid(pid int) (int, error) {
	return unix.Getpgid(pid)
}

// waitForeground waits on j's process (j.PID), applying the job-control state
// machine transitions of spec §4.4/§4.5: a WIFSTOPPED child moves the job to
// Stopped and returns 128+SIGTSTP without consuming the job; otherwise the
// job is marked Done/Killed and its terminal exit status is returned.
func waitForeground(r *Runner, j *Job) int {
	var ws syscall.WaitStatus
	for {
		_, err := syscall.Wait4(j.PID, &ws, syscall.WUNTRACED, nil)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			return 1
		}
		switch {
		case ws.Stopped():
			r.Jobs.SetState(j, Stopped, 128+int(syscall.SIGTSTP))
			return 128 + int(syscall.SIGTSTP)
		case ws.Signaled():
			status := 128 + int(ws.Signal())
			r.Jobs.SetState(j, Killed, status)
			return status
		case ws.Exited():
			status := ws.ExitStatus()
			r.Jobs.SetState(j, Done, status)
			return status
		}
	}
}
