//go:build !unix

package interp

import (
	"os"
	"os/exec"
	"syscall"
)

// waitStatus has no process-group or stop/continue concept outside unix;
// ee.Sys() never actually produces this type on non-unix targets, so
// Signaled always reports false.
type waitStatus struct{}

func (waitStatus) Signaled() bool { return false }

func prepareCommand(cmd *exec.Cmd) {}

func interruptCommand(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func killCommand(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func tcsetpgrp(f *os.File, pgid int) error { return nil }

func tcgetpgrp(f *os.File) (int, error) { return 0, nil }

func sendSignal(pid int, sig syscall.Signal) error {
	return nil
}

func getpgid(pid int) (int, error) { return 0, nil }

// waitForeground has no stop/continue semantics without process groups; it
// degrades to a plain Wait and reports the exit status.
func waitForeground(r *Runner, j *Job) int {
	proc, err := os.FindProcess(j.PID)
	if err != nil {
		return 1
	}
	ps, err := proc.Wait()
	if err != nil {
		return 1
	}
	r.Jobs.SetState(j, Done, ps.ExitCode())
	return ps.ExitCode()
}
