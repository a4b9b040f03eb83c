// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func runString(t *testing.T, r *Runner, src string) (int, string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	r.Stdout = &out
	r.Stderr = &errOut
	status, err := r.RunString(context.Background(), src)
	return status, out.String(), errOut.String(), err
}

func TestRunnerBootstrapEnv(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	r, err := New(WithDir(dir), WithEnv(NewEnvironment(nil)), WithHistoryFile("", 0))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, r.Env.Get("PWD").Str, qt.Equals, dir)
	qt.Assert(t, r.Env.Get("SHLVL").Str, qt.Equals, "1")
	qt.Assert(t, r.Env.Get("?").Str, qt.Equals, "0")
	qt.Assert(t, r.Env.Get("SHELL_NAME").Str, qt.Equals, "tidesh")
}

func TestRunnerRunStringSimpleCommand(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	status, out, _, err := runString(t, r, "echo hello world\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, status, qt.Equals, 0)
	qt.Assert(t, out, qt.Equals, "hello world\n")
}

func TestRunnerAndOrShortCircuits(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	status, out, _, err := runString(t, r, "false && echo no; true && echo yes\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, status, qt.Equals, 0)
	qt.Assert(t, out, qt.Equals, "yes\n")
}

func TestRunnerPipeline(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	_, out, _, err := runString(t, r, "echo one two three | echo piped\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, out, qt.Equals, "piped\n")
}

func TestRunnerVariableAssignmentPersists(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	_, _, _, err := runString(t, r, "X=hello\n")
	qt.Assert(t, err, qt.IsNil)
	_, out, _, err := runString(t, r, "echo $X\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, out, qt.Equals, "hello\n")
}

func TestRunnerSubshellDoesNotLeakAssignment(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	_, _, _, err := runString(t, r, "(X=inner)\n")
	qt.Assert(t, err, qt.IsNil)
	_, out, _, err := runString(t, r, "echo [$X]\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, out, qt.Equals, "[]\n")
}

func TestRunnerCdUpdatesDirAndPWD(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	sub := filepath.Join(r.Dir, "sub")
	qt.Assert(t, os.Mkdir(sub, 0o755), qt.IsNil)
	_, _, _, err := runString(t, r, "cd sub\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, r.Dir, qt.Equals, sub)
	qt.Assert(t, r.Env.Get("PWD").Str, qt.Equals, sub)
}

func TestRunnerExitSetsExitRequestedAndReturnsShellExitStatus(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	status, _, _, err := runString(t, r, "exit 7\n")
	qt.Assert(t, status, qt.Equals, 7)
	qt.Assert(t, err, qt.Equals, ShellExitStatus(7))
	qt.Assert(t, r.ExitRequested, qt.IsTrue)
}

func TestRunnerRunAfterExitRequestedIsNoOp(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	_, _, _, err := runString(t, r, "exit 3\n")
	qt.Assert(t, err, qt.Equals, ShellExitStatus(3))
	status, out, _, err := runString(t, r, "echo should-not-run\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, status, qt.Equals, 3)
	qt.Assert(t, out, qt.Equals, "")
}

func TestRunnerSubshellExitReturnsStatusWithoutError(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	status, _, _, err := runString(t, r, "(exit 7)\n")
	qt.Assert(t, status, qt.Equals, 7)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, r.ExitRequested, qt.IsFalse)
}

func TestRunnerSubshellExitDoesNotTerminateSession(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	status, out, _, err := runString(t, r, "(exit 7); echo after\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, status, qt.Equals, 0)
	qt.Assert(t, out, qt.Equals, "after\n")
	qt.Assert(t, r.ExitRequested, qt.IsFalse)
}

func TestRunnerRunScriptPathMissingFileWrapsCause(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	path := filepath.Join(r.Dir, "nope.tidesh")
	err := r.RunScriptPath(context.Background(), path)
	qt.Assert(t, err, qt.Not(qt.IsNil))
	qt.Assert(t, errors.Is(err, fs.ErrNotExist), qt.IsTrue)
}

func TestRunnerHistoryRecordsCommand(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	_, _, _, err := runString(t, r, "echo one\n")
	qt.Assert(t, err, qt.IsNil)
	entries := r.Hist.All()
	qt.Assert(t, len(entries), qt.Equals, 1)
	qt.Assert(t, entries[0].Command, qt.Equals, "echo one")
}

func TestRunnerHooksFireBeforeAndAfterCmd(t *testing.T) {
	t.Parallel()
	hooksDir := t.TempDir()
	beforeOut := filepath.Join(hooksDir, "before.txt")
	afterOut := filepath.Join(hooksDir, "after.txt")
	writeHookScript(t, hooksDir, "before_cmd", "echo before >"+beforeOut+"\n")
	writeHookScript(t, hooksDir, "after_cmd", "echo after >"+afterOut+"\n")

	r := newTestRunner(t)
	r.Hooks = NewHooks(hooksDir)
	_, _, _, err := runString(t, r, "true\n")
	qt.Assert(t, err, qt.IsNil)

	_, statErr := os.Stat(beforeOut)
	qt.Assert(t, statErr, qt.IsNil)
	_, statErr = os.Stat(afterOut)
	qt.Assert(t, statErr, qt.IsNil)
}
