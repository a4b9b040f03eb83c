// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestHandlerRedirectOutTruncates(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	path := filepath.Join(r.Dir, "out.txt")
	qt.Assert(t, os.WriteFile(path, []byte("stale\n"), 0o644), qt.IsNil)

	_, _, _, err := runString(t, r, "echo fresh >out.txt\n")
	qt.Assert(t, err, qt.IsNil)

	data, readErr := os.ReadFile(path)
	qt.Assert(t, readErr, qt.IsNil)
	qt.Assert(t, string(data), qt.Equals, "fresh\n")
}

func TestHandlerRedirectAppend(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	path := filepath.Join(r.Dir, "log.txt")

	_, _, _, err := runString(t, r, "echo one >>log.txt\n")
	qt.Assert(t, err, qt.IsNil)
	_, _, _, err = runString(t, r, "echo two >>log.txt\n")
	qt.Assert(t, err, qt.IsNil)

	data, readErr := os.ReadFile(path)
	qt.Assert(t, readErr, qt.IsNil)
	qt.Assert(t, string(data), qt.Equals, "one\ntwo\n")
}

func TestHandlerBuiltinStdoutRedirectToFile(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	path := filepath.Join(r.Dir, "out.txt")

	_, _, _, err := runString(t, r, "type ghostcmd >out.txt\n")
	qt.Assert(t, err, qt.IsNil)

	data, readErr := os.ReadFile(path)
	qt.Assert(t, readErr, qt.IsNil)
	qt.Assert(t, contains(string(data), "not found"), qt.IsTrue)
}

func TestHandlerCommandNotFoundExitsWith127(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	status, _, errOut, err := runString(t, r, "definitely-not-a-real-command-xyz\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, status, qt.Equals, 127)
	qt.Assert(t, contains(errOut, "command not found"), qt.IsTrue)
}

func TestHandlerAssignmentOnlyCommandSetsEnvAndExitsZero(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	status, _, _, err := runString(t, r, "FOO=bar\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, status, qt.Equals, 0)
	qt.Assert(t, r.Env.Get("FOO").Str, qt.Equals, "bar")
}

func TestHandlerPrefixAssignmentDoesNotLeakToParentEnv(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	_, out, _, err := runString(t, r, "FOO=bar echo inner\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, out, qt.Equals, "inner\n")
	qt.Assert(t, r.Env.Get("FOO").IsSet(), qt.IsFalse)
}

func TestHandlerLookPathCachesHit(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	dir := t.TempDir()
	binPath := filepath.Join(dir, "mytool")
	qt.Assert(t, os.WriteFile(binPath, []byte("#!/bin/sh\necho hi\n"), 0o755), qt.IsNil)
	r.Env.SetStr("PATH", dir)

	got, err := r.lookPath("mytool")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, binPath)

	cached, ok := r.PathIndex.Get("mytool")
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, cached, qt.Equals, binPath)
}

func TestHandlerPrefixAssignmentVisibleToBuiltin(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	_, out, _, err := runString(t, r, "FOO=bar printenv FOO\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, out, qt.Equals, "bar\n")
	qt.Assert(t, r.Env.Get("FOO").IsSet(), qt.IsFalse)
}

func TestHandlerLookPathMissingReturnsError(t *testing.T) {
	t.Parallel()
	r := newTestRunner(t)
	r.Env.SetStr("PATH", t.TempDir())
	_, err := r.lookPath("no-such-tool")
	qt.Assert(t, err, qt.Not(qt.IsNil))
}
