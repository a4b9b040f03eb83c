// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bytes"
	"context"
	"strings"
)

// cmdSubstituter implements syntax.CmdSubstituter by re-entering the
// interpreter, exactly the capability-value wiring described in spec §9
// ("model this as a capability value passed to the lexer ... not a mutable
// global"). It carries the *outer* shell's Runner, not a fresh one, so
// `$(cd /tmp && pwd)` sees the same cwd/env the caller is running with.
type cmdSubstituter struct {
	ctx context.Context
	r   *Runner
}

// RunCapture executes src as a shell program and returns its stdout with
// trailing newlines stripped. History is suppressed for this nested call
// (spec §5 Re-entrancy).
func (c cmdSubstituter) RunCapture(src string) (string, error) {
	var buf bytes.Buffer
	sub := c.r.forSubstitution(&buf)
	_, err := sub.RunString(c.ctx, src)
	return strings.TrimRight(buf.String(), "\n"), err
}
