// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import "golang.org/x/xerrors"

// ShellExitStatus is returned when the `exit` builtin terminates the whole
// interactive/script session, as opposed to a single foreground command;
// cmd/tidesh's main distinguishes this from an ordinary nonzero status via
// errors.As, the same pattern the teacher's cmd/gosh/main.go uses.
type ShellExitStatus int

func (e ShellExitStatus) Error() string { return "shell exit " + itoa(int(e)) }

// ShellError wraps a diagnostic raised by the parser, expander or a builtin
// (spec §7). cause may be nil for a leaf condition with nothing underneath
// it to wrap; when non-nil it is folded in with golang.org/x/xerrors the way
// the teacher's interp.go wraps internal errors, so the original cause
// survives an errors.Unwrap even though Error() reports the friendlier msg.
type ShellError struct {
	Msg string
	err error
}

func (e *ShellError) Error() string { return e.Msg }
func (e *ShellError) Unwrap() error { return e.err }

// NewShellError wraps cause (which may be nil) with msg. All ShellErrors in
// this package are built through this constructor rather than as struct
// literals, so the wrapping behavior above is uniform.
func NewShellError(msg string, cause error) *ShellError {
	if cause != nil {
		return &ShellError{Msg: msg, err: xerrors.Errorf("%s: %w", msg, cause)}
	}
	return &ShellError{Msg: msg}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
