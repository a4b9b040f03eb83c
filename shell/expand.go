// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package shell exposes convenience entry points into the interpreter for
// callers that only need one-shot expansion or sourcing, without building
// a full interp.Runner (spec §6 External interfaces).
package shell

import (
	"os"

	"tidesh.dev/tidesh/expand"
)

// Expand performs variable, tilde, brace, and filename expansion on s, then
// concatenates the resulting fields into one string with no separator
// between them. If env is nil, the current process environment is used.
//
// Command substitution ($(...)) is not available through this entry point,
// since it would require a full interpreter to run arbitrary commands; use
// interp.Runner.RunString for that.
func Expand(s string, env func(string) string) (string, error) {
	fields, err := Fields(s, env)
	if err != nil {
		return "", err
	}
	joined := ""
	for _, f := range fields {
		joined += f
	}
	return joined, nil
}

// Fields performs the same expansion as Expand, but returns the individual
// fields produced by word splitting and filename expansion instead of
// joining them.
func Fields(s string, env func(string) string) ([]string, error) {
	if env == nil {
		env = os.Getenv
	}
	cwd, _ := os.Getwd()
	home := env("HOME")
	cfg := expand.Config{
		Env:    expand.FuncEnviron(env),
		Cwd:    cwd,
		Home:   home,
		OldPwd: env("OLDPWD"),
		Flags:  expand.Flags{},
	}
	fields, ok := expand.Fields(s, cfg)
	if !ok {
		return nil, nil
	}
	return fields, nil
}
