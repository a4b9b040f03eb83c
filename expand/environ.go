// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package expand implements tidesh's expansion pipeline: variable, tilde,
// brace, and filename expansion, applied in that order to each argument of
// a parsed command (spec §4.3).
package expand

import "strings"

// Variable describes a single shell variable: its value and whether it is
// exported to child processes.
type Variable struct {
	Set      bool
	Exported bool
	ReadOnly bool
	Str      string
}

// IsSet reports whether the variable has been assigned a value (possibly
// empty). The zero Variable is unset.
func (v Variable) IsSet() bool { return v.Set }

// Environ is the read side of a shell's environment: fetch a variable by
// name, or iterate over all currently set variables.
type Environ interface {
	Get(name string) Variable
	Each(func(name string, v Variable) bool)
}

// WriteEnviron extends Environ with mutation. Set with !v.IsSet() unsets
// the variable.
type WriteEnviron interface {
	Environ
	Set(name string, v Variable) error
}

// ListEnviron returns a read-only Environ built from "NAME=VALUE" pairs,
// such as those returned by os.Environ. All variables are marked exported,
// matching how a forked child actually receives them.
func ListEnviron(pairs ...string) Environ {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, val, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			continue
		}
		m[name] = val
	}
	return mapEnviron(m)
}

// FuncEnviron returns an Environ that resolves variables by calling fn.
// Each is a no-op, since a plain lookup function can't be enumerated; this
// is only suitable for one-shot expansion (shell.Expand/shell.Fields),
// never for a Runner's live environment.
func FuncEnviron(fn func(name string) string) Environ {
	return funcEnviron(fn)
}

type funcEnviron func(name string) string

func (f funcEnviron) Get(name string) Variable {
	v := f(name)
	if v == "" {
		return Variable{}
	}
	return Variable{Set: true, Exported: true, Str: v}
}

func (f funcEnviron) Each(func(name string, v Variable) bool) {}

type mapEnviron map[string]string

func (m mapEnviron) Get(name string) Variable {
	v, ok := m[name]
	if !ok {
		return Variable{}
	}
	return Variable{Set: true, Exported: true, Str: v}
}

func (m mapEnviron) Each(fn func(name string, v Variable) bool) {
	for k, v := range m {
		if !fn(k, Variable{Set: true, Exported: true, Str: v}) {
			return
		}
	}
}
