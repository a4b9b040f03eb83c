// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"os"
	"sort"

	"tidesh.dev/tidesh/expand"
)

// ChangeHook is invoked after every Set/Unset on an Environment, with the
// old and new values of the variable (an unset Variable has IsSet() ==
// false). It is installed with OnChange; nothing in this package installs
// one, so no `.tidesh-hooks` script fires on a variable change. Tests can
// install a capturing observer instead of relying on a process-wide global
// (spec §9 design note).
type ChangeHook func(name string, old, new expand.Variable)

// Environment is the ordered name→value mapping described in spec §3. Each
// iterates in insertion order; Exported returns its entries sorted by name.
// It holds the shell-managed slots (`?`, `!`, `$`, SHLVL, PWD, OLDPWD, HOME,
// SHELL) as ordinary variables; the Runner is what sets them.
type Environment struct {
	order  []string
	values map[string]expand.Variable
	hook   ChangeHook
}

// NewEnvironment builds an Environment seeded from pairs (as returned by
// os.Environ), all marked exported.
func NewEnvironment(pairs []string) *Environment {
	e := &Environment{values: make(map[string]expand.Variable, len(pairs))}
	for _, p := range pairs {
		name, val, ok := cutOnce(p, '=')
		if !ok || name == "" {
			continue
		}
		e.setNoHook(name, expand.Variable{Set: true, Exported: true, Str: val})
	}
	return e
}

// NewEnvironmentFromOS is a convenience wrapper around os.Environ.
func NewEnvironmentFromOS() *Environment { return NewEnvironment(os.Environ()) }

func cutOnce(s string, sep byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// OnChange installs the change-hook observer, replacing any previous one.
func (e *Environment) OnChange(h ChangeHook) { e.hook = h }

func (e *Environment) setNoHook(name string, v expand.Variable) {
	if _, exists := e.values[name]; !exists {
		e.order = append(e.order, name)
	}
	e.values[name] = v
}

// Get implements expand.Environ.
func (e *Environment) Get(name string) expand.Variable {
	return e.values[name]
}

// Each implements expand.Environ, iterating in insertion order.
func (e *Environment) Each(fn func(name string, v expand.Variable) bool) {
	for _, name := range e.order {
		if !fn(name, e.values[name]) {
			return
		}
	}
}

// Set implements expand.WriteEnviron. Setting a variable with !v.IsSet()
// unsets it; the old value is always passed to the change hook.
func (e *Environment) Set(name string, v expand.Variable) error {
	old := e.values[name]
	if old.ReadOnly {
		return NewShellError(name+": readonly variable", nil)
	}
	if !v.IsSet() {
		delete(e.values, name)
		for i, n := range e.order {
			if n == name {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	} else {
		e.setNoHook(name, v)
	}
	if e.hook != nil {
		e.hook(name, old, v)
	}
	return nil
}

// SetStr is a convenience for Set(name, Variable{Set:true, Str:val}),
// preserving the Exported bit the variable already had.
func (e *Environment) SetStr(name, val string) {
	old := e.values[name]
	_ = e.Set(name, expand.Variable{Set: true, Exported: old.Exported, ReadOnly: old.ReadOnly, Str: val})
}

// Export marks an already-set variable (or an empty one) as exported,
// without altering its value — the `export NAME` builtin contract.
func (e *Environment) Export(name string) {
	old := e.values[name]
	old.Exported = true
	old.Set = true
	e.setNoHook(name, old)
}

// Unset removes name entirely.
func (e *Environment) Unset(name string) { _ = e.Set(name, expand.Variable{}) }

// Exported returns "NAME=VALUE" for every exported variable, sorted by
// name, ready to pass to a forked child's environment block.
func (e *Environment) Exported() []string {
	var out []string
	for name, v := range e.values {
		if v.Exported && v.Set {
			out = append(out, name+"="+v.Str)
		}
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a deep copy, used to build the temporary environment a
// forked child sees when a command carries prefix assignments
// (`FOO=bar cmd`) — the copy must never write back to the parent (spec §3
// Lifecycles).
func (e *Environment) Snapshot() *Environment {
	cp := &Environment{
		order:  append([]string(nil), e.order...),
		values: make(map[string]expand.Variable, len(e.values)),
	}
	for k, v := range e.values {
		cp.values[k] = v
	}
	return cp
}
