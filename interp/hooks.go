// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"os"
	"path/filepath"
)

// HookName identifies a `.tidesh-hooks` lifecycle point (spec §6, and the
// full set supplemented from original_source/include/hooks.h per
// SPEC_FULL.md §9.1).
type HookName string

const (
	HookBeforeCmd HookName = "before_cmd"
	HookAfterCmd  HookName = "after_cmd"
	HookCd        HookName = "cd"
	HookStart     HookName = "start"
	HookEnd       HookName = "end"
	HookVarChange HookName = "var_change"
	HookAliasChange HookName = "alias_change"
	HookJobChange HookName = "job_change"
)

// Hooks runs `.tidesh-hooks/<name>` scripts found in hooksDir, guarding
// against re-entrant invocation with a single process-wide-equivalent flag
// kept as a field rather than a package global (spec §5 Re-entrancy, §9
// design note).
type Hooks struct {
	Dir      string
	disabled bool
}

// NewHooks creates a Hooks rooted at dir (typically ".tidesh-hooks" under
// the shell's working directory or home).
func NewHooks(dir string) *Hooks { return &Hooks{Dir: dir} }

// Run executes hooks/<name> if it exists and is executable, overlaying env
// on top of the current process environment for the duration of the call,
// then restoring it. Recursion (a hook that itself triggers the same or
// another hook) is prevented by the disabled guard.
func (h *Hooks) Run(ctx context.Context, r *Runner, name HookName, env map[string]string) error {
	if h == nil || h.Dir == "" || h.disabled {
		return nil
	}
	path := filepath.Join(h.Dir, string(name))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
		return nil
	}

	h.disabled = true
	defer func() { h.disabled = false }()

	overlay := r.Env.Snapshot()
	for k, v := range env {
		overlay.SetStr(k, v)
	}
	sub := r.forHook(overlay)
	return sub.RunScriptPath(ctx, path)
}
