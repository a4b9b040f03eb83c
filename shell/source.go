// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package shell

import (
	"context"
	"fmt"

	"tidesh.dev/tidesh/expand"
	"tidesh.dev/tidesh/interp"
)

// SourceFile runs a script from disk in a throwaway Runner and returns the
// variables it declared, the way `source`/`.` would leave them in a real
// session. It is a convenience wrapper around interp.New and
// Runner.RunScriptPath for callers that only want the resulting variables,
// such as a config-file loader (spec §6 External interfaces).
//
// Unlike the teacher's SourceFile, no program/file-access whitelist is
// applied: the script runs with the same privileges as the calling
// process, since tidesh (unlike the teacher's embeddable interpreter) has
// no module/capability system to sandbox it with. Callers that need to
// source untrusted scripts should not use this entry point.
func SourceFile(ctx context.Context, path string) (map[string]expand.Variable, error) {
	r, err := interp.New()
	if err != nil {
		return nil, err
	}
	if err := r.RunScriptPath(ctx, path); err != nil {
		if _, ok := err.(interp.ShellExitStatus); !ok {
			return nil, fmt.Errorf("could not run: %w", err)
		}
	}
	vars := map[string]expand.Variable{}
	r.Env.Each(func(name string, v expand.Variable) bool {
		switch name {
		case "PWD", "HOME", "PATH", "OLDPWD", "SHLVL", "$", "?", "SHELL", "SHELL_NAME":
			return true
		}
		vars[name] = v
		return true
	})
	return vars, nil
}
