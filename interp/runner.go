// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package interp is the shell's Session state and Executor (spec §2,
// components 1 and 5): it owns the environment, aliases, directory stack,
// job table, history, and feature flags, and walks a parsed syntax.CommandNode
// forking processes, wiring pipes and redirections, and dispatching
// builtins.
package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"tidesh.dev/tidesh/syntax"
)

// Option is a functional option for New, following the teacher's
// RunnerOption pattern (interp.New(interp.Env(...), interp.Dir(...), ...)).
type Option func(*Runner) error

// Runner is the Session aggregate (spec §3): it owns the environment,
// aliases, PATH index, directory stack, job table, history, hooks, and
// feature flags for one shell session, plus the process-facing Stdin/
// Stdout/Stderr it forks children against.
type Runner struct {
	Env       *Environment
	Aliases   *Trie
	PathIndex *Trie
	Dirs      *DirStack
	Jobs      *JobTable
	Hist      *History
	Hooks     *Hooks
	Flags     FeatureFlags

	Dir string // current working directory

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Interactive   bool
	ExitRequested bool
	shellPgid     int

	execTimeout time.Duration
}

// New creates a Runner, applying opts in order. Unset fields fall back to
// the process's own environment, cwd, and standard streams.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		Aliases:     NewTrie(),
		PathIndex:   NewTrie(),
		Dirs:        NewDirStack(),
		Flags:       NewFeatureFlags(),
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		execTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.Env == nil {
		r.Env = NewEnvironmentFromOS()
	}
	if r.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		r.Dir = wd
	}
	if r.Stdin == nil {
		r.Stdin = os.Stdin
	}
	if r.Hist == nil {
		r.Hist = NewHistory("", 1000)
	}
	r.bootstrapEnv()
	r.Jobs = NewJobTable(os.Getpid())
	return r, nil
}

// bootstrapEnv fills the shell-managed slots described in spec §3/§6:
// SHLVL, HOME, PWD, OLDPWD, $, ?, SHELL and SHELL_NAME. It does not set `!`
// (set when a background job is started) or `_` (not maintained).
func (r *Runner) bootstrapEnv() {
	shlvl := 0
	fmt.Sscanf(r.Env.Get("SHLVL").Str, "%d", &shlvl)
	r.Env.SetStr("SHLVL", fmt.Sprintf("%d", shlvl+1))
	if !r.Env.Get("HOME").IsSet() {
		if home, err := os.UserHomeDir(); err == nil {
			r.Env.SetStr("HOME", home)
		}
	}
	r.Env.SetStr("PWD", r.Dir)
	if !r.Env.Get("OLDPWD").IsSet() {
		r.Env.SetStr("OLDPWD", r.Dir)
	}
	r.Env.SetStr("$", fmt.Sprintf("%d", os.Getpid()))
	if !r.Env.Get("?").IsSet() {
		r.Env.SetStr("?", "0")
	}
	if !r.Env.Get("SHELL").IsSet() {
		if exe, err := os.Executable(); err == nil {
			r.Env.SetStr("SHELL", exe)
		}
	}
	r.Env.SetStr("SHELL_NAME", "tidesh")
}

// WithEnv sets the Runner's environment.
func WithEnv(e *Environment) Option { return func(r *Runner) error { r.Env = e; return nil } }

// WithDir sets the Runner's initial working directory.
func WithDir(dir string) Option { return func(r *Runner) error { r.Dir = dir; return nil } }

// WithStdIO sets the Runner's standard streams.
func WithStdIO(in io.Reader, out, err io.Writer) Option {
	return func(r *Runner) error {
		r.Stdin, r.Stdout, r.Stderr = in, out, err
		return nil
	}
}

// WithInteractive marks the session as interactive (affects prompt
// rendering and job-control notifications, both driven by the caller).
func WithInteractive(b bool) Option {
	return func(r *Runner) error { r.Interactive = b; return nil }
}

// WithHistoryFile attaches a History bound to path.
func WithHistoryFile(path string, limit int) Option {
	return func(r *Runner) error { r.Hist = NewHistory(path, limit); return nil }
}

// WithHooksDir attaches a Hooks rooted at dir.
func WithHooksDir(dir string) Option {
	return func(r *Runner) error { r.Hooks = NewHooks(dir); return nil }
}

// ExitCode returns the last recorded exit status, from Env["?"].
func (r *Runner) ExitCode() int {
	n := 0
	fmt.Sscanf(r.Env.Get("?").Str, "%d", &n)
	return n
}

func (r *Runner) setExit(code int) {
	r.Env.SetStr("?", fmt.Sprintf("%d", code))
}

// forSubstitution returns a lightweight copy of r for a `$(...)` re-entrant
// call: same environment/session state, but stdout redirected to buf and
// history suppressed (spec §5 Re-entrancy).
func (r *Runner) forSubstitution(buf io.Writer) *Runner {
	cp := *r
	cp.Stdout = buf
	cp.Hist = NewHistory("", 0)
	cp.Hist.Disabled = true
	return &cp
}

// forHook returns a copy of r used to run a `.tidesh-hooks` script, with
// the given environment overlay and history suppressed.
func (r *Runner) forHook(env *Environment) *Runner {
	cp := *r
	cp.Env = env
	cp.Hist = NewHistory("", 0)
	cp.Hist.Disabled = true
	return &cp
}

// RunString lexes, parses, and executes src, appending it to history
// (unless suppressed) and returning the resulting exit status. This is the
// `execute_string` entry point of spec §4.4.
func (r *Runner) RunString(ctx context.Context, src string) (int, error) {
	subst := cmdSubstituter{ctx: ctx, r: r}
	node, _, err := syntax.ParseLine([]byte(src), subst, r.aliasLookup, r.parserOptions())
	if err != nil {
		fmt.Fprintln(r.Stderr, err)
	}
	if !r.Hist.Disabled && r.Flags.History {
		r.Hist.Append(trimTrailingNewline(src), time.Now().Unix())
	}
	if node == nil {
		if err != nil {
			r.setExit(1)
			return 1, err
		}
		return r.ExitCode(), nil
	}
	if r.Hooks != nil {
		r.Hooks.Run(ctx, r, HookBeforeCmd, map[string]string{"CMD": trimTrailingNewline(src)})
	}
	status, runErr := r.Run(ctx, node)
	if r.Hooks != nil {
		r.Hooks.Run(ctx, r, HookAfterCmd, map[string]string{"CMD": trimTrailingNewline(src), "?": fmt.Sprintf("%d", status)})
	}
	return status, runErr
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// RunScriptPath sources a file as a script (used for the rc file, the
// `source`/`.` builtin, and hook scripts). History is suppressed for rc and
// hook runs by the caller via forHook/forSubstitution-style copies, or
// explicitly for the rc file in cmd/tidesh.
func (r *Runner) RunScriptPath(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewShellError(path+": "+err.Error(), err)
	}
	_, err = r.RunString(ctx, string(data))
	return err
}

func (r *Runner) aliasLookup(name string) (string, bool) {
	if !r.Flags.AliasExpansion {
		return "", false
	}
	return r.Aliases.Get(name)
}

func (r *Runner) parserOptions() syntax.ParserOptions {
	return syntax.ParserOptions{
		DisablePipes:       !r.Flags.Pipes,
		DisableSequences:   !r.Flags.Sequences,
		DisableSubshells:   !r.Flags.Subshells,
		DisableAssignments: !r.Flags.Assignments,
		DisableAliases:     !r.Flags.AliasExpansion,
	}
}

// Run walks node and executes it, returning the exit status of the last
// command run (spec §4.4 Node semantics).
func (r *Runner) Run(ctx context.Context, node syntax.CommandNode) (int, error) {
	if r.ExitRequested {
		return r.ExitCode(), nil
	}
	switch n := node.(type) {
	case *syntax.Sequence:
		_, err := r.Run(ctx, n.Left)
		if err != nil {
			return r.ExitCode(), err
		}
		return r.Run(ctx, n.Right)
	case *syntax.BinaryCmd:
		status, err := r.Run(ctx, n.Left)
		if err != nil {
			return status, err
		}
		if n.Op == syntax.AndOp {
			if status == 0 {
				return r.Run(ctx, n.Right)
			}
			return status, nil
		}
		if status != 0 {
			return r.Run(ctx, n.Right)
		}
		return status, nil
	case *syntax.Pipe:
		return r.runPipe(ctx, n)
	case *syntax.Subshell:
		return r.runSubshell(ctx, n)
	case *syntax.Command:
		return r.runCommand(ctx, n)
	default:
		return 0, nil
	}
}
