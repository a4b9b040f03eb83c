// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/kballard/go-shellquote"

	"tidesh.dev/tidesh/expand"
)

// builtinFunc is the shape shared by every builtin, special or regular.
type builtinFunc func(ctx context.Context, r *Runner, args []string) (int, error)

// specialBuiltins execute in the real shell process (not a file-redirected
// copy) because they mutate Session state that must outlive the command:
// cd, exit, export, eval, alias, unalias, source/., pushd, popd (spec §4.4
// step 4), plus the job-control builtins bg, fg and jobs.
var specialBuiltins = map[string]builtinFunc{
	"cd":      biCd,
	"exit":    biExit,
	"export":  biExport,
	"eval":    biEval,
	"alias":   biAlias,
	"unalias": biUnalias,
	"source":  biSource,
	".":       biSource,
	"pushd":   biPushd,
	"popd":    biPopd,
	"bg":      biBg,
	"fg":      biFg,
	"jobs":    biJobs,
}

// builtins are regular builtins: they run against a (possibly
// file-redirected) copy of the Runner, same as an external command would
// see its own fd table, but without forking an OS process (spec §9.1 NEW).
var builtins = map[string]builtinFunc{
	"true":     func(ctx context.Context, r *Runner, a []string) (int, error) { return 0, nil },
	"false":    func(ctx context.Context, r *Runner, a []string) (int, error) { return 1, nil },
	"echo":     biEcho,
	"pwd":      biPwd,
	"type":     biType,
	"info":     biInfo,
	"printenv": biPrintenv,
	"terminal": biTerminal,
	"history":  biHistory,
	"features": biFeatures,
}

func biCd(ctx context.Context, r *Runner, args []string) (int, error) {
	target := r.Env.Get("HOME").Str
	switch {
	case len(args) == 0:
		// use HOME
	case args[0] == "-":
		target = r.Env.Get("OLDPWD").Str
		fmt.Fprintln(r.Stdout, target)
	default:
		target = args[0]
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(r.Dir, target)
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(r.Stderr, "cd: %s: No such file or directory\n", target)
		return 1, nil
	}
	old := r.Dir
	r.Dir = target
	r.Env.SetStr("OLDPWD", old)
	r.Env.SetStr("PWD", target)
	if r.Hooks != nil {
		r.Hooks.Run(ctx, r, HookCd, map[string]string{"OLDPWD": old, "PWD": target})
	}
	return 0, nil
}

func biExit(ctx context.Context, r *Runner, args []string) (int, error) {
	code := r.ExitCode()
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			code = n & 0xff
		}
	}
	r.ExitRequested = true
	if r.Hooks != nil {
		r.Hooks.Run(ctx, r, HookEnd, nil)
	}
	return code, ShellExitStatus(code)
}

func biExport(ctx context.Context, r *Runner, args []string) (int, error) {
	if len(args) == 0 {
		for _, name := range r.Env.Exported() {
			fmt.Fprintln(r.Stdout, "export "+name)
		}
		return 0, nil
	}
	for _, a := range args {
		name, val, ok := strings.Cut(a, "=")
		if ok {
			r.Env.SetStr(name, val)
		}
		r.Env.Export(name)
	}
	return 0, nil
}

func biEval(ctx context.Context, r *Runner, args []string) (int, error) {
	src := strings.Join(args, " ")
	status, err := r.RunString(ctx, src)
	if ess, ok := err.(ShellExitStatus); ok {
		return status, ess
	}
	return status, nil
}

func biAlias(ctx context.Context, r *Runner, args []string) (int, error) {
	if len(args) == 0 {
		var names []string
		r.Aliases.Each(func(k, v string) bool { names = append(names, k); return true })
		sort.Strings(names)
		for _, k := range names {
			v, _ := r.Aliases.Get(k)
			fmt.Fprintf(r.Stdout, "alias %s=%s\n", k, shellquote.Join(v))
		}
		return 0, nil
	}
	for _, a := range args {
		name, val, ok := strings.Cut(a, "=")
		if !ok {
			if v, found := r.Aliases.Get(a); found {
				fmt.Fprintf(r.Stdout, "alias %s=%s\n", a, shellquote.Join(v))
			}
			continue
		}
		r.Aliases.Set(name, val)
		if r.Hooks != nil {
			r.Hooks.Run(ctx, r, HookAliasChange, map[string]string{"NAME": name, "VALUE": val})
		}
	}
	return 0, nil
}

func biUnalias(ctx context.Context, r *Runner, args []string) (int, error) {
	for _, a := range args {
		r.Aliases.Delete(a)
	}
	return 0, nil
}

func biSource(ctx context.Context, r *Runner, args []string) (int, error) {
	if len(args) == 0 {
		fmt.Fprintln(r.Stderr, "source: filename argument required")
		return 2, nil
	}
	path := args[0]
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.Dir, path)
	}
	if err := r.RunScriptPath(ctx, path); err != nil {
		if ess, ok := err.(ShellExitStatus); ok {
			return int(ess), ess
		}
		fmt.Fprintln(r.Stderr, err)
		return 1, nil
	}
	return r.ExitCode(), nil
}

func biPushd(ctx context.Context, r *Runner, args []string) (int, error) {
	if len(args) == 0 {
		top, ok := r.Dirs.Pop()
		if !ok {
			fmt.Fprintln(r.Stderr, "pushd: no other directory")
			return 1, nil
		}
		r.Dirs.Push(r.Dir)
		r.Dir = top
		r.Env.SetStr("PWD", top)
		printDirs(r)
		return 0, nil
	}
	target := args[0]
	if !filepath.IsAbs(target) {
		target = filepath.Join(r.Dir, target)
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		fmt.Fprintf(r.Stderr, "pushd: %s: No such file or directory\n", target)
		return 1, nil
	}
	r.Dirs.Push(r.Dir)
	r.Dir = target
	r.Env.SetStr("PWD", target)
	printDirs(r)
	return 0, nil
}

func biPopd(ctx context.Context, r *Runner, args []string) (int, error) {
	top, ok := r.Dirs.Pop()
	if !ok {
		fmt.Fprintln(r.Stderr, "popd: directory stack empty")
		return 1, nil
	}
	r.Dir = top
	r.Env.SetStr("PWD", top)
	printDirs(r)
	return 0, nil
}

func printDirs(r *Runner) {
	all := append([]string{r.Dir}, r.Dirs.All()...)
	fmt.Fprintln(r.Stdout, strings.Join(all, " "))
}

func biEcho(ctx context.Context, r *Runner, args []string) (int, error) {
	fmt.Fprintln(r.Stdout, strings.Join(args, " "))
	return 0, nil
}

func biPwd(ctx context.Context, r *Runner, args []string) (int, error) {
	fmt.Fprintln(r.Stdout, r.Dir)
	return 0, nil
}

// biType classifies name as an alias, a (special or regular) builtin, or a
// PATH entry (spec §9.1 NEW, include/builtins/type.h).
func biType(ctx context.Context, r *Runner, args []string) (int, error) {
	status := 0
	for _, name := range args {
		if v, ok := r.Aliases.Get(name); ok {
			fmt.Fprintf(r.Stdout, "%s is aliased to `%s'\n", name, v)
			continue
		}
		switch {
		case isSpecialBuiltin(name):
			fmt.Fprintf(r.Stdout, "%s is a shell builtin\n", name)
		case isBuiltin(name):
			fmt.Fprintf(r.Stdout, "%s is a shell builtin\n", name)
		default:
			if path, err := r.lookPath(name); err == nil {
				fmt.Fprintf(r.Stdout, "%s is %s\n", name, path)
			} else {
				fmt.Fprintf(r.Stdout, "%s: not found\n", name)
				status = 1
			}
		}
	}
	return status, nil
}

func isSpecialBuiltin(name string) bool { _, ok := specialBuiltins[name]; return ok }
func isBuiltin(name string) bool        { _, ok := builtins[name]; return ok }

// biInfo prints build/version info (spec §9.1 NEW, include/builtins/info.h).
func biInfo(ctx context.Context, r *Runner, args []string) (int, error) {
	fmt.Fprintln(r.Stdout, "tidesh")
	fmt.Fprintln(r.Stdout, "version: "+Version)
	return 0, nil
}

// Version is the build-info slot referenced by the `info` builtin and the
// optional TIDESH_VERSION environment slot (spec §6).
const Version = "0.1.0"

func biPrintenv(ctx context.Context, r *Runner, args []string) (int, error) {
	if len(args) == 0 {
		var names []string
		r.Env.Each(func(name string, v expand.Variable) bool { names = append(names, name); return true })
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(r.Stdout, "%s=%s\n", name, r.Env.Get(name).Str)
		}
		return 0, nil
	}
	status := 0
	for _, name := range args {
		v := r.Env.Get(name)
		if !v.IsSet() {
			status = 1
			continue
		}
		fmt.Fprintln(r.Stdout, v.Str)
	}
	return status, nil
}

// biTerminal prints or toggles the JobControl feature flag (`terminal`,
// `terminal on`, `terminal off`; spec §9.1 NEW, include/builtins/terminal.h).
// It does not touch terminal raw mode, which is the external LineEditor's job.
func biTerminal(ctx context.Context, r *Runner, args []string) (int, error) {
	if len(args) == 0 {
		fmt.Fprintf(r.Stdout, "job-control: %v\n", r.Flags.JobControl)
		return 0, nil
	}
	switch args[0] {
	case "on":
		r.Flags.JobControl = true
	case "off":
		r.Flags.JobControl = false
	default:
		fmt.Fprintln(r.Stderr, "terminal: usage: terminal [on|off]")
		return 2, nil
	}
	return 0, nil
}

// biHistory lists, clears, or replays history entries by index (spec §9.1
// NEW, include/builtins/history.h).
func biHistory(ctx context.Context, r *Runner, args []string) (int, error) {
	if len(args) == 0 {
		for i, e := range r.Hist.All() {
			fmt.Fprintf(r.Stdout, "%5d  %s\n", i+1, e.Command)
		}
		return 0, nil
	}
	switch args[0] {
	case "-c":
		r.Hist.Clear()
		return 0, nil
	default:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > r.Hist.Len() {
			fmt.Fprintf(r.Stderr, "history: %s: event not found\n", args[0])
			return 1, nil
		}
		cmd := r.Hist.All()[n-1].Command
		status, err := r.RunString(ctx, cmd)
		if ess, ok := err.(ShellExitStatus); ok {
			return status, ess
		}
		return status, nil
	}
}

// biFeatures flips the runtime feature-flag bitset (spec §9.1 NEW,
// include/builtins/features.h), forcing any compile-time disable back off
// after every mutation (spec §9 design note).
func biFeatures(ctx context.Context, r *Runner, args []string) (int, error) {
	flagByName := map[string]*bool{
		"variable":    &r.Flags.VariableExpansion,
		"tilde":       &r.Flags.TildeExpansion,
		"brace":       &r.Flags.BraceExpansion,
		"filename":    &r.Flags.FilenameExpansion,
		"alias":       &r.Flags.AliasExpansion,
		"jobcontrol":  &r.Flags.JobControl,
		"history":     &r.Flags.History,
		"dirstack":    &r.Flags.DirStack,
		"pipes":       &r.Flags.Pipes,
		"redirect":    &r.Flags.Redirections,
		"sequences":   &r.Flags.Sequences,
		"subshells":   &r.Flags.Subshells,
		"commandsub":  &r.Flags.CommandSub,
		"assignments": &r.Flags.Assignments,
		"prompt":      &r.Flags.PromptExpand,
		"completion":  &r.Flags.Completion,
	}
	if len(args) == 0 {
		var names []string
		for k := range flagByName {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(r.Stdout, "%-12s %v\n", k, *flagByName[k])
		}
		return 0, nil
	}
	for _, a := range args {
		name, val, ok := strings.Cut(a, "=")
		if !ok {
			continue
		}
		p, ok := flagByName[name]
		if !ok {
			fmt.Fprintf(r.Stderr, "features: unknown feature %q\n", name)
			continue
		}
		*p = val == "on" || val == "1" || val == "true"
	}
	r.Flags.ApplyCompileTimeDisables()
	return 0, nil
}

// biJobs lists every job under observation (spec §4.5).
func biJobs(ctx context.Context, r *Runner, args []string) (int, error) {
	for _, j := range r.Jobs.All() {
		PrintTransition(stdoutAsFile(r), r.Jobs, j)
	}
	return 0, nil
}

// biBg resumes a stopped job in the background (spec §4.5 "bg builtin").
func biBg(ctx context.Context, r *Runner, args []string) (int, error) {
	j, ok := resolveJobTarget(r, args)
	if !ok {
		fmt.Fprintln(r.Stderr, "bg: no such job")
		return 1, nil
	}
	if j.State != Stopped {
		fmt.Fprintln(r.Stderr, "bg: job already in background")
		return 1, nil
	}
	if err := sendSignal(-j.Pgid, syscall.SIGCONT); err != nil {
		fmt.Fprintln(r.Stderr, err)
		return 1, nil
	}
	r.Jobs.SetState(j, Running, 0)
	fmt.Fprintf(r.Stdout, "[%d]+ %s &\n", j.ID, j.CommandText)
	return 0, nil
}

// biFg brings a job to the foreground, handing it the controlling terminal
// (spec §4.5 "fg builtin").
func biFg(ctx context.Context, r *Runner, args []string) (int, error) {
	j, ok := resolveJobTarget(r, args)
	if !ok {
		fmt.Fprintln(r.Stderr, "fg: no such job")
		return 1, nil
	}
	fmt.Fprintln(r.Stdout, j.CommandText)
	if j.State == Stopped {
		sendSignal(-j.Pgid, syscall.SIGCONT)
	}
	tty := ttyFile(r)
	tcsetpgrp(tty, j.Pgid)
	status := waitForeground(r, j)
	tcsetpgrp(tty, os.Getpid())
	return status, nil
}

func resolveJobTarget(r *Runner, args []string) (*Job, bool) {
	if len(args) == 0 {
		return r.Jobs.Current()
	}
	spec := strings.TrimPrefix(args[0], "%")
	switch spec {
	case "+", "%":
		return r.Jobs.Current()
	case "-":
		return r.Jobs.Previous()
	}
	if n, err := strconv.Atoi(spec); err == nil {
		return r.Jobs.ByID(n)
	}
	return nil, false
}

func stdoutAsFile(r *Runner) *os.File {
	if f, ok := r.Stdout.(*os.File); ok {
		return f
	}
	return os.Stdout
}

func ttyFile(r *Runner) *os.File {
	if f, ok := r.Stdout.(*os.File); ok {
		return f
	}
	return os.Stdout
}
