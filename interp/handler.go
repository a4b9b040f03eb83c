// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"tidesh.dev/tidesh/expand"
	"tidesh.dev/tidesh/syntax"
)

// runPipe implements the Pipe node (spec §4.4): a pipe connects the write end
// of the left stage's stdout to the read end of the right stage's stdin.
// Pipelines longer than two stages associate to the right (Pipe{A, Pipe{B,
// C}}), so runPipe recurses rather than flattening into a slice up front.
// Each stage gets its own copy of the Runner: POSIX pipeline stages do not
// persist variable assignments or cwd changes into the parent shell.
func (r *Runner) runPipe(ctx context.Context, p *syntax.Pipe) (int, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return 1, err
	}

	left := *r
	left.Stdout = pw
	right := *r
	right.Stdin = pr

	var g errgroup.Group
	var leftStatus, rightStatus int
	g.Go(func() error {
		defer pw.Close()
		s, err := left.Run(ctx, p.Left)
		leftStatus = s
		return err
	})
	g.Go(func() error {
		defer pr.Close()
		s, err := right.Run(ctx, p.Right)
		rightStatus = s
		return err
	})
	err = g.Wait()
	_ = leftStatus
	r.setExit(rightStatus)
	return rightStatus, err
}

// runSubshell implements the Subshell node (spec §4.4). Go has no fork(2);
// the grouping semantics (variable/cwd/dirstack changes do not escape the
// subshell) are achieved with a Runner copy carrying a snapshot environment
// and directory stack instead of an actual child process.
func (r *Runner) runSubshell(ctx context.Context, s *syntax.Subshell) (int, error) {
	sub := *r
	sub.Env = r.Env.Snapshot()
	dirsCopy := NewDirStack()
	all := r.Dirs.All()
	for i := len(all) - 1; i >= 0; i-- {
		dirsCopy.Push(all[i])
	}
	sub.Dirs = dirsCopy
	status, err := sub.Run(ctx, s.Body)
	// A bare `exit` inside the subshell body only terminates the subshell
	// (spec §4.4 "exit terminates only its own subshell"), not the parent
	// session, so a ShellExitStatus from the body is absorbed into a plain
	// status here rather than propagated.
	if ess, ok := err.(ShellExitStatus); ok {
		status, err = int(ess), nil
	}
	r.setExit(status)
	return status, err
}

// runCommand implements Command execution (spec §4.4 "Command execution").
func (r *Runner) runCommand(ctx context.Context, cmd *syntax.Command) (int, error) {
	argv, argvSub, argvSubText, assigns, err := r.expandCommand(cmd)
	if err != nil {
		fmt.Fprintln(r.Stderr, err)
		r.setExit(1)
		return 1, nil
	}

	if len(argv) == 0 {
		for _, a := range assigns {
			r.Env.SetStr(a.Name, a.Value)
		}
		r.setExit(0)
		return 0, nil
	}

	name := argv[0]
	if spec, ok := specialBuiltins[name]; ok {
		for _, a := range assigns {
			r.Env.SetStr(a.Name, a.Value)
		}
		status, err := spec(ctx, r, argv[1:])
		r.setExit(status)
		return status, err
	}

	status, err := r.forkAndRun(ctx, cmd, argv, argvSub, argvSubText, assigns)
	r.setExit(status)
	return status, err
}

// expandCommand runs the expansion pipeline over every non-process-sub argv
// entry (spec §4.3/§4.4 step 1) and expands assignment values (variable and
// tilde only, matching POSIX assignment expansion). Because expansion can
// turn one source argument into zero or many output fields (brace/filename
// multiplicity), the returned argvSub/argvSubText slices are reindexed to
// match the *output* argv rather than cmd.Argv's original positions.
func (r *Runner) expandCommand(cmd *syntax.Command) (argv []string, argvSub []int, argvSubText []string, assigns []syntax.Assignment, err error) {
	cfg := r.expandConfig()

	for _, a := range cmd.Assignments {
		fields, ok := expand.Fields(a.Value, expand.Config{
			Env: cfg.Env, Cwd: cfg.Cwd, Home: cfg.Home, OldPwd: cfg.OldPwd,
			Dirs: cfg.Dirs, Lookup: cfg.Lookup, Stderr: cfg.Stderr,
			Flags: expand.Flags{DisableBrace: true, DisableFilename: true},
		})
		val := a.Value
		if ok && len(fields) > 0 {
			val = strings.Join(fields, "")
		}
		assigns = append(assigns, syntax.Assignment{Name: a.Name, Value: val})
	}

	for i, raw := range cmd.Argv {
		if cmd.ArgIsSub[i] != 0 {
			argv = append(argv, raw)
			argvSub = append(argvSub, cmd.ArgIsSub[i])
			argvSubText = append(argvSubText, cmd.ArgSubText[i])
			continue
		}
		fields, ok := expand.Fields(raw, cfg)
		if !ok {
			return nil, nil, nil, nil, NewShellError("parameter null or not set", nil)
		}
		for _, f := range fields {
			argv = append(argv, f)
			argvSub = append(argvSub, 0)
			argvSubText = append(argvSubText, "")
		}
	}
	return argv, argvSub, argvSubText, assigns, nil
}

func (r *Runner) expandConfig() expand.Config {
	return expand.Config{
		Env:    r.Env,
		Cwd:    r.Dir,
		Home:   r.Env.Get("HOME").Str,
		OldPwd: r.Env.Get("OLDPWD").Str,
		Dirs:   r.Dirs,
		Lookup: lookupUser,
		Stderr: r.Stderr,
		Flags: expand.Flags{
			DisableVariable: !r.Flags.VariableExpansion,
			DisableTilde:    !r.Flags.TildeExpansion,
			DisableBrace:    !r.Flags.BraceExpansion,
			DisableFilename: !r.Flags.FilenameExpansion,
		},
	}
}

// forkAndRun resolves argv[0] (builtin or external), applies redirections
// and process substitutions, and runs it either in a forked process or, for
// non-special builtins, in-process against a temporary redirected Runner
// (spec §4.4 step 5).
func (r *Runner) forkAndRun(ctx context.Context, node *syntax.Command, argv []string, argvSub []int, argvSubText []string, assigns []syntax.Assignment) (int, error) {
	files, procSubDone, err := r.buildRedirects(ctx, node, argv, argvSub, argvSubText)
	defer procSubDone()
	if err != nil {
		fmt.Fprintln(r.Stderr, err)
		return 1, nil
	}

	if bi, ok := builtins[argv[0]]; ok {
		sub := *r
		applyFiles(&sub, files)
		if len(assigns) > 0 {
			env := r.Env.Snapshot()
			for _, a := range assigns {
				env.SetStr(a.Name, a.Value)
			}
			sub.Env = env
		}
		status, err := bi(ctx, &sub, argv[1:])
		// Regular builtins run against a file-redirected copy, but a few
		// (features, terminal) mutate session-wide state held by value on
		// Runner; propagate it back so the change outlives this call.
		r.Flags = sub.Flags
		return status, err
	}

	path := argv[0]
	if !strings.Contains(path, "/") {
		path, err = r.lookPath(argv[0])
		if err != nil {
			fmt.Fprintln(r.Stderr, argv[0]+": command not found")
			return 127, nil
		}
	} else if _, statErr := os.Stat(path); statErr != nil {
		fmt.Fprintln(r.Stderr, path+": "+statErr.Error())
		return 127, nil
	}

	env := r.Env.Snapshot()
	for _, a := range assigns {
		env.SetStr(a.Name, a.Value)
	}

	cmd := &exec.Cmd{
		Path: path,
		Args: argv,
		Env:  env.Exported(),
		Dir:  r.Dir,
	}
	applyExecFiles(cmd, files, r)
	prepareCommand(cmd)

	if err := cmd.Start(); err != nil {
		fmt.Fprintln(r.Stderr, err)
		return 126, nil
	}

	if node.Background {
		j := r.Jobs.Add(cmd.Process.Pid, cmd.Process.Pid, commandText(argv))
		fmt.Fprintf(stdoutFile(r), "[%d] %d\n", j.ID, cmd.Process.Pid)
		r.Env.SetStr("!", strconv.Itoa(cmd.Process.Pid))
		go func() {
			err := cmd.Wait()
			r.Jobs.SetState(j, Done, waitExitCode(err))
		}()
		return 0, nil
	}

	waitErr := cmd.Wait()
	return exitCodeOf(waitErr), nil
}

func stdoutFile(r *Runner) io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func commandText(argv []string) string { return strings.Join(argv, " ") }

func waitExitCode(err error) int { return exitCodeOf(err) }

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exec.ExitError); ok {
		if ws, ok := ee.Sys().(waitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return ee.ExitCode()
	}
	return 1
}

// redirFiles maps a target fd number to the *os.File that should back it; a
// nil entry (present in the map) means the fd is explicitly closed.
type redirFiles map[int]*os.File

func applyFiles(r *Runner, files redirFiles) {
	if f, ok := files[0]; ok {
		if f == nil {
			r.Stdin = bytes.NewReader(nil)
		} else {
			r.Stdin = f
		}
	}
	if f, ok := files[1]; ok {
		if f != nil {
			r.Stdout = f
		}
	}
	if f, ok := files[2]; ok {
		if f != nil {
			r.Stderr = f
		}
	}
}

func applyExecFiles(cmd *exec.Cmd, files redirFiles, r *Runner) {
	if f, ok := files[0]; ok {
		cmd.Stdin = f
	} else {
		cmd.Stdin = r.Stdin
	}
	if f, ok := files[1]; ok {
		cmd.Stdout = f
	} else {
		cmd.Stdout = r.Stdout
	}
	if f, ok := files[2]; ok {
		cmd.Stderr = f
	} else {
		cmd.Stderr = r.Stderr
	}
	// Any fd >= 3 named by a redirection rides along as an ExtraFile; child
	// processes address it as /dev/fd/(3+index), which is how process
	// substitution argv entries were already rewritten.
	max := 2
	for fd := range files {
		if fd > max {
			max = fd
		}
	}
	for fd := 3; fd <= max; fd++ {
		f := files[fd]
		if f == nil {
			f, _ = os.Open(os.DevNull)
		}
		cmd.ExtraFiles = append(cmd.ExtraFiles, f)
	}
}

// buildRedirects opens/creates every redirection target and resolves process
// substitution argv entries, honoring the parser's prepend-on-build order
// (spec §4.4 "Redirection application order"): cmd.Redirects is iterated
// front-to-back, which is the reverse of source order.
func (r *Runner) buildRedirects(ctx context.Context, cmd *syntax.Command, argv []string, argvSub []int, argvSubText []string) (redirFiles, func(), error) {
	files := redirFiles{}
	var cleanups []func()
	done := func() {
		for _, c := range cleanups {
			c()
		}
	}

	for _, red := range cmd.Redirects {
		switch red.Kind {
		case syntax.REDIRECT_IN:
			f, err := os.Open(r.resolvePath(red.Target))
			if err != nil {
				done()
				return nil, func() {}, err
			}
			files[red.FD] = f
			cleanups = append(cleanups, func() { f.Close() })
		case syntax.REDIRECT_OUT:
			f, err := os.OpenFile(r.resolvePath(red.Target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				done()
				return nil, func() {}, err
			}
			files[red.FD] = f
			cleanups = append(cleanups, func() { f.Close() })
		case syntax.REDIRECT_APPEND:
			f, err := os.OpenFile(r.resolvePath(red.Target), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				done()
				return nil, func() {}, err
			}
			files[red.FD] = f
			cleanups = append(cleanups, func() { f.Close() })
		case syntax.FD_DUP:
			if red.Target == "-" {
				files[red.FD] = nil
				continue
			}
			n, err := strconv.Atoi(red.Target)
			if err != nil {
				done()
				return nil, func() {}, fmt.Errorf("bad fd dup target %q", red.Target)
			}
			files[red.FD] = files[n]
		case syntax.REDIRECT_OUT_ERR:
			if isAllDigits(red.Target) {
				n, _ := strconv.Atoi(red.Target)
				files[red.FD] = files[n]
				continue
			}
			f, err := os.OpenFile(r.resolvePath(red.Target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				done()
				return nil, func() {}, err
			}
			files[red.FD] = f
			files[2] = f
			cleanups = append(cleanups, func() { f.Close() })
		case syntax.HEREDOC:
			pr, pw, err := os.Pipe()
			if err != nil {
				done()
				return nil, func() {}, err
			}
			body := red.Target
			go func() { io.WriteString(pw, body); pw.Close() }()
			files[red.FD] = pr
			cleanups = append(cleanups, func() { pr.Close() })
		case syntax.HERESTRING:
			pr, pw, err := os.Pipe()
			if err != nil {
				done()
				return nil, func() {}, err
			}
			fields, _ := expand.Fields(red.Target, r.expandConfig())
			text := strings.Join(fields, " ")
			go func() { io.WriteString(pw, text+"\n"); pw.Close() }()
			files[red.FD] = pr
			cleanups = append(cleanups, func() { pr.Close() })
		}
	}

	for i, sub := range argvSub {
		if sub == 0 {
			continue
		}
		f, cleanup, err := r.startProcessSub(ctx, sub, argvSubText[i])
		if err != nil {
			done()
			return nil, func() {}, err
		}
		idx := len(files) + 3
		for files[idx] != nil {
			idx++
		}
		files[idx] = f
		argv[i] = fmt.Sprintf("/dev/fd/%d", idx)
		cleanups = append(cleanups, cleanup)
	}

	return files, done, nil
}

// startProcessSub resolves `<(cmd)` (kind==1) or `>(cmd)` (kind==2): a pipe
// is created, the inner command text runs in-process against a copy of the
// Runner with Stdout/Stdin wired to the pipe, and the fd the caller keeps is
// handed back for the parent argv rewrite (spec §4.4 step 5). The teacher
// has no direct equivalent; this adapts DefaultExecHandler's os/exec-based
// shelling-out to run the inner script through the interpreter itself rather
// than forking a second OS process, since Go has no fork(2).
func (r *Runner) startProcessSub(ctx context.Context, kind int, src string) (*os.File, func(), error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, func() {}, err
	}
	sub := *r
	sub.Env = r.Env.Snapshot()
	if kind == 1 {
		sub.Stdout = pw
		go func() {
			sub.RunString(ctx, src)
			pw.Close()
		}()
		return pr, func() { pr.Close() }, nil
	}
	sub.Stdin = pr
	go func() {
		sub.RunString(ctx, src)
		pr.Close()
	}()
	return pw, func() { pw.Close() }, nil
}

func (r *Runner) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.Dir, path)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// lookPath resolves a bare command name against PATH, caching hits in
// PathIndex (spec §3 design note: a 256-way trie over basenames).
func (r *Runner) lookPath(name string) (string, error) {
	if cached, ok := r.PathIndex.Get(name); ok {
		if st, err := os.Stat(cached); err == nil && !st.IsDir() && st.Mode()&0o111 != 0 {
			return cached, nil
		}
	}
	pathVar := r.Env.Get("PATH").Str
	for _, dir := range filepath.SplitList(pathVar) {
		if dir == "" {
			dir = "."
		}
		full := filepath.Join(dir, name)
		if st, err := os.Stat(full); err == nil && !st.IsDir() && st.Mode()&0o111 != 0 {
			r.PathIndex.Set(name, full)
			return full, nil
		}
	}
	return "", fmt.Errorf("%s: command not found", name)
}

func lookupUser(name string) (string, bool) {
	f, err := os.Open("/etc/passwd")
	if err != nil {
		return "", false
	}
	defer f.Close()
	var sb strings.Builder
	io.Copy(&sb, f)
	for _, line := range strings.Split(sb.String(), "\n") {
		parts := strings.Split(line, ":")
		if len(parts) >= 6 && parts[0] == name {
			return parts[5], true
		}
	}
	return "", false
}
