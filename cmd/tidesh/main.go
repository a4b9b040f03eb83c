// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// tidesh is a small POSIX-ish interactive shell and script runner built on
// top of the interp package.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"tidesh.dev/tidesh/interp"
)

var (
	flagEval          = flag.String("eval", "", "command to execute, then exit")
	flagEvalShort     = flag.String("c", "", "shorthand for -eval")
	flagKeepAlive     = flag.Bool("keep-alive", false, "drop to the interactive loop after -eval/script")
	flagCd            = flag.String("cd", "", "chdir to this directory before sourcing the rc file")
	flagRC            = flag.String("rc", "", "alternative rc file path (default ~/.tideshrc)")
	flagHistory       = flag.String("history", "", "alternative history file path (default ~/.tidesh-history)")
	flagEnableColors  = flag.Bool("enable-colors", false, "force terminal colour support on")
	flagDisableColors = flag.Bool("disable-colors", false, "force terminal colour support off")
	flagDisableHist   = flag.Bool("disable-history", false, "suppress history recording")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	os.Exit(run())
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s [flags] [script | -]

flags:
  --help              usage and exit 0
  --eval, -c <cmd>    execute cmd then exit (unless --keep-alive)
  --keep-alive        after eval/script, drop to interactive loop
  --cd <dir>          chdir before rc
  --rc <file>         alternative rc path (default ~/.tideshrc)
  --history <file>    alternative history path (default ~/.tidesh-history)
  --enable-colors     force terminal colour support on
  --disable-colors    force terminal colour support off
  --disable-history   suppress history
`, filepath.Base(os.Args[0]))
}

// run wires the CLI flags to a Runner and executes one of: -eval, a script
// path, stdin piped in, or the interactive loop, returning the process exit
// code per spec §6.
func run() int {
	for _, a := range os.Args[1:] {
		if a == "--help" || a == "-h" {
			usage()
			return 0
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	home, _ := os.UserHomeDir()

	rcPath := *flagRC
	if rcPath == "" && home != "" {
		rcPath = filepath.Join(home, ".tideshrc")
	}
	histPath := *flagHistory
	if histPath == "" && home != "" {
		histPath = filepath.Join(home, ".tidesh-history")
	}
	hooksDir := ""
	if home != "" {
		hooksDir = filepath.Join(home, ".tidesh-hooks")
	}

	opts := []interp.Option{
		interp.WithStdIO(os.Stdin, os.Stdout, os.Stderr),
		interp.WithHistoryFile(histPath, 1000),
		interp.WithHooksDir(hooksDir),
	}
	if *flagCd != "" {
		if abs, err := filepath.Abs(*flagCd); err == nil {
			opts = append(opts, interp.WithDir(abs))
		}
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && *flagEval == "" && *flagEvalShort == "" && flag.NArg() == 0
	opts = append(opts, interp.WithInteractive(interactive))

	r, err := interp.New(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tidesh:", err)
		return 1
	}

	if *flagCd != "" {
		if err := os.Chdir(*flagCd); err != nil {
			fmt.Fprintln(os.Stderr, "tidesh:", err)
			return 1
		}
	}

	applyColorFlags(r)
	if *flagDisableHist {
		r.Flags.History = false
		r.Hist.Disabled = true
	}

	r.Hooks.Run(ctx, r, interp.HookStart, nil)

	runRC(ctx, r, rcPath)

	eval := *flagEval
	if eval == "" {
		eval = *flagEvalShort
	}

	switch {
	case eval != "":
		status, runErr := r.RunString(ctx, eval)
		if *flagKeepAlive {
			return interactiveLoop(ctx, r)
		}
		return exitCodeFor(status, runErr)

	case flag.NArg() > 0:
		path := flag.Arg(0)
		var status int
		var runErr error
		if path == "-" {
			status, runErr = runReader(ctx, r, os.Stdin)
		} else {
			status, runErr = runScript(ctx, r, path)
		}
		if *flagKeepAlive {
			return interactiveLoop(ctx, r)
		}
		return exitCodeFor(status, runErr)

	case !interactive:
		status, runErr := runReader(ctx, r, os.Stdin)
		return exitCodeFor(status, runErr)

	default:
		return interactiveLoop(ctx, r)
	}
}

// runRC sources rcPath like a script, with history suppressed for the
// duration (spec §6 "Rc file").
func runRC(ctx context.Context, r *interp.Runner, rcPath string) {
	if rcPath == "" {
		return
	}
	if _, err := os.Stat(rcPath); err != nil {
		return
	}
	was := r.Hist.Disabled
	r.Hist.Disabled = true
	if err := r.RunScriptPath(ctx, rcPath); err != nil {
		var shellExit interp.ShellExitStatus
		if !errors.As(err, &shellExit) {
			fmt.Fprintln(os.Stderr, "tidesh: rc:", err)
		}
	}
	r.Hist.Disabled = was
}

func runScript(ctx context.Context, r *interp.Runner, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tidesh:", err)
		return 1, err
	}
	return r.RunString(ctx, string(data))
}

func runReader(ctx context.Context, r *interp.Runner, rd io.Reader) (int, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return 1, err
	}
	return r.RunString(ctx, string(data))
}

// exitCodeFor maps a RunString result to a process exit code per spec §6:
// a ShellExitStatus from the `exit` builtin takes precedence, otherwise the
// last command's own status is used, falling back to 1 for an internal
// (parse/expansion) error that never produced a status.
func exitCodeFor(status int, err error) int {
	var shellExit interp.ShellExitStatus
	if errors.As(err, &shellExit) {
		return int(shellExit)
	}
	if err != nil && status == 0 {
		return 1
	}
	return status
}

// interactiveLoop drives the entry loop of spec §4.6: read a line, lex and
// parse it, execute it, print job-control transitions, repeat until EOF or
// `exit`.
func interactiveLoop(ctx context.Context, r *interp.Runner) int {
	editor := interp.NewBasicLineEditor(os.Stdin, os.Stdout)
	status := 0
	exitedViaBuiltin := false
	for {
		if r.ExitRequested {
			exitedViaBuiltin = true
			break
		}
		prompt := renderPrompt(r)
		line, err := editor.ReadLine(ctx, prompt)
		if err != nil {
			if errors.Is(err, interp.ErrEOF) {
				break
			}
			fmt.Fprintln(os.Stderr, "tidesh:", err)
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		var runErr error
		status, runErr = r.RunString(ctx, line)
		var shellExit interp.ShellExitStatus
		if errors.As(runErr, &shellExit) {
			status = int(shellExit)
			exitedViaBuiltin = true
			break
		}
	}
	// The `exit` builtin already fires HookEnd itself; only fire it here
	// when the loop ended some other way (EOF, read error).
	if !exitedViaBuiltin {
		r.Hooks.Run(ctx, r, interp.HookEnd, nil)
	}
	r.Hist.Save()
	return status
}

// renderPrompt builds the "cwd $ " prompt, applying ANSI colour only when
// color support is enabled (spec §6 --enable-colors/--disable-colors;
// prompt rendering itself is an external collaborator, spec §1, so this
// stays a plain two-segment string rather than a themeable template).
func renderPrompt(r *interp.Runner) string {
	cwd := r.Dir
	if !colorEnabled {
		return cwd + " $ "
	}
	const (
		cyan  = "\x1b[36m"
		reset = "\x1b[0m"
	)
	return cyan + cwd + reset + " $ "
}

var colorEnabled bool

func applyColorFlags(r *interp.Runner) {
	switch {
	case *flagEnableColors:
		colorEnabled = true
	case *flagDisableColors:
		colorEnabled = false
	default:
		colorEnabled = r.Interactive && term.IsTerminal(int(os.Stdout.Fd()))
	}
}
