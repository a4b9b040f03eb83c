// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import "io"

// Flags enables or disables individual stages of the expansion pipeline
// (spec §3 feature flag bitset). The zero value runs every stage.
type Flags struct {
	DisableVariable bool
	DisableTilde    bool
	DisableBrace    bool
	DisableFilename bool
}

// Config carries everything the expansion pipeline needs beyond the raw
// word text: the environment to resolve variables against, and the
// directory context tilde expansion resolves against.
type Config struct {
	Env    Environ
	Cwd    string
	Home   string
	OldPwd string
	Dirs   DirStack
	Lookup func(user string) (string, bool)
	Stderr io.Writer
	Flags  Flags
}

// Fields runs the full variable → tilde → brace → filename pipeline over a
// single raw argument and returns the resulting argv fields (spec §4.3).
// Every stage after variable expansion is broadcast over the array that
// stage produced. A false second return means the word was dropped by a
// ${NAME:?msg} abort.
func Fields(raw string, cfg Config) ([]string, bool) {
	words := []string{raw}
	if !cfg.Flags.DisableVariable {
		var out []string
		for _, w := range words {
			fields, ok := Variables(w, cfg.Env, cfg.Stderr)
			if !ok {
				return nil, false
			}
			out = append(out, fields...)
		}
		words = out
	}

	if !cfg.Flags.DisableTilde {
		tctx := TildeContext{
			Home:   cfg.Home,
			Cwd:    cfg.Cwd,
			OldPwd: cfg.OldPwd,
			Dirs:   cfg.Dirs,
			Lookup: cfg.Lookup,
		}
		if cfg.Stderr != nil {
			tctx.Stderr = func(msg string) { io.WriteString(cfg.Stderr, msg+"\n") }
		}
		for i, w := range words {
			words[i] = Tilde(w, tctx)
		}
	}

	if !cfg.Flags.DisableBrace {
		var out []string
		for _, w := range words {
			out = append(out, Braces(w)...)
		}
		words = out
	}

	if !cfg.Flags.DisableFilename {
		var out []string
		for _, w := range words {
			out = append(out, Filename(w, cfg.Cwd)...)
		}
		words = out
	}

	return words, true
}
