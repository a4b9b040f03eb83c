// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"os/user"
	"strconv"
	"strings"
)

// DirStack is the subset of the directory stack the tilde expander needs to
// resolve `~N`.
type DirStack interface {
	At(n int) (string, bool)
}

// TildeContext supplies the values `~`, `~+`, `~-` and `~N` resolve against.
type TildeContext struct {
	Home    string
	Cwd     string
	OldPwd  string
	Dirs    DirStack
	Stderr  func(string)
	Lookup  func(user string) (home string, ok bool)
}

// Tilde expands a leading tilde in word, per spec §4.3. Tilde expansion is
// only recognized at word start or right after `:` or whitespace, so this
// function should be called once per already-split word (and, for
// colon-separated values such as PATH-like variables, once per segment by
// the caller).
func Tilde(word string, ctx TildeContext) string {
	if !strings.HasPrefix(word, "~") {
		return word
	}
	rest := word[1:]
	name, tail, _ := strings.Cut(rest, "/")
	hasSlash := len(tail) > 0 || strings.Contains(rest, "/")
	sep := ""
	if hasSlash {
		sep = "/"
	}

	switch {
	case name == "":
		return ctx.Home + sep + tail
	case name == "+":
		return ctx.Cwd + sep + tail
	case name == "-":
		return ctx.OldPwd + sep + tail
	case isAllDigits(name):
		n, _ := strconv.Atoi(name)
		if ctx.Dirs != nil {
			if dir, ok := ctx.Dirs.At(n); ok {
				return dir + sep + tail
			}
		}
		if ctx.Stderr != nil {
			ctx.Stderr("~" + name + ": directory stack index out of range")
		}
		return word
	default:
		if ctx.Lookup != nil {
			if home, ok := ctx.Lookup(name); ok {
				return home + sep + tail
			}
		} else if u, err := user.Lookup(name); err == nil {
			return u.HomeDir + sep + tail
		}
		return word
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
