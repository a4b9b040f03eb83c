// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"tidesh.dev/tidesh/pattern"
)

// hasGlobMeta reports whether word contains any of the filename-expansion
// trigger characters `* ? [`.
func hasGlobMeta(word string) bool {
	return strings.ContainsAny(word, "*?[")
}

// Filename expands a single word through the platform's glob semantics
// (NOSORT | MARK-equivalent: results are collected unsorted and then
// sorted, and a matched directory gets a trailing slash). If word contains no glob metacharacter, or no match is found,
// the pattern is kept as a literal single-element result (spec §4.3).
func Filename(word, cwd string) []string {
	if !hasGlobMeta(word) {
		return []string{word}
	}

	abs := word
	if !filepath.IsAbs(word) {
		abs = filepath.Join(cwd, word)
	}
	segments := strings.Split(filepath.ToSlash(abs), "/")

	matches := globSegments("/", segments[1:])
	if len(matches) == 0 {
		return []string{word}
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		mark := ""
		if st, err := os.Stat(m); err == nil && st.IsDir() {
			mark = "/"
		}
		if !filepath.IsAbs(word) {
			if rel, err := filepath.Rel(cwd, m); err == nil {
				m = rel
			}
		}
		out = append(out, m+mark)
	}
	sort.Strings(out)
	return out
}

// globSegments expands a glob one path segment at a time, starting at base.
func globSegments(base string, segments []string) []string {
	if len(segments) == 0 {
		if _, err := os.Lstat(base); err == nil {
			return []string{base}
		}
		return nil
	}
	seg := segments[0]
	rest := segments[1:]

	if !hasGlobMeta(seg) {
		next := filepath.Join(base, seg)
		if _, err := os.Lstat(next); err != nil {
			return nil
		}
		return globSegments(next, rest)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	re, err := compileSegment(seg)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(seg, ".") {
			continue
		}
		if !re.MatchString(name) {
			continue
		}
		out = append(out, globSegments(filepath.Join(base, name), rest)...)
	}
	return out
}

func compileSegment(seg string) (*regexp.Regexp, error) {
	expr, err := pattern.Regexp(seg, pattern.Filenames|pattern.EntireString)
	if err != nil {
		return nil, err
	}
	return regexp.Compile(expr)
}
