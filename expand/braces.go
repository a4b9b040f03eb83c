// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"strconv"
	"strings"
)

// Braces expands a single word containing brace alternatives or ranges
// (`{a,b}`, `{1..3}`, `{a..c}`) into the list of words it denotes, per spec
// §4.3. A word with no expandable brace is returned unchanged as a
// single-element slice.
func Braces(word string) []string {
	start, end, ok := firstExpandableBrace(word)
	if !ok {
		return []string{word}
	}
	prefix, body, suffix := word[:start], word[start+1:end], word[end+1:]

	var alts []string
	if parts, ok := splitTopLevelCommas(body); ok {
		alts = parts
	} else if r, ok := parseRange(body); ok {
		alts = r
	} else {
		return []string{word}
	}

	var out []string
	for _, alt := range alts {
		for _, expanded := range Braces(prefix + alt + suffix) {
			out = append(out, expanded)
		}
	}
	return out
}

// firstExpandableBrace finds the first top-level `{...}` in s that contains
// either a top-level comma or a `..` range, returning its byte offsets.
func firstExpandableBrace(s string) (start, end int, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		depth := 1
		hasComma, hasRange := false, false
		j := i + 1
		for ; j < len(s) && depth > 0; j++ {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
			case ',':
				if depth == 1 {
					hasComma = true
				}
			case '.':
				if depth == 1 && j+1 < len(s) && s[j+1] == '.' {
					hasRange = true
				}
			}
		}
		if depth != 0 {
			continue // unbalanced; not expandable
		}
		closeIdx := j - 1
		if hasComma || hasRange {
			return i, closeIdx, true
		}
		i = closeIdx
	}
	return 0, 0, false
}

// splitTopLevelCommas splits body on commas that are not nested inside an
// inner {...}, returning ok=false if there is no top-level comma at all.
func splitTopLevelCommas(body string) ([]string, bool) {
	depth := 0
	start := 0
	var parts []string
	found := false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
				found = true
			}
		}
	}
	if !found {
		return nil, false
	}
	parts = append(parts, body[start:])
	return parts, true
}

// parseRange parses body as a numeric (e.g. "1..5", "09..12") or single
// character (e.g. "a..e") range, auto-detecting the step direction and
// zero-padding numeric ranges to the widest operand.
func parseRange(body string) ([]string, bool) {
	idx := strings.Index(body, "..")
	if idx < 0 {
		return nil, false
	}
	lo, hi := body[:idx], body[idx+2:]
	if lo == "" || hi == "" {
		return nil, false
	}

	if n1, err1 := strconv.Atoi(lo); err1 == nil {
		if n2, err2 := strconv.Atoi(hi); err2 == nil {
			width := len(lo)
			if len(hi) > width {
				width = len(hi)
			}
			var out []string
			if n1 <= n2 {
				for n := n1; n <= n2; n++ {
					out = append(out, padNum(n, width))
				}
			} else {
				for n := n1; n >= n2; n-- {
					out = append(out, padNum(n, width))
				}
			}
			return out, true
		}
	}

	if len(lo) == 1 && len(hi) == 1 {
		c1, c2 := rune(lo[0]), rune(hi[0])
		var out []string
		if c1 <= c2 {
			for c := c1; c <= c2; c++ {
				out = append(out, string(c))
			}
		} else {
			for c := c1; c >= c2; c-- {
				out = append(out, string(c))
			}
		}
		return out, true
	}
	return nil, false
}

func padNum(n, width int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s
}
