// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Variables applies variable expansion (spec §4.3) to a single raw word,
// returning the resulting fields. Word-splitting forms ($=NAME, ${=NAME})
// are the only construct that changes the cardinality of the result: they
// flush the buffered segment, turn each split piece into its own field, and
// resume buffering afterwards.
//
// A false second return means a ${NAME:?msg} aborted this word entirely: the
// caller must drop the argv entry, per spec §7.
func Variables(s string, env Environ, stderr io.Writer) ([]string, bool) {
	v := &varExpander{src: s, env: env, stderr: stderr}
	return v.run()
}

type varExpander struct {
	src    string
	pos    int
	env    Environ
	stderr io.Writer

	fields []string
	buf    strings.Builder
}

func (v *varExpander) flush() {
	v.fields = append(v.fields, v.buf.String())
	v.buf.Reset()
}

func (v *varExpander) run() ([]string, bool) {
	for v.pos < len(v.src) {
		b := v.src[v.pos]
		switch {
		case b == '\\' && v.pos+1 < len(v.src) && v.src[v.pos+1] == '$':
			v.buf.WriteByte('$')
			v.pos += 2
		case b == '$':
			if !v.expandDollar() {
				return nil, false
			}
		default:
			v.buf.WriteByte(b)
			v.pos++
		}
	}
	v.flush()
	// Drop the trailing empty field produced when the word had no content
	// at all after a word-split, but keep a single empty field for a word
	// that was always empty.
	if len(v.fields) > 1 && v.fields[len(v.fields)-1] == "" {
		v.fields = v.fields[:len(v.fields)-1]
	}
	return v.fields, true
}

// expandDollar handles one `$...` construct starting at v.pos (which points
// at the '$'). Returns false to signal a ${NAME:?msg} abort.
func (v *varExpander) expandDollar() bool {
	rest := v.src[v.pos+1:]

	if strings.HasPrefix(rest, "=") && len(rest) > 1 && isNameStart(rune(rest[1])) {
		// $=NAME : word-split form without braces.
		name, n := readName(rest[1:])
		v.pos += 2 + n
		v.splitWord(v.lookup(name))
		return true
	}

	if strings.HasPrefix(rest, "{") {
		return v.expandBraced(rest)
	}

	if len(rest) == 0 {
		v.buf.WriteByte('$')
		v.pos++
		return true
	}

	name, n := readName(rest)
	if n == 0 {
		// Not a valid name start; '$' is literal.
		v.buf.WriteByte('$')
		v.pos++
		return true
	}
	v.pos += 1 + n
	v.buf.WriteString(v.lookup(name))
	return true
}

// expandBraced handles `${...}` forms; rest starts with "{".
func (v *varExpander) expandBraced(rest string) bool {
	end := strings.IndexByte(rest, '}')
	if end < 0 {
		// Unmatched ${ is emitted literally, per spec §4.3.
		v.buf.WriteString("$")
		v.pos++
		return true
	}
	inner := rest[1:end]
	v.pos += 1 + end + 1 // '$' + '{' + inner + '}'

	split := false
	if strings.HasPrefix(inner, "=") {
		split = true
		inner = inner[1:]
	}
	if strings.HasPrefix(inner, "#") {
		name := inner[1:]
		val := v.lookup(name)
		v.buf.WriteString(strconv.Itoa(len(val)))
		return true
	}

	name, op, arg := splitParamOp(inner)
	vr := v.env.Get(name)

	switch op {
	case "":
		result := vr.Str
		if split {
			v.splitWord(result)
		} else {
			v.buf.WriteString(result)
		}
		return true
	case ":-":
		if !vr.Set || vr.Str == "" {
			if split {
				v.splitWord(arg)
			} else {
				v.buf.WriteString(arg)
			}
			return true
		}
		v.buf.WriteString(vr.Str)
		return true
	case ":=":
		if !vr.Set || vr.Str == "" {
			if we, ok := v.env.(WriteEnviron); ok {
				_ = we.Set(name, Variable{Set: true, Exported: vr.Exported, Str: arg})
			}
			if split {
				v.splitWord(arg)
			} else {
				v.buf.WriteString(arg)
			}
			return true
		}
		v.buf.WriteString(vr.Str)
		return true
	case ":+":
		if vr.Set && vr.Str != "" {
			if split {
				v.splitWord(arg)
			} else {
				v.buf.WriteString(arg)
			}
		}
		return true
	case ":?":
		if !vr.Set || vr.Str == "" {
			msg := arg
			if msg == "" {
				msg = "parameter null or not set"
			}
			if v.stderr != nil {
				fmt.Fprintf(v.stderr, "%s: %s\n", name, msg)
			}
			return false
		}
		v.buf.WriteString(vr.Str)
		return true
	}
	return true
}

// splitWord applies IFS-style word splitting to s, gluing the first piece
// onto whatever literal text is already buffered (so "pre-${=LIST}" with
// LIST="a b c" yields "pre-a", "b", "c", not a spurious standalone "pre-"
// field) and leaving the last piece in the buffer to accumulate whatever
// text follows in the source word. A single-piece result causes no split
// at all.
func (v *varExpander) splitWord(s string) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return
	}
	if len(parts) == 1 {
		v.buf.WriteString(parts[0])
		return
	}
	v.buf.WriteString(parts[0])
	v.flush()
	v.fields = append(v.fields, parts[1:len(parts)-1]...)
	v.buf.WriteString(parts[len(parts)-1])
}

func (v *varExpander) lookup(name string) string {
	return v.env.Get(name).Str
}

// splitParamOp splits inner (the text inside ${...}) into name, operator,
// and argument, recognizing :-, :=, :+, and :?.
func splitParamOp(inner string) (name, op, arg string) {
	for _, candidate := range []string{":-", ":=", ":+", ":?"} {
		if i := strings.Index(inner, candidate); i >= 0 {
			return inner[:i], candidate, inner[i+2:]
		}
	}
	return inner, "", ""
}

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		r == '?' || r == '!' || r == '$' || (r >= '0' && r <= '9')
}

// readName reads a NAME per spec §4.3: [A-Za-z_][A-Za-z0-9_]*, a single
// digit, or one of ? ! $ _. Returns the name and the number of bytes
// consumed from s.
func readName(s string) (string, int) {
	if s == "" {
		return "", 0
	}
	switch s[0] {
	case '?', '!', '$', '_':
		// '_' also starts a normal identifier; prefer the longer match.
		if s[0] != '_' {
			return s[:1], 1
		}
	}
	if s[0] >= '0' && s[0] <= '9' {
		return s[:1], 1
	}
	if !(s[0] == '_' || (s[0] >= 'a' && s[0] <= 'z') || (s[0] >= 'A' && s[0] <= 'Z')) {
		return "", 0
	}
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			i++
			continue
		}
		break
	}
	return s[:i], i
}
