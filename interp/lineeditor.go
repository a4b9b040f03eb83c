// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bufio"
	"context"
	"errors"
	"io"
)

// ErrEOF is returned by a LineEditor when the input stream is exhausted,
// distinguishing a clean EOF from a read error (spec §7 "Read EOF on
// stdin").
var ErrEOF = errors.New("interp: EOF on input")

// LineEditor is the narrow contract the entry loop (spec §4.6) needs from
// the line-editing/prompt-rendering layer, which is an external
// collaborator out of scope for the core (spec §1): raw-mode TTY handling,
// ANSI rendering, autosuggestions, and tab completion all live behind this
// one method.
type LineEditor interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// BasicLineEditor is the trivial default LineEditor: it prints the prompt
// to w and reads one newline-delimited line from r. It has none of the
// richer line-editing behavior named above; a real terminal frontend
// substitutes its own implementation without the core needing to change.
type BasicLineEditor struct {
	r *bufio.Reader
	w io.Writer
}

// NewBasicLineEditor creates a LineEditor reading from r and writing
// prompts to w.
func NewBasicLineEditor(r io.Reader, w io.Writer) *BasicLineEditor {
	return &BasicLineEditor{r: bufio.NewReader(r), w: w}
}

func (b *BasicLineEditor) ReadLine(ctx context.Context, prompt string) (string, error) {
	if prompt != "" {
		io.WriteString(b.w, prompt)
	}
	line, err := b.r.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line != "" {
				return line, nil
			}
			return "", ErrEOF
		}
		return "", err
	}
	return line, nil
}
