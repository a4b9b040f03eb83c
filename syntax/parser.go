// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"fmt"
	"strings"
)

// AliasLookup resolves a first-word alias name to its raw replacement text.
type AliasLookup func(name string) (string, bool)

// ParserOptions mirrors the disableable grammar productions of the feature
// flag bitset (spec §3, §4.2 "Disableable productions"). Each disabled
// production collapses to its left/first form instead of erroring.
type ParserOptions struct {
	DisablePipes       bool
	DisableSequences   bool
	DisableSubshells   bool
	DisableAssignments bool
	DisableAliases     bool
}

// Parser is a recursive-descent consumer of the Lexer's token stream. It
// does not throw on syntax errors: it records one and returns whatever
// partial tree it managed to build, per spec §4.2 Failure.
type Parser struct {
	lex     *Lexer
	opts    ParserOptions
	aliases AliasLookup

	tok Token

	err          error
	lineHeredocs []*Redirect
}

// NewParser creates a Parser reading from src. subst is forwarded to the
// Lexer for `$(...)`. aliases may be nil to disable first-word alias
// expansion entirely.
func NewParser(src []byte, subst CmdSubstituter, aliases AliasLookup, opts ParserOptions) *Parser {
	p := &Parser{lex: NewLexer(src, subst), aliases: aliases, opts: opts}
	p.advance()
	return p
}

// Err returns the first syntax error encountered, if any.
func (p *Parser) Err() error { return p.err }

func (p *Parser) advance() { p.tok = p.lex.NextToken() }

func (p *Parser) errorf(format string, args ...any) {
	if p.err == nil {
		p.err = &SyntaxError{Pos: p.tok.Pos, Msg: fmt.Sprintf(format, args...)}
	}
}

// SyntaxError is raised for unmatched parens, a missing redirection target,
// or EOF inside a subshell. A single diagnostic is produced per error.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("syntax error: %s", e.Msg) }

// skipSeparators consumes any run of EOL/SEMICOLON tokens, used between
// top-level statements.
func (p *Parser) skipSeparators() {
	for p.tok.Kind == EOL || p.tok.Kind == SEMICOLON {
		if p.tok.Kind == EOL {
			// The lexer's cursor sits right after the newline: exactly
			// where any queued heredoc bodies begin.
			p.FillHeredocBodies()
		}
		p.advance()
	}
}

// Parse consumes the whole input and returns the resulting AST, plus any
// syntax error recorded along the way (the AST returned may still be a
// usable partial tree; see spec §4.2 Failure).
func (p *Parser) Parse() (CommandNode, error) {
	p.skipSeparators()
	if p.tok.Kind == EOF {
		return nil, p.err
	}
	root := p.parseSequence()
	return root, p.err
}

func (p *Parser) parseSequence() CommandNode {
	left := p.parseAndOr()
	for {
		switch p.tok.Kind {
		case SEMICOLON:
			p.advance()
			p.skipSeparators()
			if p.tok.Kind == EOF || p.tok.Kind == RPAREN {
				return left
			}
			if p.opts.DisableSequences {
				left = p.parseAndOr()
				continue
			}
			right := p.parseAndOr()
			left = &Sequence{Left: left, Right: right}
		case BACKGROUND:
			p.advance()
			SetBackground(left, true)
			p.skipSeparators()
			if p.tok.Kind == EOF || p.tok.Kind == RPAREN {
				return left
			}
			if p.opts.DisableSequences {
				left = p.parseAndOr()
				continue
			}
			right := p.parseAndOr()
			left = &Sequence{Left: left, Right: right}
		case EOL:
			p.skipSeparators()
			if p.tok.Kind == EOF || p.tok.Kind == RPAREN {
				return left
			}
			if p.opts.DisableSequences {
				left = p.parseAndOr()
				continue
			}
			right := p.parseAndOr()
			left = &Sequence{Left: left, Right: right}
		default:
			return left
		}
	}
}

func (p *Parser) parseAndOr() CommandNode {
	left := p.parsePipeline()
	for p.tok.Kind == AND || p.tok.Kind == OR {
		op := AndOp
		if p.tok.Kind == OR {
			op = OrOp
		}
		p.advance()
		p.skipSeparators()
		right := p.parsePipeline()
		left = &BinaryCmd{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parsePipeline() CommandNode {
	left := p.parseCommandNode()
	if p.tok.Kind == PIPE {
		p.advance()
		p.skipSeparators()
		if p.opts.DisablePipes {
			return left
		}
		right := p.parsePipeline()
		return &Pipe{Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseCommandNode() CommandNode {
	if p.tok.Kind == LPAREN {
		pos := p.tok.Pos
		p.advance()
		p.skipSeparators()
		if p.opts.DisableSubshells {
			body := p.parseSequence()
			p.expectRParen()
			return body
		}
		body := p.parseSequence()
		p.expectRParen()
		return &Subshell{Body: body, position: pos}
	}
	return p.parseCommand()
}

func (p *Parser) expectRParen() {
	p.skipSeparators()
	if p.tok.Kind != RPAREN {
		p.errorf("expected ')', found %s", p.tok.Kind)
		return
	}
	p.advance()
}

// parseCommand parses a simple command: a run of assignments, words,
// process substitutions, and redirections.
func (p *Parser) parseCommand() CommandNode {
	cmd := NewCommand(p.tok.Pos)
	firstWordSeen := false

loop:
	for {
		switch p.tok.Kind {
		case ASSIGNMENT:
			if !firstWordSeen && !p.opts.DisableAssignments {
				cmd.Assignments = append(cmd.Assignments, Assignment{Name: p.tok.Value, Value: p.tok.Extra})
			} else {
				// After the first word, A=B is a plain argv entry with no
				// diagnostic — assignment-position ambiguity preserved as
				// specified (SPEC_FULL.md §9.2).
				p.appendArg(cmd, p.tok.Value+"="+p.tok.Extra, 0, "")
				firstWordSeen = true
			}
			p.advance()
		case WORD:
			val := p.tok.Value
			p.advance()
			if !firstWordSeen {
				firstWordSeen = true
				if p.expandAlias(cmd, val) {
					continue
				}
			}
			p.appendArg(cmd, val, 0, "")
		case IO_NUMBER:
			fd := atoiSafe(p.tok.Value)
			p.advance()
			p.parseRedirect(cmd, fd, true)
		case REDIRECT_IN, REDIRECT_OUT, REDIRECT_APPEND, REDIRECT_OUT_ERR,
			FD_DUP, HEREDOC, HERESTRING:
			p.parseRedirect(cmd, -1, false)
		case PROCESS_SUB_IN:
			firstWordSeen = true
			p.appendArg(cmd, "", 1, p.tok.Extra)
			p.advance()
		case PROCESS_SUB_OUT:
			firstWordSeen = true
			p.appendArg(cmd, "", 2, p.tok.Extra)
			p.advance()
		default:
			break loop
		}
	}

	if len(cmd.Argv) == 0 && len(cmd.Assignments) == 0 && len(cmd.Redirects) == 0 {
		return cmd
	}
	return cmd
}

func (p *Parser) appendArg(cmd *Command, val string, sub int, subText string) {
	cmd.Argv = append(cmd.Argv, val)
	cmd.ArgIsSub = append(cmd.ArgIsSub, sub)
	cmd.ArgSubText = append(cmd.ArgSubText, subText)
}

// expandAlias resolves name against the alias table on the *first* WORD of
// a command only. The alias body is re-lexed in a single pass; the result's
// first word is not itself re-checked against aliases, so a cyclic alias
// (`alias x=x`) expands exactly once (Open Question, SPEC_FULL.md §9.2).
func (p *Parser) expandAlias(cmd *Command, name string) bool {
	if p.opts.DisableAliases || p.aliases == nil {
		return false
	}
	body, ok := p.aliases(name)
	if !ok {
		return false
	}
	sub := NewLexer([]byte(body), p.lex.subst)
	any := false
	for {
		t := sub.NextToken()
		if t.Kind == EOF || t.Kind == EOL {
			break
		}
		if t.Kind == WORD || t.Kind == ASSIGNMENT {
			val := t.Value
			if t.Kind == ASSIGNMENT {
				val = t.Value + "=" + t.Extra
			}
			p.appendArg(cmd, val, 0, "")
			any = true
		}
	}
	return any
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// parseRedirect parses one redirection operator and its target, prepending
// it onto cmd.Redirects (so that iterating the list in order applies
// redirections in the reverse of source order, a documented property; see
// spec §4.4 "Redirection application order").
func (p *Parser) parseRedirect(cmd *Command, fd int, hadIONumber bool) {
	kind := p.tok.Kind
	val := p.tok.Value
	extra := p.tok.Extra
	pos := p.tok.Pos
	p.advance()

	if !hadIONumber {
		if kind.IsInputRedirect() {
			fd = 0
		} else {
			fd = 1
		}
	}

	switch kind {
	case FD_DUP, REDIRECT_OUT_ERR:
		r := NewRedirect(pos, fd, kind, val)
		cmd.Redirects = append([]*Redirect{r}, cmd.Redirects...)
		return
	case HEREDOC:
		r := NewRedirect(pos, fd, kind, "")
		r.Target = val // temporarily holds the marker; resolved by FillHeredocBodies
		cmd.Redirects = append([]*Redirect{r}, cmd.Redirects...)
		p.lineHeredocs = append(p.lineHeredocs, r)
		_ = extra
		return
	case HERESTRING:
		r := NewRedirect(pos, fd, kind, val)
		cmd.Redirects = append([]*Redirect{r}, cmd.Redirects...)
		return
	case PROCESS_SUB_IN, PROCESS_SUB_OUT:
		r := NewRedirect(pos, fd, kind, extra)
		r.IsProcessSub = true
		cmd.Redirects = append([]*Redirect{r}, cmd.Redirects...)
		return
	}

	// REDIRECT_IN / REDIRECT_OUT / REDIRECT_APPEND: a plain WORD target.
	if p.tok.Kind != WORD {
		p.errorf("expected filename after redirection operator, found %s", p.tok.Kind)
		r := NewRedirect(pos, fd, kind, "")
		cmd.Redirects = append([]*Redirect{r}, cmd.Redirects...)
		return
	}
	target := p.tok.Value
	p.advance()
	r := NewRedirect(pos, fd, kind, target)
	cmd.Redirects = append([]*Redirect{r}, cmd.Redirects...)
}

// FillHeredocBodies drains the lexer's queued heredoc bodies (available once
// the line's terminating EOL has been consumed) and assigns them onto the
// Redirect nodes created for that line.
func (p *Parser) FillHeredocBodies() {
	if len(p.lineHeredocs) == 0 {
		return
	}
	bodies := p.lex.DrainHeredocs()
	for i, r := range p.lineHeredocs {
		if i < len(bodies) {
			r.Target = bodies[i]
		}
	}
	p.lineHeredocs = p.lineHeredocs[:0]
}

// ParseLine is a convenience used by the entry loop: it parses a single
// already-complete logical line (heredoc bodies included) and reports
// whether more input is required (the lex stream did not end in EOL before
// EOF, signalling an unclosed construct — spec §4.6).
func ParseLine(src []byte, subst CmdSubstituter, aliases AliasLookup, opts ParserOptions) (CommandNode, bool, error) {
	p := NewParser(src, subst, aliases, opts)
	node, err := p.Parse()
	incomplete := !strings.HasSuffix(string(src), "\n") && err == nil && node != nil
	return node, incomplete, err
}
