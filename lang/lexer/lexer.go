// Package lexer turns dapper source text into a flat token stream, folding
// indentation into synthetic BEGIN_BLOCK/END_BLOCK/NEWLINE tokens.
//
// The character-level scanning (advance/peek, one-rune lookahead, a switch
// on the current rune) follows the style of a conventional hand-written
// scanner; the indentation bookkeeping on top of it is the one part of this
// package that is not a conventional scanner.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mna/dpr/lang/token"
)

// Tok pairs a token kind with its decoded literal value and source line.
type Tok struct {
	Kind  token.Token
	Lit   string // identifier name, or decoded string contents
	Int   int64
	Float float64
	Line  int
}

func (t Tok) String() string {
	if t.Lit != "" {
		return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Lit, t.Line)
	}
	return fmt.Sprintf("%s@%d", t.Kind, t.Line)
}

// Error is a single lexical error, tagged with the line on which it
// occurred.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%d: %s", e.Line, e.Msg) }

// ErrorList collects every lexical error found in one pass; a driver that
// wants to recover and keep scanning after an error can do so (the lexer
// itself never stops early on non-fatal lexical errors), and report every
// error at the end.
type ErrorList []*Error

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (and %d more errors)", el[0], len(el)-1)
	return sb.String()
}

// Err returns nil if el is empty, else el itself.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

const tabWidth = 4

// Lexer tokenizes dapper source text held entirely in memory.
type Lexer struct {
	src []byte
	cur rune
	off int
	roff int

	line int
	errs ErrorList

	indents     []int
	atLineStart bool
	lastKind    token.Token
	eofEmitted  bool
	pending     []Tok

	sb strings.Builder
}

// New creates a Lexer over src, ready to produce tokens via Next.
func New(src []byte) *Lexer {
	l := &Lexer{
		src:         src,
		line:        1,
		indents:     []int{0},
		atLineStart: true,
	}
	l.advance()
	return l
}

// All scans src to completion and returns every token (always ending with a
// single EOF token) along with the accumulated lexical errors, if any.
func All(src []byte) ([]Tok, error) {
	l := New(src)
	var toks []Tok
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return toks, l.errs.Err()
}

func (l *Lexer) error(msg string) {
	l.errs = append(l.errs, &Error{Line: l.line, Msg: msg})
}

func (l *Lexer) errorf(format string, args ...any) {
	l.error(fmt.Sprintf(format, args...))
}

// advance reads the next rune into l.cur; l.cur == -1 means end of input.
func (l *Lexer) advance() {
	if l.roff >= len(l.src) {
		l.off = len(l.src)
		l.cur = -1
		return
	}
	l.off = l.roff
	r, w := rune(l.src[l.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(l.src[l.roff:])
		if r == utf8.RuneError && w == 1 {
			l.error("illegal UTF-8 encoding")
		}
	}
	l.roff += w
	l.cur = r
}

// peek returns the byte following the current rune without advancing.
func (l *Lexer) peek() byte {
	if l.roff < len(l.src) {
		return l.src[l.roff]
	}
	return 0
}

func (l *Lexer) advanceIf(matches ...rune) bool {
	for _, m := range matches {
		if l.cur == m {
			l.advance()
			return true
		}
	}
	return false
}

func (l *Lexer) newLine() {
	l.line++
}

// Next returns the next token, including any synthesized BEGIN_BLOCK,
// END_BLOCK, or NEWLINE tokens.
func (l *Lexer) Next() Tok {
	if len(l.pending) > 0 {
		t := l.pending[0]
		l.pending = l.pending[1:]
		l.lastKind = t.Kind
		return t
	}

	for {
		if l.eofEmitted {
			return Tok{Kind: token.EOF, Line: l.line}
		}

		if l.atLineStart {
			if done, t := l.startLine(); done {
				l.lastKind = t.Kind
				return t
			}
		}

		l.skipInline()

		switch {
		case l.cur == -1:
			return l.emit(l.atEOF())
		case l.cur == '\n':
			return l.emit(l.consumeNewline())
		case l.cur == '/' && l.peek() == '/':
			l.consumeLineComment()
			continue
		case l.cur == '/' && l.peek() == '*':
			l.consumeBlockComment()
			continue
		default:
			return l.emit(l.scanToken())
		}
	}
}

func (l *Lexer) emit(t Tok) Tok {
	l.lastKind = t.Kind
	return t
}

// startLine measures the leading indentation of a logical line and queues
// any BEGIN_BLOCK/END_BLOCK/NEWLINE tokens the indentation change implies.
// Comments encountered while measuring are treated as whitespace (consumed
// in place, without affecting the width) so that e.g. a block comment
// preceding code on the same line does not corrupt the indentation count.
// It returns (true, tok) when a virtual token must be produced right away;
// otherwise it returns (false, Tok{}) once positioned at the first token of
// the line (or at a blank line's '\n'/EOF).
func (l *Lexer) startLine() (bool, Tok) {
	w := 0
	for {
		switch {
		case l.cur == ' ':
			w++
			l.advance()
			continue
		case l.cur == '\t':
			w += tabWidth
			l.advance()
			continue
		case l.cur == '/' && l.peek() == '/':
			// rest of the line is a comment: this is a blank line.
			l.consumeLineComment()
			continue
		case l.cur == '/' && l.peek() == '*':
			l.consumeBlockComment()
			continue
		}
		break
	}

	// A line containing only whitespace and/or comments, or nothing at all
	// (immediate '\n' or EOF), is blank: it contributes no tokens and its
	// indentation is irrelevant.
	if l.cur == '\n' || l.cur == -1 {
		return false, Tok{}
	}

	l.atLineStart = false
	top := l.indents[len(l.indents)-1]
	switch {
	case w == top:
		// no virtual token
	case w > top:
		l.indents = append(l.indents, w)
		l.pending = append(l.pending, Tok{Kind: token.BEGIN_BLOCK, Line: l.line})
	default:
		for w < l.indents[len(l.indents)-1] {
			l.indents = l.indents[:len(l.indents)-1]
			l.pending = append(l.pending,
				Tok{Kind: token.END_BLOCK, Line: l.line},
				Tok{Kind: token.NEWLINE, Line: l.line},
			)
		}
		if w > l.indents[len(l.indents)-1] {
			l.error("wrong indent")
		}
	}
	if len(l.pending) > 0 {
		t := l.pending[0]
		l.pending = l.pending[1:]
		return true, t
	}
	return false, Tok{}
}

// atEOF unwinds any still-open blocks before producing the final EOF token.
func (l *Lexer) atEOF() Tok {
	if len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending,
			Tok{Kind: token.END_BLOCK, Line: l.line},
			Tok{Kind: token.NEWLINE, Line: l.line},
		)
		t := l.pending[0]
		l.pending = l.pending[1:]
		return t
	}
	l.eofEmitted = true
	return Tok{Kind: token.EOF, Line: l.line}
}

func (l *Lexer) consumeNewline() Tok {
	line := l.line
	l.advance()
	l.newLine()
	l.atLineStart = true
	if l.lastKind == token.NEWLINE {
		// collapse consecutive newlines into the indentation check on the next
		// iteration; the caller's loop continues until a real token (or EOF)
		// is produced.
		return l.Next()
	}
	return Tok{Kind: token.NEWLINE, Line: line}
}

// skipInline consumes spaces and tabs but stops at '\n'.
func (l *Lexer) skipInline() {
	for l.cur == ' ' || l.cur == '\t' || l.cur == '\r' {
		l.advance()
	}
}

func (l *Lexer) consumeLineComment() {
	for l.cur != '\n' && l.cur != -1 {
		l.advance()
	}
}

func (l *Lexer) consumeBlockComment() {
	l.advance() // '/'
	l.advance() // '*'
	for {
		if l.cur == -1 {
			l.error("comment not terminated")
			return
		}
		if l.cur == '*' && l.peek() == '/' {
			l.advance()
			l.advance()
			return
		}
		if l.cur == '\n' {
			l.newLine()
		}
		l.advance()
	}
}

func (l *Lexer) scanToken() Tok {
	line := l.line
	switch cur := l.cur; {
	case isLetter(cur):
		lit := l.ident()
		kind := token.Lookup(lit)
		return Tok{Kind: kind, Lit: lit, Line: line}

	case isDigit(cur) || (cur == '.' && isDigit(rune(l.peek()))):
		return l.number(line)

	case cur == '"':
		return l.string(line)

	default:
		l.advance()
		switch cur {
		case '+':
			return Tok{Kind: token.PLUS, Line: line}
		case '-':
			return Tok{Kind: token.MINUS, Line: line}
		case '*':
			return Tok{Kind: token.STAR, Line: line}
		case '/':
			return Tok{Kind: token.SLASH, Line: line}
		case '%':
			return Tok{Kind: token.PERCENT, Line: line}
		case '~':
			return Tok{Kind: token.TILDE, Line: line}
		case '.':
			return Tok{Kind: token.DOT, Line: line}
		case ',':
			return Tok{Kind: token.COMMA, Line: line}
		case ';':
			return Tok{Kind: token.SEMI, Line: line}
		case ':':
			return Tok{Kind: token.COLON, Line: line}
		case '(':
			return Tok{Kind: token.LPAREN, Line: line}
		case ')':
			return Tok{Kind: token.RPAREN, Line: line}
		case '[':
			return Tok{Kind: token.LBRACK, Line: line}
		case ']':
			return Tok{Kind: token.RBRACK, Line: line}
		case '&':
			if l.advanceIf('&') {
				return Tok{Kind: token.ANDAND, Line: line}
			}
			return Tok{Kind: token.AMPERSAND, Line: line}
		case '|':
			if l.advanceIf('|') {
				return Tok{Kind: token.OROR, Line: line}
			}
			return Tok{Kind: token.PIPE, Line: line}
		case '^':
			return Tok{Kind: token.CIRCUMFLEX, Line: line}
		case '=':
			if l.advanceIf('=') {
				return Tok{Kind: token.EQL, Line: line}
			}
			return Tok{Kind: token.EQ, Line: line}
		case '!':
			if l.advanceIf('=') {
				return Tok{Kind: token.NEQ, Line: line}
			}
			return Tok{Kind: token.BANG, Line: line}
		case '<':
			if l.advanceIf('<') {
				return Tok{Kind: token.LTLT, Line: line}
			}
			if l.advanceIf('=') {
				return Tok{Kind: token.LE, Line: line}
			}
			return Tok{Kind: token.LT, Line: line}
		case '>':
			if l.advanceIf('>') {
				return Tok{Kind: token.GTGT, Line: line}
			}
			if l.advanceIf('=') {
				return Tok{Kind: token.GE, Line: line}
			}
			return Tok{Kind: token.GT, Line: line}
		default:
			l.errorf("illegal character %#U", cur)
			return Tok{Kind: token.ILLEGAL, Lit: string(cur), Line: line}
		}
	}
}

func (l *Lexer) ident() string {
	start := l.off
	for isLetter(l.cur) || isDigit(l.cur) {
		l.advance()
	}
	return string(l.src[start:l.off])
}

func (l *Lexer) number(line int) Tok {
	start := l.off
	isFloat := false
	for isDigit(l.cur) {
		l.advance()
	}
	if l.cur == '.' {
		isFloat = true
		l.advance()
		for isDigit(l.cur) {
			l.advance()
		}
	}
	lit := string(l.src[start:l.off])
	if isDigit(l.cur) || l.cur == '.' {
		// a second '.' or a digit run directly abutting one we've already
		// consumed means the literal is malformed (e.g. "1.2.3").
		l.error("malformed number literal")
	}
	if !isFloat {
		v, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			l.errorf("malformed number literal %q", lit)
		}
		return Tok{Kind: token.INT, Lit: lit, Int: v, Line: line}
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		l.errorf("malformed number literal %q", lit)
	}
	return Tok{Kind: token.FLOAT, Lit: lit, Float: v, Line: line}
}

func (l *Lexer) string(line int) Tok {
	l.advance() // opening '"'
	l.sb.Reset()
	for {
		if l.cur == '\n' || l.cur == -1 {
			l.error("string literal not terminated")
			break
		}
		if l.cur == '"' {
			l.advance()
			break
		}
		if l.cur == '\\' {
			l.advance()
			l.escape()
			continue
		}
		l.sb.WriteRune(l.cur)
		l.advance()
	}
	return Tok{Kind: token.STRING, Lit: l.sb.String(), Line: line}
}

// escape decodes one escape sequence; the leading backslash has already
// been consumed. Unknown escapes are their own lexical error category,
// distinct from an unterminated string.
func (l *Lexer) escape() {
	switch l.cur {
	case 'n':
		l.sb.WriteByte('\n')
	case 'r':
		l.sb.WriteByte('\r')
	case 't':
		l.sb.WriteByte('\t')
	case '\\':
		l.sb.WriteByte('\\')
	case '\'':
		l.sb.WriteByte('\'')
	case '"':
		l.sb.WriteByte('"')
	case -1, '\n':
		l.error("string literal not terminated")
		return
	default:
		l.errorf("unknown escape sequence '\\%c'", l.cur)
		l.sb.WriteRune(l.cur)
	}
	l.advance()
}

func isLetter(rn rune) bool {
	return 'a' <= rn && rn <= 'z' ||
		'A' <= rn && rn <= 'Z' ||
		rn == '_' ||
		rn >= utf8.RuneSelf && unicode.IsLetter(rn)
}

func isDigit(rn rune) bool {
	return '0' <= rn && rn <= '9'
}
