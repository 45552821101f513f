// Package compiler implements the single-pass Pratt-style compiler: it
// consumes the lexer's token stream and emits bytecode directly into
// per-function chunks, with no separate AST or resolver phase.
package compiler

import (
	"fmt"

	"github.com/mna/dpr/lang/lexer"
	"github.com/mna/dpr/lang/token"
	"github.com/mna/dpr/lang/value"
)

// precedence levels, lowest to highest.
type precedence int

const (
	precNone precedence = iota
	precAssign
	precOr
	precAnd
	precLogicOr
	precLogicXor
	precLogicAnd
	precEq
	precCmp
	precShift
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type (
	prefixFn func(c *compiler, canAssign bool)
	infixFn  func(c *compiler, canAssign bool)
)

type rule struct {
	prefix prefixFn
	infix  infixFn
	prec   precedence
}

var rules map[token.Token]rule

func init() {
	rules = map[token.Token]rule{
		token.LPAREN:    {prefix: (*compiler).grouping, infix: (*compiler).call, prec: precCall},
		token.LBRACK:    {prefix: (*compiler).list, infix: (*compiler).index, prec: precCall},
		token.MINUS:     {prefix: (*compiler).unary, infix: (*compiler).binary, prec: precTerm},
		token.PLUS:      {infix: (*compiler).binary, prec: precTerm},
		token.SLASH:     {infix: (*compiler).binary, prec: precFactor},
		token.STAR:      {infix: (*compiler).binary, prec: precFactor},
		token.PERCENT:   {infix: (*compiler).binary, prec: precFactor},
		token.BANG:      {prefix: (*compiler).unary},
		token.TILDE:     {prefix: (*compiler).unary},
		token.NOT:       {prefix: (*compiler).unary},
		token.NEQ:       {infix: (*compiler).binary, prec: precEq},
		token.EQL:       {infix: (*compiler).binary, prec: precEq},
		token.LT:        {infix: (*compiler).binary, prec: precCmp},
		token.GT:        {infix: (*compiler).binary, prec: precCmp},
		token.LE:        {infix: (*compiler).binary, prec: precCmp},
		token.GE:        {infix: (*compiler).binary, prec: precCmp},
		token.LTLT:      {infix: (*compiler).binary, prec: precShift},
		token.GTGT:      {infix: (*compiler).binary, prec: precShift},
		token.AMPERSAND: {infix: (*compiler).binary, prec: precLogicAnd},
		token.PIPE:      {infix: (*compiler).binary, prec: precLogicOr},
		token.CIRCUMFLEX: {infix: (*compiler).binary, prec: precLogicXor},
		token.ANDAND:    {infix: (*compiler).binary, prec: precAnd},
		token.OROR:      {infix: (*compiler).binary, prec: precOr},
		token.AND:       {infix: (*compiler).binary, prec: precAnd},
		token.OR:        {infix: (*compiler).binary, prec: precOr},
		token.IDENT:     {prefix: (*compiler).ident},
		token.INT:       {prefix: (*compiler).literal},
		token.FLOAT:     {prefix: (*compiler).literal},
		token.STRING:    {prefix: (*compiler).literal},
		token.NIL:       {prefix: (*compiler).literal},
		token.TRUE:      {prefix: (*compiler).literal},
		token.FALSE:     {prefix: (*compiler).literal},
	}
}

func getRule(t token.Token) rule { return rules[t] }

// Local is one entry in a function's compile-time scope: a name, the block
// depth it was declared at, and whether its initializer has finished
// running. defineVariable appends a local only after its initializer has
// been compiled, so a name used inside its own initializer resolves to an
// outer local or a global.
type Local struct {
	Name        string
	Depth       int
	Initialized bool
}

// environment is the compile-time scope of one function being compiled:
// its enclosing environment (nil at the top level), the function-table
// index it is filling in, the current block depth, and its locals in
// declaration order.
type environment struct {
	enclosing *environment
	funcID    int
	depth     int
	locals    []Local
}

// compiler holds all state for one compile call: the token cursor, the
// program being built, and the chain of environments for nested function
// bodies.
type compiler struct {
	toks []lexer.Tok
	pos  int

	prog *value.Program
	env  *environment

	errs    ErrorList
	panic   bool
	strPool map[string]int // interned constant-pool index of string values
}

// Error is a single compile-time diagnostic tagged with its source line.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%d: %s", e.Line, e.Msg) }

// ErrorList accumulates Errors across a whole compile, mirroring
// go/scanner.ErrorList: synchronize-and-continue lets a single source
// report more than one diagnostic.
type ErrorList []*Error

func (el *ErrorList) Add(line int, format string, args ...any) {
	*el = append(*el, &Error{Line: line, Msg: fmt.Sprintf(format, args...)})
}

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0], len(el)-1)
}

// Err returns nil if el is empty, else el itself as an error.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Compile lexes and compiles src into a frozen Program, or returns an
// ErrorList of every diagnostic collected along the way.
func Compile(src []byte) (*value.Program, error) {
	toks, err := lexer.All(src)
	if err != nil {
		if el, ok := err.(lexer.ErrorList); ok {
			var out ErrorList
			for _, e := range el {
				out.Add(e.Line, "%s", e.Msg)
			}
			return nil, out.Err()
		}
		return nil, err
	}

	c := &compiler{
		toks:    toks,
		prog:    &value.Program{},
		strPool: map[string]int{},
	}
	mainID := c.prog.Functions.New("$main", 0)
	c.env = &environment{funcID: mainID}

	for !c.check(token.EOF) {
		c.declaration()
	}
	c.emitLine(value.Instr{Op: value.OpHlt}, c.line())

	return c.prog, c.errs.Err()
}

func (c *compiler) chunk() *value.Chunk {
	return &c.prog.Functions.Get(c.env.funcID).Chunk
}

func (c *compiler) line() int {
	if c.pos < len(c.toks) {
		return c.toks[c.pos].Line
	}
	if len(c.toks) > 0 {
		return c.toks[len(c.toks)-1].Line
	}
	return 0
}

func (c *compiler) cur() lexer.Tok {
	if c.pos < len(c.toks) {
		return c.toks[c.pos]
	}
	return lexer.Tok{Kind: token.EOF}
}

func (c *compiler) peekKind() token.Token { return c.cur().Kind }

func (c *compiler) check(t token.Token) bool { return c.peekKind() == t }

func (c *compiler) advance() lexer.Tok {
	t := c.cur()
	if c.pos < len(c.toks) {
		c.pos++
	}
	return t
}

func (c *compiler) match(t token.Token) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *compiler) expect(t token.Token, msg string) lexer.Tok {
	if c.check(t) {
		return c.advance()
	}
	c.errorf("%s (got %s)", msg, c.peekKind())
	return c.cur()
}

func (c *compiler) errorf(format string, args ...any) {
	if c.panic {
		return
	}
	c.panic = true
	c.errs.Add(c.line(), format, args...)
}

// synchronize skips tokens until a statement-starter keyword or the next
// NEWLINE, letting compilation continue after an error.
func (c *compiler) synchronize() {
	c.panic = false
	for !c.check(token.EOF) {
		if c.cur().Kind == token.NEWLINE {
			c.advance()
			return
		}
		switch c.peekKind() {
		case token.LET, token.FUNC, token.IF, token.WHILE, token.RETURN, token.PRINT, token.BLOCK:
			return
		}
		c.advance()
	}
}

func (c *compiler) emit(instr value.Instr) int {
	return c.emitLine(instr, c.line())
}

func (c *compiler) emitLine(instr value.Instr, line int) int {
	return c.chunk().Emit(instr, line)
}

func (c *compiler) emitPlaceholder() int {
	return c.chunk().EmitPlaceholder(c.line())
}

func (c *compiler) patch(idx int, instr value.Instr) {
	c.chunk().Patch(idx, instr)
}

// internString returns the constant-pool index of a String object holding
// s, creating and caching it the first time s is seen.
func (c *compiler) internString(s string) int {
	if idx, ok := c.strPool[s]; ok {
		return idx
	}
	v := c.prog.Objects.NewString(s)
	idx := len(c.prog.Constants)
	c.prog.Constants = append(c.prog.Constants, v)
	c.strPool[s] = idx
	return idx
}
