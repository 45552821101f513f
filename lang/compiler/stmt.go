package compiler

import (
	"github.com/mna/dpr/lang/token"
	"github.com/mna/dpr/lang/value"
)

// declaration compiles one top-level or block-level declaration/statement,
// synchronizing to the next statement boundary if it panics.
func (c *compiler) declaration() {
	switch c.peekKind() {
	case token.LET:
		c.letDecl()
	case token.FUNC:
		c.funcDecl()
	default:
		c.statement()
	}
	if c.panic {
		c.synchronize()
	}
}

// letDecl compiles `let name [= expr] (, name [= expr])* NEWLINE`.
func (c *compiler) letDecl() {
	c.advance() // let
	for {
		nameTok := c.expect(token.IDENT, "expected variable name")
		name := nameTok.Lit

		if c.match(token.EQ) {
			c.expression()
		} else {
			c.emitLine(value.Instr{Op: value.OpNil}, nameTok.Line)
		}

		c.defineVariable(name, nameTok.Line)

		if !c.match(token.COMMA) {
			break
		}
	}
	c.consumeStmtEnd()
}

// defineVariable either appends a new local (inside a non-zero-depth scope)
// and marks it initialized, or emits a DefGlobal at depth 0.
func (c *compiler) defineVariable(name string, line int) {
	if c.env.depth > 0 {
		for i := len(c.env.locals) - 1; i >= 0; i-- {
			l := c.env.locals[i]
			if l.Depth < c.env.depth {
				break
			}
			if l.Name == name {
				c.errorf("duplicate local %q in the same scope", name)
				return
			}
		}
		c.env.locals = append(c.env.locals, Local{Name: name, Depth: c.env.depth, Initialized: true})
		return
	}
	ci := c.internString(name)
	c.emitLine(value.Instr{Op: value.OpDefGlobal, Arg: ci}, line)
}

// statement compiles one statement that is not a `let`/`func` declaration.
func (c *compiler) statement() {
	switch c.peekKind() {
	case token.PRINT:
		c.printStmt()
	case token.IF:
		c.ifStmt()
	case token.WHILE:
		c.whileStmt()
	case token.BLOCK:
		c.blockStmt()
	case token.RETURN:
		c.returnStmt()
	case token.NEWLINE:
		c.advance()
	default:
		if c.peekKind().ReservedButUnimplemented() {
			tok := c.advance()
			c.errorf("%s: not implemented", tok.Kind)
			return
		}
		c.exprStmt()
	}
}

// printStmt compiles `print(expr)`; Out inspects without popping, so an
// explicit Pop follows to discard the residual value.
func (c *compiler) printStmt() {
	tok := c.advance() // print
	c.expect(token.LPAREN, "expected '(' after print")
	c.expression()
	c.expect(token.RPAREN, "expected ')' after print argument")
	c.emitLine(value.Instr{Op: value.OpOut}, tok.Line)
	c.emitLine(value.Instr{Op: value.OpPop}, tok.Line)
	c.consumeStmtEnd()
}

// exprStmt compiles a bare expression statement, discarding its result.
func (c *compiler) exprStmt() {
	line := c.line()
	c.expression()
	c.emitLine(value.Instr{Op: value.OpPop}, line)
	c.consumeStmtEnd()
}

// returnStmt compiles `return [expr]`.
func (c *compiler) returnStmt() {
	tok := c.advance() // return
	if c.check(token.NEWLINE) || c.check(token.EOF) || c.check(token.END_BLOCK) {
		c.emitLine(value.Instr{Op: value.OpNil}, tok.Line)
	} else {
		c.expression()
	}
	c.emitLine(value.Instr{Op: value.OpRet}, tok.Line)
	c.consumeStmtEnd()
}

// consumeStmtEnd accepts the NEWLINE that normally terminates a statement;
// at EOF or right before END_BLOCK there may be none.
func (c *compiler) consumeStmtEnd() {
	if c.check(token.NEWLINE) {
		c.advance()
		return
	}
	if c.check(token.EOF) || c.check(token.END_BLOCK) {
		return
	}
	c.errorf("expected end of statement, got %s", c.peekKind())
}

// beginScope/endScope bracket a lexical block: entering increments depth;
// exiting pops every local declared at a depth greater than the restored
// depth, emitting one Pop per popped local.
func (c *compiler) beginScope() { c.env.depth++ }

func (c *compiler) endScope(line int) {
	c.env.depth--
	for len(c.env.locals) > 0 && c.env.locals[len(c.env.locals)-1].Depth > c.env.depth {
		c.env.locals = c.env.locals[:len(c.env.locals)-1]
		c.emitLine(value.Instr{Op: value.OpPop}, line)
	}
}

// block compiles `: NEWLINE BEGIN_BLOCK stmt* END_BLOCK`, in a fresh scope,
// plus the single NEWLINE the lexer always pairs with that closing
// END_BLOCK -- so a caller can peek the token right after a block without
// having to account for that terminator itself.
func (c *compiler) block() {
	line := c.line()
	c.expect(token.COLON, "expected ':' to start a block")
	c.expect(token.NEWLINE, "expected newline after ':'")
	c.expect(token.BEGIN_BLOCK, "expected indented block")
	c.beginScope()
	for !c.check(token.END_BLOCK) && !c.check(token.EOF) {
		c.declaration()
	}
	c.expect(token.END_BLOCK, "expected end of block")
	c.endScope(line)
	if c.check(token.NEWLINE) {
		c.advance()
	}
}

// ifStmt compiles `if cond: block (else: block)?`. The else-or-not
// decision is made by peeking the pending token without consuming or
// rewinding: once the then-block's closing END_BLOCK (and its paired
// NEWLINE) have been consumed by block() above, the next token is either
// already `else` or it is not, and either way nothing needs to be put
// back.
func (c *compiler) ifStmt() {
	c.advance() // if
	c.expression()
	thenJump := c.emitPlaceholder()
	c.block()

	var elseJump int
	hasElse := c.check(token.ELSE)
	if hasElse {
		elseJump = c.emitPlaceholder()
	}
	c.patch(thenJump, value.Instr{Op: value.OpJZ, Arg: c.chunk().Len()})

	if hasElse {
		c.advance() // else
		if c.check(token.IF) {
			c.ifStmt()
		} else {
			c.block()
		}
		c.patch(elseJump, value.Instr{Op: value.OpJ, Arg: c.chunk().Len()})
	}
}

// whileStmt compiles `while cond: block`.
func (c *compiler) whileStmt() {
	tok := c.advance() // while
	loopTop := c.chunk().Len()
	c.expression()
	exitJump := c.emitPlaceholder()
	c.block()
	c.emitLine(value.Instr{Op: value.OpJ, Arg: loopTop}, tok.Line)
	c.patch(exitJump, value.Instr{Op: value.OpJZ, Arg: c.chunk().Len()})
}

// blockStmt compiles a bare `block: block`, a scope with no control flow
// attached -- useful purely for lexical grouping.
func (c *compiler) blockStmt() {
	c.advance() // block
	c.block()
}

// funcDecl compiles `func name(params): block`.
func (c *compiler) funcDecl() {
	c.advance() // func
	nameTok := c.expect(token.IDENT, "expected function name")
	name := nameTok.Lit

	c.expect(token.LPAREN, "expected '(' after function name")
	var params []string
	for !c.check(token.RPAREN) && !c.check(token.EOF) {
		p := c.expect(token.IDENT, "expected parameter name")
		params = append(params, p.Lit)
		if !c.match(token.COMMA) {
			break
		}
	}
	c.expect(token.RPAREN, "expected ')' after parameters")

	fnID := c.prog.Functions.New(name, len(params))

	enclosing := c.env
	c.env = &environment{enclosing: enclosing, funcID: fnID, depth: 1}
	for _, p := range params {
		c.env.locals = append(c.env.locals, Local{Name: p, Depth: 1, Initialized: true})
	}

	bodyLine := c.line()
	c.expect(token.COLON, "expected ':' to start function body")
	c.expect(token.NEWLINE, "expected newline after ':'")
	c.expect(token.BEGIN_BLOCK, "expected indented function body")
	for !c.check(token.END_BLOCK) && !c.check(token.EOF) {
		c.declaration()
	}
	c.expect(token.END_BLOCK, "expected end of function body")
	c.emitLine(value.Instr{Op: value.OpNil}, bodyLine)
	c.emitLine(value.Instr{Op: value.OpRet}, bodyLine)

	c.env = enclosing

	c.emitLine(value.Instr{Op: value.OpValue, Val: value.FunctionValue(fnID)}, nameTok.Line)
	c.defineVariable(name, nameTok.Line)
}
