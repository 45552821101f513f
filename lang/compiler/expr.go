package compiler

import (
	"github.com/mna/dpr/lang/token"
	"github.com/mna/dpr/lang/value"
)

// expression compiles one expression at or above precAssign and leaves its
// value on the stack.
func (c *compiler) expression() {
	c.parsePrecedence(precAssign)
}

// parsePrecedence consumes the prefix rule for the current token, then
// repeatedly consumes infix rules whose precedence is at least min.
func (c *compiler) parsePrecedence(min precedence) {
	tok := c.cur()
	r := getRule(tok.Kind)
	if r.prefix == nil {
		if tok.Kind.ReservedButUnimplemented() {
			c.errorf("%s: not implemented", tok.Kind)
		} else {
			c.errorf("expected expression, got %s", tok.Kind)
		}
		c.advance()
		return
	}
	canAssign := min <= precAssign
	r.prefix(c, canAssign)

	for {
		r = getRule(c.peekKind())
		if r.prec < min || r.prec == precNone {
			break
		}
		if r.infix == nil {
			break
		}
		r.infix(c, canAssign)
	}

	if canAssign && c.check(token.EQ) {
		c.errorf("invalid assignment target")
		c.advance()
		c.expression()
	}
}

func (c *compiler) literal(canAssign bool) {
	tok := c.advance()
	switch tok.Kind {
	case token.INT:
		c.emitLine(value.Instr{Op: value.OpValue, Val: value.IntValue(tok.Int)}, tok.Line)
	case token.FLOAT:
		c.emitLine(value.Instr{Op: value.OpValue, Val: value.FloatValue(tok.Float)}, tok.Line)
	case token.STRING:
		v := c.prog.Objects.NewString(tok.Lit)
		c.emitLine(value.Instr{Op: value.OpValue, Val: v}, tok.Line)
	case token.NIL:
		c.emitLine(value.Instr{Op: value.OpNil}, tok.Line)
	case token.TRUE:
		c.emitLine(value.Instr{Op: value.OpTrue}, tok.Line)
	case token.FALSE:
		c.emitLine(value.Instr{Op: value.OpFalse}, tok.Line)
	}
}

func (c *compiler) grouping(canAssign bool) {
	c.advance() // (
	c.expression()
	c.expect(token.RPAREN, "expected ')' after expression")
}

func (c *compiler) unary(canAssign bool) {
	op := c.advance()
	c.parsePrecedence(precUnary)
	switch op.Kind {
	case token.MINUS:
		c.emitLine(value.Instr{Op: value.OpNeg}, op.Line)
	case token.BANG, token.NOT:
		c.emitLine(value.Instr{Op: value.OpNot}, op.Line)
	case token.TILDE:
		c.emitLine(value.Instr{Op: value.OpLNot}, op.Line)
	}
}

var binOps = map[token.Token]value.Op{
	token.PLUS:      value.OpAdd,
	token.MINUS:     value.OpSub,
	token.STAR:      value.OpMul,
	token.SLASH:     value.OpDiv,
	token.PERCENT:   value.OpMod,
	token.LTLT:      value.OpShl,
	token.GTGT:      value.OpShr,
	token.AMPERSAND: value.OpLAnd,
	token.PIPE:      value.OpLOr,
	token.CIRCUMFLEX: value.OpLXor,
	token.EQL:       value.OpEq,
	token.NEQ:       value.OpNe,
	token.LT:        value.OpLt,
	token.LE:        value.OpLe,
	token.GT:        value.OpGt,
	token.GE:        value.OpGe,
	token.AND:       value.OpAnd,
	token.ANDAND:    value.OpAnd,
	token.OR:        value.OpOr,
	token.OROR:      value.OpOr,
}

func (c *compiler) binary(canAssign bool) {
	op := c.advance()
	r := getRule(op.Kind)
	c.parsePrecedence(r.prec + 1)
	opc, ok := binOps[op.Kind]
	if !ok {
		c.errorf("unsupported binary operator %s", op.Kind)
		return
	}
	c.emitLine(value.Instr{Op: opc}, op.Line)
}


// ident resolves a bare identifier per the name-resolution rules: a
// '$'-prefixed name is a native, then innermost locals, then globals.
func (c *compiler) ident(canAssign bool) {
	tok := c.advance()
	name := tok.Lit

	if len(name) > 0 && name[0] == '$' {
		ci := c.internString(name)
		c.emitLine(value.Instr{Op: value.OpLoadNative, Arg: ci}, tok.Line)
		return
	}

	if slot, ok := c.resolveLocal(c.env, name); ok {
		if canAssign && c.check(token.EQ) {
			c.advance()
			c.expression()
			c.emitLine(value.Instr{Op: value.OpSetLocal, Arg: slot}, tok.Line)
			return
		}
		c.emitLine(value.Instr{Op: value.OpLoadLocal, Arg: slot}, tok.Line)
		return
	}

	ci := c.internString(name)
	if canAssign && c.check(token.EQ) {
		c.advance()
		c.expression()
		c.emitLine(value.Instr{Op: value.OpSet, Arg: ci}, tok.Line)
		return
	}
	c.emitLine(value.Instr{Op: value.OpLoad, Arg: ci}, tok.Line)
}

// resolveLocal walks env's locals from innermost (end of slice) out,
// returning the frame-relative slot of the first initialized match.
func (c *compiler) resolveLocal(env *environment, name string) (int, bool) {
	for i := len(env.locals) - 1; i >= 0; i-- {
		l := env.locals[i]
		if l.Name == name {
			if !l.Initialized {
				c.errorf("cannot reference local %q in its own initializer", name)
			}
			return i, true
		}
	}
	return 0, false
}

// list compiles a '[' e1, ..., en ']' literal, desugaring to pushing every
// element followed by a $list native call.
func (c *compiler) list(canAssign bool) {
	open := c.advance() // [
	n := 0
	for !c.check(token.RBRACK) && !c.check(token.EOF) {
		c.expression()
		n++
		if !c.match(token.COMMA) {
			break
		}
	}
	c.expect(token.RBRACK, "expected ']' after list elements")

	ci := c.internString("$list")
	c.emitLine(value.Instr{Op: value.OpLoadNative, Arg: ci}, open.Line)
	c.emitLine(value.Instr{Op: value.OpCallNative, Arg: n}, open.Line)
}

// index compiles 'e[i]', desugaring to $list->get, or, when immediately
// followed by '=', to $list->set with the right-hand side as the value.
func (c *compiler) index(canAssign bool) {
	open := c.advance() // [
	c.expression()
	c.expect(token.RBRACK, "expected ']' after index expression")

	if canAssign && c.check(token.EQ) {
		c.advance()
		c.expression()
		ci := c.internString("$list->set")
		// stack at this point, top to bottom: value, index, list.
		// CallNative expects (value, index, list) as args[0..2] with the
		// native marker pushed above them, so only the marker is emitted
		// here: the callee already pushed list then index; the value just
		// compiled is on top, which matches args[0] = value per the
		// native's contract.
		c.emitLine(value.Instr{Op: value.OpLoadNative, Arg: ci}, open.Line)
		c.emitLine(value.Instr{Op: value.OpCallNative, Arg: 3}, open.Line)
		return
	}

	ci := c.internString("$list->get")
	c.emitLine(value.Instr{Op: value.OpLoadNative, Arg: ci}, open.Line)
	c.emitLine(value.Instr{Op: value.OpCallNative, Arg: 2}, open.Line)
}

// call compiles 'callee(args...)'.
func (c *compiler) call(canAssign bool) {
	open := c.advance() // (
	n := 0
	for !c.check(token.RPAREN) && !c.check(token.EOF) {
		c.expression()
		n++
		if !c.match(token.COMMA) {
			break
		}
	}
	c.expect(token.RPAREN, "expected ')' after arguments")
	c.emitLine(value.Instr{Op: value.OpCall, Arg: n}, open.Line)
}
