package lexer_test

import (
	"testing"

	"github.com/mna/dpr/lang/lexer"
	"github.com/mna/dpr/lang/token"
	"github.com/stretchr/testify/require"
)

func kinds(toks []lexer.Tok) []token.Token {
	out := make([]token.Token, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestSimpleExpression(t *testing.T) {
	toks, err := lexer.All([]byte("1 + 2 * 3\n"))
	require.NoError(t, err)
	require.Equal(t, []token.Token{
		token.INT, token.PLUS, token.INT, token.STAR, token.INT, token.NEWLINE, token.EOF,
	}, kinds(toks))
	require.Equal(t, int64(1), toks[0].Int)
	require.Equal(t, int64(2), toks[2].Int)
	require.Equal(t, int64(3), toks[4].Int)
}

func TestFloatLiteral(t *testing.T) {
	toks, err := lexer.All([]byte("6 / 3.5\n"))
	require.NoError(t, err)
	require.Equal(t, token.FLOAT, toks[2].Kind)
	require.InDelta(t, 3.5, toks[2].Float, 0.0001)
}

func TestStringEscapes(t *testing.T) {
	toks, err := lexer.All([]byte(`"a\nb\t\"c\""` + "\n"))
	require.NoError(t, err)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "a\nb\t\"c\"", toks[0].Lit)
}

func TestUnterminatedString(t *testing.T) {
	_, err := lexer.All([]byte(`"abc`))
	require.Error(t, err)
}

func TestUnknownEscape(t *testing.T) {
	_, err := lexer.All([]byte(`"a\qb"` + "\n"))
	require.Error(t, err)
}

func TestKeywordsAndIdents(t *testing.T) {
	toks, err := lexer.All([]byte("let x = func\n"))
	require.NoError(t, err)
	require.Equal(t, []token.Token{
		token.LET, token.IDENT, token.EQ, token.FUNC, token.NEWLINE, token.EOF,
	}, kinds(toks))
	require.Equal(t, "x", toks[1].Lit)
}

func TestLineAndBlockComments(t *testing.T) {
	toks, err := lexer.All([]byte("let x = 1 // trailing\n/* block */let y = 2\n"))
	require.NoError(t, err)
	require.Equal(t, []token.Token{
		token.LET, token.IDENT, token.EQ, token.INT, token.NEWLINE,
		token.LET, token.IDENT, token.EQ, token.INT, token.NEWLINE,
		token.EOF,
	}, kinds(toks))
}

func TestIndentationBeginEnd(t *testing.T) {
	src := "if x:\n    let y = 1\n    print(y)\nprint(x)\n"
	toks, err := lexer.All([]byte(src))
	require.NoError(t, err)
	got := kinds(toks)
	require.Equal(t, []token.Token{
		token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.BEGIN_BLOCK,
		token.LET, token.IDENT, token.EQ, token.INT, token.NEWLINE,
		token.PRINT, token.LPAREN, token.IDENT, token.RPAREN, token.NEWLINE,
		token.END_BLOCK, token.NEWLINE,
		token.PRINT, token.LPAREN, token.IDENT, token.RPAREN, token.NEWLINE,
		token.EOF,
	}, got)
}

func TestNestedIndentation(t *testing.T) {
	src := "while x:\n    if y:\n        print(1)\n    print(2)\nprint(3)\n"
	toks, err := lexer.All([]byte(src))
	require.NoError(t, err)
	got := kinds(toks)
	require.Equal(t, []token.Token{
		token.WHILE, token.IDENT, token.COLON, token.NEWLINE,
		token.BEGIN_BLOCK,
		token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.BEGIN_BLOCK,
		token.PRINT, token.LPAREN, token.INT, token.RPAREN, token.NEWLINE,
		token.END_BLOCK, token.NEWLINE,
		token.PRINT, token.LPAREN, token.INT, token.RPAREN, token.NEWLINE,
		token.END_BLOCK, token.NEWLINE,
		token.PRINT, token.LPAREN, token.INT, token.RPAREN, token.NEWLINE,
		token.EOF,
	}, got)
}

func TestWrongIndentIsError(t *testing.T) {
	src := "if x:\n    print(1)\n  print(2)\n"
	_, err := lexer.All([]byte(src))
	require.Error(t, err)
}

func TestBlankAndCommentLinesDoNotAffectIndentation(t *testing.T) {
	src := "if x:\n    print(1)\n\n    // a comment\n    print(2)\nprint(3)\n"
	toks, err := lexer.All([]byte(src))
	require.NoError(t, err)
	got := kinds(toks)
	require.Equal(t, []token.Token{
		token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.BEGIN_BLOCK,
		token.PRINT, token.LPAREN, token.INT, token.RPAREN, token.NEWLINE,
		token.PRINT, token.LPAREN, token.INT, token.RPAREN, token.NEWLINE,
		token.END_BLOCK, token.NEWLINE,
		token.PRINT, token.LPAREN, token.INT, token.RPAREN, token.NEWLINE,
		token.EOF,
	}, got)
}

func TestReservedButUnimplementedStillLexes(t *testing.T) {
	toks, err := lexer.All([]byte("class Foo:\n    break\n"))
	require.NoError(t, err)
	require.Equal(t, token.CLASS, toks[0].Kind)
}

func TestDeterminism(t *testing.T) {
	src := []byte("let x = [1, 2, 3]\nprint(x[0])\n")
	a, errA := lexer.All(src)
	b, errB := lexer.All(src)
	require.NoError(t, errA)
	require.NoError(t, errB)
	require.Equal(t, a, b)
}
