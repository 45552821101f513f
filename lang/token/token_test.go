package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		if tok.String() == "" {
			t.Errorf("missing string representation of token %d", tok)
		}
	}
}

func TestTokenGoString(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "'let'", LET.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
	require.Equal(t, "end of file", EOF.GoString())
}

func TestTokenIsKeyword(t *testing.T) {
	require.True(t, LET.IsKeyword())
	require.True(t, KWBOOL.IsKeyword())
	require.False(t, PLUS.IsKeyword())
	require.False(t, IDENT.IsKeyword())
}

func TestLookup(t *testing.T) {
	cases := []struct {
		ident string
		want  Token
	}{
		{"let", LET},
		{"func", FUNC},
		{"class", CLASS},
		{"if", IF},
		{"else", ELSE},
		{"while", WHILE},
		{"for", FOR},
		{"in", IN},
		{"break", BREAK},
		{"continue", CONTINUE},
		{"return", RETURN},
		{"nil", NIL},
		{"true", TRUE},
		{"false", FALSE},
		{"import", IMPORT},
		{"self", SELF},
		{"print", PRINT},
		{"block", BLOCK},
		{"and", AND},
		{"or", OR},
		{"not", NOT},
		{"int", KWINT},
		{"str", KWSTR},
		{"float", KWFLOAT},
		{"bool", KWBOOL},
		{"x", IDENT},
		{"whatever", IDENT},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Lookup(c.ident), "Lookup(%q)", c.ident)
	}
}

func TestReservedButUnimplemented(t *testing.T) {
	for _, tok := range []Token{CLASS, IMPORT, FOR, BREAK, CONTINUE, SELF} {
		require.True(t, tok.ReservedButUnimplemented(), "%s", tok)
	}
	for _, tok := range []Token{LET, FUNC, IF, ELSE, WHILE, IN, RETURN, IDENT, PLUS} {
		require.False(t, tok.ReservedButUnimplemented(), "%s", tok)
	}
}
