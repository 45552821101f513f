package compiler_test

import (
	"testing"

	"github.com/mna/dpr/lang/compiler"
	"github.com/mna/dpr/lang/value"
	"github.com/stretchr/testify/require"
)

func TestCompileSimpleProgram(t *testing.T) {
	prog, err := compiler.Compile([]byte("let x = 1\nprint(x)\n"))
	require.NoError(t, err)
	require.NotNil(t, prog)
	main := prog.Main()
	require.Equal(t, "$main", main.Name)
	require.Equal(t, value.OpHlt, main.Chunk.Code[len(main.Chunk.Code)-1].Op)
}

func TestCompileErrorInvalidAssignmentTarget(t *testing.T) {
	_, err := compiler.Compile([]byte("1 + 1 = 2\n"))
	require.Error(t, err)
}

func TestCompileErrorDuplicateLocal(t *testing.T) {
	src := "block:\n    let x = 1\n    let x = 2\n"
	_, err := compiler.Compile([]byte(src))
	require.Error(t, err)
}

func TestCompileErrorReservedKeyword(t *testing.T) {
	_, err := compiler.Compile([]byte("class Foo:\n    print(1)\n"))
	require.Error(t, err)
}

func TestCompileRecoversAfterErrorAndReportsBoth(t *testing.T) {
	src := "1 = 2\nlet x = \n"
	_, err := compiler.Compile([]byte(src))
	require.Error(t, err)
	el, ok := err.(compiler.ErrorList)
	require.True(t, ok)
	require.Len(t, el, 2)
}

func TestFunctionDeclarationRegistersArity(t *testing.T) {
	prog, err := compiler.Compile([]byte("func add(a, b):\n    return a + b\n"))
	require.NoError(t, err)
	require.Len(t, prog.Functions.Funcs, 2)
	require.Equal(t, "add", prog.Functions.Funcs[1].Name)
	require.Equal(t, 2, prog.Functions.Funcs[1].Arity)
}
