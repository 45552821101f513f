package compiler_test

import (
	"strings"
	"testing"

	"github.com/mna/dpr/lang/compiler"
	"github.com/mna/dpr/lang/value"
	"github.com/stretchr/testify/require"
)

func TestDisassembleFormat(t *testing.T) {
	var pool value.Pool
	var chunk value.Chunk
	chunk.Emit(value.Instr{Op: value.OpValue, Val: value.IntValue(7)}, 1)
	chunk.Emit(value.Instr{Op: value.OpOut}, 1)
	chunk.Emit(value.Instr{Op: value.OpHlt}, 2)
	fn := &value.Function{Name: "$main", Chunk: chunk}

	var sb strings.Builder
	require.NoError(t, compiler.Disassemble(&sb, fn, &pool))

	want := "I0\tL1\tVALUE\t7\nI1\tL1\tOUT\nI2\tL2\tHLT\n"
	require.Equal(t, want, sb.String())
}

func TestDisassembleRendersObjStrings(t *testing.T) {
	var pool value.Pool
	sv := pool.NewString("hi")
	var chunk value.Chunk
	chunk.Emit(value.Instr{Op: value.OpValue, Val: sv}, 1)
	fn := &value.Function{Name: "$main", Chunk: chunk}

	var sb strings.Builder
	require.NoError(t, compiler.Disassemble(&sb, fn, &pool))
	require.Equal(t, "I0\tL1\tVALUE\thi\n", sb.String())
}

func TestLoadRecognizedSubset(t *testing.T) {
	src := "C\t3\nC\t4\nADD\nOUT\nHLT\n"
	chunk, err := compiler.Load(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, chunk.Code, 5)
	require.Equal(t, value.OpValue, chunk.Code[0].Op)
	require.Equal(t, value.IntValue(3), chunk.Code[0].Val)
	require.Equal(t, value.OpAdd, chunk.Code[2].Op)
	require.Equal(t, value.OpHlt, chunk.Code[4].Op)
}

func TestLoadFloatLiteral(t *testing.T) {
	chunk, err := compiler.Load(strings.NewReader("C\t1.5\n"))
	require.NoError(t, err)
	require.Equal(t, value.FloatValue(1.5), chunk.Code[0].Val)
}

func TestLoadRejectsUnrecognizedMnemonic(t *testing.T) {
	_, err := compiler.Load(strings.NewReader("JMP\t3\n"))
	require.Error(t, err)
}

func TestLoadPtrLiteral(t *testing.T) {
	chunk, err := compiler.Load(strings.NewReader("C\tP_5\n"))
	require.NoError(t, err)
	require.Equal(t, value.PtrValue(5), chunk.Code[0].Val)
}
