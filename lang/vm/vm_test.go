package vm_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/mna/dpr/lang/compiler"
	"github.com/mna/dpr/lang/vm"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) string {
	t.Helper()
	prog, err := compiler.Compile([]byte(src))
	require.NoError(t, err)

	var out bytes.Buffer
	interp := vm.New()
	interp.Stdout = &out
	require.NoError(t, interp.Run(context.Background(), prog))
	return out.String()
}

func TestArithmeticAndPrint(t *testing.T) {
	got := run(t, "print(1 + 2 * 3)\n")
	require.Equal(t, "7\n", got)
}

func TestFloatPromotionTellTale(t *testing.T) {
	got := run(t, "print(1 + 1.0)\n")
	require.Equal(t, "2.\n", got)
}

func TestGlobalsLetAndAssignment(t *testing.T) {
	got := run(t, "let x = 10\nlet y = 20\nx = x + y\nprint(x)\n")
	require.Equal(t, "30\n", got)
}

func TestIfElse(t *testing.T) {
	src := "let x = 5\nif x > 3:\n    print(1)\nelse:\n    print(0)\n"
	require.Equal(t, "1\n", run(t, src))

	src2 := "let x = 1\nif x > 3:\n    print(1)\nelse:\n    print(0)\n"
	require.Equal(t, "0\n", run(t, src2))
}

func TestWhileLoop(t *testing.T) {
	src := "let i = 0\nwhile i < 3:\n    print(i)\n    i = i + 1\n"
	require.Equal(t, "0\n1\n2\n", run(t, src))
}

func TestFunctionCallAndReturn(t *testing.T) {
	src := "func add(a, b):\n    return a + b\n\nprint(add(2, 3))\n"
	require.Equal(t, "5\n", run(t, src))
}

func TestRecursiveFunction(t *testing.T) {
	src := "func fib(n):\n    if n < 2:\n        return n\n    return fib(n - 1) + fib(n - 2)\n\nprint(fib(6))\n"
	require.Equal(t, "8\n", run(t, src))
}

func TestListLiteralAndIndexing(t *testing.T) {
	src := "let xs = [1, 2, 3]\nprint(xs[1])\n"
	require.Equal(t, "2\n", run(t, src))
}

func TestListIndexAssignment(t *testing.T) {
	src := "let xs = [1, 2, 3]\nxs[0] = 99\nprint(xs[0])\n"
	require.Equal(t, "99\n", run(t, src))
}

func TestLocalScoping(t *testing.T) {
	src := "let x = 1\nblock:\n    let x = 2\n    print(x)\nprint(x)\n"
	require.Equal(t, "2\n1\n", run(t, src))
}

func TestBooleanLogic(t *testing.T) {
	got := run(t, "print(true and false)\nprint(true or false)\nprint(not true)\n")
	require.Equal(t, "false\ntrue\nfalse\n", got)
}

func TestStringConcatIsNotDefined(t *testing.T) {
	prog, err := compiler.Compile([]byte(`print("a" + 1)` + "\n"))
	require.NoError(t, err)
	interp := vm.New()
	var out bytes.Buffer
	interp.Stdout = &out
	err = interp.Run(context.Background(), prog)
	require.Error(t, err)
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	prog, err := compiler.Compile([]byte("print(nope)\n"))
	require.NoError(t, err)
	interp := vm.New()
	var out bytes.Buffer
	interp.Stdout = &out
	err = interp.Run(context.Background(), prog)
	require.Error(t, err)
}

func TestContextCancellation(t *testing.T) {
	prog, err := compiler.Compile([]byte("let i = 0\nwhile i < 1000000:\n    i = i + 1\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	interp := vm.New()
	err = interp.Run(ctx, prog)
	require.ErrorIs(t, err, context.Canceled)
}
