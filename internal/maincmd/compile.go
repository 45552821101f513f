package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/dpr/lang/compiler"
	"github.com/mna/mainer"
)

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFiles(ctx, stdio, args...)
}

// CompileFiles compiles each file independently and writes its bytecode
// disassembly to stdio.Stdout, one function at a time starting with $main.
func CompileFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, filename := range files {
		src, err := os.ReadFile(filename)
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		prog, err := compiler.Compile(src)
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		fmt.Fprintf(stdio.Stdout, "; %s\n", filename)
		for i := range prog.Functions.Funcs {
			fn := prog.Functions.Get(i)
			fmt.Fprintf(stdio.Stdout, "%s:\n", fn.Name)
			if err := compiler.Disassemble(stdio.Stdout, fn, &prog.Objects); err != nil {
				printError(stdio, err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return firstErr
}
