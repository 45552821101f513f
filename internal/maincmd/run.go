package maincmd

import (
	"context"
	"os"

	"github.com/mna/dpr/lang/compiler"
	"github.com/mna/dpr/lang/vm"
	"github.com/mna/mainer"
)

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFiles(ctx, stdio, c.Debug, args...)
}

// RunFiles compiles and executes each file in turn, in its own Interpreter
// (globals and the call stack are not shared across files).
func RunFiles(ctx context.Context, stdio mainer.Stdio, debug bool, files ...string) error {
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

		interp := vm.New()
		interp.Stdout = stdio.Stdout
		interp.Stderr = stdio.Stderr
		interp.Debug = debug

		if err := interp.Run(ctx, prog); err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
