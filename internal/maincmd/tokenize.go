package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/dpr/lang/lexer"
	"github.com/mna/mainer"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

func TokenizeFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
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

		toks, err := lexer.All(src)
		for _, t := range toks {
			fmt.Fprintf(stdio.Stdout, "%s: %s\n", filename, t)
		}
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
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
