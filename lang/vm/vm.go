// Package vm implements the stack-based interpreter: it executes a
// compiled Program's $main function against a value stack and a call-frame
// stack, resolving globals by name, locals by frame-relative slot, and
// native calls through the fixed native registry.
package vm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dolthub/swiss"
	"github.com/mna/dpr/lang/compiler"
	"github.com/mna/dpr/lang/natives"
	"github.com/mna/dpr/lang/value"
)

// frame is one active invocation on the call stack: the function being
// executed, its instruction pointer, and the stack index at which its
// local slot 0 lives.
type frame struct {
	funcID   int
	ip       int
	slotBase int
}

// Error is a runtime error tagged with the source line it occurred at.
// Runtime errors are fatal for the Interpreter.Run call that produced
// them; there is no mid-frame recovery.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%d: %s", e.Line, e.Msg) }

// Interpreter executes one Program. It owns its value stack, call-frame
// stack, globals table, and the shared native registry; none of this state
// is safe to share across concurrent runs.
type Interpreter struct {
	// Stdout is where Out writes and, when Debug is set, where disassembly
	// lines are written. Defaults to os.Stdout if left nil, mirroring the
	// teacher's Thread.Stdout convention.
	Stdout io.Writer
	// Stderr receives nothing from the core today but is carried for
	// symmetry with Stdout and for a host's own diagnostics.
	Stderr io.Writer

	// Debug, when true, prints a disassembly line for every instruction
	// before it executes.
	Debug bool

	// Steps counts every instruction dispatched across the run. Purely
	// observational: the core enforces no limit, but a host may read this
	// after Run returns or, with its own budget, not call Run again.
	Steps uint64

	natives *natives.Registry
	globals *swiss.Map[string, value.Value]

	stack  []value.Value
	frames []frame
}

// New returns a ready-to-use Interpreter with its native registry bound and
// an empty globals table.
func New() *Interpreter {
	return &Interpreter{
		natives: natives.New(),
		globals: swiss.NewMap[string, value.Value](16),
	}
}

func (vm *Interpreter) stdout() io.Writer {
	if vm.Stdout != nil {
		return vm.Stdout
	}
	return os.Stdout
}

// Run executes prog's $main function to completion (falling off the end,
// or Hlt) and returns the first runtime error encountered, if any. ctx is
// checked between instructions so a host can impose its own cancellation;
// the core never creates or owns this context itself.
func (vm *Interpreter) Run(ctx context.Context, prog *value.Program) error {
	vm.stack = vm.stack[:0]
	vm.frames = append(vm.frames[:0], frame{funcID: 0, ip: 0, slotBase: 0})

	for len(vm.frames) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fr := &vm.frames[len(vm.frames)-1]
		fn := prog.Functions.Get(fr.funcID)
		if fr.ip >= fn.Chunk.Len() {
			vm.frames = vm.frames[:len(vm.frames)-1]
			continue
		}

		instr := fn.Chunk.Code[fr.ip]
		line := fn.Chunk.Lines[fr.ip]
		if vm.Debug {
			var sb strings.Builder
			if err := compiler.Disassemble(&sb, &value.Function{
				Name:  fn.Name,
				Arity: fn.Arity,
				Chunk: value.Chunk{Code: []value.Instr{instr}, Lines: []int{line}},
			}, &prog.Objects); err != nil {
				return err
			}
			// the one-instruction chunk is numbered from 0; print the real ip.
			if _, err := fmt.Fprintf(vm.stdout(), "I%d%s", fr.ip, strings.TrimPrefix(sb.String(), "I0")); err != nil {
				return err
			}
		}

		vm.Steps++
		halt, err := vm.step(prog, fr, instr, line)
		if err != nil {
			return err
		}
		if halt {
			return nil
		}
	}
	return nil
}

func (vm *Interpreter) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *Interpreter) pop(line int) (value.Value, error) {
	if len(vm.stack) == 0 {
		return value.Value{}, &Error{line, "stack underflow"}
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *Interpreter) top() value.Value { return vm.stack[len(vm.stack)-1] }
