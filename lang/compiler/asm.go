package compiler

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mna/dpr/lang/value"
)

// Disassemble writes one line per instruction of fn's chunk to w, in the
// form "I<ip>\tL<line>\t<mnemonic>[\t<operand>]". Obj-handle operands are
// rendered via their pool contents rather than a raw handle number.
func Disassemble(w io.Writer, fn *value.Function, pool *value.Pool) error {
	for ip, instr := range fn.Chunk.Code {
		line := fn.Chunk.Lines[ip]
		if _, err := fmt.Fprintf(w, "I%d\tL%d\t%s", ip, line, instr.Op); err != nil {
			return err
		}
		if operand, ok := operandText(instr, pool); ok {
			if _, err := fmt.Fprintf(w, "\t%s", operand); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// operandText renders instr's operand column, if it has one worth
// printing.
func operandText(instr value.Instr, pool *value.Pool) (string, bool) {
	switch instr.Op {
	case value.OpValue:
		return pool.ToString(instr.Val), true
	case value.OpJ, value.OpJZ, value.OpJNZ,
		value.OpDefGlobal, value.OpLoad, value.OpSet,
		value.OpLoadLocal, value.OpSetLocal,
		value.OpLoadNative, value.OpCall, value.OpCallNative:
		return strconv.Itoa(instr.Arg), true
	default:
		return "", false
	}
}

// persistable is the fixed mnemonic subset the textual loader recognizes;
// every other mnemonic is rejected by Load. Load reads bare mnemonic lines,
// not the "I<ip>\tL<line>\t..." lines Disassemble writes, so Disassemble's
// output cannot be fed back to Load. Mirrors the reduced grammar of the
// original implementation's bytecode persistence.
var persistable = map[string]value.Op{
	"ADD": value.OpAdd,
	"SUB": value.OpSub,
	"MUL": value.OpMul,
	"DIV": value.OpDiv,
	"RET": value.OpRet,
	"HLT": value.OpHlt,
	"OUT": value.OpOut,
}

// Load reads the reduced textual persistence format back into a Chunk: one
// instruction per line, either a bare mnemonic from the persistable subset
// or a "C\t<literal>" constant push. Lines outside this subset are
// rejected -- full round-trip is not a goal (§6).
func Load(r io.Reader) (*value.Chunk, error) {
	var chunk value.Chunk
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		mnem := fields[0]

		if mnem == "C" {
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: missing constant literal", lineNo)
			}
			v, err := parseLiteral(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			chunk.Emit(value.Instr{Op: value.OpValue, Val: v}, lineNo)
			continue
		}

		op, ok := persistable[mnem]
		if !ok {
			return nil, fmt.Errorf("line %d: unrecognized persisted mnemonic %q", lineNo, mnem)
		}
		chunk.Emit(value.Instr{Op: op}, lineNo)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// parseLiteral decodes a constant-push operand: an int, a float (if it
// contains '.'), or, prefixed with "P_", a reserved Ptr handle.
func parseLiteral(s string) (value.Value, error) {
	if strings.HasPrefix(s, "P_") {
		n, err := strconv.ParseInt(strings.TrimPrefix(s, "P_"), 10, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.PtrValue(int(n)), nil
	}
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.FloatValue(f), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return value.Value{}, err
	}
	return value.IntValue(n), nil
}
