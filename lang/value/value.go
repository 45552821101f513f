// Package value defines the runtime value representation shared by the
// compiler and the interpreter: the inline, copyable Value union, the
// heap-allocated Object pool it addresses by handle, and the Chunk/Function
// table that hold compiled bytecode.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	Nil Kind = iota
	Unk
	Bool
	Int
	Float
	Ptr
	StaticPtr
	Obj
	Function
	NativeFunction
)

var kindNames = [...]string{
	Nil:            "nil",
	Unk:            "unk",
	Bool:           "bool",
	Int:            "int",
	Float:          "float",
	Ptr:            "ptr",
	StaticPtr:      "staticptr",
	Obj:            "obj",
	Function:       "function",
	NativeFunction: "nativefunction",
}

func (k Kind) String() string { return kindNames[k] }

// Value is an inline, copyable, tagged union: the only value representation
// that ever lives on the interpreter's stack or in a constant pool. Strings
// and lists, which have indefinite size, are never stored inline; they live
// in the Pool and are referenced here as an Obj handle.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	h    int // handle: object pool index, function table index, or constant-pool index
}

func NilValue() Value { return Value{kind: Nil} }
func UnkValue() Value { return Value{kind: Unk} }

func BoolValue(b bool) Value  { return Value{kind: Bool, b: b} }
func IntValue(i int64) Value  { return Value{kind: Int, i: i} }
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }
func PtrValue(h int) Value       { return Value{kind: Ptr, h: h} }
func StaticPtrValue(h int) Value { return Value{kind: StaticPtr, h: h} }
func ObjValue(h int) Value       { return Value{kind: Obj, h: h} }
func FunctionValue(id int) Value { return Value{kind: Function, h: id} }
func NativeValue(h int) Value    { return Value{kind: NativeFunction, h: h} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool { return v.kind == Nil }

// Bool returns the boolean payload; only meaningful when Kind() == Bool.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload; only meaningful when Kind() == Int.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload; only meaningful when Kind() == Float.
func (v Value) Float() float64 { return v.f }

// Handle returns the integer payload shared by Ptr, StaticPtr, Obj,
// Function, and NativeFunction.
func (v Value) Handle() int { return v.h }

// Truthy reports whether v is considered "true" where a boolean condition
// is required (only Bool values are ever truthy or falsy; any other kind is
// a type error at the use site, reported by the caller).
func (v Value) Truthy() (bool, bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.b, true
}

// Equal reports structural equality between two values, as used by Eq/Ne.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		// the two numeric kinds compare cross-kind, like ordered comparison.
		if isNumeric(a) && isNumeric(b) {
			af, _ := asFloat(a)
			bf, _ := asFloat(b)
			return af == bf
		}
		return false
	}
	switch a.kind {
	case Nil, Unk:
		return true
	case Bool:
		return a.b == b.b
	case Int:
		return a.i == b.i
	case Float:
		return a.f == b.f
	default:
		return a.h == b.h
	}
}

func isNumeric(v Value) bool { return v.kind == Int || v.kind == Float }

func asFloat(v Value) (float64, bool) {
	switch v.kind {
	case Int:
		return float64(v.i), true
	case Float:
		return v.f, true
	default:
		return 0, false
	}
}

// Compare returns -1, 0, or 1 if a is less than, equal to, or greater than
// b, along with whether the two values were comparable at all (only
// numerics compare, per the data model).
func Compare(a, b Value) (int, bool) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

// Add, Sub, Mul promote Int+Float to Float; any non-numeric operand yields
// Nil, which the interpreter treats as a runtime type error.
func Add(a, b Value) Value { return arith(a, b, func(x, y float64) float64 { return x + y }, func(x, y int64) int64 { return x + y }) }
func Sub(a, b Value) Value { return arith(a, b, func(x, y float64) float64 { return x - y }, func(x, y int64) int64 { return x - y }) }
func Mul(a, b Value) Value { return arith(a, b, func(x, y float64) float64 { return x * y }, func(x, y int64) int64 { return x * y }) }

func arith(a, b Value, ff func(x, y float64) float64, fi func(x, y int64) int64) Value {
	if a.kind == Int && b.kind == Int {
		return IntValue(fi(a.i, b.i))
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return FloatValue(ff(af, bf))
	}
	return NilValue()
}

// Div always produces a Float, regardless of operand kinds.
func Div(a, b Value) Value {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return NilValue()
	}
	return FloatValue(af / bf)
}

// integerOnly implements mod/shift/bitwise operators: undefined (Nil) on
// anything but two Ints.
func integerOnly(a, b Value, f func(x, y int64) int64) Value {
	if a.kind != Int || b.kind != Int {
		return NilValue()
	}
	return IntValue(f(a.i, b.i))
}

func Mod(a, b Value) Value  { return integerOnly(a, b, func(x, y int64) int64 { return x % y }) }
func Shr(a, b Value) Value  { return integerOnly(a, b, func(x, y int64) int64 { return x >> uint(y) }) }
func Shl(a, b Value) Value  { return integerOnly(a, b, func(x, y int64) int64 { return x << uint(y) }) }
func LAnd(a, b Value) Value { return integerOnly(a, b, func(x, y int64) int64 { return x & y }) }
func LOr(a, b Value) Value  { return integerOnly(a, b, func(x, y int64) int64 { return x | y }) }
func LXor(a, b Value) Value { return integerOnly(a, b, func(x, y int64) int64 { return x ^ y }) }

// Neg negates an Int or Float; anything else yields Nil.
func Neg(v Value) Value {
	switch v.kind {
	case Int:
		return IntValue(-v.i)
	case Float:
		return FloatValue(-v.f)
	default:
		return NilValue()
	}
}

// LNot is bitwise-not on an Int; anything else yields Nil.
func LNot(v Value) Value {
	if v.kind != Int {
		return NilValue()
	}
	return IntValue(^v.i)
}

// And, Or, Not implement boolean logic; non-Bool operands yield Nil.
func And(a, b Value) Value {
	if a.kind != Bool || b.kind != Bool {
		return NilValue()
	}
	return BoolValue(a.b && b.b)
}

func Or(a, b Value) Value {
	if a.kind != Bool || b.kind != Bool {
		return NilValue()
	}
	return BoolValue(a.b || b.b)
}

func Not(v Value) Value {
	if v.kind != Bool {
		return NilValue()
	}
	return BoolValue(!v.b)
}

// ToString renders v's own canonical printable form. For an Obj handle, the
// underlying object's contents are not available here (the pool is owned by
// the caller) -- use Pool.ToString for the detailed form.
func ToString(v Value) string {
	switch v.kind {
	case Nil:
		return "Nil"
	case Unk:
		return "[Unk]"
	case Bool:
		return strconv.FormatBool(v.b)
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return formatFloat(v.f)
	case Ptr:
		return fmt.Sprintf("Ph_%d", v.h)
	case StaticPtr:
		return fmt.Sprintf("Ps_%d", v.h)
	case Obj:
		return fmt.Sprintf("<object %d>", v.h)
	case Function:
		return fmt.Sprintf("<function %d>", v.h)
	case NativeFunction:
		return fmt.Sprintf("<native %d>", v.h)
	default:
		return ""
	}
}

// formatFloat renders with Go's shortest round-trip representation, then
// appends a trailing '.' when the result carries no fractional part, so
// that 1.0 prints as "1." -- a deliberate tell-tale distinguishing a float
// from an int in printed output.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += "."
	}
	return s
}
