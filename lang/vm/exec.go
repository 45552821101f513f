package vm

import (
	"fmt"

	"github.com/mna/dpr/lang/value"
)

// step executes one instruction against fr, mutating the interpreter's
// stack and frame list. It returns halt=true when execution should stop
// (a Hlt instruction at top level).
func (vm *Interpreter) step(prog *value.Program, fr *frame, instr value.Instr, line int) (halt bool, err error) {
	nextIP := fr.ip + 1
	defer func() {
		if err == nil && !halt {
			fr.ip = nextIP
		}
	}()

	switch instr.Op {
	case value.OpNop:
		// placeholder, no effect

	case value.OpValue:
		vm.push(instr.Val)
	case value.OpNil:
		vm.push(value.NilValue())
	case value.OpTrue:
		vm.push(value.BoolValue(true))
	case value.OpFalse:
		vm.push(value.BoolValue(false))

	case value.OpAdd, value.OpSub, value.OpMul, value.OpDiv, value.OpMod,
		value.OpShr, value.OpShl, value.OpLAnd, value.OpLOr, value.OpLXor:
		return halt, vm.binaryArith(instr.Op, line)

	case value.OpAnd:
		b, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		a, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		vm.push(value.And(a, b))
	case value.OpOr:
		b, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		a, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		vm.push(value.Or(a, b))
	case value.OpNot:
		a, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		vm.push(value.Not(a))

	case value.OpEq, value.OpNe, value.OpLt, value.OpLe, value.OpGt, value.OpGe:
		return halt, vm.compare(instr.Op, line)

	case value.OpNeg:
		a, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		if a.Kind() != value.Int && a.Kind() != value.Float {
			return false, &Error{line, "unary '-' requires a numeric operand"}
		}
		vm.push(value.Neg(a))
	case value.OpLNot:
		a, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		vm.push(value.LNot(a))

	case value.OpOut:
		if len(vm.stack) == 0 {
			return false, &Error{line, "stack underflow"}
		}
		fmt.Fprintln(vm.stdout(), prog.Objects.ToString(vm.top()))
	case value.OpPop:
		if _, errp := vm.pop(line); errp != nil {
			return false, errp
		}

	case value.OpJ:
		nextIP = instr.Arg
	case value.OpJZ:
		v, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		b, ok := v.Truthy()
		if !ok {
			return false, &Error{line, fmt.Sprintf("expected bool in conditional jump, got %s", v.Kind())}
		}
		if !b {
			nextIP = instr.Arg
		}
	case value.OpJNZ:
		v, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		b, ok := v.Truthy()
		if !ok {
			return false, &Error{line, fmt.Sprintf("expected bool in conditional jump, got %s", v.Kind())}
		}
		if b {
			nextIP = instr.Arg
		}

	case value.OpDefGlobal:
		name := prog.Objects.String(prog.Constants[instr.Arg].Handle())
		v, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		if _, exists := vm.globals.Get(name); exists {
			return false, &Error{line, fmt.Sprintf("global %q already defined", name)}
		}
		vm.globals.Put(name, v)
	case value.OpLoad:
		name := prog.Objects.String(prog.Constants[instr.Arg].Handle())
		v, ok := vm.globals.Get(name)
		if !ok {
			return false, &Error{line, fmt.Sprintf("undefined variable %q", name)}
		}
		vm.push(v)
	case value.OpSet:
		name := prog.Objects.String(prog.Constants[instr.Arg].Handle())
		if _, exists := vm.globals.Get(name); !exists {
			return false, &Error{line, fmt.Sprintf("undefined variable %q", name)}
		}
		vm.globals.Put(name, vm.top())

	case value.OpLoadLocal:
		idx := fr.slotBase + instr.Arg
		if idx < 0 || idx >= len(vm.stack) {
			return false, &Error{line, "invalid local slot reference"}
		}
		vm.push(vm.stack[idx])
	case value.OpSetLocal:
		idx := fr.slotBase + instr.Arg
		if idx < 0 || idx >= len(vm.stack) {
			return false, &Error{line, "invalid local slot reference"}
		}
		vm.stack[idx] = vm.top()

	case value.OpLoadNative:
		name := prog.Objects.String(prog.Constants[instr.Arg].Handle())
		if _, ok := vm.natives.Lookup(name); !ok {
			return false, &Error{line, fmt.Sprintf("undefined native %q", name)}
		}
		vm.push(value.NativeValue(instr.Arg))

	case value.OpCall:
		// the callee's frame is about to be pushed on top of this one, so
		// fr's own resumption point must be recorded by index now: fr (and
		// nextIP, via the deferred write below) may be stale once call
		// appends to vm.frames and possibly reallocates it.
		vm.frames[len(vm.frames)-1].ip = nextIP
		if errc := vm.call(prog, fr, instr.Arg, line); errc != nil {
			return false, errc
		}

	case value.OpCallNative:
		if errc := vm.callNative(prog, instr.Arg, line); errc != nil {
			return false, errc
		}

	case value.OpRet:
		v, errp := vm.pop(line)
		if errp != nil {
			return false, errp
		}
		calleeAt := fr.slotBase - 1
		if calleeAt < 0 || calleeAt > len(vm.stack) {
			return false, &Error{line, "frame underflow on return"}
		}
		vm.stack = append(vm.stack[:calleeAt], v)
		vm.frames = vm.frames[:len(vm.frames)-1]
		return false, nil

	case value.OpHlt:
		return true, nil

	default:
		return false, &Error{line, fmt.Sprintf("illegal opcode %s", instr.Op)}
	}

	return false, nil
}

// binaryArith pops two operands and pushes the result of the given
// arithmetic opcode, promoting Int/Float per value.Add/Sub/Mul/Div/etc.
func (vm *Interpreter) binaryArith(op value.Op, line int) error {
	b, err := vm.pop(line)
	if err != nil {
		return err
	}
	a, err := vm.pop(line)
	if err != nil {
		return err
	}
	if op == value.OpMod && b.Kind() == value.Int && b.Int() == 0 {
		return &Error{line, "integer modulo by zero"}
	}

	var r value.Value
	switch op {
	case value.OpAdd:
		r = value.Add(a, b)
	case value.OpSub:
		r = value.Sub(a, b)
	case value.OpMul:
		r = value.Mul(a, b)
	case value.OpDiv:
		r = value.Div(a, b)
	case value.OpMod:
		r = value.Mod(a, b)
	case value.OpShr:
		r = value.Shr(a, b)
	case value.OpShl:
		r = value.Shl(a, b)
	case value.OpLAnd:
		r = value.LAnd(a, b)
	case value.OpLOr:
		r = value.LOr(a, b)
	case value.OpLXor:
		r = value.LXor(a, b)
	}
	if r.IsNil() {
		return &Error{line, fmt.Sprintf("%s is not defined between %s and %s", op, a.Kind(), b.Kind())}
	}
	vm.push(r)
	return nil
}

func (vm *Interpreter) compare(op value.Op, line int) error {
	b, err := vm.pop(line)
	if err != nil {
		return err
	}
	a, err := vm.pop(line)
	if err != nil {
		return err
	}

	if op == value.OpEq {
		vm.push(value.BoolValue(value.Equal(a, b)))
		return nil
	}
	if op == value.OpNe {
		vm.push(value.BoolValue(!value.Equal(a, b)))
		return nil
	}

	c, ok := value.Compare(a, b)
	if !ok {
		return &Error{line, fmt.Sprintf("%s and %s are not comparable", a.Kind(), b.Kind())}
	}
	var r bool
	switch op {
	case value.OpLt:
		r = c < 0
	case value.OpLe:
		r = c <= 0
	case value.OpGt:
		r = c > 0
	case value.OpGe:
		r = c >= 0
	}
	vm.push(value.BoolValue(r))
	return nil
}

// call pushes a new frame for the user function found n slots below the
// current stack top (per Call(n)'s contract: stack[top-n] must hold
// Value::Function(id) with functions[id].arity == n).
func (vm *Interpreter) call(prog *value.Program, _ *frame, argc int, line int) error {
	calleeIdx := len(vm.stack) - argc - 1
	if calleeIdx < 0 {
		return &Error{line, "stack underflow on call"}
	}
	callee := vm.stack[calleeIdx]
	if callee.Kind() != value.Function {
		return &Error{line, "expected function at call site"}
	}
	fn := prog.Functions.Get(callee.Handle())
	if fn.Arity != argc {
		return &Error{line, fmt.Sprintf("%s expects %d arguments, got %d", fn.Name, fn.Arity, argc)}
	}
	vm.frames = append(vm.frames, frame{funcID: callee.Handle(), ip: 0, slotBase: calleeIdx + 1})
	return nil
}

// callNative pops the native marker and its n arguments (args[0] being the
// last one pushed), invokes the bound native, and pushes its result.
func (vm *Interpreter) callNative(prog *value.Program, argc int, line int) error {
	// the compiler emits the args first and OpLoadNative last, so the
	// marker sits on top of the stack, with the argc arguments beneath it.
	markerIdx := len(vm.stack) - 1
	if markerIdx < 0 || markerIdx-argc < 0 {
		return &Error{line, "stack underflow on native call"}
	}
	marker := vm.stack[markerIdx]
	if marker.Kind() != value.NativeFunction {
		return &Error{line, "expected native function marker"}
	}
	name := prog.Objects.String(prog.Constants[marker.Handle()].Handle())
	fn, ok := vm.natives.Lookup(name)
	if !ok {
		return &Error{line, fmt.Sprintf("undefined native %q", name)}
	}

	// args[0] is the most recently pushed (top-of-window) argument, args[n-1]
	// the first pushed, matching the native registry's documented contract.
	args := make([]value.Value, argc)
	for i := 0; i < argc; i++ {
		args[i] = vm.stack[markerIdx-1-i]
	}

	ret, err := fn(&prog.Objects, argc, args)
	if err != nil {
		return &Error{line, err.Error()}
	}
	vm.stack = vm.stack[:markerIdx-argc]
	vm.push(ret)
	return nil
}
