package value

// Program is the output of a successful compile: a frozen function table
// plus the shared constant and object pools it references. It is what
// run(program, debug_flag, output_sink) consumes.
type Program struct {
	Functions FunctionTable
	Constants []Value
	Objects   Pool
}

// Main returns the top-level script function, always function-table index
// 0.
func (p *Program) Main() *Function { return p.Functions.Get(0) }
