package cpu

// alu performs an ALU operation on registers a and b, storing the result
// in register a. All arithmetic wraps at 8 bits.
func (cpu *Cpu) alu(op Opcode, a, b byte) (err error) {
	x := cpu.RegisterGet(a)
	y := cpu.RegisterGet(b)

	switch op {
	case OP_ADD:
		cpu.RegisterSet(a, x+y)
	case OP_MUL:
		cpu.RegisterSet(a, x*y)
	case OP_AND:
		cpu.RegisterSet(a, x&y)
	case OP_DIV:
		if y == 0 {
			err = ErrDivisionByZero
			return
		}
		// Truncating integer division.
		cpu.RegisterSet(a, x/y)
	case OP_CMP:
		cpu.Flags = compare(x, y)
	default:
		err = ErrUnsupportedAlu
	}

	return
}

// compare returns a flag byte with exactly one of LT, GT or EQ set.
func compare(x, y byte) (flags uint8) {
	switch {
	case x < y:
		flags = FLAG_LT
	case x > y:
		flags = FLAG_GT
	default:
		flags = FLAG_EQ
	}
	return
}
