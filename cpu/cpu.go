package cpu

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/ls8/io"
)

// Channel is an output channel interface.
type Channel io.Channel

var _cpu_defines = map[string]string{
	"SP":          fmt.Sprintf("r%d", REG_SP),
	"STACK_BASE":  fmt.Sprintf("0x%x", STACK_BASE),
	"MEMORY_SIZE": fmt.Sprintf("%d", MEMORY_SIZE),
}

// handler executes a non-ALU instruction body with its two operand bytes.
type handler func(cpu *Cpu, a, b byte) error

// branchTable dispatches every non-ALU opcode.
var branchTable = map[Opcode]handler{
	OP_HLT:  (*Cpu).hlt,
	OP_LDI:  (*Cpu).ldi,
	OP_PRN:  (*Cpu).prn,
	OP_PUSH: (*Cpu).push,
	OP_POP:  (*Cpu).pop,
	OP_JMP:  (*Cpu).jmp,
	OP_JEQ:  (*Cpu).jeq,
	OP_JNE:  (*Cpu).jne,
}

// Cpu is the simulation context for the LS-8 machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory // Memory, registers, flags and program counter.

	Halted bool  // Set by HLT.
	Fault  error // First fatal error, cleared by Reset.
	Ticks  int   // Instructions executed since reset.

	channel Channel // Output channel for PRN.
}

// NewCpu creates a new CPU in its reset state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Clears memory, registers and flags; SP is set to STACK_BASE.
// - Clears the halted and faulted states.
// - Zeros the tick counter.
// - Rewinds the output channel.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Memory.Reset()
	cpu.Halted = false
	cpu.Fault = nil
	cpu.Ticks = 0

	if cpu.channel != nil {
		cpu.channel.Rewind()
	}
}

// Load writes a program image into memory starting at address 0.
func (cpu *Cpu) Load(image []byte) (err error) {
	if len(image) > MEMORY_SIZE {
		err = ErrProgramTooLarge
		return
	}

	copy(cpu.Ram[:], image)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", len(image))
	}

	return
}

// SetChannel sets the output channel used by PRN.
func (cpu *Cpu) SetChannel(channel Channel) {
	cpu.channel = channel
}

// GetChannel gets the output channel used by PRN.
func (cpu *Cpu) GetChannel() (channel Channel, err error) {
	if cpu.channel == nil {
		err = ErrChannelInvalid
		return
	}

	channel = cpu.channel
	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %02X\n", "pc", cpu.Pc)
	text += fmt.Sprintf("% 5s: %08b\n", "flags", cpu.Flags)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 5s: %02X\n", fmt.Sprintf("r%d", n), val)
	}

	top, ok := cpu.Peek()
	if ok {
		text += fmt.Sprintf("% 5s: %02X (%d)\n", "stack", top, cpu.Depth())
	} else {
		text += fmt.Sprintf("% 5s: --\n", "stack")
	}

	return
}

// Trace returns a single line with the program counter, the next three
// memory bytes and the register bank.
func (cpu *Cpu) Trace() (text string) {
	var peek [3]byte
	for n := range peek {
		peek[n], _ = cpu.Read(cpu.Pc + n)
	}

	text = fmt.Sprintf("TRACE: %02X | %02X %02X %02X |", cpu.Pc, peek[0], peek[1], peek[2])
	for _, val := range cpu.Register {
		text += fmt.Sprintf(" %02X", val)
	}

	return
}

// Fetch reads the instruction at the program counter. Operand bytes that
// lie past the end of memory read as zero unless the opcode uses them.
func (cpu *Cpu) Fetch() (in Instruction, err error) {
	op, err := cpu.Read(cpu.Pc)
	if err != nil {
		return
	}
	in.Op = Opcode(op)

	var operands [2]byte
	for n := range operands {
		address := cpu.Pc + 1 + n
		if address < MEMORY_SIZE {
			operands[n] = cpu.Ram[address]
		} else if n < in.Op.Operands() {
			err = ErrOutOfBounds
			return
		}
	}
	in.A, in.B = operands[0], operands[1]

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Fault != nil {
		return errors.Join(ErrFaulted, cpu.Fault)
	}

	if cpu.Halted {
		return ErrHalted
	}

	defer func() {
		if err != nil {
			cpu.Fault = err
		}
	}()

	in, err := cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(in)

	return
}

// Execute executes a single decoded instruction. The program counter is
// advanced past the instruction before its body runs, so jumps replace it.
func (cpu *Cpu) Execute(in Instruction) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(in), err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%02x: %v", cpu.Pc, in)
	}

	cpu.Pc += in.Len()

	if in.Op.IsAlu() {
		err = cpu.alu(in.Op, in.A, in.B)
	} else {
		exec, ok := branchTable[in.Op]
		if !ok {
			err = ErrUnsupportedOpcode
			return
		}
		err = exec(cpu, in.A, in.B)
	}
	if err != nil {
		return
	}

	cpu.Ticks += 1

	return
}

// Run executes instructions until the CPU halts, faults, or the context
// is done. The context is checked before every fetch.
func (cpu *Cpu) Run(ctx context.Context) (err error) {
	for !cpu.Halted {
		err = ctx.Err()
		if err != nil {
			return
		}

		err = cpu.Tick()
		if err != nil {
			return
		}
	}

	return
}

func (cpu *Cpu) hlt(a, b byte) (err error) {
	cpu.Halted = true
	return
}

func (cpu *Cpu) ldi(a, b byte) (err error) {
	cpu.RegisterSet(a, b)
	return
}

func (cpu *Cpu) prn(a, b byte) (err error) {
	channel, err := cpu.GetChannel()
	if err != nil {
		return
	}

	err = channel.Send(cpu.RegisterGet(a))
	return
}

func (cpu *Cpu) push(a, b byte) (err error) {
	err = cpu.PushRegister(a)
	return
}

func (cpu *Cpu) pop(a, b byte) (err error) {
	err = cpu.PopRegister(a)
	return
}

func (cpu *Cpu) jmp(a, b byte) (err error) {
	cpu.Pc = int(cpu.RegisterGet(a))
	return
}

func (cpu *Cpu) jeq(a, b byte) (err error) {
	if (cpu.Flags & FLAG_EQ) != 0 {
		cpu.Pc = int(cpu.RegisterGet(a))
	}
	return
}

func (cpu *Cpu) jne(a, b byte) (err error) {
	if (cpu.Flags & FLAG_EQ) == 0 {
		cpu.Pc = int(cpu.RegisterGet(a))
	}
	return
}
