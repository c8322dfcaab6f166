package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode is an instruction byte.
type Opcode uint8

const (
	OP_HLT  = Opcode(0b00000001)
	OP_LDI  = Opcode(0b10000010)
	OP_PRN  = Opcode(0b01000111)
	OP_PUSH = Opcode(0b01000101)
	OP_POP  = Opcode(0b01000110)
	OP_JMP  = Opcode(0b01010100)
	OP_JEQ  = Opcode(0b01010101)
	OP_JNE  = Opcode(0b01010110)
	OP_ADD  = Opcode(0b10100000)
	OP_MUL  = Opcode(0b10100010)
	OP_DIV  = Opcode(0b10100011)
	OP_CMP  = Opcode(0b10100111)
	OP_AND  = Opcode(0b10101000)
)

const (
	OPERAND_SHIFT = 6      // Operand count lives in the top two bits.
	ALU_BIT       = 1 << 5 // Set on every ALU operation.
)

// CodeArg is how an operand byte is interpreted.
type CodeArg int

const (
	ARG_NONE = CodeArg(0) // unused
	ARG_REG  = CodeArg(1) // register index
	ARG_IMM  = CodeArg(2) // immediate value
)

var opcodeName = map[Opcode]string{
	OP_HLT:  "HLT",
	OP_LDI:  "LDI",
	OP_PRN:  "PRN",
	OP_PUSH: "PUSH",
	OP_POP:  "POP",
	OP_JMP:  "JMP",
	OP_JEQ:  "JEQ",
	OP_JNE:  "JNE",
	OP_ADD:  "ADD",
	OP_MUL:  "MUL",
	OP_DIV:  "DIV",
	OP_CMP:  "CMP",
	OP_AND:  "AND",
}

var opcodeArgs = map[Opcode][2]CodeArg{
	OP_HLT:  {ARG_NONE, ARG_NONE},
	OP_LDI:  {ARG_REG, ARG_IMM},
	OP_PRN:  {ARG_REG, ARG_NONE},
	OP_PUSH: {ARG_REG, ARG_NONE},
	OP_POP:  {ARG_REG, ARG_NONE},
	OP_JMP:  {ARG_REG, ARG_NONE},
	OP_JEQ:  {ARG_REG, ARG_NONE},
	OP_JNE:  {ARG_REG, ARG_NONE},
	OP_ADD:  {ARG_REG, ARG_REG},
	OP_MUL:  {ARG_REG, ARG_REG},
	OP_DIV:  {ARG_REG, ARG_REG},
	OP_CMP:  {ARG_REG, ARG_REG},
	OP_AND:  {ARG_REG, ARG_REG},
}

// Operands returns the number of operand bytes that follow the opcode.
func (op Opcode) Operands() int {
	return int(op >> OPERAND_SHIFT)
}

// IsAlu returns true if the opcode is dispatched to the ALU.
func (op Opcode) IsAlu() bool {
	return (op & ALU_BIT) != 0
}

// Known returns true if the opcode is part of the instruction set.
func (op Opcode) Known() bool {
	_, ok := opcodeName[op]
	return ok
}

// Args returns how each operand byte is interpreted.
func (op Opcode) Args() [2]CodeArg {
	return opcodeArgs[op]
}

func (op Opcode) String() string {
	name, ok := opcodeName[op]
	if !ok {
		return fmt.Sprintf("0x%02x", uint8(op))
	}
	return name
}

// LookupOpcode finds the opcode for a mnemonic, ignoring case.
func LookupOpcode(mnemonic string) (op Opcode, ok bool) {
	mnemonic = strings.ToUpper(mnemonic)
	for code, name := range opcodeName {
		if name == mnemonic {
			return code, true
		}
	}
	return
}

// Instruction is a decoded opcode byte with its two candidate operands.
type Instruction struct {
	Op Opcode
	A  byte
	B  byte
}

// Len returns the number of bytes the instruction occupies.
func (in Instruction) Len() int {
	return 1 + in.Op.Operands()
}

// Bytes returns the encoded instruction.
func (in Instruction) Bytes() []byte {
	return []byte{byte(in.Op), in.A, in.B}[:min(in.Len(), 3)]
}

// String returns the instruction in assembler syntax.
func (in Instruction) String() string {
	if !in.Op.Known() {
		return fmt.Sprintf(".byte 0x%02x", uint8(in.Op))
	}

	var args []string
	operands := [2]byte{in.A, in.B}
	for n, kind := range in.Op.Args() {
		switch kind {
		case ARG_REG:
			args = append(args, fmt.Sprintf("r%d", operands[n]&(REGISTER_COUNT-1)))
		case ARG_IMM:
			args = append(args, fmt.Sprintf("%d", operands[n]))
		}
	}

	if len(args) == 0 {
		return in.Op.String()
	}

	return in.Op.String() + " " + strings.Join(args, ",")
}

// Disassemble walks a byte image, yielding the address and decoded
// instruction at each step. Unknown opcodes are yielded as single bytes.
func Disassemble(image []byte) iter.Seq2[int, Instruction] {
	return func(yield func(address int, in Instruction) bool) {
		for address := 0; address < len(image); {
			in := Instruction{Op: Opcode(image[address])}
			if !in.Op.Known() {
				if !yield(address, in) {
					return
				}
				address++
				continue
			}
			if address+1 < len(image) {
				in.A = image[address+1]
			}
			if address+2 < len(image) {
				in.B = image[address+2]
			}
			if !yield(address, in) {
				return
			}
			address += in.Len()
		}
	}
}
