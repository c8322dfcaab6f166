package cpu

import (
	"fmt"
	"io"
	"iter"
)

// Line represents a line of source with its location and the bytes it emits.
type Line struct {
	LineNo    int    // Source line number.
	Address   int    // Address of the first emitted byte.
	Text      string // Source text with comments removed.
	Bytes     []byte // Emitted bytes.
	LinkLabel string // Label whose address replaces the last byte.
}

// Program is a loaded or assembled listing.
type Program struct {
	Lines []Line
}

type Debug struct {
	*Line
	Index int
}

// Debug finds the source line that emitted the byte at address.
func (prog *Program) Debug(address int) (dbg Debug) {
	for n, line := range prog.Lines {
		if address >= line.Address && address < line.Address+len(line.Bytes) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: address - line.Address,
			}
			break
		}
	}

	return
}

// Bytes iterates over every emitted byte and its address.
func (prog *Program) Bytes() iter.Seq2[int, byte] {
	return func(yield func(address int, value byte) bool) {
		for _, line := range prog.Lines {
			for n, value := range line.Bytes {
				if !yield(line.Address+n, value) {
					return
				}
			}
		}
	}
}

// Size returns the number of bytes the program occupies from address 0.
func (prog *Program) Size() (size int) {
	for _, line := range prog.Lines {
		size = max(size, line.Address+len(line.Bytes))
	}
	return
}

// Binary returns the memory image of the program.
func (prog *Program) Binary() (bin []byte) {
	bin = make([]byte, prog.Size())
	for address, value := range prog.Bytes() {
		bin[address] = value
	}

	return
}

// WriteListing writes the program as binary literals, one byte per line,
// with the disassembled instruction as a comment on its opcode byte.
func (prog *Program) WriteListing(w io.Writer) (err error) {
	bin := prog.Binary()
	for address, in := range Disassemble(bin) {
		size := 1
		if in.Op.Known() {
			size = in.Len()
		}
		for n := range size {
			if address+n >= len(bin) {
				break
			}
			value := bin[address+n]
			if n == 0 {
				_, err = fmt.Fprintf(w, "%08b # %02X: %v\n", value, address, in)
			} else {
				_, err = fmt.Fprintf(w, "%08b\n", value)
			}
			if err != nil {
				return
			}
		}
	}

	return
}
