package cpu

const (
	MEMORY_SIZE    = 256  // Bytes of addressable memory.
	REGISTER_COUNT = 8    // General-purpose registers.
	REG_SP         = 7    // Register used as the stack pointer.
	STACK_BASE     = 0xF4 // Reset value of the stack pointer.
)

// Flag bits written by CMP. Exactly one is set after a compare.
const (
	FLAG_LT = uint8(1 << 5) // Less-than
	FLAG_GT = uint8(1 << 6) // Greater-than
	FLAG_EQ = uint8(1 << 7) // Equal
)

// Memory holds the machine state: memory, registers, flags and the
// program counter.
type Memory struct {
	Ram      [MEMORY_SIZE]byte    // Byte addressable memory.
	Register [REGISTER_COUNT]byte // Register bank, r7 is the stack pointer.
	Flags    uint8                // Condition flags from the last CMP.
	Pc       int                  // Address of the next instruction.
	Pushed   int                  // Values on the stack.
}

// Snapshot is a copy of the complete machine state.
type Snapshot Memory

// Reset zeroes memory, registers and flags, empties the stack, and sets
// the stack pointer to STACK_BASE.
func (m *Memory) Reset() {
	clear(m.Ram[:])
	clear(m.Register[:])
	m.Register[REG_SP] = STACK_BASE
	m.Flags = 0
	m.Pc = 0
	m.Pushed = 0
}

// Read a byte of memory.
func (m *Memory) Read(address int) (value byte, err error) {
	if address < 0 || address >= MEMORY_SIZE {
		err = ErrOutOfBounds
		return
	}

	value = m.Ram[address]
	return
}

// Write a byte of memory.
func (m *Memory) Write(address int, value byte) (err error) {
	if address < 0 || address >= MEMORY_SIZE {
		err = ErrOutOfBounds
		return
	}

	m.Ram[address] = value
	return
}

// RegisterGet returns a register. The index is taken modulo the register count.
func (m *Memory) RegisterGet(index byte) byte {
	return m.Register[index%REGISTER_COUNT]
}

// RegisterSet sets a register. The index is taken modulo the register count.
func (m *Memory) RegisterSet(index byte, value byte) {
	m.Register[index%REGISTER_COUNT] = value
}

// Snapshot returns a copy of the machine state.
func (m *Memory) Snapshot() Snapshot {
	return Snapshot(*m)
}

// Restore replaces the machine state with a snapshot.
func (m *Memory) Restore(snap Snapshot) {
	*m = Memory(snap)
}
