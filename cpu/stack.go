package cpu

// The stack occupies memory below its base and grows downward. SP points
// at the most recently pushed value. Pushed counts the values on the
// stack, so a program may move SP anywhere and still balance its pairs.

// grow decrements SP for a push.
func (m *Memory) grow() (sp byte, err error) {
	sp = m.Register[REG_SP]
	if sp == 0 {
		err = ErrStackOverflow
		return
	}

	sp--
	m.Register[REG_SP] = sp
	m.Pushed++
	return
}

// shrink increments SP for a pop.
func (m *Memory) shrink() {
	m.Register[REG_SP]++
	m.Pushed--
}

// Push a value onto the stack.
func (m *Memory) Push(value byte) (err error) {
	sp, err := m.grow()
	if err != nil {
		return
	}

	m.Ram[sp] = value
	return
}

// PushRegister decrements SP, then stores the register at SP.
// Pushing r7 stores the decremented stack pointer.
func (m *Memory) PushRegister(index byte) (err error) {
	sp, err := m.grow()
	if err != nil {
		return
	}

	m.Ram[sp] = m.RegisterGet(index)
	return
}

// Pop a value from the stack.
func (m *Memory) Pop() (value byte, err error) {
	if m.Pushed == 0 {
		err = ErrStackUnderflow
		return
	}

	value = m.Ram[m.Register[REG_SP]]
	m.shrink()
	return
}

// PopRegister loads the register from SP, then increments SP.
// Popping r7 leaves SP one past the popped value.
func (m *Memory) PopRegister(index byte) (err error) {
	if m.Pushed == 0 {
		err = ErrStackUnderflow
		return
	}

	m.RegisterSet(index, m.Ram[m.Register[REG_SP]])
	m.shrink()
	return
}

// Peek returns the value at the top of the stack, if any.
func (m *Memory) Peek() (value byte, ok bool) {
	if m.Pushed == 0 {
		return
	}

	return m.Ram[m.Register[REG_SP]], true
}

// Depth returns the number of values on the stack.
func (m *Memory) Depth() int {
	return m.Pushed
}
