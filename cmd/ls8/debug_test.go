package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
)

func newTestDebugger(t *testing.T, program ...string) (dbg *debugger, output *bytes.Buffer, tape *bytes.Buffer) {
	emu := emulator.NewEmulator()
	prog, err := emu.Assembler().Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	emu.Program = prog

	tape = &bytes.Buffer{}
	emu.Tape.Output = tape

	err = emu.Reset()
	if err != nil {
		t.Fatal(err)
	}

	output = &bytes.Buffer{}
	dbg = &debugger{emu: emu, output: output}

	return
}

func TestDebugger_Step(t *testing.T) {
	assert := assert.New(t)

	dbg, output, tape := newTestDebugger(t, "LDI r0,42", "PRN r0", "HLT")
	ctx := context.Background()

	assert.NoError(dbg.command(ctx, "step"))
	assert.Equal("00: LDI r0,42\npc:03* fl:00  r0:2A* r1:00  r2:00  r3:00  r4:00  r5:00  r6:00  r7:F4 \n",
		output.String())

	output.Reset()
	assert.NoError(dbg.command(ctx, "s 5"))
	assert.Equal("03: PRN r0\n", strings.SplitAfter(output.String(), "\n")[0])
	assert.Contains(output.String(), "halted\n")
	assert.Equal("42\n", tape.String())
	assert.True(dbg.emu.Cpu.Halted)
}

func TestDebugger_Continue(t *testing.T) {
	assert := assert.New(t)

	dbg, output, tape := newTestDebugger(t, "LDI r0,8", "LDI r1,9", "ADD r0,r1", "PRN r0", "HLT")
	ctx := context.Background()

	assert.NoError(dbg.command(ctx, "c"))
	assert.Equal("halted after 5 ticks\n", output.String())
	assert.Equal("17\n", tape.String())

	assert.NoError(dbg.command(ctx, "reset"))
	assert.False(dbg.emu.Cpu.Halted)
	assert.Equal(0, dbg.emu.Pc())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(dbg.command(cancelled, "continue"), context.Canceled)
}

func TestDebugger_Fault(t *testing.T) {
	assert := assert.New(t)

	dbg, _, _ := newTestDebugger(t, "LDI r1,0", "DIV r0,r1")
	ctx := context.Background()

	assert.ErrorIs(dbg.command(ctx, "s 2"), cpu.ErrDivisionByZero)
	assert.ErrorIs(dbg.command(ctx, "s"), cpu.ErrFaulted)
}

func TestDebugger_Regs(t *testing.T) {
	assert := assert.New(t)

	dbg, output, _ := newTestDebugger(t, "HLT")

	assert.NoError(dbg.command(context.Background(), "regs"))
	assert.Equal(dbg.emu.Cpu.String(), output.String())
}

func TestDebugger_Memory(t *testing.T) {
	assert := assert.New(t)

	dbg, output, _ := newTestDebugger(t, "LDI r0,8", "HLT")
	ctx := context.Background()

	assert.NoError(dbg.command(ctx, "m 0 4"))
	assert.Equal("00: 82 00 08 01\n", output.String())

	output.Reset()
	assert.NoError(dbg.command(ctx, "mem 0xf0 20"))
	assert.Equal("F0: 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00\n", output.String())

	assert.ErrorIs(dbg.command(ctx, "m 0x100"), cpu.ErrOutOfBounds)
	assert.Error(dbg.command(ctx, "m"))
	assert.Error(dbg.command(ctx, "m zz"))
}

func TestDebugger_Commands(t *testing.T) {
	assert := assert.New(t)

	dbg, output, _ := newTestDebugger(t, "HLT")
	ctx := context.Background()

	assert.NoError(dbg.command(ctx, ""))
	assert.Equal(errQuit, dbg.command(ctx, "quit"))
	assert.Equal(errQuit, dbg.command(ctx, "q"))
	assert.EqualError(dbg.command(ctx, "bogus"), "bogus: unknown command")
	assert.Error(dbg.command(ctx, "step -1"))
	assert.Empty(output.String())
}
