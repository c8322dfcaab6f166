package emulator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ls8/cpu"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.NotNil(emu.Program)

	channel, err := emu.Cpu.GetChannel()
	assert.NoError(err)
	assert.Equal(&emu.Tape, channel)
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}

	assert.Equal("0", defines["PROGRAM_BASE"])
	assert.Equal("r7", defines["SP"])
	assert.Equal("0xf4", defines["STACK_BASE"])
	assert.Equal("256", defines["MEMORY_SIZE"])
	assert.Equal(4, len(defines))
}

func doRunSingle(emu *Emulator, program []string, t *testing.T) (output string) {
	assert := assert.New(t)

	asm := emu.Assembler()
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}
	emu.Program = prog

	tape_output := &bytes.Buffer{}
	emu.Tape.Output = tape_output

	err = emu.Reset()
	assert.NoError(err)

	var done bool
	for !done {
		line := emu.LineNo()
		here := ""
		if line > 0 {
			here = program[line-1]
		}
		done, err = emu.Tick()
		assert.NoError(err, here)
		if err != nil {
			t.Log(emu.Cpu.String())
			t.Fatalf("%v", err)
		}
	}

	output = tape_output.String()
	return
}

func TestEmulator_Print(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0,8",
		"LDI R1,9",
		"ADD R0,R1",
		"PRN R0",
		"HLT",
	}

	output := doRunSingle(emu, program, t)
	assert.Equal("17\n", output)
	assert.Equal(5, emu.Ticks())
	assert.Equal(12, emu.Pc())

	// Ticking a halted emulator is done, without error.
	done, err := emu.Tick()
	assert.True(done)
	assert.NoError(err)
}

func TestEmulator_Listing(t *testing.T) {
	assert := assert.New(t)

	listing := []string{
		"10000010 # LDI R0,8",
		"00000000",
		"00001000",
		"10000010 # LDI R1,9",
		"00000001",
		"00001001",
		"10100000 # ADD R0,R1",
		"00000000",
		"00000001",
		"01000111 # PRN R0",
		"00000000",
		"00000001 # HLT",
	}

	prog, err := cpu.LoadListing(strings.NewReader(strings.Join(listing, "\n")))
	assert.NoError(err)

	emu := NewEmulator()
	emu.Program = prog
	out := &bytes.Buffer{}
	emu.Tape.Output = out

	assert.NoError(emu.Reset())
	assert.NoError(emu.Run(context.Background()))
	assert.True(emu.Cpu.Halted)
	assert.Equal("17\n", out.String())
}

func TestEmulator_Mult(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0,8",
		"LDI R1,9",
		"MUL R0,R1",
		"PRN R0",
		"LDI R2,$(72 // 8)",
		"DIV R0,R2",
		"PRN R0",
		"HLT",
	}

	assert.Equal("72\n8\n", doRunSingle(emu, program, t))
}

func TestEmulator_Stack(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0,1",
		"LDI R1,2",
		"PUSH R0",
		"PUSH R1",
		"LDI R0,3",
		"PUSH R0",
		"POP R2",
		"POP R3",
		"POP R4",
		"PRN R2",
		"PRN R3",
		"PRN R4",
		"PRN SP",
		"HLT",
	}

	assert.Equal("3\n2\n1\n244\n", doRunSingle(emu, program, t))
}

func TestEmulator_StackRelocated(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI SP,0xff",
		"LDI R0,9",
		"PUSH R0",
		"POP R1",
		"PRN R1",
		"PUSH SP",
		"POP R2",
		"PRN R2",
		"PRN SP",
		"HLT",
	}

	assert.Equal("9\n254\n255\n", doRunSingle(emu, program, t))
}

func TestEmulator_Branch(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		".equ COUNT 5",
		"       LDI r0,0",
		"       LDI r1,1",
		"       LDI r3,COUNT",
		"       LDI r2,LOOP",
		"LOOP:  ADD r0,r1",
		"       PRN r0",
		"       CMP r0,r3",
		"       JNE r2",
		"       LDI r2,DONE",
		"       JEQ r2",
		"       PRN r1",
		"DONE:  HLT",
	}

	assert.Equal("1\n2\n3\n4\n5\n", doRunSingle(emu, program, t))
}

func TestEmulator_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0,8",
		"LDI R1,0",
		"DIV R0,R1",
		"HLT",
	}

	asm := emu.Assembler()
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	emu.Program = prog
	assert.NoError(emu.Reset())

	err = emu.Run(context.Background())
	assert.ErrorIs(err, cpu.ErrDivisionByZero)

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(3, runtime.LineNo)
		assert.Equal(6, runtime.Address)
	}
	assert.Contains(err.Error(), "line 3 address 0x06")
	assert.Equal(byte(8), emu.Cpu.RegisterGet(0))

	// Faulted until reset.
	_, err = emu.Tick()
	assert.ErrorIs(err, cpu.ErrFaulted)

	assert.NoError(emu.Reset())
	assert.NoError(emu.Cpu.Fault)
}

func TestEmulator_NoListing(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assert.NoError(emu.Reset())

	// Memory is all zero: opcode 0x00 is not an instruction.
	_, err := emu.Tick()
	assert.ErrorIs(err, cpu.ErrUnsupportedOpcode)
	assert.Equal("address 0x00 bad instruction 0x00 .byte 0x00\nunsupported opcode", err.Error())
}

func TestEmulator_Cancel(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LOOP: LDI r0,LOOP",
		"      JMP r0",
	}
	prog, err := emu.Assembler().Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	emu.Program = prog
	assert.NoError(emu.Reset())

	ctx, cancel := context.WithCancel(context.Background())
	for range 10 {
		_, err = emu.Tick()
		assert.NoError(err)
	}
	cancel()

	assert.ErrorIs(emu.Run(ctx), context.Canceled)
	assert.Equal(10, emu.Ticks())
}

func TestEmulator_Verbose(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Verbose = true
	output := doRunSingle(emu, []string{"LDI r0,42", "PRN r0", "HLT"}, t)
	assert.Equal("42\n", output)
	assert.True(emu.Cpu.Verbose)
}
