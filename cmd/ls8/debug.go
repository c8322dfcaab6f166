package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/shibukawa/configdir"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
)

var errQuit = errors.New("quit")

// debugger is a line oriented monitor over a running emulator.
type debugger struct {
	emu    *emulator.Emulator
	output io.Writer
}

// debug runs the interactive monitor until the user quits or input ends.
func debug(ctx context.Context, emu *emulator.Emulator) (err error) {
	configDirs := configdir.New("ls8", "debug")
	cacheDir := configDirs.QueryCacheFolder()
	historyPath := ""
	if err := cacheDir.MkdirAll(); err == nil {
		historyPath = filepath.Join(cacheDir.Path, "history")
	}

	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		HistoryFile:     historyPath,
	})
	if err != nil {
		return
	}
	defer rl.Close()

	// PRN output must not clobber the prompt.
	emu.Tape.Output = rl.Stdout()

	dbg := &debugger{emu: emu, output: rl.Stderr()}
	for {
		rl.SetPrompt(fmt.Sprintf("%02X> ", emu.Pc()))

		var line string
		line, err = rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			err = nil
			return
		}
		if err != nil {
			return
		}

		err = dbg.command(ctx, line)
		if err == errQuit {
			err = nil
			return
		}
		if err != nil {
			fmt.Fprintf(dbg.output, "%v\n", err)
		}
	}
}

// command executes a single monitor command line.
func (dbg *debugger) command(ctx context.Context, line string) (err error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}

	args := words[1:]
	switch words[0] {
	case "s", "step":
		count := 1
		if len(args) > 0 {
			count, err = dbg.number(args[0])
			if err != nil {
				return
			}
		}
		err = dbg.step(count)
	case "c", "continue":
		err = dbg.emu.Run(ctx)
		if err == nil {
			fmt.Fprintf(dbg.output, "halted after %d ticks\n", dbg.emu.Ticks())
		}
	case "r", "regs":
		fmt.Fprint(dbg.output, dbg.emu.Cpu.String())
	case "m", "mem":
		err = dbg.memory(args)
	case "reset":
		err = dbg.emu.Reset()
	case "q", "quit":
		err = errQuit
	default:
		err = fmt.Errorf("%v: unknown command", words[0])
	}

	return
}

// number parses a decimal, hex or binary count or address.
func (dbg *debugger) number(word string) (value int, err error) {
	v64, err := strconv.ParseInt(word, 0, 0)
	if err != nil || v64 < 0 {
		err = cpu.ErrParseNumber(word)
		return
	}

	value = int(v64)
	return
}

// step ticks the emulator count times, printing the state changes.
func (dbg *debugger) step(count int) (err error) {
	emu := dbg.emu
	for range count {
		if emu.Cpu.Halted {
			fmt.Fprintf(dbg.output, "halted\n")
			return
		}

		in, _ := emu.Cpu.Fetch()
		fmt.Fprintf(dbg.output, "%02X: %v\n", emu.Pc(), in)

		before := emu.Cpu.Snapshot()
		_, err = emu.Tick()
		if err != nil {
			return
		}
		fmt.Fprintf(dbg.output, "%v\n", emulator.Diff(before, emu.Cpu.Snapshot(), emu.Color))
	}

	return
}

// memory dumps count bytes of memory from address, 16 to a line.
func (dbg *debugger) memory(args []string) (err error) {
	if len(args) == 0 || len(args) > 2 {
		err = fmt.Errorf("usage: mem addr [n]")
		return
	}

	address, err := dbg.number(args[0])
	if err != nil {
		return
	}

	count := 16
	if len(args) == 2 {
		count, err = dbg.number(args[1])
		if err != nil {
			return
		}
	}

	var text string
	for n := range count {
		value, err := dbg.emu.Cpu.Read(address + n)
		if err != nil {
			break
		}
		if n%16 == 0 {
			if n != 0 {
				text += "\n"
			}
			text += fmt.Sprintf("%02X:", address+n)
		}
		text += fmt.Sprintf(" %02X", value)
	}
	if len(text) == 0 {
		err = cpu.ErrOutOfBounds
		return
	}

	fmt.Fprintln(dbg.output, text)

	return
}
