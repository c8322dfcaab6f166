// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
)

func main() {
	var assemble bool
	var compile string
	var disassemble bool
	var verbose bool
	var interactive bool

	flag.BoolVar(&assemble, "a", false, "Program is assembly source")
	flag.StringVar(&compile, "c", "", "Write binary listing to file, do not execute")
	flag.BoolVar(&disassemble, "d", false, "Disassemble program, do not execute")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&interactive, "i", false, "Interactive debugger")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %v [flags] <program>\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	path := flag.Arg(0)

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Color = isatty.IsTerminal(os.Stderr.Fd())

	var prog *cpu.Program
	var err error
	if assemble {
		prog, err = emu.Assembler().ParseFile(path)
	} else {
		prog, err = cpu.LoadFile(path)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	if len(compile) != 0 {
		ouf, err := os.Create(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer ouf.Close()

		err = prog.WriteListing(ouf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		return
	}

	if disassemble {
		for address, in := range cpu.Disassemble(prog.Binary()) {
			fmt.Printf("%02X: %v\n", address, in)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	emu.Program = prog
	emu.Tape.Output = os.Stdout

	err = emu.Reset()
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	if interactive {
		err = debug(ctx, emu)
	} else {
		err = emu.Run(ctx)
	}
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}
}
