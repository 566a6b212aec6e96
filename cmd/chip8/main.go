// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"iter"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/frontend"
	"github.com/ezrec/chip8/io"
)

func main() {
	var compile string
	var rom string
	var config_file string
	var hz int
	var scale int
	var terminal bool
	var save string
	var disassemble bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble and run")
	flag.StringVar(&rom, "r", "", ".ch8 ROM file to run")
	flag.StringVar(&config_file, "config", "", ".toml configuration file")
	flag.IntVar(&hz, "hz", 0, "Instructions per second (default from configuration)")
	flag.IntVar(&scale, "scale", 0, "Window pixels per display pixel (default from configuration)")
	flag.BoolVar(&terminal, "term", false, "Run on the terminal instead of a window")
	flag.StringVar(&save, "s", "", "Save assembled program to a ROM file, do not execute")
	flag.BoolVar(&disassemble, "d", false, "Disassemble the program to stdout, do not execute")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if (len(compile) == 0) == (len(rom) == 0) {
		log.Fatalf("%v: exactly one of -c or -r is required", os.Args[0])
	}

	config := emulator.DefaultConfig()
	if len(config_file) != 0 {
		var err error
		config, err = emulator.LoadConfig(config_file)
		if err != nil {
			log.Fatalf("%v: %v", config_file, err)
		}
	}
	if hz != 0 {
		config.CpuHz = hz
	}
	if scale != 0 {
		config.Scale = scale
	}
	err := config.Validate()
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	emu := emulator.NewEmulator(config)
	emu.Verbose = verbose

	var codes iter.Seq2[uint16, cpu.Code]

	// Assemble a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if len(save) != 0 {
			err = os.WriteFile(save, prog.Binary(), 0o644)
			if err != nil {
				log.Fatalf("%v: %v", save, err)
			}
			return
		}

		err = emu.LoadProgram(prog)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		codes = prog.Codes()
	} else {
		if len(save) != 0 {
			log.Fatalf("%v: -s requires -c", os.Args[0])
		}

		inf, err := os.Open(rom)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		defer inf.Close()

		image, err := io.ReadRom(inf)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}

		err = emu.LoadRom(image)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		codes = cpu.Disassemble(image)
	}

	if disassemble {
		for pc, code := range codes {
			fmt.Printf("%03x: %04x  %v\n", pc, uint16(code), code)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var host frontend.Host
	if terminal {
		tt := frontend.NewTerminal(emu)
		tt.Verbose = verbose
		host = tt
	} else {
		win, err := frontend.NewWindow(emu)
		if err != nil {
			log.Fatalf("%v: %v", os.Args[0], err)
		}
		win.Verbose = verbose
		win.Title = fmt.Sprintf("CHIP-8 - %v", filepath.Base(compile+rom))
		host = win
	}

	err = host.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}
