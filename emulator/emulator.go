// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/io"
)

var _emulator_defines = map[string]string{
	"FONT_SIZE": fmt.Sprintf("%d", len(FONT)),
	"KEY_COUNT": fmt.Sprintf("%d", io.KEY_COUNT),
}

// Emulator state. CPU + framebuffer + keypad + buzzer, driven by a clock.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Config      Config         // Configuration in effect.
	Framebuffer io.Framebuffer // Display.
	Keypad      io.Keypad      // Hex keypad.
	Keymap      io.Keymap      // Host key bindings.
	Tone        *io.Tone       // Buzzer.

	mutex  sync.Mutex
	clock  Clock
	halted bool
}

// NewEmulator creates a new emulator, with the font loaded and the CPU
// reset. An invalid keymap in the configuration falls back to the default.
func NewEmulator(config Config) (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
		Config:  config,
	}

	emu.Cpu = cpu.NewCpu(&emu.Framebuffer, &emu.Keypad)
	if config.Seed != 0 {
		emu.Cpu.Random = rand.New(rand.NewSource(config.Seed))
	}

	emu.Tone = io.NewTone(config.Tone.SampleRate)
	if config.Tone.Frequency > 0 {
		emu.Tone.Frequency = config.Tone.Frequency
	}
	emu.Tone.Volume = config.Tone.Volume
	emu.Cpu.Sound.OnZero = func() { emu.Tone.SetTone(false) }

	keymap, err := config.KeyMap()
	if err != nil {
		keymap = io.DefaultKeymap()
	}
	emu.Keymap = keymap

	emu.clock.Hz = config.CpuHz

	emu.reset()

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		cpu.Defines(),
	)
}

// reset the machine, keeping the loaded program.
func (emu *Emulator) reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.Cpu.ClearDisplay()
	emu.Cpu.Load(emu.Cpu.FontBase, FONT[:])
	emu.Keypad.Reset()
	emu.Tone.SetTone(false)
	emu.clock.Reset()
}

// Reset the machine to the start of the loaded program.
func (emu *Emulator) Reset() {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.reset()
}

// LoadRom loads a raw program image and clears the display.
// Registers, PC and timers are kept; Reset restarts the program.
func (emu *Emulator) LoadRom(rom []uint8) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	err = emu.Cpu.LoadRom(rom)
	if err != nil {
		return
	}

	emu.Program = &cpu.Program{}
	return
}

// LoadRomFile loads a raw program image from a file.
func (emu *Emulator) LoadRomFile(path string) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	rom, err := io.ReadRom(inf)
	if err != nil {
		return
	}

	err = emu.LoadRom(rom)
	return
}

// LoadProgram loads an assembled program, keeping its listing for
// LineNo().
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	err = emu.LoadRom(prog.Binary())
	if err != nil {
		return
	}

	emu.mutex.Lock()
	emu.Program = prog
	emu.mutex.Unlock()

	return
}

// lineNo returns the program line at an address, or 0 if unknown.
func (emu *Emulator) lineNo(pc uint16) int {
	dbg := emu.Program.Debug(pc)
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.lineNo(emu.Cpu.Pc)
}

// Status returns a snapshot of the registers.
func (emu *Emulator) Status() cpu.Status {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Cpu.Status()
}

// Fault returns the error that stopped the CPU, if any.
func (emu *Emulator) Fault() error {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Cpu.Fault()
}

// Start resumes the scheduler and the timers.
func (emu *Emulator) Start() {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	if emu.Verbose && emu.halted {
		log.Printf("emulator: start")
	}

	emu.halted = false
	emu.clock.Start()
	emu.Cpu.Delay.Start()
	emu.Cpu.Sound.Start()
	emu.Tone.SetTone(emu.Cpu.Sound.Get() > 0)
}

// Halt stops the scheduler and the timers. All machine state is kept.
func (emu *Emulator) Halt() {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	if emu.Verbose && !emu.halted {
		log.Printf("emulator: halt")
	}

	emu.halted = true
	emu.clock.Stop()
	emu.Cpu.Delay.Stop()
	emu.Cpu.Sound.Stop()
	emu.Tone.SetTone(false)
}

// Halted reports if the scheduler is stopped.
func (emu *Emulator) Halted() bool {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.halted
}

// step performs a single instruction.
func (emu *Emulator) step() (err error) {
	pc := emu.Cpu.Pc
	err = emu.Cpu.Step()
	if err != nil {
		err = &ErrRuntime{Pc: pc, LineNo: emu.lineNo(pc), Err: err}
	}
	return
}

// Step performs a single instruction, ignoring the clock.
func (emu *Emulator) Step() (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.Cpu.Verbose = emu.Verbose
	err = emu.step()
	return
}

// Advance accounts for elapsed wall time: the CPU runs the instructions
// due at the configured rate, and the timers tick at 60 Hz.
// Catch up is limited to MAX_ELAPSED milliseconds per call.
func (emu *Emulator) Advance(elapsed time.Duration) (steps int, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	if emu.halted {
		return
	}

	elapsed = min(elapsed, MAX_ELAPSED*time.Millisecond)

	emu.Cpu.Verbose = emu.Verbose

	cycles := emu.clock.Advance(elapsed)
	for range cycles {
		if emu.Cpu.Waiting() {
			break
		}
		err = emu.step()
		if err != nil {
			return
		}
		steps++
	}

	emu.Cpu.Delay.Advance(elapsed)
	emu.Cpu.Sound.Advance(elapsed)
	emu.Tone.SetTone(emu.Cpu.Sound.Get() > 0)

	return
}

// Render presents the display if it changed since the last Render.
func (emu *Emulator) Render() (rendered bool) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	if !emu.Cpu.RedrawPending() {
		return
	}

	emu.Cpu.Display.Render()
	emu.Cpu.Rendered()
	rendered = true
	return
}

// SetKeyState updates a hex key. A new press completes a pending key wait.
func (emu *Emulator) SetKeyState(key uint8, pressed bool) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	press, err := emu.Keypad.SetKeyState(key, pressed)
	if err != nil {
		return
	}

	if press && emu.Cpu.KeyPress(key) && emu.Verbose {
		log.Printf("emulator: key %x ends wait", key)
	}

	return
}

// SetHostKey updates the hex key bound to a host rune.
// Unbound runes are ignored.
func (emu *Emulator) SetHostKey(r rune, pressed bool) (bound bool, err error) {
	key, bound := emu.Keymap.Lookup(r)
	if !bound {
		return
	}

	err = emu.SetKeyState(key, pressed)
	return
}

// Run drives the emulator at the configured frame rate until the
// context ends or the CPU faults.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	rate := emu.Config.FrameRate
	if rate <= 0 {
		rate = FRAME_RATE
	}

	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case now := <-ticker.C:
			_, err = emu.Advance(now.Sub(last))
			last = now
			emu.Render()
			if err != nil {
				return
			}
		}
	}
}
