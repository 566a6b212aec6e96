//go:build headless

package frontend

import (
	"context"
	"log"

	"github.com/ezrec/chip8/emulator"
)

// Window runs the emulator with no video or audio in headless builds.
type Window struct {
	Verbose  bool
	Title    string
	Emulator *emulator.Emulator
}

// NewWindow prepares a headless runner for an emulator.
func NewWindow(emu *emulator.Emulator) (win *Window, err error) {
	_, _, err = emu.Config.Colors()
	if err != nil {
		return
	}

	win = &Window{
		Title:    "CHIP-8",
		Emulator: emu,
	}
	return
}

// Run drives the emulator until the context ends or the CPU faults.
func (win *Window) Run(ctx context.Context) (err error) {
	if win.Verbose {
		log.Printf("window: headless build, no display")
	}
	err = win.Emulator.Run(ctx)
	return
}
