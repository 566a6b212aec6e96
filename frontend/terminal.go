package frontend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/ezrec/chip8/emulator"
)

const (
	KEY_RELEASE = 150 * time.Millisecond // Hold time of a key press on a terminal.
)

const (
	asciiCtrlC  = 0x03
	asciiEscape = 0x1b
)

// Terminal shows the display on a raw mode terminal with half-block
// glyphs. Terminals report no key releases, so each key press is held
// for Release after its last repeat.
//
//	Space       pause / resume
//	Escape ^C   quit
type Terminal struct {
	Verbose  bool
	Emulator *emulator.Emulator
	Input    *os.File      // Keyboard, usually os.Stdin.
	Output   io.Writer     // Display, usually os.Stdout.
	Release  time.Duration // Key hold time.

	held   map[uint8]time.Time
	status string
}

// NewTerminal prepares the process terminal for an emulator.
func NewTerminal(emu *emulator.Emulator) *Terminal {
	return &Terminal{
		Emulator: emu,
		Input:    os.Stdin,
		Output:   os.Stdout,
		Release:  KEY_RELEASE,
		held:     map[uint8]time.Time{},
	}
}

// Run takes over the terminal until the user quits, the context ends,
// or the CPU faults.
func (tt *Terminal) Run(ctx context.Context) (err error) {
	fd := int(tt.Input.Fd())
	if !term.IsTerminal(fd) {
		err = ErrNotTerminal
		return
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, state)

	// Clear, and hide the cursor.
	io.WriteString(tt.Output, "\x1b[2J\x1b[?25l")
	defer io.WriteString(tt.Output, "\x1b[?25h\r\n")

	input := make(chan byte, 16)
	done := make(chan struct{})
	defer close(done)
	go tt.read(input, done)

	rate := tt.Emulator.Config.FrameRate
	if rate <= 0 {
		rate = emulator.FRAME_RATE
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case b, ok := <-input:
			if !ok {
				return
			}
			var quit bool
			quit, err = tt.key(b, time.Now())
			if quit || err != nil {
				return
			}
		case now := <-ticker.C:
			err = tt.frame(now, now.Sub(last))
			last = now
			if err != nil {
				return
			}
		}
	}
}

// read forwards keyboard bytes until the input fails or done is closed.
// A Read already blocked returns with the next byte or when the input
// is closed.
func (tt *Terminal) read(input chan<- byte, done <-chan struct{}) {
	defer close(input)

	buf := make([]byte, 16)
	for {
		n, err := tt.Input.Read(buf)
		for _, b := range buf[:n] {
			select {
			case input <- b:
			case <-done:
				return
			}
		}
		if err != nil {
			if tt.Verbose {
				log.Printf("terminal: %v", err)
			}
			return
		}

		select {
		case <-done:
			return
		default:
		}
	}
}

// key handles one byte of keyboard input.
func (tt *Terminal) key(b byte, now time.Time) (quit bool, err error) {
	emu := tt.Emulator

	switch b {
	case asciiCtrlC, asciiEscape:
		quit = true
		return
	case ' ':
		if emu.Halted() {
			emu.Start()
		} else {
			emu.Halt()
		}
		return
	}

	key, ok := emu.Keymap.Lookup(rune(b))
	if !ok {
		return
	}

	err = emu.SetKeyState(key, true)
	if err != nil {
		return
	}
	tt.held[key] = now

	return
}

// frame releases expired keys, advances the emulator, and redraws.
func (tt *Terminal) frame(now time.Time, elapsed time.Duration) (err error) {
	emu := tt.Emulator

	for key, pressed := range tt.held {
		if now.Sub(pressed) < tt.Release {
			continue
		}
		delete(tt.held, key)
		err = emu.SetKeyState(key, false)
		if err != nil {
			return
		}
	}

	_, err = emu.Advance(elapsed)

	status := ""
	switch {
	case err != nil:
		status = fmt.Sprintf("%v", err)
	case emu.Halted():
		status = "PAUSED"
		if key, ok := emu.Keypad.Last(); ok {
			status += fmt.Sprintf(" key %X", key)
		}
	}

	if emu.Render() || status != tt.status {
		tt.status = status
		tt.draw()
	}

	return
}

// crlf ends lines with "\r\n", as a raw mode terminal needs.
type crlf struct {
	io.Writer
}

func (w crlf) Write(p []byte) (n int, err error) {
	_, err = w.Writer.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")))
	if err != nil {
		return
	}
	n = len(p)
	return
}

// draw writes the display from the top left corner, and the status line.
func (tt *Terminal) draw() {
	io.WriteString(tt.Output, "\x1b[H")
	tt.Emulator.Framebuffer.WriteTo(crlf{tt.Output})
	fmt.Fprintf(tt.Output, "\x1b[K%s", tt.status)
}
