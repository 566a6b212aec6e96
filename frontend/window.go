//go:build !headless

package frontend

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

// Host keys the window can report, by the rune a keymap binds.
var ebitenKeys = map[rune]ebiten.Key{
	'0': ebiten.Key0, '1': ebiten.Key1, '2': ebiten.Key2, '3': ebiten.Key3,
	'4': ebiten.Key4, '5': ebiten.Key5, '6': ebiten.Key6, '7': ebiten.Key7,
	'8': ebiten.Key8, '9': ebiten.Key9,
	'a': ebiten.KeyA, 'b': ebiten.KeyB, 'c': ebiten.KeyC, 'd': ebiten.KeyD,
	'e': ebiten.KeyE, 'f': ebiten.KeyF, 'g': ebiten.KeyG, 'h': ebiten.KeyH,
	'i': ebiten.KeyI, 'j': ebiten.KeyJ, 'k': ebiten.KeyK, 'l': ebiten.KeyL,
	'm': ebiten.KeyM, 'n': ebiten.KeyN, 'o': ebiten.KeyO, 'p': ebiten.KeyP,
	'q': ebiten.KeyQ, 'r': ebiten.KeyR, 's': ebiten.KeyS, 't': ebiten.KeyT,
	'u': ebiten.KeyU, 'v': ebiten.KeyV, 'w': ebiten.KeyW, 'x': ebiten.KeyX,
	'y': ebiten.KeyY, 'z': ebiten.KeyZ,
}

// Window shows the display in a desktop window and plays the buzzer.
//
//	Space     pause / resume
//	Backspace reset
//	Escape    quit
type Window struct {
	Verbose  bool
	Title    string
	Emulator *emulator.Emulator

	fg, bg  color.RGBA
	scale   int
	image   *ebiten.Image
	keys    map[rune]ebiten.Key
	ctx     context.Context
	last    time.Time
	fault   error
	speaker *Speaker
}

var _ ebiten.Game = (*Window)(nil)

// NewWindow prepares a window for an emulator.
func NewWindow(emu *emulator.Emulator) (win *Window, err error) {
	fg, bg, err := emu.Config.Colors()
	if err != nil {
		return
	}

	scale := emu.Config.Scale
	if scale <= 0 {
		scale = emulator.SCALE
	}

	win = &Window{
		Title:    "CHIP-8",
		Emulator: emu,
		fg:       fg,
		bg:       bg,
		scale:    scale,
		keys:     map[rune]ebiten.Key{},
	}

	// Only bound keys are polled.
	for r := range emu.Keymap {
		if key, ok := ebitenKeys[r]; ok {
			win.keys[r] = key
		}
	}

	return
}

// Run opens the window, and returns when it is closed or the context ends.
// The buzzer is silent if no audio device is available.
func (win *Window) Run(ctx context.Context) (err error) {
	win.ctx = ctx

	if win.Verbose {
		log.Printf("window: %d of %d keys bound", len(win.keys), len(win.Emulator.Keymap))
	}

	spk, err := NewSpeaker(win.Emulator.Tone)
	if err != nil {
		log.Printf("window: no audio: %v", err)
	} else {
		win.speaker = spk
		defer spk.Close()
	}

	rate := win.Emulator.Config.FrameRate
	if rate <= 0 {
		rate = emulator.FRAME_RATE
	}

	ebiten.SetWindowSize(io.SCREEN_WIDTH*win.scale, io.SCREEN_HEIGHT*win.scale)
	ebiten.SetWindowTitle(win.Title)
	ebiten.SetTPS(rate)

	win.image = ebiten.NewImage(io.SCREEN_WIDTH, io.SCREEN_HEIGHT)
	win.last = time.Now()

	err = ebiten.RunGame(win)
	if err != nil {
		return
	}

	err = win.fault
	return
}

// Update polls the keyboard and advances the emulator.
func (win *Window) Update() error {
	emu := win.Emulator

	if win.ctx.Err() != nil || ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && win.fault == nil {
		if emu.Halted() {
			emu.Start()
		} else {
			emu.Halt()
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		emu.Reset()
		emu.Start()
		win.fault = nil
	}

	for r, key := range win.keys {
		var err error
		if inpututil.IsKeyJustPressed(key) {
			_, err = emu.SetHostKey(r, true)
		} else if inpututil.IsKeyJustReleased(key) {
			_, err = emu.SetHostKey(r, false)
		}
		if err != nil {
			return err
		}
	}

	now := time.Now()
	elapsed := now.Sub(win.last)
	win.last = now

	if win.fault != nil {
		return nil
	}

	_, err := emu.Advance(elapsed)
	if err != nil {
		log.Printf("window: %v", err)
		win.fault = err
		emu.Halt()
	}

	return nil
}

// Draw presents the display, and any pause or fault notice.
func (win *Window) Draw(screen *ebiten.Image) {
	emu := win.Emulator

	emu.Render()
	win.image.WritePixels(emu.Framebuffer.RGBA(win.fg, win.bg))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(win.scale), float64(win.scale))
	screen.DrawImage(win.image, op)

	switch {
	case win.fault != nil:
		text.Draw(screen, fmt.Sprintf("%v", win.fault), basicfont.Face7x13, 4, 14, color.White)
	case emu.Halted():
		text.Draw(screen, "PAUSED", basicfont.Face7x13, 4, 14, win.fg)
	}
}

// Layout keeps the display at a fixed scale.
func (win *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return io.SCREEN_WIDTH * win.scale, io.SCREEN_HEIGHT * win.scale
}
