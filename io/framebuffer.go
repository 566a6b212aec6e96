package io

import (
	"image/color"
	"io"
	"strings"
	"sync"
)

const (
	SCREEN_WIDTH  = 64 // Display width in pixels.
	SCREEN_HEIGHT = 32 // Display height in pixels.
)

// Framebuffer is the 64x32 monochrome display.
// Pixels are composed by XOR; coordinates outside the grid are ignored.
type Framebuffer struct {
	OnRender func(fb *Framebuffer) // Called by Render, if set.

	mutex  sync.RWMutex
	frames int
	pixels [SCREEN_WIDTH * SCREEN_HEIGHT]uint8
}

var _ Display = (*Framebuffer)(nil)

func inBounds(x, y int) bool {
	return x >= 0 && x < SCREEN_WIDTH && y >= 0 && y < SCREEN_HEIGHT
}

// Clear turns all pixels off.
func (fb *Framebuffer) Clear() {
	fb.mutex.Lock()
	clear(fb.pixels[:])
	fb.mutex.Unlock()
}

// SetPixel XORs the low bit of 'bit' into the pixel at (x, y).
func (fb *Framebuffer) SetPixel(x, y int, bit uint8) {
	if !inBounds(x, y) {
		return
	}

	fb.mutex.Lock()
	fb.pixels[y*SCREEN_WIDTH+x] ^= bit & 1
	fb.mutex.Unlock()
}

// GetPixel returns the pixel at (x, y), or 0 when out of range.
func (fb *Framebuffer) GetPixel(x, y int) (bit uint8) {
	if !inBounds(x, y) {
		return
	}

	fb.mutex.RLock()
	bit = fb.pixels[y*SCREEN_WIDTH+x]
	fb.mutex.RUnlock()
	return
}

// Render counts a presented frame and calls OnRender.
func (fb *Framebuffer) Render() {
	fb.mutex.Lock()
	fb.frames++
	fb.mutex.Unlock()

	if fb.OnRender != nil {
		fb.OnRender(fb)
	}
}

// Frames returns the number of Render calls.
func (fb *Framebuffer) Frames() int {
	fb.mutex.RLock()
	defer fb.mutex.RUnlock()
	return fb.frames
}

// Pixels returns a row-major copy of the display.
func (fb *Framebuffer) Pixels() (pixels []uint8) {
	fb.mutex.RLock()
	pixels = make([]uint8, len(fb.pixels))
	copy(pixels, fb.pixels[:])
	fb.mutex.RUnlock()
	return
}

// RGBA renders the display as RGBA bytes, one pixel per display pixel.
func (fb *Framebuffer) RGBA(fg, bg color.RGBA) (rgba []byte) {
	pixels := fb.Pixels()
	rgba = make([]byte, 0, len(pixels)*4)
	for _, pixel := range pixels {
		c := bg
		if pixel != 0 {
			c = fg
		}
		rgba = append(rgba, c.R, c.G, c.B, c.A)
	}
	return
}

// halfBlock is indexed by (top << 1) | bottom.
var halfBlock = [4]rune{' ', '▄', '▀', '█'}

// Text renders the display with half-block glyphs, two pixel rows per line.
func (fb *Framebuffer) Text() string {
	pixels := fb.Pixels()

	var sb strings.Builder
	for y := 0; y < SCREEN_HEIGHT; y += 2 {
		for x := range SCREEN_WIDTH {
			top := pixels[y*SCREEN_WIDTH+x]
			bottom := pixels[(y+1)*SCREEN_WIDTH+x]
			sb.WriteRune(halfBlock[(top<<1)|bottom])
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// WriteTo writes the Text rendering of the display.
func (fb *Framebuffer) WriteTo(w io.Writer) (n int64, err error) {
	count, err := io.WriteString(w, fb.Text())
	n = int64(count)
	return
}
