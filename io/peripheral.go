// Package io provides the peripherals attached to the CHIP-8 engine.
// It includes the monochrome framebuffer (Framebuffer), the hex keypad
// (Keypad), the buzzer tone generator (Tone), ROM reading and the host
// keyboard map (Keymap).
package io

// Display is the pixel buffer contract consumed by the engine.
type Display interface {
	// Clear turns every pixel off.
	Clear()
	// SetPixel XORs bit into the pixel at (x, y).
	SetPixel(x, y int, bit uint8)
	// GetPixel returns the pixel at (x, y), 0 or 1.
	GetPixel(x, y int) uint8
	// Render presents the buffer. It may complete asynchronously.
	Render()
}

// Keyboard is the key state contract consumed by the engine.
type Keyboard interface {
	// Pressed reports if the hex key is currently held.
	Pressed(key uint8) bool
}

// Audio is the buzzer contract, driven by the sound timer.
type Audio interface {
	// SetTone turns the buzzer on or off.
	SetTone(on bool)
}
