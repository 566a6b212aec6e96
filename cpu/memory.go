package cpu

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/chip8/io"
)

const (
	MEMORY_SIZE     = 0x1000             // Addressable bytes.
	ADDRESS_MASK    = 0x0fff             // Mask of a 12-bit address.
	FONT_BASE       = 0x050              // Conventional origin of the glyph table.
	FONT_GLYPH_SIZE = 5                  // Bytes per hex digit glyph.
	PROGRAM_START   = 0x200              // Load and entry address of programs.
	PC_LIMIT        = MEMORY_SIZE - 2    // Highest address a fetch may start at.
	REGISTER_COUNT  = 16                 // General purpose registers.
	REGISTER_FLAG   = REGISTER_COUNT - 1 // VF
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":     fmt.Sprintf("%#x", MEMORY_SIZE),
	"FONT_BASE":       fmt.Sprintf("%#x", FONT_BASE),
	"FONT_GLYPH_SIZE": fmt.Sprintf("%d", FONT_GLYPH_SIZE),
	"PROGRAM_START":   fmt.Sprintf("%#x", PROGRAM_START),
	"STACK_LIMIT":     fmt.Sprintf("%d", STACK_LIMIT),
	"TIMER_HZ":        fmt.Sprintf("%d", TIMER_HZ),
	"SCREEN_WIDTH":    fmt.Sprintf("%d", io.SCREEN_WIDTH),
	"SCREEN_HEIGHT":   fmt.Sprintf("%d", io.SCREEN_HEIGHT),
}

// Defines returns the assembler equates describing the machine.
func Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}
