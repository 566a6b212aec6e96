package io

import (
	"io"
)

const (
	ROM_LIMIT = 0x1000 - 0x200 // Largest program that fits above 0x200.
)

// ReadRom reads a raw CHIP-8 program image.
func ReadRom(r io.Reader) (rom []byte, err error) {
	rom, err = io.ReadAll(io.LimitReader(r, ROM_LIMIT+1))
	if err != nil {
		return
	}

	switch {
	case len(rom) == 0:
		err = ErrRomEmpty
	case len(rom) > ROM_LIMIT:
		err = ErrRomSize
	}

	if err != nil {
		rom = nil
	}

	return
}
