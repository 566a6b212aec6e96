// Package frontend hosts an Emulator: in a window with audio (Window),
// or on a raw mode terminal (Terminal).
package frontend

import (
	"context"
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrNotTerminal = errors.New(f("input is not a terminal"))
)

// Host drives an emulator until the context ends or the user quits.
type Host interface {
	Run(ctx context.Context) error
}

var (
	_ Host = (*Window)(nil)
	_ Host = (*Terminal)(nil)
)
