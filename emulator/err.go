package emulator

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Configuration errors
	ErrConfigRate   = errors.New(f("rate must be positive"))
	ErrConfigScale  = errors.New(f("scale must be positive"))
	ErrConfigKeymap = errors.New(f("keymap entry invalid"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     uint16
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("pc %03x %v", err.Pc, err.Err)
	}
	return f("line %d pc %03x %v", err.LineNo, err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrConfigColor is a color that is not '#rrggbb'.
type ErrConfigColor string

func (err ErrConfigColor) Error() string {
	return f("color '%v' is not #rrggbb", string(err))
}

// ErrConfigKey is an unrecognized configuration key.
type ErrConfigKey string

func (err ErrConfigKey) Error() string {
	return f("configuration key '%v' unknown", string(err))
}
