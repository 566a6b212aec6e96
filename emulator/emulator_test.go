package emulator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/io"
)

func newTestEmulator(t *testing.T, program ...string) (emu *Emulator) {
	config := DefaultConfig()
	config.Seed = 1
	emu = NewEmulator(config)

	asm := &cpu.Assembler{}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(t, err)

	err = emu.LoadProgram(prog)
	require.NoError(t, err)

	return
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(DefaultConfig())

	assert.False(emu.Verbose)
	assert.False(emu.Halted())
	assert.Equal(uint16(cpu.PROGRAM_START), emu.Status().Pc)
	assert.Equal(FONT[:], emu.Cpu.Memory[cpu.FONT_BASE:cpu.FONT_BASE+len(FONT)])
	assert.Equal(0, emu.LineNo())
	assert.NoError(emu.Fault())

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}
	assert.Equal("80", defines["FONT_SIZE"])
	assert.Equal("16", defines["KEY_COUNT"])
	assert.Equal("0x50", defines["FONT_BASE"])
}

func TestEmulator_Font(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"    ld v0, 0xb",
		"    ld f, v0",
		"    drw v1, v1, FONT_GLYPH_SIZE",
	)

	for range 3 {
		assert.NoError(emu.Step())
	}
	assert.Equal(uint16(cpu.FONT_BASE+0xb*cpu.FONT_GLYPH_SIZE), emu.Status().I)
	lines := strings.Split(emu.Framebuffer.Text(), "\n")
	assert.Equal("█▀▀▄"+strings.Repeat(" ", io.SCREEN_WIDTH-4), lines[0])
	assert.Equal("█▀▀▄"+strings.Repeat(" ", io.SCREEN_WIDTH-4), lines[1])
	assert.Equal("▀▀▀"+strings.Repeat(" ", io.SCREEN_WIDTH-3), lines[2])
}

func TestEmulator_Advance(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"loop:",
		"    add v0, 1",
		"    jp loop",
	)

	// 700 Hz: 7 instructions per 10ms.
	steps, err := emu.Advance(10 * time.Millisecond)
	assert.NoError(err)
	assert.Equal(7, steps)

	// Fractions accumulate.
	steps, err = emu.Advance(time.Millisecond)
	assert.NoError(err)
	assert.Equal(0, steps)
	steps, err = emu.Advance(time.Millisecond)
	assert.NoError(err)
	assert.Equal(1, steps)

	// Catch up is bounded.
	steps, err = emu.Advance(time.Hour)
	assert.NoError(err)
	assert.Equal(MAX_ELAPSED*CPU_HZ/1000, steps)

	assert.Equal(7+1+MAX_ELAPSED*CPU_HZ/1000, emu.Cpu.Ticks)
	assert.Equal(uint8((emu.Cpu.Ticks+1)/2), emu.Status().Register[0])
}

func TestEmulator_Timers(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"    ld v0, 30",
		"    ld dt, v0",
		"    ld v1, 6",
		"    ld st, v1",
		"loop: jp loop",
	)

	_, err := emu.Advance(10 * time.Millisecond)
	assert.NoError(err)
	assert.Equal(uint8(30), emu.Cpu.Delay.Get())
	assert.Equal(uint8(6), emu.Cpu.Sound.Get())
	assert.True(emu.Tone.On())

	// 60 Hz: 6 ticks per 100ms.
	_, err = emu.Advance(100 * time.Millisecond)
	assert.NoError(err)
	assert.Equal(uint8(24), emu.Cpu.Delay.Get())
	assert.Equal(uint8(0), emu.Cpu.Sound.Get())
	assert.False(emu.Tone.On())
}

func TestEmulator_Halt(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"    ld v0, 60",
		"    ld dt, v0",
		"    ld st, v0",
		"loop: jp loop",
	)

	_, err := emu.Advance(10 * time.Millisecond)
	assert.NoError(err)
	assert.True(emu.Tone.On())
	status := emu.Status()

	emu.Halt()
	assert.True(emu.Halted())
	assert.False(emu.Tone.On())

	steps, err := emu.Advance(100 * time.Millisecond)
	assert.NoError(err)
	assert.Equal(0, steps)
	assert.Equal(status, emu.Status())
	assert.Equal(uint8(60), emu.Cpu.Delay.Get())

	emu.Start()
	assert.False(emu.Halted())
	assert.True(emu.Tone.On())

	steps, err = emu.Advance(100 * time.Millisecond)
	assert.NoError(err)
	assert.Equal(70, steps)
	assert.Equal(uint8(54), emu.Cpu.Delay.Get())
}

func TestEmulator_WaitKey(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"    ld v1, k",
		"    ld v2, v1",
		"loop: jp loop",
	)

	steps, err := emu.Advance(100 * time.Millisecond)
	assert.NoError(err)
	assert.Equal(1, steps)
	assert.True(emu.Cpu.Waiting())
	assert.Equal(1, emu.LineNo())

	// Release of an unpressed key does not end the wait.
	assert.NoError(emu.SetKeyState(5, false))
	assert.True(emu.Cpu.Waiting())

	assert.NoError(emu.SetKeyState(5, true))
	assert.False(emu.Cpu.Waiting())
	assert.True(emu.Keypad.Pressed(5))

	_, err = emu.Advance(10 * time.Millisecond)
	assert.NoError(err)
	assert.Equal(uint8(5), emu.Status().Register[2])
	assert.Equal(3, emu.LineNo())

	assert.ErrorIs(emu.SetKeyState(io.KEY_COUNT, true), io.ErrKeyInvalid)
}

func TestEmulator_HostKey(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	bound, err := emu.SetHostKey('Q', true)
	assert.NoError(err)
	assert.True(bound)
	assert.True(emu.Keypad.Pressed(0x4))

	bound, err = emu.SetHostKey('q', false)
	assert.NoError(err)
	assert.True(bound)
	assert.False(emu.Keypad.Pressed(0x4))

	bound, err = emu.SetHostKey('p', true)
	assert.NoError(err)
	assert.False(bound)
}

func TestEmulator_Fault(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"    cls",
		"    .word 0x0123",
	)

	_, err := emu.Advance(10 * time.Millisecond)
	assert.ErrorIs(err, cpu.ErrOpcode(0))

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(uint16(0x202), runtime.Pc)
		assert.Equal(2, runtime.LineNo)
		assert.Equal("line 2 pc 202 bad opcode 0x0123", runtime.Error())
	}
	assert.ErrorIs(emu.Fault(), cpu.ErrOpcode(0))

	// Faults persist until Reset.
	_, err = emu.Advance(10 * time.Millisecond)
	assert.ErrorIs(err, cpu.ErrCpuFault)

	emu.Reset()
	assert.NoError(emu.Fault())
	assert.NoError(emu.Step())
	assert.Equal(uint16(0x202), emu.Status().Pc)
}

func TestEmulator_Render(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"    ld i, FONT_BASE",
		"    drw v0, v0, 5",
		"loop: jp loop",
	)

	var frames []string
	emu.Framebuffer.OnRender = func(fb *io.Framebuffer) {
		frames = append(frames, fb.Text())
	}

	// Loading the program clears the display.
	assert.True(emu.Render())
	assert.False(emu.Render())

	assert.NoError(emu.Step())
	assert.False(emu.Render())

	assert.NoError(emu.Step())
	assert.True(emu.Render())
	assert.False(emu.Render())

	assert.Equal(2, emu.Framebuffer.Frames())
	assert.Equal(2, len(frames))
	assert.True(strings.HasPrefix(frames[1], "█▀▀█"))
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"loop:",
		"    add v0, 1",
		"    jp loop",
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := emu.Run(ctx)
	assert.ErrorIs(err, context.DeadlineExceeded)
	assert.Less(0, emu.Cpu.Ticks)
}

func TestEmulator_RunFault(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"    ret",
	)

	err := emu.Run(context.Background())
	assert.ErrorIs(err, cpu.ErrStackEmpty)
}

func TestEmulator_LoadRomFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	emu := NewEmulator(DefaultConfig())

	good := filepath.Join(dir, "good.ch8")
	assert.NoError(os.WriteFile(good, []byte{0x60, 0x42}, 0o644))
	assert.NoError(emu.LoadRomFile(good))
	assert.NoError(emu.Step())
	assert.Equal(uint8(0x42), emu.Status().Register[0])
	assert.Equal(0, emu.LineNo())

	empty := filepath.Join(dir, "empty.ch8")
	assert.NoError(os.WriteFile(empty, nil, 0o644))
	assert.ErrorIs(emu.LoadRomFile(empty), io.ErrRomEmpty)

	large := filepath.Join(dir, "large.ch8")
	assert.NoError(os.WriteFile(large, make([]byte, io.ROM_LIMIT+1), 0o644))
	assert.ErrorIs(emu.LoadRomFile(large), io.ErrRomSize)

	assert.ErrorIs(emu.LoadRomFile(filepath.Join(dir, "missing.ch8")), os.ErrNotExist)
}

func TestEmulator_LoadRomKeepsState(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(DefaultConfig())
	emu.Cpu.Register[3] = 0x42
	emu.Cpu.Pc = 0x300
	emu.Cpu.Delay.Set(9)

	assert.NoError(emu.LoadRom([]uint8{0x60, 0x01}))
	assert.Equal(uint8(0x42), emu.Status().Register[3])
	assert.Equal(uint16(0x300), emu.Status().Pc)
	assert.Equal(uint8(9), emu.Cpu.Delay.Get())
	assert.Equal([]uint8{0x60, 0x01}, emu.Cpu.Memory[cpu.PROGRAM_START:cpu.PROGRAM_START+2])

	emu.Reset()
	assert.Equal(uint8(0), emu.Status().Register[3])
	assert.Equal(uint16(cpu.PROGRAM_START), emu.Status().Pc)
	assert.Equal(uint8(0), emu.Cpu.Delay.Get())
	assert.Equal([]uint8{0x60, 0x01}, emu.Cpu.Memory[cpu.PROGRAM_START:cpu.PROGRAM_START+2])
}

func TestEmulator_ResetClearsDisplay(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"    ld i, FONT_BASE",
		"    drw v0, v0, 5",
		"loop: jp loop",
	)

	assert.NoError(emu.Step())
	assert.NoError(emu.Step())
	assert.True(emu.Render())
	assert.Equal(uint8(1), emu.Framebuffer.GetPixel(1, 0))

	emu.Reset()
	assert.Equal(uint8(0), emu.Framebuffer.GetPixel(1, 0))
	assert.True(emu.Render())
	assert.NotContains(emu.Framebuffer.Text(), "█")
}
