package emulator

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/io"
)

func writeConfig(t *testing.T, text string) (path string) {
	path = filepath.Join(t.TempDir(), "chip8.toml")
	err := os.WriteFile(path, []byte(text), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	return
}

func TestConfig_Default(t *testing.T) {
	assert := assert.New(t)

	config := DefaultConfig()
	assert.NoError(config.Validate())
	assert.Equal(CPU_HZ, config.CpuHz)
	assert.Equal(FRAME_RATE, config.FrameRate)

	fg, bg, err := config.Colors()
	assert.NoError(err)
	assert.Equal(color.RGBA{R: 0x33, G: 0xff, B: 0x66, A: 0xff}, fg)
	assert.Equal(color.RGBA{A: 0xff}, bg)

	keymap, err := config.KeyMap()
	assert.NoError(err)
	assert.Equal(io.DefaultKeymap(), keymap)
}

func TestConfig_Load(t *testing.T) {
	assert := assert.New(t)

	path := writeConfig(t, `
cpu_hz = 1000
seed = 42
scale = 4
background = "#102030"

[tone]
frequency = 440.0

[keymap]
"m" = "0xF"
"X" = "1"
`)

	config, err := LoadConfig(path)
	assert.NoError(err)
	assert.Equal(1000, config.CpuHz)
	assert.Equal(int64(42), config.Seed)
	assert.Equal(4, config.Scale)
	assert.Equal(FRAME_RATE, config.FrameRate)
	assert.Equal(440.0, config.Tone.Frequency)
	assert.Equal(float32(io.TONE_VOLUME), config.Tone.Volume)

	_, bg, err := config.Colors()
	assert.NoError(err)
	assert.Equal(color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, bg)

	keymap, err := config.KeyMap()
	assert.NoError(err)
	key, ok := keymap.Lookup('m')
	assert.True(ok)
	assert.Equal(uint8(0xf), key)
	key, ok = keymap.Lookup('x')
	assert.True(ok)
	assert.Equal(uint8(0x1), key)

	emu := NewEmulator(config)
	assert.Equal(440.0, emu.Tone.Frequency)
	_, err = emu.SetHostKey('M', true)
	assert.NoError(err)
	assert.True(emu.Keypad.Pressed(0xf))
}

func TestConfig_Errors(t *testing.T) {
	table := [](struct {
		name string
		text string
		err  error
	}){
		{"unknown", `speed = 3`, ErrConfigKey("speed")},
		{"rate", `cpu_hz = 0`, ErrConfigRate},
		{"frame", `frame_rate = -1`, ErrConfigRate},
		{"scale", `scale = 0`, ErrConfigScale},
		{"color", `foreground = "green"`, ErrConfigColor("green")},
		{"hex", `background = "#12345g"`, ErrConfigColor("#12345g")},
		{"keymap-key", "[keymap]\n\"m\" = \"10\"", ErrConfigKeymap},
		{"keymap-host", "[keymap]\n\"mm\" = \"1\"", ErrConfigKeymap},
		{"keymap-hex", "[keymap]\n\"m\" = \"z\"", ErrConfigKeymap},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := LoadConfig(writeConfig(t, entry.text))
			assert.ErrorIs(err, entry.err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, `cpu_hz = "fast"`))
	assert.Error(t, err)
}
