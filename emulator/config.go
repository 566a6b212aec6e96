package emulator

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/chip8/io"
)

const (
	CPU_HZ      = 700       // Default instruction rate.
	FRAME_RATE  = 60        // Default host frame rate.
	SCALE       = 10        // Default window pixels per display pixel.
	FOREGROUND  = "#33ff66" // Default lit pixel color.
	BACKGROUND  = "#000000" // Default dark pixel color.
	MAX_ELAPSED = 100       // Milliseconds of wall time a single Advance may catch up.
)

// ToneConfig configures the buzzer.
type ToneConfig struct {
	Frequency  float64 `toml:"frequency"`
	Volume     float32 `toml:"volume"`
	SampleRate int     `toml:"sample_rate"`
}

// Config is the emulator configuration, usually loaded from TOML:
//
//	cpu_hz = 700
//	seed = 1
//	frame_rate = 60
//	scale = 10
//	foreground = "#33ff66"
//	background = "#000000"
//
//	[tone]
//	frequency = 1024.0
//	volume = 0.05
//	sample_rate = 44100
//
//	[keymap]
//	"x" = "0"
type Config struct {
	CpuHz      int               `toml:"cpu_hz"`     // Instructions per second.
	Seed       int64             `toml:"seed"`       // rnd seed, or 0 for the time of day.
	FrameRate  int               `toml:"frame_rate"` // Run loop rate.
	Scale      int               `toml:"scale"`      // Window scale.
	Foreground string            `toml:"foreground"` // Lit pixel color.
	Background string            `toml:"background"` // Dark pixel color.
	Tone       ToneConfig        `toml:"tone"`       // Buzzer.
	Keymap     map[string]string `toml:"keymap"`     // Host key to hex key overrides.
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CpuHz:      CPU_HZ,
		FrameRate:  FRAME_RATE,
		Scale:      SCALE,
		Foreground: FOREGROUND,
		Background: BACKGROUND,
		Tone: ToneConfig{
			Frequency:  io.TONE_FREQUENCY,
			Volume:     io.TONE_VOLUME,
			SampleRate: io.TONE_SAMPLE_RATE,
		},
	}
}

// LoadConfig reads a TOML file over the default configuration.
func LoadConfig(path string) (config Config, err error) {
	config = DefaultConfig()

	meta, err := toml.DecodeFile(path, &config)
	if err != nil {
		return
	}

	for _, key := range meta.Undecoded() {
		err = errors.Join(err, ErrConfigKey(key.String()))
	}
	if err != nil {
		return
	}

	err = config.Validate()
	return
}

// Validate checks the configuration for usable values.
func (config *Config) Validate() (err error) {
	if config.CpuHz <= 0 || config.FrameRate <= 0 || config.Tone.SampleRate <= 0 {
		err = errors.Join(err, ErrConfigRate)
	}
	if config.Scale <= 0 {
		err = errors.Join(err, ErrConfigScale)
	}
	for _, str := range []string{config.Foreground, config.Background} {
		_, color_err := ParseColor(str)
		err = errors.Join(err, color_err)
	}
	_, keymap_err := config.KeyMap()
	err = errors.Join(err, keymap_err)

	return
}

// Colors returns the foreground and background colors.
func (config *Config) Colors() (fg, bg color.RGBA, err error) {
	fg, err = ParseColor(config.Foreground)
	if err != nil {
		return
	}
	bg, err = ParseColor(config.Background)
	return
}

// KeyMap returns the default keymap with the configured overrides.
// Each override binds a single host character to a hex digit.
func (config *Config) KeyMap() (keymap io.Keymap, err error) {
	keymap = io.DefaultKeymap()

	for host, hex := range config.Keymap {
		r, size := utf8.DecodeRuneInString(host)
		if size == 0 || size != len(host) {
			err = errors.Join(ErrConfigKeymap, fmt.Errorf("%q", host))
			return
		}
		var key uint64
		key, err = strconv.ParseUint(strings.TrimPrefix(strings.ToLower(hex), "0x"), 16, 8)
		if err != nil {
			err = errors.Join(ErrConfigKeymap, err)
			return
		}
		err = keymap.Set(r, uint8(key))
		if err != nil {
			err = errors.Join(ErrConfigKeymap, err)
			return
		}
	}

	return
}

// ParseColor decodes a '#rrggbb' color.
func ParseColor(str string) (rgba color.RGBA, err error) {
	if len(str) != 7 || str[0] != '#' {
		err = ErrConfigColor(str)
		return
	}

	value, err := strconv.ParseUint(str[1:], 16, 32)
	if err != nil {
		err = ErrConfigColor(str)
		return
	}

	rgba = color.RGBA{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
		A: 0xff,
	}
	return
}
