package io

import (
	"encoding/binary"
	"math"
	"sync"
)

const (
	TONE_FREQUENCY   = 1024.0 // Default buzzer pitch in Hz.
	TONE_VOLUME      = 0.05   // Default buzzer amplitude.
	TONE_SAMPLE_RATE = 44100  // Default sample rate.
)

// Tone is a square wave buzzer. It is read as mono float32 little endian
// PCM, silent while off.
type Tone struct {
	SampleRate int     // Samples per second, TONE_SAMPLE_RATE if zero.
	Frequency  float64 // Pitch in Hz, TONE_FREQUENCY if zero.
	Volume     float32 // Amplitude, 0..1.

	mutex sync.Mutex
	on    bool
	phase float64
}

var _ Audio = (*Tone)(nil)

// NewTone creates a buzzer with the default pitch and volume.
func NewTone(sampleRate int) *Tone {
	return &Tone{
		SampleRate: sampleRate,
		Frequency:  TONE_FREQUENCY,
		Volume:     TONE_VOLUME,
	}
}

// SetTone turns the buzzer on or off.
func (tone *Tone) SetTone(on bool) {
	tone.mutex.Lock()
	tone.on = on
	tone.mutex.Unlock()
}

// On reports if the buzzer is sounding.
func (tone *Tone) On() bool {
	tone.mutex.Lock()
	defer tone.mutex.Unlock()
	return tone.on
}

// Read fills p with whole float32 samples.
func (tone *Tone) Read(p []byte) (n int, err error) {
	tone.mutex.Lock()
	defer tone.mutex.Unlock()

	rate := tone.SampleRate
	if rate <= 0 {
		rate = TONE_SAMPLE_RATE
	}
	freq := tone.Frequency
	if freq <= 0 {
		freq = TONE_FREQUENCY
	}
	step := freq / float64(rate)

	for n+4 <= len(p) {
		var sample float32
		if tone.on {
			sample = tone.Volume
			if tone.phase >= 0.5 {
				sample = -tone.Volume
			}
		}
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(sample))
		n += 4

		tone.phase += step
		tone.phase -= math.Floor(tone.phase)
	}

	return
}
