package io

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func samples(p []byte) (out []float32) {
	for n := 0; n+4 <= len(p); n += 4 {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(p[n:])))
	}
	return
}

func TestTone_Silent(t *testing.T) {
	assert := assert.New(t)

	tone := NewTone(8000)
	assert.False(tone.On())

	buf := make([]byte, 64)
	n, err := tone.Read(buf)
	assert.NoError(err)
	assert.Equal(64, n)
	for _, sample := range samples(buf) {
		assert.Equal(float32(0), sample)
	}
}

func TestTone_Square(t *testing.T) {
	assert := assert.New(t)

	// 1000 Hz at 8000 samples/s: 4 high, 4 low.
	tone := &Tone{SampleRate: 8000, Frequency: 1000, Volume: 0.5}
	tone.SetTone(true)
	assert.True(tone.On())

	buf := make([]byte, 8*4*2+3)
	n, err := tone.Read(buf)
	assert.NoError(err)
	assert.Equal(8*4*2, n)

	expected := []float32{
		0.5, 0.5, 0.5, 0.5, -0.5, -0.5, -0.5, -0.5,
		0.5, 0.5, 0.5, 0.5, -0.5, -0.5, -0.5, -0.5,
	}
	assert.Equal(expected, samples(buf[:n]))

	tone.SetTone(false)
	n, err = tone.Read(buf[:8])
	assert.NoError(err)
	assert.Equal([]float32{0, 0}, samples(buf[:n]))
}
