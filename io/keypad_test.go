package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeypad_SetKeyState(t *testing.T) {
	assert := assert.New(t)

	kp := &Keypad{}
	_, ok := kp.Last()
	assert.False(ok)

	press, err := kp.SetKeyState(0xa, true)
	assert.NoError(err)
	assert.True(press)
	assert.True(kp.Pressed(0xa))

	// Held keys are not new presses.
	press, err = kp.SetKeyState(0xa, true)
	assert.NoError(err)
	assert.False(press)

	key, ok := kp.Last()
	assert.True(ok)
	assert.Equal(uint8(0xa), key)

	press, err = kp.SetKeyState(0xa, false)
	assert.NoError(err)
	assert.False(press)
	assert.False(kp.Pressed(0xa))

	// Last press survives the release.
	key, ok = kp.Last()
	assert.True(ok)
	assert.Equal(uint8(0xa), key)
}

func TestKeypad_Invalid(t *testing.T) {
	assert := assert.New(t)

	kp := &Keypad{}
	_, err := kp.SetKeyState(0x10, true)
	assert.ErrorIs(err, ErrKeyInvalid)

	// Only the low nibble is used for queries.
	kp.SetKeyState(0x3, true)
	assert.True(kp.Pressed(0x13))
}

func TestKeypad_Reset(t *testing.T) {
	assert := assert.New(t)

	kp := &Keypad{}
	for key := range uint8(KEY_COUNT) {
		kp.SetKeyState(key, true)
	}
	kp.Reset()

	for key := range uint8(KEY_COUNT) {
		assert.False(kp.Pressed(key))
	}
	_, ok := kp.Last()
	assert.False(ok)
}

func TestKeymap(t *testing.T) {
	assert := assert.New(t)

	km := DefaultKeymap()
	assert.Len(km, KEY_COUNT)

	seen := map[uint8]bool{}
	for _, key := range km {
		seen[key] = true
	}
	assert.Len(seen, KEY_COUNT)

	key, ok := km.Lookup('Q')
	assert.True(ok)
	assert.Equal(uint8(0x4), key)

	key, ok = km.Lookup('x')
	assert.True(ok)
	assert.Equal(uint8(0x0), key)

	_, ok = km.Lookup('p')
	assert.False(ok)

	assert.NoError(km.Set('P', 0x7))
	key, ok = km.Lookup('p')
	assert.True(ok)
	assert.Equal(uint8(0x7), key)

	assert.ErrorIs(km.Set('o', 0x10), ErrKeyInvalid)
}
