package io

import (
	"sync"
)

const (
	KEY_COUNT = 16 // Number of hex keys.
)

// Keypad is the 16 key hex keypad.
type Keypad struct {
	mutex   sync.Mutex
	pressed [KEY_COUNT]bool
	last    uint8
	hasLast bool
}

var _ Keyboard = (*Keypad)(nil)

// Pressed reports if 'key' is held. Only the low nibble is used.
func (kp *Keypad) Pressed(key uint8) bool {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()
	return kp.pressed[key&0xf]
}

// SetKeyState updates a key. 'press' is true when the key went from
// released to pressed.
func (kp *Keypad) SetKeyState(key uint8, pressed bool) (press bool, err error) {
	if key >= KEY_COUNT {
		err = ErrKeyInvalid
		return
	}

	kp.mutex.Lock()
	defer kp.mutex.Unlock()

	press = pressed && !kp.pressed[key]
	kp.pressed[key] = pressed
	if press {
		kp.last = key
		kp.hasLast = true
	}

	return
}

// Last returns the most recently pressed key.
func (kp *Keypad) Last() (key uint8, ok bool) {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()
	return kp.last, kp.hasLast
}

// Reset releases all keys.
func (kp *Keypad) Reset() {
	kp.mutex.Lock()
	clear(kp.pressed[:])
	kp.last = 0
	kp.hasLast = false
	kp.mutex.Unlock()
}
