package io

import (
	"unicode"
)

// Keymap maps host keyboard runes to hex keys.
type Keymap map[rune]uint8

// DefaultKeymap is the conventional layout on the left of a QWERTY board:
//
//	1 2 3 4      1 2 3 C
//	q w e r  =>  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
func DefaultKeymap() Keymap {
	return Keymap{
		'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
		'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
		'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
		'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
	}
}

// Set binds a rune to a hex key.
func (km Keymap) Set(r rune, key uint8) (err error) {
	if key >= KEY_COUNT {
		err = ErrKeyInvalid
		return
	}

	km[unicode.ToLower(r)] = key
	return
}

// Lookup finds the hex key for a rune, ignoring case.
func (km Keymap) Lookup(r rune) (key uint8, ok bool) {
	key, ok = km[unicode.ToLower(r)]
	return
}
