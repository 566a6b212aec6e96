package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.True(s.Empty())
	assert.False(s.Full())

	assert.NoError(s.Push(0x234))
	assert.False(s.Empty())
	assert.Equal(1, s.Depth())
	assert.Equal(uint16(0x234), s.Data[0])

	// Addresses are 12 bits.
	assert.NoError(s.Push(0xf456))
	assert.Equal(uint16(0x456), s.Data[1])
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.NoError(s.Push(0x202))
	assert.NoError(s.Push(0x3fe))

	val, err := s.Pop()
	assert.NoError(err)
	assert.Equal(uint16(0x3fe), val)
	assert.Equal(1, s.Depth())

	val, err = s.Pop()
	assert.NoError(err)
	assert.Equal(uint16(0x202), val)
	assert.True(s.Empty())
}

func TestStack_Pop_Empty(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	val, err := s.Pop()
	assert.ErrorIs(err, ErrStackEmpty)
	assert.Equal(uint16(0), val)
	assert.Equal(0, s.Depth())
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	_, ok := s.Peek()
	assert.False(ok)

	s.Push(0x202)
	s.Push(0x204)

	val, ok := s.Peek()
	assert.True(ok)
	assert.Equal(uint16(0x204), val)
	assert.Equal(2, s.Depth())
}

func TestStack_Full(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}

	for i := range STACK_LIMIT {
		assert.False(s.Full())
		assert.NoError(s.Push(uint16(0x200 + 2*i)))
	}

	assert.True(s.Full())
	assert.Equal(STACK_LIMIT, s.Depth())

	// A 17th push fails, leaving the stack unchanged.
	err := s.Push(0x300)
	assert.ErrorIs(err, ErrStackFull)
	assert.Equal(STACK_LIMIT, s.Depth())

	val, ok := s.Peek()
	assert.True(ok)
	assert.Equal(uint16(0x200+2*(STACK_LIMIT-1)), val)
}

func TestStack_Reset(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	s.Reset()
	assert.True(s.Empty())

	s.Push(0x202)
	s.Push(0x204)
	assert.Equal(2, s.Depth())

	s.Reset()
	assert.True(s.Empty())
	assert.Equal(0, s.Depth())
}
