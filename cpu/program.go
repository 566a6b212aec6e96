package cpu

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and generated bytes.
type Opcode struct {
	LineNo    int      // Source line.
	Address   int      // Memory address of the first byte.
	Words     []string // Source words after expansion.
	Bytes     []uint8  // Encoded instruction or data.
	Data      bool     // Set for .byte and .word directives.
	LinkLabel string   // Label to link into the address operand.
}

// Program is an assembled CHIP-8 program.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the opcode that covers an address.
func (prog *Program) Debug(pc uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(pc) >= op.Address && int(pc) < op.Address+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(pc) - op.Address,
			}
			break
		}
	}

	return
}

// Binary returns the memory image from PROGRAM_START to the last
// assembled byte, with gaps zero filled.
func (prog *Program) Binary() (rom []uint8) {
	end := PROGRAM_START
	for _, op := range prog.Opcodes {
		end = max(end, op.Address+len(op.Bytes))
	}

	rom = make([]uint8, end-PROGRAM_START)
	for _, op := range prog.Opcodes {
		copy(rom[op.Address-PROGRAM_START:], op.Bytes)
	}

	return
}

// Codes iterates over the instructions of the program by address.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(pc uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			if op.Data || len(op.Bytes) != 2 {
				continue
			}
			code := Code(op.Bytes[0])<<8 | Code(op.Bytes[1])
			if !yield(uint16(op.Address), code) {
				return
			}
		}
	}
}

// Disassemble iterates over a memory image loaded at PROGRAM_START, one
// instruction word at a time. A trailing odd byte is skipped.
func Disassemble(rom []uint8) iter.Seq2[uint16, Code] {
	return func(yield func(pc uint16, code Code) bool) {
		for n := 0; n+1 < len(rom); n += 2 {
			code := Code(rom[n])<<8 | Code(rom[n+1])
			if !yield(uint16(PROGRAM_START+n), code) {
				return
			}
		}
	}
}
