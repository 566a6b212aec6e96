package cpu

import (
	"fmt"
)

// CodeClass is the top nibble of an instruction word.
type CodeClass uint8

const (
	OP_SYS     = CodeClass(0x0) // cls, ret
	OP_JP      = CodeClass(0x1) // jp nnn
	OP_CALL    = CodeClass(0x2) // call nnn
	OP_SE_IMM  = CodeClass(0x3) // se vx, kk
	OP_SNE_IMM = CodeClass(0x4) // sne vx, kk
	OP_SE_REG  = CodeClass(0x5) // se vx, vy
	OP_LD_IMM  = CodeClass(0x6) // ld vx, kk
	OP_ADD_IMM = CodeClass(0x7) // add vx, kk
	OP_ALU     = CodeClass(0x8) // vx = vx <op> vy
	OP_SNE_REG = CodeClass(0x9) // sne vx, vy
	OP_LD_I    = CodeClass(0xa) // ld i, nnn
	OP_JP_V0   = CodeClass(0xb) // jp v0, nnn
	OP_RND     = CodeClass(0xc) // rnd vx, kk
	OP_DRW     = CodeClass(0xd) // drw vx, vy, n
	OP_KEY     = CodeClass(0xe) // skp vx, sknp vx
	OP_MISC    = CodeClass(0xf) // timers, memory, fonts
)

// Low byte operations of the OP_SYS class.
const (
	SYS_OP_CLS = 0xe0
	SYS_OP_RET = 0xee
)

// CodeAluOp is the low nibble of an OP_ALU instruction.
type CodeAluOp uint8

//go:generate go tool stringer -linecomment -type=CodeAluOp
const (
	ALU_OP_LD   = CodeAluOp(0x0) // ld
	ALU_OP_OR   = CodeAluOp(0x1) // or
	ALU_OP_AND  = CodeAluOp(0x2) // and
	ALU_OP_XOR  = CodeAluOp(0x3) // xor
	ALU_OP_ADD  = CodeAluOp(0x4) // add
	ALU_OP_SUB  = CodeAluOp(0x5) // sub
	ALU_OP_SHR  = CodeAluOp(0x6) // shr
	ALU_OP_SUBN = CodeAluOp(0x7) // subn
	ALU_OP_SHL  = CodeAluOp(0xe) // shl
)

// Low byte operations of the OP_KEY class.
const (
	KEY_OP_SKP  = 0x9e
	KEY_OP_SKNP = 0xa1
)

// Low byte operations of the OP_MISC class.
const (
	MISC_OP_LD_VX_DT = 0x07
	MISC_OP_LD_VX_K  = 0x0a
	MISC_OP_LD_DT_VX = 0x15
	MISC_OP_LD_ST_VX = 0x18
	MISC_OP_ADD_I_VX = 0x1e
	MISC_OP_LD_F_VX  = 0x29
	MISC_OP_LD_B_VX  = 0x33
	MISC_OP_LD_MEM   = 0x55
	MISC_OP_LD_REG   = 0x65
)

// Code is a single big-endian instruction word.
type Code uint16

// MakeCodeAddr creates an instruction with a 12-bit address operand.
func MakeCodeAddr(class CodeClass, nnn uint16) Code {
	return Code(uint16(class)<<12 | nnn&ADDRESS_MASK)
}

// MakeCodeImm creates an instruction with a register and byte operand.
func MakeCodeImm(class CodeClass, x int, kk uint8) Code {
	return Code(uint16(class)<<12 | uint16(x&0xf)<<8 | uint16(kk))
}

// MakeCodeReg creates an instruction with two registers and a nibble.
func MakeCodeReg(class CodeClass, x, y int, n uint8) Code {
	return Code(uint16(class)<<12 | uint16(x&0xf)<<8 | uint16(y&0xf)<<4 | uint16(n&0xf))
}

// Class returns the top nibble.
func (code Code) Class() CodeClass {
	return CodeClass(code >> 12)
}

// X returns the first register operand.
func (code Code) X() int {
	return int(code>>8) & 0xf
}

// Y returns the second register operand.
func (code Code) Y() int {
	return int(code>>4) & 0xf
}

// N returns the low nibble.
func (code Code) N() uint8 {
	return uint8(code) & 0xf
}

// KK returns the low byte.
func (code Code) KK() uint8 {
	return uint8(code)
}

// NNN returns the 12-bit address operand.
func (code Code) NNN() uint16 {
	return uint16(code) & ADDRESS_MASK
}

// Bytes returns the instruction as it is stored in memory.
func (code Code) Bytes() []uint8 {
	return []uint8{uint8(code >> 8), uint8(code)}
}

// Valid reports if the word decodes to an instruction.
func (code Code) Valid() bool {
	switch code.Class() {
	case OP_SYS:
		return code == SYS_OP_CLS || code == SYS_OP_RET
	case OP_SE_REG, OP_SNE_REG:
		return code.N() == 0
	case OP_ALU:
		switch CodeAluOp(code.N()) {
		case ALU_OP_LD, ALU_OP_OR, ALU_OP_AND, ALU_OP_XOR, ALU_OP_ADD,
			ALU_OP_SUB, ALU_OP_SHR, ALU_OP_SUBN, ALU_OP_SHL:
			return true
		}
		return false
	case OP_KEY:
		return code.KK() == KEY_OP_SKP || code.KK() == KEY_OP_SKNP
	case OP_MISC:
		switch code.KK() {
		case MISC_OP_LD_VX_DT, MISC_OP_LD_VX_K, MISC_OP_LD_DT_VX,
			MISC_OP_LD_ST_VX, MISC_OP_ADD_I_VX, MISC_OP_LD_F_VX,
			MISC_OP_LD_B_VX, MISC_OP_LD_MEM, MISC_OP_LD_REG:
			return true
		}
		return false
	}

	return true
}

// String returns the assembly language representation of this instruction.
// Words that do not decode are shown as a .word directive.
func (code Code) String() (out string) {
	if !code.Valid() {
		return fmt.Sprintf(".word 0x%04x", uint16(code))
	}

	vx := fmt.Sprintf("v%x", code.X())
	vy := fmt.Sprintf("v%x", code.Y())
	kk := fmt.Sprintf("0x%02x", code.KK())
	nnn := fmt.Sprintf("0x%03x", code.NNN())

	switch code.Class() {
	case OP_SYS:
		out = "cls"
		if code == SYS_OP_RET {
			out = "ret"
		}
	case OP_JP:
		out = "jp " + nnn
	case OP_CALL:
		out = "call " + nnn
	case OP_SE_IMM:
		out = "se " + vx + ", " + kk
	case OP_SNE_IMM:
		out = "sne " + vx + ", " + kk
	case OP_SE_REG:
		out = "se " + vx + ", " + vy
	case OP_LD_IMM:
		out = "ld " + vx + ", " + kk
	case OP_ADD_IMM:
		out = "add " + vx + ", " + kk
	case OP_ALU:
		out = CodeAluOp(code.N()).String() + " " + vx + ", " + vy
	case OP_SNE_REG:
		out = "sne " + vx + ", " + vy
	case OP_LD_I:
		out = "ld i, " + nnn
	case OP_JP_V0:
		out = "jp v0, " + nnn
	case OP_RND:
		out = "rnd " + vx + ", " + kk
	case OP_DRW:
		out = fmt.Sprintf("drw %v, %v, %d", vx, vy, code.N())
	case OP_KEY:
		out = "skp " + vx
		if code.KK() == KEY_OP_SKNP {
			out = "sknp " + vx
		}
	case OP_MISC:
		switch code.KK() {
		case MISC_OP_LD_VX_DT:
			out = "ld " + vx + ", dt"
		case MISC_OP_LD_VX_K:
			out = "ld " + vx + ", k"
		case MISC_OP_LD_DT_VX:
			out = "ld dt, " + vx
		case MISC_OP_LD_ST_VX:
			out = "ld st, " + vx
		case MISC_OP_ADD_I_VX:
			out = "add i, " + vx
		case MISC_OP_LD_F_VX:
			out = "ld f, " + vx
		case MISC_OP_LD_B_VX:
			out = "ld b, " + vx
		case MISC_OP_LD_MEM:
			out = "ld [i], " + vx
		case MISC_OP_LD_REG:
			out = "ld " + vx + ", [i]"
		}
	}

	return
}
