package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeAluOp(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op    CodeAluOp
		name  string
		valid bool
	}){
		{ALU_OP_LD, "ld", true},
		{ALU_OP_OR, "or", true},
		{ALU_OP_AND, "and", true},
		{ALU_OP_XOR, "xor", true},
		{ALU_OP_ADD, "add", true},
		{ALU_OP_SUB, "sub", true},
		{ALU_OP_SHR, "shr", true},
		{ALU_OP_SUBN, "subn", true},
		{ALU_OP_SHL, "shl", true},
		{CodeAluOp(0x8), "CodeAluOp(8)", false},
		{CodeAluOp(0xd), "CodeAluOp(13)", false},
		{CodeAluOp(0xf), "CodeAluOp(15)", false},
	}

	for _, entry := range table {
		assert.Equal(entry.name, entry.op.String())
		code := MakeCodeReg(OP_ALU, 1, 2, uint8(entry.op))
		assert.Equal(entry.valid, code.Valid(), "%04x", uint16(code))
	}
}

func TestCpuState(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("running", STATE_RUNNING.String())
	assert.Equal("wait-key", STATE_WAIT_KEY.String())
	assert.Equal("key-ready", STATE_KEY_READY.String())
	assert.Equal("fault", STATE_FAULT.String())
	assert.Equal("CpuState(4)", CpuState(4).String())

	assert.Equal("idle", REDRAW_IDLE.String())
	assert.Equal("pending", REDRAW_PENDING.String())
	assert.Equal("RedrawState(-1)", RedrawState(-1).String())
}
