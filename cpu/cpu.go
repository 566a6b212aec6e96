package cpu

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/ezrec/chip8/io"
)

// CpuState is the execution state of the CPU.
//
// Fx0A moves STATE_RUNNING to STATE_WAIT_KEY, KeyPress moves it on to
// STATE_KEY_READY, and the next Step completes the instruction. Any
// fatal error stops the CPU in STATE_FAULT until Reset.
type CpuState int

//go:generate go tool stringer -linecomment -type=CpuState
const (
	STATE_RUNNING   = CpuState(0) // running
	STATE_WAIT_KEY  = CpuState(1) // wait-key
	STATE_KEY_READY = CpuState(2) // key-ready
	STATE_FAULT     = CpuState(3) // fault
)

// RedrawState tracks whether the display needs presenting.
type RedrawState int

//go:generate go tool stringer -linecomment -type=RedrawState
const (
	REDRAW_IDLE    = RedrawState(0) // idle
	REDRAW_PENDING = RedrawState(1) // pending
)

// Status is a read-only snapshot of the register file.
type Status struct {
	Register [REGISTER_COUNT]uint8
	I        uint16
	Pc       uint16
}

// Cpu is the fetch-decode-execute engine of the CHIP-8.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Display  io.Display  // Target of cls and drw.
	Keyboard io.Keyboard // Source of skp, sknp.
	Random   *rand.Rand  // Source of rnd.
	FontBase uint16      // Origin of the hex glyphs used by ld f, vx.

	Register [REGISTER_COUNT]uint8 // V0..VF
	I        uint16                // Index register.
	Pc       uint16                // Program counter.
	Memory   [MEMORY_SIZE]uint8    // Main memory.
	Stack    Stack                 // Return address stack.
	Delay    Timer                 // Delay timer.
	Sound    Timer                 // Sound timer.

	Ticks int // Executed instruction counter.

	state        CpuState
	waitRegister int
	redraw       RedrawState
	fault        error
}

// NewCpu creates a CPU attached to a display and keyboard.
// A nil display or keyboard is replaced by an unattached one.
func NewCpu(display io.Display, keyboard io.Keyboard) (cpu *Cpu) {
	if display == nil {
		display = &io.Framebuffer{}
	}
	if keyboard == nil {
		keyboard = &io.Keypad{}
	}

	cpu = &Cpu{
		Display:  display,
		Keyboard: keyboard,
		Random:   rand.New(rand.NewSource(time.Now().UnixNano())),
		FontBase: FONT_BASE,
		Pc:       PROGRAM_START,
	}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("   pc: %03X\n", cpu.Pc)
	text += fmt.Sprintf("    i: %03X\n", cpu.I)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("   v%X: %02X\n", n, val)
	}
	strval := "---"
	if addr, ok := cpu.Stack.Peek(); ok {
		strval = fmt.Sprintf("%03X", addr)
	}
	text += fmt.Sprintf("stack: %v (%d)\n", strval, cpu.Stack.Depth())
	text += fmt.Sprintf("   dt: %02X\n", cpu.Delay.Get())
	text += fmt.Sprintf("   st: %02X\n", cpu.Sound.Get())
	text += fmt.Sprintf("state: %v (redraw %v)\n", cpu.state, cpu.redraw)

	return
}

// Status returns a snapshot of the registers, I and PC.
func (cpu *Cpu) Status() Status {
	return Status{
		Register: cpu.Register,
		I:        cpu.I,
		Pc:       cpu.Pc,
	}
}

// State returns the execution state.
func (cpu *Cpu) State() CpuState {
	return cpu.state
}

// Fault returns the error that stopped the CPU, if any.
func (cpu *Cpu) Fault() error {
	return cpu.fault
}

// Reset the CPU state.
// - Clears the registers, stack and timers.
// - Sets PC to PROGRAM_START.
// - Leaves memory untouched.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.I = 0
	cpu.Pc = PROGRAM_START
	cpu.Stack.Reset()
	cpu.Delay.Reset()
	cpu.Sound.Reset()
	cpu.Ticks = 0

	cpu.state = STATE_RUNNING
	cpu.waitRegister = 0
	cpu.redraw = REDRAW_IDLE
	cpu.fault = nil
}

// Load copies data into memory at an address.
func (cpu *Cpu) Load(address uint16, data []uint8) (err error) {
	if int(address)+len(data) > MEMORY_SIZE {
		err = ErrAddressRange
		return
	}

	copy(cpu.Memory[address:], data)
	return
}

// LoadRom writes a program at PROGRAM_START and clears the display.
// Registers, PC and timers are left as they are.
func (cpu *Cpu) LoadRom(rom []uint8) (err error) {
	if len(rom) > io.ROM_LIMIT {
		err = io.ErrRomSize
		return
	}

	err = cpu.Load(PROGRAM_START, rom)
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes at %03x", len(rom), PROGRAM_START)
	}

	cpu.ClearDisplay()
	return
}

// SetMemoryByte pokes a single byte of memory.
func (cpu *Cpu) SetMemoryByte(address int, value int) (err error) {
	if address < 0 || address >= MEMORY_SIZE {
		err = ErrAddressRange
		return
	}
	if value < 0 || value > 0xff {
		err = ErrValueRange
		return
	}

	cpu.Memory[address] = uint8(value)
	return
}

// RedrawPending reports if the display changed since the last Rendered.
func (cpu *Cpu) RedrawPending() bool {
	return cpu.redraw == REDRAW_PENDING
}

// Rendered acknowledges that the host presented the display.
func (cpu *Cpu) Rendered() {
	cpu.redraw = REDRAW_IDLE
}

// Waiting reports if the CPU is suspended on a key press.
func (cpu *Cpu) Waiting() bool {
	return cpu.state == STATE_WAIT_KEY
}

// KeyPress delivers a new key press. It returns true when the press
// completed a pending key wait.
func (cpu *Cpu) KeyPress(key uint8) (consumed bool) {
	if cpu.state != STATE_WAIT_KEY {
		return
	}

	cpu.Register[cpu.waitRegister] = key & 0xf
	cpu.state = STATE_KEY_READY
	consumed = true

	if cpu.Verbose {
		log.Printf("cpu: key %x to v%x", key&0xf, cpu.waitRegister)
	}

	return
}

// FetchCode reads the instruction word at PC.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	if cpu.Pc > PC_LIMIT {
		err = ErrPcRange
		return
	}

	code = Code(cpu.Memory[cpu.Pc])<<8 | Code(cpu.Memory[cpu.Pc+1])
	return
}

// Step executes a single CPU instruction cycle.
func (cpu *Cpu) Step() (err error) {
	switch cpu.state {
	case STATE_FAULT:
		err = errors.Join(ErrCpuFault, cpu.fault)
		return
	case STATE_WAIT_KEY:
		return
	case STATE_KEY_READY:
		cpu.Pc += 2
		cpu.state = STATE_RUNNING
		cpu.Ticks++
		return
	}

	defer func() {
		if err != nil {
			cpu.state = STATE_FAULT
			cpu.fault = err
			if cpu.Verbose {
				log.Printf("cpu: %v at %03x: %v", cpu.state, cpu.Pc, err)
			}
		}
	}()

	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	return
}

// Execute executes a single decoded instruction at PC.
func (cpu *Cpu) Execute(code Code) (err error) {
	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc, code)
	}

	next_pc := cpu.Pc + 2

	x := code.X()
	y := code.Y()
	vx := cpu.Register[x]
	vy := cpu.Register[y]

	switch code.Class() {
	case OP_SYS:
		switch code {
		case SYS_OP_CLS:
			cpu.ClearDisplay()
		case SYS_OP_RET:
			next_pc, err = cpu.Stack.Pop()
			if err != nil {
				return
			}
		default:
			err = ErrOpcode(code)
			return
		}
	case OP_JP:
		next_pc = code.NNN()
	case OP_CALL:
		err = cpu.Stack.Push(next_pc)
		if err != nil {
			return
		}
		next_pc = code.NNN()
	case OP_SE_IMM:
		if vx == code.KK() {
			next_pc += 2
		}
	case OP_SNE_IMM:
		if vx != code.KK() {
			next_pc += 2
		}
	case OP_SE_REG, OP_SNE_REG:
		if code.N() != 0 {
			err = ErrOpcode(code)
			return
		}
		if (vx == vy) == (code.Class() == OP_SE_REG) {
			next_pc += 2
		}
	case OP_LD_IMM:
		cpu.Register[x] = code.KK()
	case OP_ADD_IMM:
		cpu.Register[x] = vx + code.KK()
	case OP_ALU:
		var flag uint8
		var output uint8
		output, flag, err = cpu.doAlu(code, vx, vy)
		if err != nil {
			return
		}
		cpu.Register[x] = output
		switch CodeAluOp(code.N()) {
		case ALU_OP_ADD, ALU_OP_SUB, ALU_OP_SHR, ALU_OP_SUBN, ALU_OP_SHL:
			cpu.Register[REGISTER_FLAG] = flag
		}
	case OP_LD_I:
		cpu.I = code.NNN()
	case OP_JP_V0:
		next_pc = (code.NNN() + uint16(cpu.Register[0])) & ADDRESS_MASK
	case OP_RND:
		cpu.Register[x] = uint8(cpu.Random.Intn(0x100)) & code.KK()
	case OP_DRW:
		cpu.draw(vx, vy, code.N())
	case OP_KEY:
		pressed := cpu.Keyboard.Pressed(vx & 0xf)
		switch code.KK() {
		case KEY_OP_SKP:
			if pressed {
				next_pc += 2
			}
		case KEY_OP_SKNP:
			if !pressed {
				next_pc += 2
			}
		default:
			err = ErrOpcode(code)
			return
		}
	case OP_MISC:
		switch code.KK() {
		case MISC_OP_LD_VX_DT:
			cpu.Register[x] = cpu.Delay.Get()
		case MISC_OP_LD_VX_K:
			cpu.state = STATE_WAIT_KEY
			cpu.waitRegister = x
			// Don't advance to next PC.
			next_pc = cpu.Pc
		case MISC_OP_LD_DT_VX:
			cpu.Delay.Set(vx)
		case MISC_OP_LD_ST_VX:
			cpu.Sound.Set(vx)
		case MISC_OP_ADD_I_VX:
			sum := cpu.I + uint16(vx)
			cpu.I = sum & ADDRESS_MASK
			cpu.Register[REGISTER_FLAG] = 0
			if sum > ADDRESS_MASK {
				cpu.Register[REGISTER_FLAG] = 1
			}
		case MISC_OP_LD_F_VX:
			cpu.I = (cpu.FontBase + FONT_GLYPH_SIZE*uint16(vx)) & ADDRESS_MASK
		case MISC_OP_LD_B_VX:
			cpu.Memory[cpu.offset(0)] = vx / 100
			cpu.Memory[cpu.offset(1)] = (vx / 10) % 10
			cpu.Memory[cpu.offset(2)] = vx % 10
		case MISC_OP_LD_MEM:
			for n := 0; n <= x; n++ {
				cpu.Memory[cpu.offset(n)] = cpu.Register[n]
			}
		case MISC_OP_LD_REG:
			for n := 0; n <= x; n++ {
				cpu.Register[n] = cpu.Memory[cpu.offset(n)]
			}
		default:
			err = ErrOpcode(code)
			return
		}
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}

// offset returns the memory address I+n, wrapped to the address space.
func (cpu *Cpu) offset(n int) uint16 {
	return (cpu.I + uint16(n)) & ADDRESS_MASK
}

// doAlu performs the 8xyN operation, returning the result and the VF value.
func (cpu *Cpu) doAlu(code Code, input, value uint8) (output, flag uint8, err error) {
	switch CodeAluOp(code.N()) {
	case ALU_OP_LD:
		output = value
	case ALU_OP_OR:
		output = input | value
	case ALU_OP_AND:
		output = input & value
	case ALU_OP_XOR:
		output = input ^ value
	case ALU_OP_ADD:
		output = input + value
		if uint16(input)+uint16(value) > 0xff {
			flag = 1
		}
	case ALU_OP_SUB:
		output = input - value
		if input > value {
			flag = 1
		}
	case ALU_OP_SHR:
		output = input >> 1
		flag = input & 1
	case ALU_OP_SUBN:
		output = value - input
		if value > input {
			flag = 1
		}
	case ALU_OP_SHL:
		output = input << 1
		flag = input >> 7
	default:
		err = ErrOpcode(code)
	}

	return
}

// ClearDisplay clears the display and marks it for redraw.
func (cpu *Cpu) ClearDisplay() {
	cpu.Display.Clear()
	cpu.redraw = REDRAW_PENDING
}

// draw XORs an 8 pixel wide, 'rows' high sprite from memory at I onto the
// display. The origin wraps to the display, the sprite itself is clipped
// at the right and bottom edges. VF is set if any lit pixel was erased.
func (cpu *Cpu) draw(vx, vy uint8, rows uint8) {
	ox := int(vx) % io.SCREEN_WIDTH
	oy := int(vy) % io.SCREEN_HEIGHT

	cpu.Register[REGISTER_FLAG] = 0

	var collision bool
	for r := range int(rows) {
		py := oy + r
		if py >= io.SCREEN_HEIGHT {
			break
		}
		sprite := cpu.Memory[cpu.offset(r)]
		for i := range 8 {
			px := ox + i
			if px >= io.SCREEN_WIDTH {
				break
			}
			if sprite&(0x80>>i) == 0 {
				continue
			}
			if cpu.Display.GetPixel(px, py) != 0 {
				collision = true
			}
			cpu.Display.SetPixel(px, py, 1)
		}
	}

	if collision {
		cpu.Register[REGISTER_FLAG] = 1
	}

	cpu.redraw = REDRAW_PENDING
}
