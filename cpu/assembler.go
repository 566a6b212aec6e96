// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass macro assembler for CHIP-8 programs.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	address   int // Address of the next generated byte.
	expansion int // Count of macro expansions.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// labelRe matches words usable as labels.
var labelRe = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 0 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// registerOf decodes a v0..vf register name.
func registerOf(word string) (reg int, ok bool) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		return
	}
	n, err := strconv.ParseUint(word[1:], 16, 8)
	if err != nil {
		return
	}

	return int(n), true
}

// register decodes a register operand.
func (asm *Assembler) register(word string) (reg int, err error) {
	reg, ok := registerOf(word)
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// byteOf decodes a byte operand, signed or unsigned.
func (asm *Assembler) byteOf(word string) (kk uint8, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if value < -0x80 || value > 0xff {
		err = errors.Join(ErrValueRange, ErrParseNumber(word))
		return
	}

	kk = uint8(value)
	return
}

// nibbleOf decodes the sprite height operand.
func (asm *Assembler) nibbleOf(word string) (n uint8, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if value < 0 || value > 0xf {
		err = errors.Join(ErrValueRange, ErrParseNumber(word))
		return
	}

	n = uint8(value)
	return
}

// addressOf decodes an address operand. Words that are not numbers are
// returned as a label to link after parsing.
func (asm *Assembler) addressOf(word string) (nnn uint16, label string, err error) {
	value, err := asm.valueOf(word)
	if err == nil {
		if value < 0 || value > ADDRESS_MASK {
			err = errors.Join(ErrAddressRange, ErrParseNumber(word))
			return
		}
		nnn = uint16(value)
		return
	}

	if !labelRe.MatchString(word) {
		return
	}

	err = nil
	label = word
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine parses a single line into words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	// Operands may be separated by commas.
	line = strings.ReplaceAll(line, ",", " ")

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.address
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local '@' labels are unique to each expansion.
		asm.expansion++
		local := fmt.Sprintf("%v_%v_", name, asm.expansion)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err == nil {
				err = asm.parseWords(words, lineno)
			}
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.address = PROGRAM_START
	asm.expansion = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range Defines() {
		asm.Equate[attr] = val
	}
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		op.Bytes[0] |= uint8(addr>>8) & 0xf
		op.Bytes[1] = uint8(addr)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []uint8
	var label string
	var is_data bool

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words
	address := asm.address

	defer func() {
		if err != nil || len(data) == 0 {
			return
		}
		if address+len(data) > MEMORY_SIZE {
			err = ErrAddressRange
			return
		}
		opcode := Opcode{
			LineNo:    lineno,
			Address:   address,
			Words:     initial_words,
			Bytes:     data,
			Data:      is_data,
			LinkLabel: label,
		}
		asm.Opcode = append(asm.Opcode, opcode)
		asm.address += len(data)
	}()

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	switch mnemonic {
	case ".org":
		if len(args) != 1 {
			err = ErrOrgSyntax
			return
		}
		var value int64
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if value < PROGRAM_START || value >= MEMORY_SIZE {
			err = ErrAddressRange
			return
		}
		asm.address = int(value)
		return
	case ".byte", ".db":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var kk uint8
			kk, err = asm.byteOf(arg)
			if err != nil {
				return
			}
			data = append(data, kk)
		}
		is_data = true
		return
	case ".word", ".dw":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var value int64
			value, err = asm.valueOf(arg)
			if err != nil {
				return
			}
			if value < 0 || value > 0xffff {
				err = errors.Join(ErrValueRange, ErrParseNumber(arg))
				return
			}
			data = append(data, uint8(value>>8), uint8(value))
		}
		is_data = true
		return
	}

	var code Code
	code, label, err = asm.encode(mnemonic, args)
	if err != nil {
		return
	}

	data = code.Bytes()
	return
}

// aluMap maps register to register ALU mnemonics.
var aluMap = map[string]CodeAluOp{
	"or":   ALU_OP_OR,
	"and":  ALU_OP_AND,
	"xor":  ALU_OP_XOR,
	"sub":  ALU_OP_SUB,
	"subn": ALU_OP_SUBN,
	"shr":  ALU_OP_SHR,
	"shl":  ALU_OP_SHL,
}

// ldMap maps 'ld <dst>, vx' destinations to their Fx operation.
var ldMap = map[string]uint8{
	"dt":  MISC_OP_LD_DT_VX,
	"st":  MISC_OP_LD_ST_VX,
	"f":   MISC_OP_LD_F_VX,
	"b":   MISC_OP_LD_B_VX,
	"[i]": MISC_OP_LD_MEM,
}

// encode assembles a single instruction.
func (asm *Assembler) encode(mnemonic string, args []string) (code Code, label string, err error) {
	need := func(count int) bool {
		switch {
		case len(args) < count:
			err = ErrOpcodeValueMissing
		case len(args) > count:
			err = ErrOpcodeExtraArgs
		}
		return err == nil
	}

	var x, y int
	var kk uint8
	var nnn uint16

	switch mnemonic {
	case "cls":
		if need(0) {
			code = SYS_OP_CLS
		}
	case "ret":
		if need(0) {
			code = SYS_OP_RET
		}
	case "jp":
		if len(args) == 2 {
			if reg, ok := registerOf(args[0]); !ok || reg != 0 {
				err = ErrRegisterInvalid
				return
			}
			nnn, label, err = asm.addressOf(args[1])
			code = MakeCodeAddr(OP_JP_V0, nnn)
			return
		}
		if need(1) {
			nnn, label, err = asm.addressOf(args[0])
			code = MakeCodeAddr(OP_JP, nnn)
		}
	case "call":
		if need(1) {
			nnn, label, err = asm.addressOf(args[0])
			code = MakeCodeAddr(OP_CALL, nnn)
		}
	case "se", "sne":
		if !need(2) {
			return
		}
		x, err = asm.register(args[0])
		if err != nil {
			return
		}
		if y, ok := registerOf(args[1]); ok {
			class := OP_SE_REG
			if mnemonic == "sne" {
				class = OP_SNE_REG
			}
			code = MakeCodeReg(class, x, y, 0)
			return
		}
		kk, err = asm.byteOf(args[1])
		class := OP_SE_IMM
		if mnemonic == "sne" {
			class = OP_SNE_IMM
		}
		code = MakeCodeImm(class, x, kk)
	case "ld":
		if need(2) {
			code, label, err = asm.encodeLd(args[0], args[1])
		}
	case "add":
		if !need(2) {
			return
		}
		if strings.EqualFold(args[0], "i") {
			x, err = asm.register(args[1])
			code = MakeCodeImm(OP_MISC, x, MISC_OP_ADD_I_VX)
			return
		}
		x, err = asm.register(args[0])
		if err != nil {
			return
		}
		if y, ok := registerOf(args[1]); ok {
			code = MakeCodeReg(OP_ALU, x, y, uint8(ALU_OP_ADD))
			return
		}
		kk, err = asm.byteOf(args[1])
		code = MakeCodeImm(OP_ADD_IMM, x, kk)
	case "or", "and", "xor", "sub", "subn", "shr", "shl":
		op := aluMap[mnemonic]
		shift := op == ALU_OP_SHR || op == ALU_OP_SHL
		if shift && len(args) == 1 {
			// shr vx => shr vx, vx
			args = append(args, args[0])
		}
		if !need(2) {
			return
		}
		x, err = asm.register(args[0])
		if err != nil {
			return
		}
		y, err = asm.register(args[1])
		code = MakeCodeReg(OP_ALU, x, y, uint8(op))
	case "rnd":
		if !need(2) {
			return
		}
		x, err = asm.register(args[0])
		if err != nil {
			return
		}
		kk, err = asm.byteOf(args[1])
		code = MakeCodeImm(OP_RND, x, kk)
	case "drw":
		if !need(3) {
			return
		}
		x, err = asm.register(args[0])
		if err != nil {
			return
		}
		y, err = asm.register(args[1])
		if err != nil {
			return
		}
		var n uint8
		n, err = asm.nibbleOf(args[2])
		code = MakeCodeReg(OP_DRW, x, y, n)
	case "skp", "sknp":
		if !need(1) {
			return
		}
		x, err = asm.register(args[0])
		op := uint8(KEY_OP_SKP)
		if mnemonic == "sknp" {
			op = KEY_OP_SKNP
		}
		code = MakeCodeImm(OP_KEY, x, op)
	default:
		err = ErrInstructionInvalid
	}

	return
}

// encodeLd assembles the many forms of 'ld'.
func (asm *Assembler) encodeLd(dst, src string) (code Code, label string, err error) {
	var x int

	switch lower := strings.ToLower(dst); lower {
	case "i":
		var nnn uint16
		nnn, label, err = asm.addressOf(src)
		code = MakeCodeAddr(OP_LD_I, nnn)
		return
	case "dt", "st", "f", "b", "[i]":
		x, err = asm.register(src)
		code = MakeCodeImm(OP_MISC, x, ldMap[lower])
		return
	}

	x, err = asm.register(dst)
	if err != nil {
		return
	}

	switch strings.ToLower(src) {
	case "dt":
		code = MakeCodeImm(OP_MISC, x, MISC_OP_LD_VX_DT)
	case "k":
		code = MakeCodeImm(OP_MISC, x, MISC_OP_LD_VX_K)
	case "[i]":
		code = MakeCodeImm(OP_MISC, x, MISC_OP_LD_REG)
	default:
		if y, ok := registerOf(src); ok {
			code = MakeCodeReg(OP_ALU, x, y, uint8(ALU_OP_LD))
			return
		}
		var kk uint8
		kk, err = asm.byteOf(src)
		code = MakeCodeImm(OP_LD_IMM, x, kk)
	}

	return
}
