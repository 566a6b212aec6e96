// Package cpu implements the engine and assembler for the CHIP-8 virtual machine.
//
// The CPU consists of sixteen 8-bit registers (V0-VF, VF doubling as the
// carry/borrow/collision flag), a 12-bit index register (I), a 12-bit
// program counter, 4096 bytes of memory, a 16-deep return stack, and two
// 60 Hz countdown timers (delay and sound). Drawing goes through the
// io.Display contract, key tests through io.Keyboard.
//
// The assembler provides the conventional CHIP-8 mnemonic language,
// supporting macros, labels, equates, and compile-time expression evaluation.
package cpu
