// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

import "fmt"

const (
	FLAG_POS  uint16 = 1 << 0
	FLAG_ZERO uint16 = 1 << 1
	FLAG_NEG  uint16 = 1 << 2
)

const (
	MEMSPACE_TRAP_TABLE uint16 = 0x0000
	MEMSPACE_USER       uint16 = 0x3000
	MEMSIZE                    = 1 << 16
)

type Opcode uint8

const (
	OP_BR   Opcode = 0b0000
	OP_ADD  Opcode = 0b0001
	OP_LD   Opcode = 0b0010
	OP_ST   Opcode = 0b0011
	OP_JSR  Opcode = 0b0100
	OP_AND  Opcode = 0b0101
	OP_LDR  Opcode = 0b0110
	OP_STR  Opcode = 0b0111
	OP_RTI  Opcode = 0b1000
	OP_NOT  Opcode = 0b1001
	OP_LDI  Opcode = 0b1010
	OP_STI  Opcode = 0b1011
	OP_JMP  Opcode = 0b1100
	OP_RES  Opcode = 0b1101
	OP_LEA  Opcode = 0b1110
	OP_TRAP Opcode = 0b1111
)

var opcodeNames = [16]string{
	OP_BR:   "BR",
	OP_ADD:  "ADD",
	OP_LD:   "LD",
	OP_ST:   "ST",
	OP_JSR:  "JSR",
	OP_AND:  "AND",
	OP_LDR:  "LDR",
	OP_STR:  "STR",
	OP_RTI:  "RTI",
	OP_NOT:  "NOT",
	OP_LDI:  "LDI",
	OP_STI:  "STI",
	OP_JMP:  "JMP",
	OP_RES:  "RES",
	OP_LEA:  "LEA",
	OP_TRAP: "TRAP",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}

	return fmt.Sprintf("Opcode(%#x)", uint8(op))
}

type Register uint8

const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
)

func (r Register) String() string {
	return fmt.Sprintf("R%d", uint8(r))
}

type TrapVector uint8

const (
	TRAP_GETC   TrapVector = 0x20
	TRAP_PUTC   TrapVector = 0x21
	TRAP_PUTS   TrapVector = 0x22
	TRAP_IN     TrapVector = 0x23
	TRAP_PUTSP  TrapVector = 0x24
	TRAP_HALT   TrapVector = 0x25
	TRAP_INU16  TrapVector = 0x26
	TRAP_OUTU16 TrapVector = 0x27
)

func (tv TrapVector) String() string {
	switch tv {
	case TRAP_GETC:
		return "GETC"
	case TRAP_PUTC:
		return "PUTC"
	case TRAP_PUTS:
		return "PUTS"
	case TRAP_IN:
		return "IN"
	case TRAP_PUTSP:
		return "PUTSP"
	case TRAP_HALT:
		return "HALT"
	case TRAP_INU16:
		return "INU16"
	case TRAP_OUTU16:
		return "OUTU16"
	}

	return fmt.Sprintf("TRAP(%#02x)", uint8(tv))
}

// Text written ahead of the console input traps when prompts are enabled
const (
	PROMPT_GETC  = "Enter char: "
	PROMPT_INU16 = "Enter u16: 0x"
)
