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

import (
	"fmt"

	"github.com/lassandro/lc3vm/pkg/encoding"
)

// The masks below keep every field inside its identifier space, so the range
// checks only fire on a broken decoder.

func toOpcode(value uint16) Opcode {
	if value > 0xF {
		panic(fmt.Sprintf("Invalid opcode %#x", value))
	}

	return Opcode(value)
}

func toRegister(value uint16) Register {
	if value > 0x7 {
		panic(fmt.Sprintf("Invalid register %d", value))
	}

	return Register(value)
}

func DecodeOpcode(instruction uint16) Opcode {
	return toOpcode((instruction >> 12) & 0xF)
}

func DestReg(instruction uint16) Register {
	return toRegister((instruction >> 9) & 0x7)
}

func SrcReg1(instruction uint16) Register {
	return toRegister((instruction >> 6) & 0x7)
}

func SrcReg2(instruction uint16) Register {
	return toRegister(instruction & 0x7)
}

func DecodeTrapVector(instruction uint16) TrapVector {
	return TrapVector(instruction & 0xFF)
}

func imm5(instruction uint16) uint16 {
	return encoding.Field(instruction, 5)
}

func offset6(instruction uint16) uint16 {
	return encoding.Field(instruction, 6)
}

func offset9(instruction uint16) uint16 {
	return encoding.Field(instruction, 9)
}

func offset11(instruction uint16) uint16 {
	return encoding.Field(instruction, 11)
}
