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
	"encoding/binary"
	"io"

	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/image"
)

func (mc *MachineState) Reset() {
	*mc = MachineState{}
}

// Copies the image words into memory starting at the image origin. Words
// that would run past the top of memory are dropped; the number of words
// actually copied is returned.
func (mc *Machine) Load(img *image.Image) int {
	return copy(mc.State.Memory[img.Origin:], img.Words)
}

// Resets the machine and loads a headerless image at the configured origin,
// composing each byte pair with the given order.
func (mc *Machine) LoadBin(reader io.Reader, order binary.ByteOrder) error {
	mc.State.Reset()
	mc.running = false
	mc.steps = 0

	img, err := image.Read(reader, image.FormatRaw, order, mc.Config.Origin)

	if err != nil {
		return err
	}

	mc.Load(img)

	return nil
}

func (mc *Machine) Running() bool {
	return mc.running
}

// Stops the run loop once the current instruction completes.
func (mc *Machine) Halt() {
	mc.running = false
}

// Number of instructions executed since the last Run.
func (mc *Machine) Steps() uint64 {
	return mc.steps
}

// Run starts executing at the configured origin and returns once a HALT trap
// executes, the step limit is hit, or a console operation fails.
func (mc *Machine) Run() error {
	mc.State.Program = mc.Config.Origin
	mc.running = true
	mc.steps = 0

	for mc.running {
		if mc.Debugger != nil {
			mc.Debugger.Step(mc)

			if !mc.running {
				break
			}
		}

		if mc.Config.MaxSteps > 0 && mc.steps >= mc.Config.MaxSteps {
			mc.running = false
			return ErrStepLimit
		}

		if err := mc.Step(); err != nil {
			mc.running = false
			return err
		}
	}

	return nil
}

func (mc *Machine) read(addr uint16) uint16 {
	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value uint16) {
	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) reg(r Register) uint16 {
	return mc.State.Registers[r]
}

func (mc *Machine) setReg(r Register, value uint16) {
	mc.State.Registers[r] = value
}

func (mc *Machine) setFlags(value uint16) {
	if value == 0 {
		mc.State.Condition = FLAG_ZERO
	} else if value>>15 == 1 {
		mc.State.Condition = FLAG_NEG
	} else {
		mc.State.Condition = FLAG_POS
	}
}

func (mc *Machine) report(kind ReportKind, instruction uint16, detail string) {
	if mc.Observer != nil {
		mc.Observer.Report(Report{
			Kind:        kind,
			Program:     mc.lastpc,
			Instruction: instruction,
			Detail:      detail,
		})
	}
}

// Step executes the instruction at PC. The only error source is the console
// used by the trap routines.
func (mc *Machine) Step() error {
	mc.lastpc = mc.State.Program

	instruction := mc.read(mc.State.Program)
	opcode := DecodeOpcode(instruction)

	if mc.Observer != nil {
		mc.Observer.Trace(Event{
			Program:     mc.State.Program,
			Condition:   mc.State.Condition,
			Registers:   mc.State.Registers,
			Instruction: instruction,
			Opcode:      opcode,
		})
	}

	mc.State.Program++
	mc.steps++

	return mc.dispatch(opcode, instruction)
}

func (mc *Machine) dispatch(opcode Opcode, instruction uint16) error {
	switch opcode {
	case OP_ADD:
		mc.opAdd(instruction)
	case OP_AND:
		mc.opAnd(instruction)
	case OP_BR:
		mc.opBr(instruction)
	case OP_JMP:
		mc.opJmp(instruction)
	case OP_JSR:
		mc.opJsr(instruction)
	case OP_LD:
		mc.opLd(instruction)
	case OP_LDI:
		mc.opLdi(instruction)
	case OP_LDR:
		mc.opLdr(instruction)
	case OP_LEA:
		mc.opLea(instruction)
	case OP_NOT:
		mc.opNot(instruction)
	case OP_ST:
		mc.opSt(instruction)
	case OP_STI:
		mc.opSti(instruction)
	case OP_STR:
		mc.opStr(instruction)
	case OP_TRAP:
		return mc.opTrap(instruction)
	case OP_RTI, OP_RES:
		mc.report(REPORT_OPCODE, instruction, opcode.String())
	default:
		panic("Unhandled opcode " + opcode.String())
	}

	return nil
}

// Second operand of ADD and AND
func (mc *Machine) operand2(instruction uint16) uint16 {
	if encoding.IsBitSet(instruction, 5) {
		return imm5(instruction)
	}

	return mc.reg(SrcReg2(instruction))
}

// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opAdd(instruction uint16) {
	dest := DestReg(instruction)

	mc.setReg(dest, mc.reg(SrcReg1(instruction))+mc.operand2(instruction))
	mc.setFlags(mc.reg(dest))
}

// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opAnd(instruction uint16) {
	dest := DestReg(instruction)

	mc.setReg(dest, mc.reg(SrcReg1(instruction))&mc.operand2(instruction))
	mc.setFlags(mc.reg(dest))
}

// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opBr(instruction uint16) {
	flags := (instruction >> 9) & 0x7

	if flags&mc.State.Condition != 0 {
		mc.State.Program += offset9(instruction)
	}
}

// JMP  |1100    |000  |BaseR|000000      | Jump
// RET  |1100    |000  |111  |000000      | Return
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opJmp(instruction uint16) {
	mc.State.Program = mc.reg(SrcReg1(instruction))
}

// JSR  |0100    |1|PCoffset11            | Jump to subroutine
// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opJsr(instruction uint16) {
	link := mc.State.Program

	// R7 is written first, so JSRR R7 lands on the new link
	mc.setReg(R7, link)

	if encoding.IsBitSet(instruction, 11) {
		mc.State.Program = offset11(instruction)

		if mc.Config.RelativeJSR {
			mc.State.Program += link
		}
	} else {
		mc.State.Program = mc.reg(SrcReg1(instruction))
	}
}

// LD   |0010    |DR   |PCoffset9         | Load
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opLd(instruction uint16) {
	dest := DestReg(instruction)
	addr := mc.State.Program + offset9(instruction)

	mc.setReg(dest, mc.read(addr))
	mc.setFlags(mc.reg(dest))
}

// LDI  |1010    |DR   |PCoffset9         | Load indirect
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opLdi(instruction uint16) {
	dest := DestReg(instruction)
	addr := mc.State.Program + offset9(instruction)

	mc.setReg(dest, mc.read(mc.read(addr)))
	mc.setFlags(mc.reg(dest))
}

// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opLdr(instruction uint16) {
	dest := DestReg(instruction)
	addr := mc.reg(SrcReg1(instruction)) + offset6(instruction)

	mc.setReg(dest, mc.read(addr))
	mc.setFlags(mc.reg(dest))
}

// LEA  |1110    |DR   |PCoffset9         | Load effective address
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opLea(instruction uint16) {
	dest := DestReg(instruction)

	mc.setReg(dest, mc.State.Program+offset9(instruction))
	mc.setFlags(mc.reg(dest))
}

// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opNot(instruction uint16) {
	dest := DestReg(instruction)

	mc.setReg(dest, ^mc.reg(SrcReg1(instruction)))
	mc.setFlags(mc.reg(dest))
}

// ST   |0011    |SR   |PCoffset9         | Store
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opSt(instruction uint16) {
	addr := mc.State.Program + offset9(instruction)

	mc.write(addr, mc.reg(DestReg(instruction)))
}

// STI  |1011    |SR   |PCoffset9         | Store indirect
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opSti(instruction uint16) {
	addr := mc.State.Program + offset9(instruction)

	mc.write(mc.read(addr), mc.reg(DestReg(instruction)))
}

// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opStr(instruction uint16) {
	addr := mc.reg(SrcReg1(instruction)) + offset6(instruction)

	mc.write(addr, mc.reg(DestReg(instruction)))
}
