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
	"bufio"
	"fmt"
)

// Console is the byte stream used by the trap routines. A nil Input behaves
// like a closed keyboard, a nil Output discards everything written to it.
type Console struct {
	Input  *bufio.Reader
	Output *bufio.Writer
}

type MachineState struct {
	Registers [8]uint16
	Program   uint16
	Condition uint16
	Memory    [MEMSIZE]uint16
}

type Config struct {
	// Address the program is loaded at and where Run starts executing
	Origin uint16

	// Write a prompt to the console before GETC and INU16 block for input
	Prompts bool

	// JSR with bit 11 set adds its offset to PC instead of replacing PC
	RelativeJSR bool

	// Stop Run with ErrStepLimit after this many instructions, 0 for no limit
	MaxSteps uint64
}

func DefaultConfig() Config {
	return Config{Origin: MEMSPACE_USER}
}

// MachineDebugger is notified before each instruction and on every memory
// access made by an instruction.
type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

// Event describes the machine just before an instruction executes. Program
// is the address of the instruction.
type Event struct {
	Program     uint16
	Condition   uint16
	Registers   [8]uint16
	Instruction uint16
	Opcode      Opcode
}

type ReportKind uint

const (
	REPORT_OPCODE ReportKind = iota
	REPORT_TRAP
	REPORT_INPUT
)

// Report is an anomaly that execution continued past.
type Report struct {
	Kind        ReportKind
	Program     uint16
	Instruction uint16
	Detail      string
}

func (r Report) String() string {
	switch r.Kind {
	case REPORT_OPCODE:
		return fmt.Sprintf(
			"opcode reserved/not implemented: %s (%#04x) at %#04x",
			r.Detail, r.Instruction, r.Program,
		)
	case REPORT_TRAP:
		return fmt.Sprintf(
			"trapvec reserved/not implemented: %s (%#02x) at %#04x",
			r.Detail, r.Instruction&0xFF, r.Program,
		)
	default:
		return fmt.Sprintf("%s at %#04x", r.Detail, r.Program)
	}
}

// Observer receives the execution trace. Trace is called exactly once per
// instruction, before it executes.
type Observer interface {
	Trace(event Event)
	Report(report Report)
}

type Machine struct {
	Console  *Console
	State    MachineState
	Config   Config
	Debugger MachineDebugger
	Observer Observer

	running bool
	steps   uint64
	lastpc  uint16
}

func New(config Config) *Machine {
	return &Machine{Config: config}
}
