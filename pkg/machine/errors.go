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
	"errors"
	"fmt"
)

var (
	ErrStepLimit = errors.New("step limit reached")
	ErrNoConsole = errors.New("no console input attached")
)

// Error is a console failure raised while an instruction was executing.
type Error struct {
	Program     uint16 // address of the instruction
	Instruction uint16
	Trap        TrapVector
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf(
		"%s at %#04x (instruction %#04x): %v",
		e.Trap, e.Program, e.Instruction, e.Err,
	)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (mc *Machine) newError(instruction uint16, err error) error {
	return &Error{
		Program:     mc.lastpc,
		Instruction: instruction,
		Trap:        DecodeTrapVector(instruction),
		Err:         err,
	}
}
