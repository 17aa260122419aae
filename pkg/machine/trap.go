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
	"io"

	"github.com/lassandro/lc3vm/pkg/encoding"
)

// TRAP |1111    |0000   |trapvect8       | System call
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) opTrap(instruction uint16) error {
	var err error

	switch vector := DecodeTrapVector(instruction); vector {
	case TRAP_GETC:
		err = mc.trapGetc(instruction)
	case TRAP_PUTC:
		err = mc.trapPutc()
	case TRAP_PUTS:
		err = mc.trapPuts()
	case TRAP_HALT:
		mc.running = false
	case TRAP_INU16:
		err = mc.trapInU16(instruction)
	case TRAP_OUTU16:
		err = mc.trapOutU16()
	default:
		mc.report(REPORT_TRAP, instruction, vector.String())
	}

	if err != nil {
		return mc.newError(instruction, err)
	}

	return nil
}

func (mc *Machine) input() (*bufio.Reader, error) {
	if mc.Console == nil || mc.Console.Input == nil {
		return nil, ErrNoConsole
	}

	return mc.Console.Input, nil
}

// Writes through to the console and flushes so output interleaves with the
// trace in program order.
func (mc *Machine) output(f func(w *bufio.Writer) error) error {
	if mc.Console == nil || mc.Console.Output == nil {
		return nil
	}

	if err := f(mc.Console.Output); err != nil {
		return err
	}

	return mc.Console.Output.Flush()
}

func (mc *Machine) prompt(text string) error {
	if !mc.Config.Prompts {
		return nil
	}

	return mc.output(func(w *bufio.Writer) error {
		_, err := w.WriteString(text)
		return err
	})
}

func (mc *Machine) trapGetc(instruction uint16) error {
	if err := mc.prompt(PROMPT_GETC); err != nil {
		return err
	}

	in, err := mc.input()

	if err != nil {
		return err
	}

	key, err := in.ReadByte()

	if err == io.EOF {
		mc.report(REPORT_INPUT, instruction, "GETC reached end of input")
		mc.setReg(R0, 0)
		return nil
	}

	if err != nil {
		return err
	}

	mc.setReg(R0, uint16(key))

	return nil
}

func (mc *Machine) trapPutc() error {
	return mc.output(func(w *bufio.Writer) error {
		return w.WriteByte(byte(mc.reg(R0) & 0xFF))
	})
}

func (mc *Machine) trapPuts() error {
	return mc.output(func(w *bufio.Writer) error {
		addr := mc.reg(R0)

		// A full lap of memory without a terminator ends the string
		for i := 0; i < MEMSIZE; i++ {
			value := mc.read(addr)

			if value == 0x0000 {
				break
			}

			if _, err := w.WriteRune(rune(value)); err != nil {
				return err
			}

			addr++
		}

		return nil
	})
}

func (mc *Machine) trapInU16(instruction uint16) error {
	if err := mc.prompt(PROMPT_INU16); err != nil {
		return err
	}

	in, err := mc.input()

	if err != nil {
		return err
	}

	line, err := in.ReadString('\n')

	// At end of input whatever was read, possibly nothing, is the line
	if err != nil && err != io.EOF {
		return err
	}

	value, err := encoding.ParseHex(line)

	if err != nil {
		mc.report(REPORT_INPUT, instruction, fmt.Sprintf(
			"INU16 failed to parse %q: %v", line, err,
		))
		return nil
	}

	mc.setReg(R0, value)

	return nil
}

func (mc *Machine) trapOutU16() error {
	return mc.output(func(w *bufio.Writer) error {
		_, err := fmt.Fprintf(w, "0x%04x\n", mc.reg(R0))
		return err
	})
}
