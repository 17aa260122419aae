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

// Package trace provides machine.Observer implementations: a line-per-step
// text writer, a bounded in-memory recorder and a fan-out.
package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/lassandro/lc3vm/pkg/machine"
)

// Format renders an event as a single trace line without a line terminator.
func Format(event machine.Event) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "pc=%#04x cond=0b%04b ", event.Program, event.Condition)

	for i, value := range event.Registers {
		fmt.Fprintf(&sb, "R%d=%#04x ", i, value)
	}

	fmt.Fprintf(&sb, "instr=%#04x opcode=%s", event.Instruction, event.Opcode)

	return sb.String()
}

// Writer prints one line per instruction and one line per report. The first
// write error is kept and later writes are skipped.
type Writer struct {
	out io.Writer
	err error
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Trace(event machine.Event) {
	w.println(Format(event))
}

func (w *Writer) Report(report machine.Report) {
	w.println(report.String())
}

func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) println(line string) {
	if w.err != nil {
		return
	}

	_, w.err = fmt.Fprintln(w.out, line)
}

// Fan out to several observers in order.
type Multi []machine.Observer

func (m Multi) Trace(event machine.Event) {
	for _, o := range m {
		o.Trace(event)
	}
}

func (m Multi) Report(report machine.Report) {
	for _, o := range m {
		o.Report(report)
	}
}
