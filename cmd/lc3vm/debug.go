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

package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/lassandro/lc3vm/pkg/debugger"
	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/machine"
	"github.com/lassandro/lc3vm/pkg/trace"
)

const historySize = 64

// session is the interactive side of the debugger. It reads commands from the
// same buffered stdin the console traps use.
type session struct {
	dbg     *debugger.Debugger
	in      *bufio.Reader
	out     io.Writer
	history *trace.Recorder
	term    *terminal // nil unless the console is in character mode
	lastcmd []string
}

func indexFormat(count int, rest string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %s\n", int64(digits)+1, rest)
}

func (s *session) debugBreak(args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if s.dbg.AddBreakpoint(addr) {
			fmt.Fprintf(s.out, "Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(s.dbg.Breakpoints), "%#04x")

		for i, breakpoint := range s.dbg.Breakpoints {
			fmt.Fprintf(s.out, fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if err := s.dbg.RemoveBreakpoint(i); err != nil {
			log.Println(err)
			return
		}

		fmt.Fprintf(s.out, "Breakpoint removed [%d]\n", i)

	case "clear":
		s.dbg.Breakpoints = nil
		fmt.Fprintln(s.out, "Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command (%s)\n", cmd, usage)
	}
}

func (s *session) debugWatch(args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		if s.dbg.AddWatchpoint(addr, wtype) {
			fmt.Fprintf(s.out, "Watchpoint added [%#04x] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(s.dbg.Watchpoints), "%#04x %s")

		for i, watchpoint := range s.dbg.Watchpoints {
			fmt.Fprintf(s.out, fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if err := s.dbg.RemoveWatchpoint(i); err != nil {
			log.Println(err)
			return
		}

		fmt.Fprintf(s.out, "Watchpoint removed [%d]\n", i)

	case "clear":
		s.dbg.Watchpoints = nil
		fmt.Fprintln(s.out, "Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command (%s)\n", cmd, usage)
	}
}

func (s *session) debugReg(mc *machine.MachineState, args []string) {
	const usage = "register [R#|PC|CC] [0x####]"

	if len(args) == 0 {
		s.dbg.PrintRegs(s.out, mc)
		return
	}

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	name := strings.ToUpper(args[0])

	switch {
	case name == "PC":
		mc.Program = value
	case name == "CC":
		if value != machine.FLAG_POS &&
			value != machine.FLAG_ZERO &&
			value != machine.FLAG_NEG {
			log.Println("CC must be one of 0x1 (p), 0x2 (z), 0x4 (n)")
			return
		}
		mc.Condition = value
	case len(name) == 2 && name[0] == 'R' && name[1] >= '0' && name[1] <= '7':
		mc.Registers[name[1]-'0'] = value
	default:
		log.Println("Invalid register")
		return
	}

	fmt.Fprintf(s.out, "\033[1m%s:\033[0m %#04x\n", name, value)
}

// Parses the optional "[0x####|#] [#]" address and count arguments shared by
// the memory command.
func parseRange(pc uint16, args []string) (addr, size uint16, err error) {
	addr, size = pc, 1

	if len(args) > 0 {
		if addr, err = encoding.DecodeHex(args[0]); err != nil {
			var value uint64

			if value, err = strconv.ParseUint(args[0], 10, 16); err != nil {
				return 0, 0, err
			}

			addr = pc
			size = uint16(value)
		}
	}

	if len(args) > 1 {
		var value uint64

		if value, err = strconv.ParseUint(args[1], 10, 16); err != nil {
			return 0, 0, err
		}

		size = uint16(value)
	}

	return addr, size, nil
}

func (s *session) debugMemory(mc *machine.MachineState, args []string) {
	const usage = "memory [0x####|#] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	addr, size, err := parseRange(mc.Program, args)

	if err != nil {
		log.Println(err)
		return
	}

	s.dbg.PrintMem(s.out, mc, addr, size)
}

func (s *session) debugSet(mc *machine.MachineState, args []string) {
	const usage = "set [0x####] [0x####]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	mc.Memory[addr] = value
	s.dbg.PrintMem(s.out, mc, addr, 1)
}

func (s *session) debugJump(mc *machine.MachineState, args []string) {
	const usage = "jump [0x####]"

	if len(args) != 1 {
		log.Println(usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	mc.Program = addr
	fmt.Fprintf(s.out, "\033[1mPC:\033[0m %#04x\n", addr)
}

func (s *session) debugHistory(args []string) {
	const usage = "history [#]"

	count := 8

	if len(args) > 1 {
		log.Println(usage)
		return
	}

	if len(args) == 1 {
		value, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		count = value
	}

	for _, event := range s.history.Tail(count) {
		fmt.Fprintln(s.out, trace.Format(event))
	}

	for _, report := range s.history.Reports() {
		fmt.Fprintln(s.out, report)
	}
}

func (s *session) readCommand() ([]string, bool) {
	fmt.Fprint(s.out, "\033[1;30m(dbg)\033[0m ")

	line, err := s.in.ReadString('\n')

	if err != nil && line == "" {
		fmt.Fprintln(s.out)
		return nil, false
	}

	return strings.Fields(line), true
}

func (s *session) repl(mc *machine.Machine) {
	// Commands are typed a line at a time
	if s.term != nil {
		if err := s.term.Restore(); err != nil {
			log.Println(err)
		}

		defer func() {
			if err := s.term.Raw(); err != nil {
				log.Println(err)
			}
		}()
	}

	for {
		args, ok := s.readCommand()

		if !ok {
			mc.Halt()
			return
		}

		if len(args) == 0 {
			if len(s.lastcmd) == 0 {
				continue
			}
			args = s.lastcmd
		} else {
			s.lastcmd = append([]string(nil), args...)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			s.debugBreak(args)

		case "w", "wp", "watch", "watchpoint":
			s.debugWatch(args)

		case "r", "reg", "register", "registers":
			s.debugReg(&mc.State, args)

		case "j", "jmp", "jump":
			s.debugJump(&mc.State, args)

		case "m", "mem", "memory":
			s.debugMemory(&mc.State, args)

		case "set":
			s.debugSet(&mc.State, args)

		case "h", "hist", "history":
			s.debugHistory(args)

		case "c", "continue":
			s.dbg.Break.Store(false)
			return

		case "n", "next":
			s.dbg.Break.Store(true)
			return

		case "q", "quit", "exit":
			mc.Halt()
			return

		case "clear":
			fmt.Fprint(s.out, "\033[H\033[2J")

		default:
			fmt.Fprintf(s.out, "error: '%s' is not a valid command\n", cmd)
		}
	}
}

func (s *session) stopped() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Program stopped")
}

func (s *session) handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if !dbg.Break.Load() {
		s.stopped()
		dbg.PrintMem(s.out, &mc.State, mc.State.Program, 1)
	}

	s.repl(mc)
}

func (s *session) handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	s.stopped()
	dbg.PrintMem(s.out, &mc.State, addr, 1)
	s.repl(mc)
}

func (s *session) handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	s.stopped()
	dbg.PrintMem(s.out, &mc.State, addr, 1)
	s.repl(mc)
}
