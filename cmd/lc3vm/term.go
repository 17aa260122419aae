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

//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// terminal switches a tty between its original settings and a character
// mode for GETC: no line buffering, no echo, reads block for one byte.
// Signal keys stay enabled so Ctrl-C still reaches the debugger.
type terminal struct {
	fd    int
	saved unix.Termios
	char  unix.Termios
}

func openTerminal(f *os.File) (*terminal, error) {
	fd := int(f.Fd())
	saved, err := unix.IoctlGetTermios(fd, getTermios)

	if err != nil {
		return nil, err
	}

	t := &terminal{fd: fd, saved: *saved, char: *saved}
	t.char.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHONL
	t.char.Cc[unix.VMIN] = 1
	t.char.Cc[unix.VTIME] = 0

	return t, nil
}

func (t *terminal) Raw() error {
	return unix.IoctlSetTermios(t.fd, setTermios, &t.char)
}

func (t *terminal) Restore() error {
	return unix.IoctlSetTermios(t.fd, setTermios, &t.saved)
}
