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

// Package encoding holds the bit-level helpers shared by the decoder, the
// debugger and the command line front end.
package encoding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidHex = errors.New("Invalid hex string")

// Decodes a hexidecimal string in the formats: 0xFFFF, xFFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, ErrInvalidHex
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes console input for a hexadecimal word. The prefix is optional, so
// FFFF, xFFFF and 0xFFFF all decode to the same value. Surrounding whitespace
// (including the line terminator) is ignored.
func ParseHex(s string) (uint16, error) {
	s = strings.TrimSpace(s)

	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	} else if len(s) > 0 && (s[0] == 'x' || s[0] == 'X') {
		s = s[1:]
	}

	if s == "" {
		return 0, ErrInvalidHex
	}

	result, err := strconv.ParseUint(s, 16, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

func IsBitSet(value uint16, bit uint16) bool {
	return (value>>bit)&0x1 != 0
}

// Sign extends the low bitcount bits of value to a full 16-bit word. The value
// must already be masked to bitcount bits.
func SignExtend(value uint16, bitcount uint16) uint16 {
	if bitcount == 0 || bitcount > 16 {
		panic(fmt.Sprintf("Invalid sign extension width %d", bitcount))
	}

	if bitcount < 16 && value>>bitcount != 0 {
		panic(fmt.Sprintf(
			"Value %#04x does not fit in %d bits", value, bitcount,
		))
	}

	if IsBitSet(value, bitcount-1) {
		value |= 0xFFFF << bitcount
	}

	return value
}

// Masks value to its low bitcount bits and sign extends the result.
func Field(value uint16, bitcount uint16) uint16 {
	return SignExtend(value&(1<<bitcount-1), bitcount)
}
