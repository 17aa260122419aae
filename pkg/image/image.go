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

// Package image turns program files into memory words.
//
// Two layouts are understood. A raw image is a headerless run of byte pairs,
// each pair composed into one word with a caller-chosen byte order (the host's
// native order by default). An object image is the conventional LC-3 layout:
// a big-endian origin word followed by big-endian program words.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Format uint

const (
	FormatRaw Format = iota
	FormatObj
)

func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatObj:
		return "obj"
	}

	return fmt.Sprintf("Format(%d)", uint(f))
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "raw":
		return FormatRaw, nil
	case "obj":
		return FormatObj, nil
	}

	return 0, fmt.Errorf("unknown image format %q", s)
}

// Resolves "native", "big" or "little" to a byte order.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "native", "":
		return binary.NativeEndian, nil
	case "big":
		return binary.BigEndian, nil
	case "little":
		return binary.LittleEndian, nil
	}

	return nil, fmt.Errorf("unknown byte order %q", s)
}

var ErrMissingOrigin = errors.New("object image is missing its origin word")

// Image is a program ready to be copied into memory at Origin.
type Image struct {
	Origin uint16
	Words  []uint16
}

// Compose builds one word from the byte at the lower address (first) and
// the byte after it (second).
func Compose(first, second byte, order binary.ByteOrder) uint16 {
	return order.Uint16([]byte{first, second})
}

// Words composes consecutive byte pairs. A trailing odd byte is paired with
// a zero byte in the second position.
func Words(data []byte, order binary.ByteOrder) []uint16 {
	words := make([]uint16, 0, (len(data)+1)/2)

	for i := 0; i < len(data); i += 2 {
		var second byte
		if i+1 < len(data) {
			second = data[i+1]
		}

		words = append(words, Compose(data[i], second, order))
	}

	return words
}

// Read decodes an image in the given format. For raw images the origin is
// taken from the caller, for object images from the header word.
func Read(
	reader io.Reader,
	format Format,
	order binary.ByteOrder,
	origin uint16,
) (*Image, error) {
	data, err := io.ReadAll(reader)

	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	switch format {
	case FormatRaw:
		return &Image{Origin: origin, Words: Words(data, order)}, nil

	case FormatObj:
		if len(data) < 2 {
			return nil, ErrMissingOrigin
		}

		return &Image{
			Origin: binary.BigEndian.Uint16(data),
			Words:  Words(data[2:], binary.BigEndian),
		}, nil
	}

	return nil, fmt.Errorf("unknown image format %v", format)
}

// Capacity is the number of words that fit between Origin and the top of
// memory.
func (img *Image) Capacity() int {
	return (1 << 16) - int(img.Origin)
}

func (img *Image) Truncated() bool {
	return len(img.Words) > img.Capacity()
}
