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

package machine_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/lassandro/lc3vm/pkg/machine"
	"github.com/lassandro/lc3vm/pkg/trace"
)

type testMachineState struct {
	Registers [8]uint16
	Program   uint16
	Condition uint16
	Memory    map[uint16]uint16
}

type testCase struct {
	Name     string
	Steps    uint
	Config   machine.Config
	Keyboard string
	Display  string
	Reports  int
	Input    testMachineState
	Output   testMachineState
}

func testMachineSuccess(t *testing.T, test *testCase) {
	if test.Input.Condition > 0x7 {
		panic("Condition must be 0x7 or lower")
	}

	if test.Input.Memory == nil && test.Output.Memory == nil {
		panic("No memory maps provided")
	}

	var displayBuf bytes.Buffer

	mc := machine.New(test.Config)
	mc.Console = &machine.Console{
		Input:  bufio.NewReader(bytes.NewReader([]byte(test.Keyboard))),
		Output: bufio.NewWriter(&displayBuf),
	}

	recorder := trace.NewRecorder(16)
	mc.Observer = recorder

	mc.State.Registers = test.Input.Registers
	mc.State.Program = test.Input.Program
	mc.State.Condition = test.Input.Condition

	for addr, value := range test.Input.Memory {
		mc.State.Memory[addr] = value
	}

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		if err := mc.Step(); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}

	for i := 0; i < 8; i++ {
		want := test.Output.Registers[i]
		have := mc.State.Registers[i]
		if have != want {
			t.Errorf(
				"Register mismatch"+
					"\nwant:%#04x (test.Output.Registers[%d])\nhave:%#04x",
				want,
				i,
				have,
			)
		}
	}

	if mc.State.Program != test.Output.Program {
		t.Errorf(
			"Program register mismatch"+
				"\nwant:%#04x (test.Output.Program)\nhave:%#04x",
			test.Output.Program,
			mc.State.Program,
		)
	}

	if have := mc.State.Condition; have != test.Output.Condition {
		t.Errorf(
			"Condition flag mismatch"+
				"\nwant:%#03b (test.Output.Condition)\nhave:%#03b",
			test.Output.Condition,
			have,
		)
	}

	for i, value := range mc.State.Memory {
		input, expectingInput := test.Input.Memory[uint16(i)]
		output, expectingOutput := test.Output.Memory[uint16(i)]

		if expectingOutput {
			// Value was supposed to change
			if value != output {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Output.Memory[%#04x])\nhave:%#02x",
					output,
					i,
					value,
				)
			}
		} else if expectingInput {
			// Value was supposed to remain
			if value != input {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Input.Memory[%#04x])\nhave:%#02x",
					input,
					i,
					value,
				)
			}
		} else if value != 0 {
			// Value was expected to remain unitialized
			t.Fatalf(
				"Memory unexpectedly changed"+
					"\nwant:0x00 (test.Output.Memory[%#04x])\nhave:%#02x",
				i,
				value,
			)
		}
	}

	if have := displayBuf.String(); have != test.Display {
		t.Errorf(
			"Display output mismatch"+
				"\nwant:%q (test.Display)\nhave:%q",
			test.Display,
			have,
		)
	}

	if have := len(recorder.Reports()); have != test.Reports {
		t.Errorf(
			"Report count mismatch"+
				"\nwant:%d (test.Reports)\nhave:%d %v",
			test.Reports,
			have,
			recorder.Reports(),
		)
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAdd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ADD SR2 Negative",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0001, // SR1
					2: 0x8001, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_000_010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					0: 0x8002, // DR
					1: 0x0001, // SR1
					2: 0x8001, // SR2
				},
			},
		},
		{
			Name: "ADD SR2 Wraps To Zero",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					3: 0xFFFF, // SR1
					4: 0x0001, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_101_011_000_100,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
				Registers: [8]uint16{
					3: 0xFFFF, // SR1
					4: 0x0001, // SR2
					5: 0x0000, // DR
				},
			},
		},
		{
			Name: "ADD imm5 R0 Plus One",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0x1021,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					0: 0x0001, // DR/SR1
				},
			},
		},
		{
			Name: "ADD imm5 Minus One",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0x0000, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_010_001_1_11111,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					2: 0xFFFF, // DR
				},
			},
		},
		{
			// Bits 4-3 are ignored in register mode
			Name: "ADD SR2 Ignores Unused Bits",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0x0010, // SR1
					2: 0x0020, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_0_11_010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					0: 0x0030, // DR
					1: 0x0010, // SR1
					2: 0x0020, // SR2
				},
			},
		},
	})
}

// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAnd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "AND SR2 Negative",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x8001, // SR1
					2: 0x8003, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_001_000_010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					0: 0x8001, // DR
					1: 0x8001, // SR1
					2: 0x8003, // SR2
				},
			},
		},
		{
			Name: "AND SR2 Uses All Three Bits",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0x0F0F, // SR1
					3: 0xFFFF, // never selected
					7: 0x00FF, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_001_000_111,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					0: 0x000F, // DR
					1: 0x0F0F, // SR1
					3: 0xFFFF,
					7: 0x00FF, // SR2
				},
			},
		},
		{
			Name: "AND imm5 Clear",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					4: 0xBEEF, // DR/SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_100_100_1_00000,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
			},
		},
		{
			Name: "AND imm5 Sign Extended Mask",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0xBEEF, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_001_1_10000,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					0: 0xBEE0, // DR
					1: 0xBEEF, // SR1
				},
			},
		},
	})
}

// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestBranch(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "BRnzp Forward",
			Input: testMachineState{
				Program:   0x3000,
				Condition: 0b010,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_111_000010000,
				},
			},
			Output: testMachineState{
				Program:   0x3011,
				Condition: 0b010,
			},
		},
		{
			Name: "BRn Backward",
			Input: testMachineState{
				Program:   0x3000,
				Condition: 0b100,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_100_111111110,
				},
			},
			Output: testMachineState{
				Program:   0x2FFF,
				Condition: 0b100,
			},
		},
		{
			Name: "BRp Not Taken",
			Input: testMachineState{
				Program:   0x3000,
				Condition: 0b010,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_001_000010000,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
			},
		},
		{
			// Before any flag update the condition register is empty
			Name: "BRnzp Without Flags",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_111_000010000,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
			},
		},
		{
			Name: "BR Wraps Past Top Of Memory",
			Input: testMachineState{
				Program:   0xFFFF,
				Condition: 0b001,
				Memory: map[uint16]uint16{
					0xFFFF: 0b0000_001_000000010,
				},
			},
			Output: testMachineState{
				Program:   0x0002,
				Condition: 0b001,
			},
		},
	})
}

// JMP  |1100    |000  |BaseR|000000      | Jump
// JSR  |0100    |1|PCoffset11            | Jump to subroutine
// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJump(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JMP",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					2: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1100_000_010_000000,
				},
			},
			Output: testMachineState{
				Program: 0x4000,
				Registers: [8]uint16{
					2: 0x4000, // BaseR
				},
			},
		},
		{
			Name: "RET",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					7: 0x3456, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1100_000_111_000000,
				},
			},
			Output: testMachineState{
				Program: 0x3456,
				Registers: [8]uint16{
					7: 0x3456, // BaseR
				},
			},
		},
		{
			Name: "JSR Offset Replaces PC",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0100_1_00000010000,
				},
			},
			Output: testMachineState{
				Program: 0x0010,
				Registers: [8]uint16{
					7: 0x3001, // Link
				},
			},
		},
		{
			Name: "JSR Negative Offset Replaces PC",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0100_1_11111111111,
				},
			},
			Output: testMachineState{
				Program: 0xFFFF,
				Registers: [8]uint16{
					7: 0x3001, // Link
				},
			},
		},
		{
			Name:   "JSR Relative",
			Config: machine.Config{RelativeJSR: true},
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0100_1_11111111110,
				},
			},
			Output: testMachineState{
				Program: 0x2FFF,
				Registers: [8]uint16{
					7: 0x3001, // Link
				},
			},
		},
		{
			Name: "JSRR",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					3: 0x5000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0100_0_00_011_000000,
				},
			},
			Output: testMachineState{
				Program: 0x5000,
				Registers: [8]uint16{
					3: 0x5000, // BaseR
					7: 0x3001, // Link
				},
			},
		},
		{
			Name: "JSRR R7",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					7: 0x5000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0100_0_00_111_000000,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					7: 0x3001, // Link, then BaseR
				},
			},
		},
	})
}

// LD   |0010    |DR   |PCoffset9         | Load
// LDI  |1010    |DR   |PCoffset9         | Load indirect
// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
// LEA  |1110    |DR   |PCoffset9         | Load effective address
// ST   |0011    |SR   |PCoffset9         | Store
// STI  |1011    |SR   |PCoffset9         | Store indirect
// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestLoadStore(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD Positive",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0010_001_000000100,
					0x3005: 0x1234,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					1: 0x1234, // DR
				},
			},
		},
		{
			Name: "LD Negative Offset",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0010_001_111111110,
					0x2FFF: 0x8000,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					1: 0x8000, // DR
				},
			},
		},
		{
			Name: "LDI",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b1010_010_000000001,
					0x3002: 0x4000,
					0x4000: 0x00FF,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					2: 0x00FF, // DR
				},
			},
		},
		{
			Name: "LDR Zero",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					5: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0110_000_101_111111,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
				Registers: [8]uint16{
					5: 0x4000, // BaseR
				},
			},
		},
		{
			Name: "LDR Wraps",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					5: 0xFFFF, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0110_000_101_000010,
					0x0001: 0x0042,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					0: 0x0042, // DR
					5: 0xFFFF, // BaseR
				},
			},
		},
		{
			Name: "LEA",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b1110_011_000001111,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					3: 0x3010, // DR
				},
			},
		},
		{
			Name: "LEA Negative Address",
			Input: testMachineState{
				Program: 0xF000,
				Memory: map[uint16]uint16{
					0xF000: 0b1110_011_100000000,
				},
			},
			Output: testMachineState{
				Program:   0xF001,
				Condition: 0b100,
				Registers: [8]uint16{
					3: 0xEF01, // DR
				},
			},
		},
		{
			Name: "ST",
			Input: testMachineState{
				Program:   0x3000,
				Condition: 0b001,
				Registers: [8]uint16{
					4: 0xBEEF, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0011_100_000000011,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					4: 0xBEEF, // SR
				},
				Memory: map[uint16]uint16{
					0x3004: 0xBEEF,
				},
			},
		},
		{
			Name: "STI",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0x1111, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1011_001_000000001,
					0x3002: 0x4000,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					1: 0x1111, // SR
				},
				Memory: map[uint16]uint16{
					0x4000: 0x1111,
				},
			},
		},
		{
			// PC-1 holds the instruction itself, used as the pointer
			Name: "STI Through Instruction Word",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0x1111, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1011_001_111111111,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					1: 0x1111, // SR
				},
				Memory: map[uint16]uint16{
					0xB3FF: 0x1111,
				},
			},
		},
		{
			Name: "STR",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0x00AA, // SR
					1: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0111_000_001_100000,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: 0x00AA, // SR
					1: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3FE0: 0x00AA,
				},
			},
		},
	})
}

// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestNot(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "NOT Zero",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0xFFFF, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1001_000_001_1_11111,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
				Registers: [8]uint16{
					1: 0xFFFF, // SR
				},
			},
		},
		{
			Name: "NOT Negative",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0x0F0F, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1001_001_001_1_11111,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					1: 0xF0F0, // DR/SR
				},
			},
		},
	})
}

// RTI  |1000    |000000000000            | Return from interrupt
// RES  |1101    |                        | Reserved (illegal)
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestReserved(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:    "RTI",
			Reports: 1,
			Input: testMachineState{
				Program:   0x3000,
				Condition: 0b001,
				Registers: [8]uint16{
					0: 0x1234,
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1000_000000000000,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					0: 0x1234,
				},
			},
		},
		{
			Name:    "RES",
			Reports: 1,
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b1101_111111111111,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
			},
		},
	})
}
