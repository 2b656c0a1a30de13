// disasm.go - instruction trace formatting

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/zotley/vmx25
License: GPLv3 or later
*/

package main

import "fmt"

var mnemonics = [32]string{
	0x00: "SYS", 0x01: "JMP", 0x02: "JZ", 0x03: "JP",
	0x04: "JN", 0x05: "JNZ", 0x06: "JNP", 0x07: "JNN",
	0x08: "NOT", 0x0B: "PUSH", 0x0C: "POP", 0x0D: "CALL",
	0x0E: "RET", 0x0F: "STOP",
	0x10: "MOV", 0x11: "ADD", 0x12: "SUB", 0x13: "MUL",
	0x14: "DIV", 0x15: "CMP", 0x16: "SHL", 0x17: "SHR",
	0x18: "SAR", 0x19: "AND", 0x1A: "OR", 0x1B: "XOR",
	0x1C: "SWAP", 0x1D: "LDL", 0x1E: "LDH", 0x1F: "RND",
}

// regSectorName renders a register operand the way a disassembler
// listing would: EAX for the full register, AX/AH/AL for its sectors.
func regSectorName(code uint8, s sector) string {
	name := ""
	if int(code) < len(regNames) {
		name = regNames[code]
	}
	if name == "" {
		return fmt.Sprintf("R%d", code)
	}
	if s == sectorFull || len(name) != 3 || name[0] != 'E' || name[2] != 'X' {
		return name
	}
	mid := string(name[1])
	switch s {
	case sectorWord:
		return mid + "X"
	case sectorHigh:
		return mid + "H"
	default:
		return mid + "L"
	}
}

func formatOperand(o Operand) string {
	switch o.Kind {
	case OperandRegister:
		return regSectorName(o.Reg, o.Sector)
	case OperandImmediate:
		return fmt.Sprintf("#%d", o.Imm)
	case OperandMemory:
		if o.implicit {
			return fmt.Sprintf("[DS%+d]", o.Disp)
		}
		return fmt.Sprintf("[%s%+d]", regSectorName(o.Reg, sectorFull), o.Disp)
	default:
		return ""
	}
}

// formatInstruction renders one decoded instruction as a single trace
// line: physical address, mnemonic, then any operands in A, B order.
func formatInstruction(di DecodedInstruction) string {
	name := mnemonics[di.Opcode]
	if name == "" {
		name = fmt.Sprintf("OPC%02X", di.Opcode)
	}
	line := fmt.Sprintf("%04X: %s", di.PhysAddr, name)
	if di.A.Kind != OperandNone {
		line += " " + formatOperand(di.A)
	}
	if di.B.Kind != OperandNone {
		line += ", " + formatOperand(di.B)
	}
	return line
}
