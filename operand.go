// operand.go - VMX25 operand evaluator

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/zotley/vmx25
License: GPLv3 or later
*/

package main

import "fmt"

// memoryAddress resolves a Memory operand's base register and
// displacement to a logical (segment, offset) pair. 0x0F/0xF0 select
// an implicit reference to DS ahead of the general base-register path.
func (vm *VM) memoryAddress(o Operand) (seg uint16, off uint16) {
	var base uint32
	if o.implicit {
		base = vm.Regs[DS]
	} else {
		base = vm.Regs[o.Reg]
	}
	return segOf(base), offOf(base) + uint16(o.Disp)
}

// Read evaluates an operand for its value, sign-extending narrow
// register sectors and narrow memory cells to 32 bits.
func (vm *VM) Read(o Operand) (uint32, error) {
	switch o.Kind {
	case OperandNone:
		return 0, nil
	case OperandRegister:
		return readSector(vm.Regs[o.Reg], o.Sector), nil
	case OperandImmediate:
		return uint32(int32(o.Imm)), nil
	case OperandMemory:
		seg, off := vm.memoryAddress(o)
		v, err := vm.readCell(seg, off, o.CellSize)
		if err != nil {
			return 0, err
		}
		return signExtend(v, o.CellSize), nil
	default:
		return 0, fmt.Errorf("invalid operand")
	}
}

// Write stores a value into an operand. None and Immediate operands
// cannot be written.
func (vm *VM) Write(o Operand, val uint32) error {
	switch o.Kind {
	case OperandRegister:
		vm.Regs[o.Reg] = writeSector(vm.Regs[o.Reg], o.Sector, val)
		return nil
	case OperandMemory:
		seg, off := vm.memoryAddress(o)
		return vm.writeCell(seg, off, o.CellSize, val)
	default:
		return fmt.Errorf("invalid operand for write")
	}
}

func signExtend(v uint32, size uint16) uint32 {
	switch size {
	case 1:
		return uint32(int32(int8(byte(v))))
	case 2:
		return uint32(int32(int16(uint16(v))))
	default:
		return v
	}
}
