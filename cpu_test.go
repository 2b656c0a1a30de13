package main

import (
	"bytes"
	"strings"
	"testing"
)

// newTestVM wires a VM with a code segment (slot 0) holding code and a
// 64-byte stack segment (slot 1) immediately after it, ready to run.
func newTestVM(code []byte) *VM {
	mem := NewMemory(1)
	vm := NewVM(mem, strings.NewReader(""), &bytes.Buffer{})

	copy(mem.ram, code)
	mem.SetSegment(0, Segment{Base: 0, Size: uint16(len(code))})

	stackBase := uint16(len(code))
	const stackSize = 64
	mem.SetSegment(1, Segment{Base: stackBase, Size: stackSize})

	vm.Regs[CS] = logicalPtr(0, 0)
	vm.Regs[SS] = logicalPtr(1, 0)
	vm.Regs[IP] = logicalPtr(0, 0)
	vm.Regs[SP] = logicalPtr(1, stackSize)
	vm.Regs[BP] = vm.Regs[SP]
	return vm
}

func TestSetNZ(t *testing.T) {
	vm := newTestVM(nil)
	setNZ(vm, 0)
	if !ccZ(vm) || ccN(vm) {
		t.Fatalf("zero result: want Z=1,N=0, got CC=%#x", vm.Regs[CC])
	}
	setNZ(vm, 0x80000000)
	if ccZ(vm) || !ccN(vm) {
		t.Fatalf("negative result: want Z=0,N=1, got CC=%#x", vm.Regs[CC])
	}
	setNZ(vm, 1)
	if ccZ(vm) || ccN(vm) {
		t.Fatalf("positive result: want Z=0,N=0, got CC=%#x", vm.Regs[CC])
	}
}

func TestOpDivFlooredRounding(t *testing.T) {
	// -7 / 2 floors to -4, remainder 1 (sign matches divisor).
	vm := newTestVM(nil)
	vm.Regs[EAX] = uint32(int32(-7))
	vm.Regs[EBX] = 2
	di := DecodedInstruction{
		A: Operand{Kind: OperandRegister, Reg: EAX, Sector: sectorFull},
		B: Operand{Kind: OperandRegister, Reg: EBX, Sector: sectorFull},
	}
	if err := opDiv(vm, di); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q := int32(vm.Regs[EAX]); q != -4 {
		t.Fatalf("want quotient -4, got %d", q)
	}
	if r := int32(vm.Regs[AC]); r != 1 {
		t.Fatalf("want remainder 1, got %d", r)
	}
}

func TestOpDivByZeroFaults(t *testing.T) {
	vm := newTestVM(nil)
	vm.Regs[EAX] = 5
	vm.Regs[EBX] = 0
	di := DecodedInstruction{
		A: Operand{Kind: OperandRegister, Reg: EAX, Sector: sectorFull},
		B: Operand{Kind: OperandRegister, Reg: EBX, Sector: sectorFull},
	}
	if err := opDiv(vm, di); err == nil {
		t.Fatal("expected division by zero to fault")
	}
}

func TestShiftAmountMasksToFiveBits(t *testing.T) {
	if got := shiftAmount(33); got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
	if got := shiftAmount(31); got != 31 {
		t.Fatalf("want 31, got %d", got)
	}
}

func TestRunHaltsCleanlyOnStop(t *testing.T) {
	vm := newTestVM([]byte{0x0F}) // STOP
	if err := vm.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vm.Regs[IP] != sentinel {
		t.Fatalf("expected IP to be sentinel after STOP, got %#x", vm.Regs[IP])
	}
}

func TestRunFaultsOnInvalidOpcode(t *testing.T) {
	vm := newTestVM([]byte{0x09}) // unclassified opcode
	if err := vm.Run(); err == nil {
		t.Fatal("expected invalid-opcode fault")
	}
}
