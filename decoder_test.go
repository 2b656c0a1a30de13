package main

import "testing"

func TestDecodeTwoOperandAdvancesIP(t *testing.T) {
	code := concat(asmMovRegImm(EAX, 99), asmStop())
	vm := newTestVM(code)

	di, err := vm.decode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if di.Opcode != 0x10 {
		t.Fatalf("want opcode 0x10, got %#x", di.Opcode)
	}
	if di.A.Kind != OperandRegister || di.A.Reg != EAX {
		t.Fatalf("want A=register EAX, got %+v", di.A)
	}
	if di.B.Kind != OperandImmediate || di.B.Imm != 99 {
		t.Fatalf("want B=immediate 99, got %+v", di.B)
	}
	if offOf(vm.Regs[IP]) != uint16(len(asmMovRegImm(EAX, 99))) {
		t.Fatalf("want IP advanced past the instruction, got offset %d", offOf(vm.Regs[IP]))
	}
}

func TestDecodeUnclassifiedOpcodeFaults(t *testing.T) {
	vm := newTestVM([]byte{0x09})
	if _, err := vm.decode(); err == nil {
		t.Fatal("expected unclassified opcode 0x09 to fault")
	}
}

func TestDecodeReservedMemoryCellSizeFaults(t *testing.T) {
	// Memory operand with cellSize code 01 (reserved).
	hdr := hdrTwo(0x10, OperandNone, false) // B=None, A=Memory
	memByte0 := byte(1 << 6)                // (b0>>6)&3 == 1 -> reserved
	code := concat([]byte{hdr}, []byte{memByte0, 0, 0}, asmStop())
	vm := newTestVM(code)
	if _, err := vm.decode(); err == nil {
		t.Fatal("expected reserved memory cell size to fault")
	}
}
