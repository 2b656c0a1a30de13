package main

import (
	"bytes"
	"strings"
	"testing"
)

func newSysTestVM(stdin string) (*VM, *bytes.Buffer) {
	mem := NewMemory(1)
	mem.SetSegment(0, Segment{Base: 0, Size: 64})
	out := &bytes.Buffer{}
	vm := NewVM(mem, strings.NewReader(stdin), out)
	vm.Regs[EDX] = logicalPtr(0, 0)
	return vm, out
}

func TestSysStringReadWritesNulTerminated(t *testing.T) {
	vm, _ := newSysTestVM("hi\n")
	vm.Regs[ECX] = 8 // count=8, legacy low16, cellSize field unused here
	if err := vm.sysStringRead(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b0, _ := vm.Read8(0, 0)
	b1, _ := vm.Read8(0, 1)
	b2, _ := vm.Read8(0, 2)
	if b0 != 'h' || b1 != 'i' || b2 != 0 {
		t.Fatalf("want \"hi\\0\", got %c%c %d", byte(b0), byte(b1), b2)
	}
}

func TestSysStringPrintStopsAtNul(t *testing.T) {
	vm, out := newSysTestVM("")
	for i, c := range []byte("hey") {
		if err := vm.Write8(0, uint16(i), uint32(c)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := vm.Write8(0, 3, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := vm.sysStringPrint(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "hey" {
		t.Fatalf("want %q, got %q", "hey", out.String())
	}
}

func TestParseInputHonorsExplicitHexPrefix(t *testing.T) {
	v, err := parseInput("0x2A", 0, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("want 42, got %d", v)
	}
}

func TestFormatCellBinaryOmitsLeadingZeros(t *testing.T) {
	if got := formatCell(5, 1, modeBin); got != "0b101" {
		t.Fatalf("want 0b101, got %q", got)
	}
	if got := formatCell(0, 1, modeBin); got != "0b0" {
		t.Fatalf("want 0b0, got %q", got)
	}
}
