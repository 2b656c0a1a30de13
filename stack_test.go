package main

import "testing"

func newStackTestVM() *VM {
	mem := NewMemory(1)
	vm := NewVM(mem, nil, nil)
	mem.SetSegment(0, Segment{Base: 0, Size: 32}) // stack
	vm.Regs[SS] = logicalPtr(0, 0)
	vm.Regs[SP] = logicalPtr(0, 32)
	return vm
}

func TestPushPopRoundTrip(t *testing.T) {
	vm := newStackTestVM()
	if err := vm.push32(0x12345678); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if off := offOf(vm.Regs[SP]); off != 28 {
		t.Fatalf("want SP offset 28 after one push, got %d", off)
	}
	v, err := vm.pop32()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0x12345678 {
		t.Fatalf("want 0x12345678, got %#x", v)
	}
	if off := offOf(vm.Regs[SP]); off != 32 {
		t.Fatalf("want SP restored to 32, got %d", off)
	}
}

func TestPushOverflow(t *testing.T) {
	vm := newStackTestVM()
	vm.Regs[SP] = logicalPtr(0, 2) // not enough room for a 32-bit word
	if err := vm.push32(1); err == nil {
		t.Fatal("expected a stack overflow error")
	}
}

func TestPopUnderflow(t *testing.T) {
	vm := newStackTestVM()
	vm.Regs[SP] = logicalPtr(0, 32) // already at the top, nothing pushed
	if _, err := vm.pop32(); err == nil {
		t.Fatal("expected a stack underflow error")
	}
}

func TestInstallInitialFrame(t *testing.T) {
	vm := newStackTestVM()
	if err := vm.installInitialFrame(0xABCD1234, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ret, err := vm.pop32()
	if err != nil || ret != sentinel {
		t.Fatalf("want sentinel return address on top, got %#x err=%v", ret, err)
	}
	argc, err := vm.pop32()
	if err != nil || argc != 3 {
		t.Fatalf("want argc==3, got %d err=%v", argc, err)
	}
	argv, err := vm.pop32()
	if err != nil || argv != 0xABCD1234 {
		t.Fatalf("want argv pointer 0xABCD1234, got %#x err=%v", argv, err)
	}
}
