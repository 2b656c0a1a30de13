// stack.go - VMX25 stack discipline

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/zotley/vmx25
License: GPLv3 or later
*/

package main

import "fmt"

// push32 writes a 32-bit big-endian word to the top of the stack
// segment, growing the stack downward.
func (vm *VM) push32(v uint32) error {
	seg := segOf(vm.Regs[SS])
	sp := offOf(vm.Regs[SP])
	if sp < 4 {
		return fmt.Errorf("stack overflow")
	}
	sp -= 4
	if err := vm.Write32(seg, sp, v); err != nil {
		return fmt.Errorf("stack overflow")
	}
	vm.Regs[SP] = logicalPtr(int(seg), sp)
	return nil
}

// pop32 reads and removes the 32-bit word at the top of the stack.
func (vm *VM) pop32() (uint32, error) {
	seg := segOf(vm.Regs[SS])
	sp := offOf(vm.Regs[SP])
	stackSize := vm.mem.Segment(int(seg)).Size
	if uint32(sp)+4 > uint32(stackSize) {
		return 0, fmt.Errorf("stack underflow")
	}
	v, err := vm.Read32(seg, sp)
	if err != nil {
		return 0, fmt.Errorf("stack underflow")
	}
	vm.Regs[SP] = logicalPtr(int(seg), sp+4)
	return v, nil
}

// installInitialFrame seeds the stack with the CRT-style argv/argc
// frame described in section 4.6: argv pointer, argc, then a sentinel
// return address whose RET terminates the machine cleanly.
func (vm *VM) installInitialFrame(argvPtr uint32, argc int) error {
	stackIdx := -1
	for i := 0; i < maxSegments; i++ {
		if logicalPtr(i, 0) == vm.Regs[SS] {
			stackIdx = i
			break
		}
	}
	if stackIdx < 0 {
		vm.Regs[SP] = sentinel
		vm.Regs[BP] = sentinel
		return nil
	}

	stSize := vm.mem.Segment(stackIdx).Size
	vm.Regs[SP] = logicalPtr(stackIdx, stSize)
	vm.Regs[BP] = vm.Regs[SP]

	if err := vm.push32(argvPtr); err != nil {
		return fmt.Errorf("stack overflow in init (*argv)")
	}
	if err := vm.push32(uint32(argc)); err != nil {
		return fmt.Errorf("stack overflow in init (argc)")
	}
	if err := vm.push32(sentinel); err != nil {
		return fmt.Errorf("stack overflow in init (ret)")
	}
	vm.Regs[BP] = vm.Regs[SP]
	return nil
}
