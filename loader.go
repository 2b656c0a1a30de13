// loader.go - VMX binary image loader

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/zotley/vmx25
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
)

// segment placement kinds, in the fixed layout order.
const (
	kindParam = iota
	kindConst
	kindCode
	kindData
	kindExtra
	kindStack
	kindCount
)

// SegmentIndex records which slot, if any, holds each logical kind of
// segment. -1 means that kind is absent from this image.
type SegmentIndex [kindCount]int

func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }

// LoadVMX reads a VMX25 image from path and lays it out in mem,
// seeding vm's segment registers, IP, SP/BP, and the initial argv/argc
// stack frame. params become the program's argv.
func (vm *VM) LoadVMX(path string, params []string) (SegmentIndex, error) {
	var idx SegmentIndex
	for i := range idx {
		idx[i] = -1
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return idx, fmt.Errorf("cannot open %s", path)
	}
	if len(data) < 6 || string(data[:5]) != "VMX25" {
		return idx, fmt.Errorf("invalid image format in %s", path)
	}
	version := data[5]
	data = data[6:]

	var codeSz, dataSz, extraSz, stackSz, constSz, entryOff uint16

	switch version {
	case 1:
		if len(data) < 2 {
			return idx, fmt.Errorf("truncated v1 header")
		}
		codeSz = be16(data[:2])
		data = data[2:]
	case 2:
		if len(data) < 12 {
			return idx, fmt.Errorf("truncated v2 header")
		}
		codeSz = be16(data[0:2])
		dataSz = be16(data[2:4])
		extraSz = be16(data[4:6])
		stackSz = be16(data[6:8])
		constSz = be16(data[8:10])
		entryOff = be16(data[10:12])
		data = data[12:]
	default:
		return idx, fmt.Errorf("unsupported VMX version %d", version)
	}

	var paramSz uint16
	if len(params) > 0 {
		need := 0
		for _, p := range params {
			need += len(p) + 1
		}
		need += (len(params) + 1) * 4
		if need > 0xFFFF {
			return idx, fmt.Errorf("too many parameters")
		}
		paramSz = uint16(need)
	}

	ramLimit := uint32(vm.mem.Size())
	var cursor uint32

	place := func(size uint16) (uint32, error) {
		if size == 0 {
			return 0, nil
		}
		if cursor+uint32(size) > ramLimit {
			return 0, fmt.Errorf("insufficient memory to place process")
		}
		base := cursor
		cursor += uint32(size)
		return base, nil
	}

	paramBase, err := place(paramSz)
	if err != nil {
		return idx, err
	}
	constBase, err := place(constSz)
	if err != nil {
		return idx, err
	}
	codeBase, err := place(codeSz)
	if err != nil {
		return idx, err
	}

	if version == 1 {
		remaining := ramLimit - cursor
		if remaining > 0xFFFF {
			remaining = 0xFFFF
		}
		dataSz = uint16(remaining)
	}
	dataBase, err := place(dataSz)
	if err != nil {
		return idx, err
	}
	extraBase, err := place(extraSz)
	if err != nil {
		return idx, err
	}
	stackBase, err := place(stackSz)
	if err != nil {
		return idx, err
	}

	if int(codeSz) > len(data) {
		return idx, fmt.Errorf("image does not contain %d bytes of code", codeSz)
	}
	copy(vm.mem.ram[codeBase:], data[:codeSz])
	data = data[codeSz:]
	if constSz > 0 {
		if int(constSz) > len(data) {
			return idx, fmt.Errorf("image does not contain %d bytes of const data", constSz)
		}
		copy(vm.mem.ram[constBase:], data[:constSz])
	}

	var argvOff uint16
	if paramSz > 0 {
		argvOff = buildParamSegment(vm, params, uint16(paramBase))
	}

	type placed struct {
		base, size uint16
		kind       int
	}
	var segs []placed
	add := func(base uint32, size uint16, kind int) {
		if size > 0 {
			segs = append(segs, placed{uint16(base), size, kind})
		}
	}
	add(paramBase, paramSz, kindParam)
	add(constBase, constSz, kindConst)
	add(codeBase, codeSz, kindCode)
	add(dataBase, dataSz, kindData)
	add(extraBase, extraSz, kindExtra)
	add(stackBase, stackSz, kindStack)

	for i, s := range segs {
		vm.mem.SetSegment(i, Segment{Base: s.base, Size: s.size})
		idx[s.kind] = i
	}

	vm.Regs[CS] = logicalPtr(idx[kindCode], 0)
	vm.Regs[DS] = logicalPtr(idx[kindData], 0)
	vm.Regs[ES] = logicalPtr(idx[kindExtra], 0)
	vm.Regs[SS] = logicalPtr(idx[kindStack], 0)
	vm.Regs[KS] = logicalPtr(idx[kindConst], 0)
	vm.Regs[PS] = logicalPtr(idx[kindParam], 0)

	entry := uint16(0)
	if version == 2 {
		entry = entryOff
	}
	vm.Regs[IP] = logicalPtr(idx[kindCode], entry)

	if idx[kindStack] >= 0 {
		stSize := vm.mem.Segment(idx[kindStack]).Size
		vm.Regs[SP] = logicalPtr(idx[kindStack], stSize)
		vm.Regs[BP] = vm.Regs[SP]

		argvPtr := sentinel
		if idx[kindParam] >= 0 && len(params) > 0 {
			argvPtr = logicalPtr(idx[kindParam], argvOff)
		}
		if err := vm.installInitialFrame(argvPtr, len(params)); err != nil {
			return idx, err
		}
	} else {
		vm.Regs[SP] = sentinel
		vm.Regs[BP] = sentinel
	}

	vm.Regs[OPC] = 0
	vm.Regs[OP1] = 0
	vm.Regs[OP2] = 0
	vm.Regs[CC] = 0

	return idx, nil
}

// buildParamSegment packs argv strings followed by a logical-pointer
// argv array (sentinel-terminated) into the param segment, returning
// the offset of the argv array within it.
func buildParamSegment(vm *VM, params []string, base uint16) uint16 {
	cur := uint16(0)
	offsets := make([]uint16, len(params))
	for i, p := range params {
		offsets[i] = cur
		copy(vm.mem.ram[base+cur:], p)
		vm.mem.ram[base+cur+uint16(len(p))] = 0
		cur += uint16(len(p)) + 1
	}

	argvOff := cur
	for _, off := range offsets {
		ptr := logicalPtr(kindParam, off)
		vm.mem.ram[base+cur] = byte(ptr >> 24)
		vm.mem.ram[base+cur+1] = byte(ptr >> 16)
		vm.mem.ram[base+cur+2] = byte(ptr >> 8)
		vm.mem.ram[base+cur+3] = byte(ptr)
		cur += 4
	}
	vm.mem.ram[base+cur] = 0xFF
	vm.mem.ram[base+cur+1] = 0xFF
	vm.mem.ram[base+cur+2] = 0xFF
	vm.mem.ram[base+cur+3] = 0xFF

	return argvOff
}
