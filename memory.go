// memory.go - VMX25 segmented memory bus

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/zotley/vmx25
License: GPLv3 or later
*/

package main

import "fmt"

const maxSegments = 8

// Segment is a contiguous region of RAM identified by a slot index.
// size == 0 marks the slot unused.
type Segment struct {
	Base uint16
	Size uint16
}

// Memory is the VM's flat RAM buffer plus its segment table. All
// program-visible addresses are logical (segIdx, offset) pairs that
// must go through translateData or translateFetch before touching RAM.
type Memory struct {
	ram  []byte
	segs [maxSegments]Segment
}

// NewMemory allocates ramKiB KiB of zeroed RAM.
func NewMemory(ramKiB int) *Memory {
	return &Memory{ram: make([]byte, ramKiB*1024)}
}

func (m *Memory) Size() int { return len(m.ram) }

func (m *Memory) Segment(idx int) Segment {
	if idx < 0 || idx >= maxSegments {
		return Segment{}
	}
	return m.segs[idx]
}

func (m *Memory) SetSegment(idx int, s Segment) { m.segs[idx] = s }

// translate is the shared arithmetic behind translateFetch and
// translateData; the two differ only in the fault message they
// report, per the spec's requirement to preserve that distinction.
func (m *Memory) translate(segIdx uint16, offset uint16, nbytes uint16) (phys uint16, ok bool) {
	if segIdx >= maxSegments {
		return 0, false
	}
	seg := m.segs[segIdx]
	if seg.Size == 0 || nbytes == 0 {
		return 0, false
	}
	phys32 := uint32(seg.Base) + uint32(offset)
	last := phys32 + uint32(nbytes) - 1
	segLast := uint32(seg.Base) + uint32(seg.Size) - 1
	if phys32 < uint32(seg.Base) || last > segLast {
		return 0, false
	}
	return uint16(phys32), true
}

// translateFetch translates an instruction-fetch address; on failure
// the caller must report "invalid instruction".
func (m *Memory) translateFetch(segIdx, offset, nbytes uint16) (uint16, error) {
	phys, ok := m.translate(segIdx, offset, nbytes)
	if !ok {
		return 0, fmt.Errorf("invalid instruction")
	}
	return phys, nil
}

// translateData translates a data load/store address; on failure the
// caller must report "segment fault".
func (m *Memory) translateData(segIdx, offset, nbytes uint16) (uint16, error) {
	phys, ok := m.translate(segIdx, offset, nbytes)
	if !ok {
		return 0, fmt.Errorf("segment fault")
	}
	return phys, nil
}

// setAccessRegs updates LAR/MAR/MBR after a successful sized access,
// per spec section 4.1: these side effects must occur on every
// successful access, read or write.
func (vm *VM) setAccessRegs(segIdx, offset uint16, nbytes uint16, phys uint16, value uint32) {
	vm.Regs[LAR] = logicalPtr(int(segIdx), offset)
	vm.Regs[MAR] = uint32(nbytes)<<16 | uint32(phys)
	vm.Regs[MBR] = value
}

func (vm *VM) readCell(segIdx, offset uint16, nbytes uint16) (uint32, error) {
	phys, err := vm.mem.translateData(segIdx, offset, nbytes)
	if err != nil {
		return 0, err
	}
	var v uint32
	for i := uint16(0); i < nbytes; i++ {
		v = v<<8 | uint32(vm.mem.ram[phys+i])
	}
	vm.setAccessRegs(segIdx, offset, nbytes, phys, v)
	return v, nil
}

func (vm *VM) writeCell(segIdx, offset uint16, nbytes uint16, value uint32) error {
	phys, err := vm.mem.translateData(segIdx, offset, nbytes)
	if err != nil {
		return err
	}
	for i := uint16(0); i < nbytes; i++ {
		shift := uint(nbytes-1-i) * 8
		vm.mem.ram[phys+i] = byte(value >> shift)
	}
	vm.setAccessRegs(segIdx, offset, nbytes, phys, maskToCell(value, nbytes))
	return nil
}

func (vm *VM) Read8(seg, off uint16) (uint32, error)  { return vm.readCell(seg, off, 1) }
func (vm *VM) Read16(seg, off uint16) (uint32, error) { return vm.readCell(seg, off, 2) }
func (vm *VM) Read32(seg, off uint16) (uint32, error) { return vm.readCell(seg, off, 4) }

func (vm *VM) Write8(seg, off uint16, v uint32) error  { return vm.writeCell(seg, off, 1, v) }
func (vm *VM) Write16(seg, off uint16, v uint32) error { return vm.writeCell(seg, off, 2, v) }
func (vm *VM) Write32(seg, off uint16, v uint32) error { return vm.writeCell(seg, off, 4, v) }

// fetchBytes reads raw instruction bytes at (seg, off) without
// touching LAR/MAR/MBR (those only track data accesses) and using the
// fetch fault identity instead of the data one.
func (vm *VM) fetchBytes(seg, off uint16, n uint16) ([]byte, error) {
	phys, err := vm.mem.translateFetch(seg, off, n)
	if err != nil {
		return nil, err
	}
	return vm.mem.ram[phys : phys+n], nil
}
