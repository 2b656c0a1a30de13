// cpu.go - VMX25 execution engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/zotley/vmx25
License: GPLv3 or later
*/

package main

import (
	"bufio"
	"fmt"
	"io"
)

// VM ties together the register file, segmented memory, and the I/O
// streams SYS traps read and write through. It executes synchronously
// on the calling goroutine; there is no internal concurrency.
type VM struct {
	Regs Registers
	mem  *Memory

	In  *bufio.Reader
	Out io.Writer

	rng vmRand

	Disassemble bool
	VMIPath     string

	BreakCond *BreakCondition
}

// NewVM wires a fresh register file and memory bus together with the
// given I/O streams.
func NewVM(mem *Memory, in io.Reader, out io.Writer) *VM {
	return &VM{mem: mem, In: bufio.NewReader(in), Out: out}
}

func setNZ(vm *VM, result uint32) {
	var n, z uint32
	if int32(result) < 0 {
		n = 1
	}
	if result == 0 {
		z = 1
	}
	vm.Regs[CC] = n<<31 | z<<30
}

func ccN(vm *VM) bool { return vm.Regs[CC]&(1<<31) != 0 }
func ccZ(vm *VM) bool { return vm.Regs[CC]&(1<<30) != 0 }

// jumpTo overwrites IP's offset while keeping CS as the segment, per
// section 4.4: branch targets are always interpreted against the code
// segment regardless of where the operand was read from.
func (vm *VM) jumpTo(off uint16) {
	vm.Regs[IP] = logicalPtr(int(segOf(vm.Regs[CS])), off)
}

// branchTarget reads an operand for a jump/call target, truncating to
// its low 16 bits; the full 32-bit value is never interpreted as
// anything but a bit pattern to drop into IP's offset.
func branchTarget(vm *VM, o Operand) (uint16, error) {
	v, err := vm.Read(o)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

type opHandler func(vm *VM, di DecodedInstruction) error

// newDispatchTable builds the opcode-indexed handler table. Opcode
// values are always 5-bit (the header's low bits), so the table only
// needs 32 entries; decode already rejects the unclassified 0x09/0x0A
// codes before a handler is ever looked up.
func newDispatchTable() [32]opHandler {
	var t [32]opHandler

	t[0x00] = (*VM).opSys
	t[0x01] = opJmp
	t[0x02] = opJz
	t[0x03] = opJp
	t[0x04] = opJn
	t[0x05] = opJnz
	t[0x06] = opJnp
	t[0x07] = opJnn
	t[0x08] = opNot
	t[0x0B] = opPush
	t[0x0C] = opPop
	t[0x0D] = opCall
	t[0x0E] = opRet
	t[0x0F] = opStop

	t[0x10] = opMov
	t[0x11] = opAdd
	t[0x12] = opSub
	t[0x13] = opMul
	t[0x14] = opDiv
	t[0x15] = opCmp
	t[0x16] = opShl
	t[0x17] = opShr
	t[0x18] = opSar
	t[0x19] = opAnd
	t[0x1A] = opOr
	t[0x1B] = opXor
	t[0x1C] = opSwap
	t[0x1D] = opLdl
	t[0x1E] = opLdh
	t[0x1F] = opRnd

	return t
}

// step executes exactly one instruction, implementing the ordered
// checks of section 4.7: IP sentinel or running off the end of the
// code segment halt cleanly (halted=true); running past it, or any
// fetch/decode/execute failure, is a fault.
func (vm *VM) step(table *[32]opHandler) (halted bool, err error) {
	if vm.Regs[IP] == sentinel {
		return true, nil
	}

	seg := segOf(vm.Regs[IP])
	off := offOf(vm.Regs[IP])
	code := vm.mem.Segment(int(seg))

	if off == code.Size {
		return true, nil
	}
	if off > code.Size {
		return false, fmt.Errorf("segment fault")
	}
	if _, err := vm.mem.translateFetch(seg, off, 1); err != nil {
		return false, fmt.Errorf("invalid instruction")
	}

	di, err := vm.decode()
	if err != nil {
		return false, err
	}

	if vm.Disassemble {
		fmt.Fprintln(vm.Out, formatInstruction(di))
	}

	handler := table[di.Opcode]
	if handler == nil {
		return false, fmt.Errorf("invalid instruction OPC=%02X", di.Opcode)
	}
	return false, handler(vm, di)
}

// Run executes instructions until STOP, a fall-off-the-end halt, or a
// fault.
func (vm *VM) Run() error {
	table := newDispatchTable()
	for {
		halted, err := vm.step(&table)
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

func opJmp(vm *VM, di DecodedInstruction) error {
	off, err := branchTarget(vm, di.A)
	if err != nil {
		return err
	}
	vm.jumpTo(off)
	return nil
}

func jumpIf(vm *VM, di DecodedInstruction, cond bool) error {
	if !cond {
		return nil
	}
	return opJmp(vm, di)
}

func opJz(vm *VM, di DecodedInstruction) error  { return jumpIf(vm, di, ccZ(vm)) }
func opJnz(vm *VM, di DecodedInstruction) error { return jumpIf(vm, di, !ccZ(vm)) }
func opJn(vm *VM, di DecodedInstruction) error  { return jumpIf(vm, di, ccN(vm)) }
func opJnn(vm *VM, di DecodedInstruction) error { return jumpIf(vm, di, !ccN(vm)) }
func opJp(vm *VM, di DecodedInstruction) error  { return jumpIf(vm, di, !ccN(vm) && !ccZ(vm)) }
func opJnp(vm *VM, di DecodedInstruction) error { return jumpIf(vm, di, ccN(vm) || ccZ(vm)) }

func opNot(vm *VM, di DecodedInstruction) error {
	a, err := vm.Read(di.A)
	if err != nil {
		return err
	}
	res := ^a
	if err := vm.Write(di.A, res); err != nil {
		return err
	}
	setNZ(vm, res)
	return nil
}

func opPush(vm *VM, di DecodedInstruction) error {
	v, err := vm.Read(di.A)
	if err != nil {
		return err
	}
	return vm.push32(v)
}

func opPop(vm *VM, di DecodedInstruction) error {
	v, err := vm.pop32()
	if err != nil {
		return err
	}
	return vm.Write(di.A, v)
}

func opCall(vm *VM, di DecodedInstruction) error {
	off, err := branchTarget(vm, di.A)
	if err != nil {
		return err
	}
	if err := vm.push32(vm.Regs[IP]); err != nil {
		return err
	}
	vm.jumpTo(off)
	return nil
}

func opRet(vm *VM, _ DecodedInstruction) error {
	v, err := vm.pop32()
	if err != nil {
		return err
	}
	vm.Regs[IP] = v
	return nil
}

func opStop(vm *VM, _ DecodedInstruction) error {
	vm.Regs[IP] = sentinel
	return nil
}

func readAB(vm *VM, di DecodedInstruction) (a, b uint32, err error) {
	if a, err = vm.Read(di.A); err != nil {
		return 0, 0, err
	}
	if b, err = vm.Read(di.B); err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func opMov(vm *VM, di DecodedInstruction) error {
	b, err := vm.Read(di.B)
	if err != nil {
		return err
	}
	return vm.Write(di.A, b)
}

func opAdd(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := a + b
	if err := vm.Write(di.A, res); err != nil {
		return err
	}
	setNZ(vm, res)
	return nil
}

func opSub(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := a - b
	if err := vm.Write(di.A, res); err != nil {
		return err
	}
	setNZ(vm, res)
	return nil
}

func opMul(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := a * b
	if err := vm.Write(di.A, res); err != nil {
		return err
	}
	setNZ(vm, res)
	return nil
}

// opDiv implements floored signed division: the quotient rounds
// toward negative infinity and the remainder's sign always matches
// the divisor's (or is zero), unlike Go's native truncating /.
func opDiv(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	if b == 0 {
		return fmt.Errorf("division by zero")
	}
	sa, sb := int32(a), int32(b)
	q := sa / sb
	r := sa - q*sb
	if r != 0 && (r < 0) != (sb < 0) {
		q--
		r += sb
	}
	if err := vm.Write(di.A, uint32(q)); err != nil {
		return err
	}
	vm.Regs[AC] = uint32(r)
	setNZ(vm, uint32(q))
	return nil
}

func opCmp(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	setNZ(vm, a-b)
	return nil
}

func shiftAmount(b uint32) uint { return uint(b & 0x1F) }

func opShl(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := a << shiftAmount(b)
	if err := vm.Write(di.A, res); err != nil {
		return err
	}
	setNZ(vm, res)
	return nil
}

func opShr(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := a >> shiftAmount(b)
	if err := vm.Write(di.A, res); err != nil {
		return err
	}
	setNZ(vm, res)
	return nil
}

func opSar(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := uint32(int32(a) >> shiftAmount(b))
	if err := vm.Write(di.A, res); err != nil {
		return err
	}
	setNZ(vm, res)
	return nil
}

func opAnd(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := a & b
	if err := vm.Write(di.A, res); err != nil {
		return err
	}
	setNZ(vm, res)
	return nil
}

func opOr(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := a | b
	if err := vm.Write(di.A, res); err != nil {
		return err
	}
	setNZ(vm, res)
	return nil
}

func opXor(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := a ^ b
	if err := vm.Write(di.A, res); err != nil {
		return err
	}
	setNZ(vm, res)
	return nil
}

func opSwap(vm *VM, di DecodedInstruction) error {
	if di.B.Kind == OperandNone || di.B.Kind == OperandImmediate {
		return fmt.Errorf("invalid operand for instruction")
	}
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	if err := vm.Write(di.A, b); err != nil {
		return err
	}
	return vm.Write(di.B, a)
}

func opLdl(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := (a & 0xFFFF0000) | (b & 0xFFFF)
	return vm.Write(di.A, res)
}

func opLdh(vm *VM, di DecodedInstruction) error {
	a, b, err := readAB(vm, di)
	if err != nil {
		return err
	}
	res := (a & 0x0000FFFF) | ((b & 0xFFFF) << 16)
	return vm.Write(di.A, res)
}

func opRnd(vm *VM, di DecodedInstruction) error {
	limit, err := vm.Read(di.B)
	if err != nil {
		return err
	}
	val := vm.rng.intn(limit)
	if err := vm.Write(di.A, val); err != nil {
		return err
	}
	setNZ(vm, val)
	return nil
}
