// debug_terminal.go - interactive BREAKPOINT loop

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/zotley/vmx25
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// readKey reads a single keystroke for the BREAKPOINT loop. When
// stdin is an interactive terminal it switches to raw mode so a bare
// 'g'/'q'/Enter is seen without waiting for a newline; otherwise (a
// pipe, a test harness) it falls back to a line read and takes the
// first byte, treating an empty line as Enter.
func readKey(vm *VM) (byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := vm.readLine()
		if err != nil {
			return 0, err
		}
		if line == "" {
			return '\n', nil
		}
		return line[0], nil
	}

	prior, err := term.MakeRaw(fd)
	if err != nil {
		return 0, err
	}
	defer term.Restore(fd, prior)

	var buf [1]byte
	if _, err := os.Stdin.Read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// breakpoint implements SYS call 0xF: it optionally snapshots the
// machine, then drives an interactive g/q/Enter loop. A configured
// BreakCondition can auto-continue without ever touching the keyboard,
// which is what makes a BREAKPOINT-laden program runnable headlessly.
func (vm *VM) breakpoint() error {
	if vm.VMIPath != "" {
		if err := vm.SaveSnapshot(vm.VMIPath); err != nil {
			return fmt.Errorf("breakpoint snapshot: %w", err)
		}
	}

	table := newDispatchTable()

	for {
		if vm.BreakCond != nil && vm.BreakCond.ShouldAutoContinue(vm) {
			return nil
		}

		fmt.Fprint(vm.Out, "break> ")
		key, err := readKey(vm)
		if err != nil {
			return fmt.Errorf("I/O fault")
		}

		switch key {
		case 'g', 'G':
			return nil
		case 'q', 'Q':
			return fmt.Errorf("quit at breakpoint")
		case '\n', '\r':
			halted, err := vm.step(&table)
			if err != nil {
				return err
			}
			if halted {
				vm.Regs[IP] = sentinel
				return nil
			}
			if vm.VMIPath != "" {
				if err := vm.SaveSnapshot(vm.VMIPath); err != nil {
					return fmt.Errorf("breakpoint snapshot: %w", err)
				}
			}
		}
	}
}
