// debug_conditions.go - Lua-scripted auto-continue conditions for BREAKPOINT

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/zotley/vmx25
License: GPLv3 or later
*/

package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// BreakCondition wraps a small Lua boolean expression evaluated each
// time the machine hits the BREAKPOINT trap. When it evaluates truthy
// the breakpoint auto-continues instead of waiting on a keystroke,
// which is what makes scripted or headless runs through a BREAKPOINT
// possible at all.
//
// Expressions see the register file as globals named after the
// register (EAX, CC, IP, ...); e.g. "EAX > 10" or "CC == 0x40000000".
type BreakCondition struct {
	source string
	state  *lua.LState
}

// ParseBreakCondition compiles src once up front so syntax errors
// surface immediately rather than mid-run. The compiled chunk is not
// kept: ShouldAutoContinue compiles the source again on each call.
func ParseBreakCondition(src string) (*BreakCondition, error) {
	l := lua.NewState()
	if _, err := l.LoadString("return (" + src + ")"); err != nil {
		l.Close()
		return nil, fmt.Errorf("invalid break condition: %w", err)
	}
	return &BreakCondition{source: src, state: l}, nil
}

func (b *BreakCondition) Close() {
	if b.state != nil {
		b.state.Close()
	}
}

// ShouldAutoContinue binds the current register file into the Lua
// globals and evaluates the condition, returning false (blocking on
// the keyboard) on any evaluation error.
func (b *BreakCondition) ShouldAutoContinue(vm *VM) bool {
	l := b.state
	for i, name := range regNames {
		if name == "" {
			continue
		}
		l.SetGlobal(name, lua.LNumber(vm.Regs[i]))
	}

	fn, err := l.LoadString("return (" + b.source + ")")
	if err != nil {
		return false
	}
	l.Push(fn)
	if err := l.PCall(0, 1, nil); err != nil {
		return false
	}
	ret := l.Get(-1)
	l.Pop(1)
	return lua.LVAsBool(ret)
}
