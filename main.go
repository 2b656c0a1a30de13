// main.go - command-line front-end

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/zotley/vmx25
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const ramDefaultKiB = 16

type cliArgs struct {
	vmxPath     string
	vmiPath     string
	disassemble bool
	ramKiB      int
	params      []string
}

func parseArgs(args []string) (cliArgs, error) {
	a := cliArgs{ramKiB: ramDefaultKiB}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-d":
			a.disassemble = true
		case strings.HasPrefix(arg, "m="):
			kib, err := strconv.Atoi(strings.TrimPrefix(arg, "m="))
			if err != nil || kib <= 0 {
				return a, fmt.Errorf("invalid m=<kib> value %q", arg)
			}
			a.ramKiB = kib
		case arg == "-p":
			a.params = append(a.params, args[i+1:]...)
			i = len(args)
		case strings.HasSuffix(arg, ".vmx"):
			a.vmxPath = arg
		case strings.HasSuffix(arg, ".vmi"):
			a.vmiPath = arg
		default:
			return a, fmt.Errorf("unrecognized argument %q", arg)
		}
	}

	if a.vmxPath == "" && a.vmiPath == "" {
		return a, fmt.Errorf("at least one of a .vmx or .vmi path is required")
	}
	return a, nil
}

func run(args []string) int {
	a, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	mem := NewMemory(a.ramKiB)
	vm := NewVM(mem, os.Stdin, os.Stdout)
	vm.Disassemble = a.disassemble

	if a.vmxPath != "" {
		if _, err := vm.LoadVMX(a.vmxPath, a.params); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	} else {
		if _, err := vm.LoadSnapshot(a.vmiPath); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	}

	if err := vm.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
