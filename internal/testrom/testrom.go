// Package testrom runs Blargg- and Mooneye-style hardware conformance ROMs
// against the core, detecting each suite's own pass/fail signature instead
// of requiring a golden screenshot.
package testrom

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmgcore/dmgcore/dmg/emulator"
)

// maxCycles bounds a single test run to roughly two emulated minutes
// before a hang is declared a failure.
const maxCycles = 500_000_000

// Mooneye's infinite-loop breakpoint idiom: LD B,B followed by JR -2.
const (
	mooneyeBreakOpcode = 0x40
	mooneyeJROpcode    = 0x18
	mooneyeJROffset    = 0xFE
)

// Mooneye's Fibonacci pass signature, left in B..L when the breakpoint
// loop is reached.
const (
	fibB, fibC, fibD, fibE, fibH, fibL = 3, 5, 8, 13, 21, 34
)

const (
	blargSignatureAddr  = 0xA000
	blargSignatureByte1 = 0xA001
	blargSignatureByte2 = 0xA002
	blargSignatureByte3 = 0xA003
)

// Result describes the outcome of running a single ROM.
type Result struct {
	Name   string
	Passed bool
	Output string
	Cycles uint64
	Err    error
}

// Run executes romPath until it signals pass/fail, times out, or the core
// hits a CoreFault.
func Run(romPath string) Result {
	name := filepath.Base(romPath)

	emu, err := emulator.NewWithROM(romPath)
	if err != nil {
		return Result{Name: name, Err: fmt.Errorf("loading ROM: %w", err)}
	}

	var totalCycles uint64

	for {
		if totalCycles >= maxCycles {
			return Result{Name: name, Output: string(emu.MMU.SerialOutput()), Cycles: totalCycles, Err: fmt.Errorf("timed out after %d cycles", totalCycles)}
		}

		prevPC := emu.CPU.PC()

		cycles, err := emu.Step()
		totalCycles += uint64(cycles)
		if err != nil {
			return Result{Name: name, Output: string(emu.MMU.SerialOutput()), Cycles: totalCycles, Err: err}
		}

		if passed, ok := checkMooneye(emu, prevPC); ok {
			return Result{Name: name, Passed: passed, Output: string(emu.MMU.SerialOutput()), Cycles: totalCycles}
		}

		out := string(emu.MMU.SerialOutput())
		if strings.Contains(out, "Passed") {
			return Result{Name: name, Passed: true, Output: out, Cycles: totalCycles}
		}
		if strings.Contains(out, "Failed") {
			return Result{Name: name, Passed: false, Output: out, Cycles: totalCycles}
		}

		if emu.MMU.Read(blargSignatureByte1) == 0xDE &&
			emu.MMU.Read(blargSignatureByte2) == 0xB0 &&
			emu.MMU.Read(blargSignatureByte3) == 0x61 {
			status := emu.MMU.Read(blargSignatureAddr)
			result := Result{Name: name, Passed: status == 0, Output: out, Cycles: totalCycles}
			if status != 0 {
				result.Err = fmt.Errorf("test failed with status %d", status)
			}
			return result
		}
	}
}

// checkMooneye recognizes the LD B,B / JR -2 breakpoint idiom at the
// instruction just executed and, if found, reports pass/fail from the
// Fibonacci register signature.
func checkMooneye(emu *emulator.Emulator, prevPC uint16) (passed bool, matched bool) {
	if emu.MMU.Read(prevPC) != mooneyeBreakOpcode {
		return false, false
	}
	if emu.MMU.Read(prevPC+1) != mooneyeJROpcode || emu.MMU.Read(prevPC+2) != mooneyeJROffset {
		return false, false
	}

	_, _, b, c, d, e, h, l, _, _ := emu.CPU.Registers()
	ok := b == fibB && c == fibC && d == fibD && e == fibE && h == fibH && l == fibL
	return ok, true
}

// RunAll runs every *.gb file in path (or path itself, if it is a single
// file), printing a summary line per ROM.
func RunAll(path string) ([]Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var romPaths []string
	if !info.IsDir() {
		romPaths = []string{path}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".gb") {
				romPaths = append(romPaths, filepath.Join(path, entry.Name()))
			}
		}
	}

	results := make([]Result, 0, len(romPaths))
	for _, rom := range romPaths {
		result := Run(rom)
		status := "FAILED"
		if result.Passed {
			status = "PASSED"
		}
		fmt.Printf("%s - %s (%d cycles)\n", result.Name, status, result.Cycles)
		if result.Err != nil {
			fmt.Printf("  error: %v\n", result.Err)
		}
		results = append(results, result)
	}

	return results, nil
}

// AllPassed reports whether every result in results passed, for the CLI's
// exit-code decision.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed || r.Err != nil {
			return false
		}
	}
	return true
}
