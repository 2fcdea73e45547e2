// Package emulator wires the CPU, MMU, PPU, and APU into the single public
// step() loop described by the core's design: service interrupts, execute
// one instruction, advance every subsystem by the same number of T-cycles.
// Joypad input reaches the MMU directly through PressKey/ReleaseKey.
package emulator

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dmgcore/dmgcore/dmg/cpu"
	"github.com/dmgcore/dmgcore/dmg/memory"
	"github.com/dmgcore/dmgcore/dmg/timing"
	"github.com/dmgcore/dmgcore/dmg/video"
)

// Emulator is the root object owning one running Game Boy.
type Emulator struct {
	CPU *cpu.CPU
	MMU *memory.MMU
	PPU *video.PPU

	log *slog.Logger
}

// New creates an Emulator with no cartridge inserted (an all-0xFF address
// space beyond work/video RAM).
func New() *Emulator {
	mmu := memory.New()
	return newFrom(mmu)
}

// NewWithROM loads path and creates an Emulator for it.
func NewWithROM(path string) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("emulator: reading ROM: %w", err)
	}
	cart, err := memory.NewCartridgeWithData(data)
	if err != nil {
		return nil, fmt.Errorf("emulator: parsing ROM header: %w", err)
	}
	mmu, err := memory.NewWithCartridge(cart)
	if err != nil {
		return nil, fmt.Errorf("emulator: %w", err)
	}
	return newFrom(mmu), nil
}

func newFrom(mmu *memory.MMU) *Emulator {
	mmu.SetTimerSeed(0xABCC)
	return &Emulator{
		CPU: cpu.New(mmu),
		MMU: mmu,
		PPU: video.New(mmu),
		log: slog.Default(),
	}
}

// Step executes the core's one public operation: attempt interrupt
// dispatch, execute exactly one CPU instruction, and advance every other
// subsystem by the same number of T-cycles. It does not touch the joypad;
// key presses are applied as soon as PressKey/ReleaseKey are called.
// It returns the number of T-cycles consumed, and a *cpu.CoreFault if the
// CPU hit something it cannot recover from.
func (e *Emulator) Step() (int, error) {
	interruptCycles := e.CPU.ServiceInterrupts()
	if interruptCycles > 0 {
		e.advance(interruptCycles)
	}

	cycles, err := e.CPU.Step()
	if err != nil {
		e.log.Error("core fault", "err", err)
		return interruptCycles, err
	}
	e.advance(cycles)

	return interruptCycles + cycles, nil
}

func (e *Emulator) advance(cycles int) {
	e.MMU.Tick(cycles)
	e.PPU.Tick(cycles)
	e.MMU.APU.Tick(cycles)
}

// RunFrame repeats Step until the PPU raises frame-ready or the 70224
// T-cycle per-frame budget elapses, whichever happens first.
func (e *Emulator) RunFrame() error {
	budget := timing.CyclesPerFrame
	spent := 0
	for spent < budget {
		cycles, err := e.Step()
		if err != nil {
			return err
		}
		spent += cycles
		if e.PPU.ConsumeFrameReady() {
			return nil
		}
	}
	return nil
}

// PressKey/ReleaseKey forward to the joypad, raising the joypad interrupt
// on a press edge per the joypad's own semantics.
func (e *Emulator) PressKey(key memory.JoypadKey)   { e.MMU.Joypad.Press(key) }
func (e *Emulator) ReleaseKey(key memory.JoypadKey) { e.MMU.Joypad.Release(key) }

// FrameBuffer returns the PPU's current framebuffer.
func (e *Emulator) FrameBuffer() *video.FrameBuffer { return e.PPU.FrameBuffer() }

// Samples drains count stereo float32 samples from the APU's output queue.
func (e *Emulator) Samples(count int) []float32 { return e.MMU.APU.GetSamples(count) }

// SaveRAM/LoadRAM expose the cartridge's battery-backed external RAM.
func (e *Emulator) SaveRAM() []byte     { return e.MMU.SaveRAM() }
func (e *Emulator) LoadRAM(data []byte) { e.MMU.LoadRAM(data) }
