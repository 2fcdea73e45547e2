package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli"

	"github.com/dmgcore/dmgcore/dmg/emulator"
	"github.com/dmgcore/dmgcore/dmg/memory"
	"github.com/dmgcore/dmgcore/dmg/timing"
	"github.com/dmgcore/dmgcore/dmg/video"
	"github.com/dmgcore/dmgcore/internal/testrom"
)

const (
	// Terminal characters are taller than wide, so the width is scaled more
	// than the height to keep the 160x144 screen's aspect ratio roughly true.
	scaleX = 2
	scaleY = 1
)

// Indexed by DMG shade (0 = lightest). Glyphs are drawn in white on black,
// so the fullest block gives the lightest cell.
var shadeChars = []rune{'█', '▓', '▒', '░'}

// TerminalRenderer drives the emulator at the DMG frame rate and paints its
// framebuffer to a tcell screen, one character cell per (scaled) pixel.
type TerminalRenderer struct {
	screen  tcell.Screen
	emu     *emulator.Emulator
	running bool
}

func NewTerminalRenderer(emu *emulator.Emulator) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}

	return &TerminalRenderer{screen: screen, emu: emu, running: true}, nil
}

func (t *TerminalRenderer) Run() error {
	defer func() {
		slog.Info("finishing terminal")
		t.screen.Fini()
	}()

	t.screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleInput()

	limiter := timing.NewTickerLimiter()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	for t.running {
		limiter.WaitForNextFrame()

		select {
		case <-signals:
			t.running = false
			slog.Info("received signal to stop")
			return nil
		default:
		}

		if err := t.emu.RunFrame(); err != nil {
			slog.Error("core fault", "err", err)
			return err
		}
		t.render()
		t.screen.Show()
	}

	return nil
}

var keymap = map[tcell.Key]memory.JoypadKey{
	tcell.KeyUp:    memory.JoypadUp,
	tcell.KeyDown:  memory.JoypadDown,
	tcell.KeyLeft:  memory.JoypadLeft,
	tcell.KeyRight: memory.JoypadRight,
	tcell.KeyEnter: memory.JoypadStart,
	tcell.KeyTab:   memory.JoypadSelect,
}

var runeKeymap = map[rune]memory.JoypadKey{
	'z': memory.JoypadA,
	'x': memory.JoypadB,
}

func (t *TerminalRenderer) handleInput() {
	for t.running {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape {
				t.running = false
				return
			}
			if key, ok := keymap[ev.Key()]; ok {
				t.emu.PressKey(key)
				break
			}
			if key, ok := runeKeymap[ev.Rune()]; ok {
				t.emu.PressKey(key)
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *TerminalRenderer) render() {
	fb := t.emu.FrameBuffer()
	shades := fb.ToGrayscale()

	t.screen.Clear()

	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			shade := shades[y*video.FramebufferWidth+x]
			style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
			char := shadeChars[shade]

			screenX := x * scaleX
			screenY := y * scaleY
			for sx := 0; sx < scaleX; sx++ {
				t.screen.SetContent(screenX+sx, screenY, char, nil, style)
			}
		}
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Description = "A cycle-accurate Game Boy DMG emulator core"
	app.Usage = "dmgcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "test",
			Usage: "Run conformance ROM(s) at this path (file or directory) instead of the terminal front-end",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("error running emulator", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if testPath := c.String("test"); testPath != "" {
		return runTests(testPath)
	}
	return runEmulator(c)
}

func runTests(testPath string) error {
	results, err := testrom.RunAll(testPath)
	if err != nil {
		return err
	}
	if !testrom.AllPassed(results) {
		os.Exit(1)
	}
	return nil
}

func runEmulator(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	emu, err := emulator.NewWithROM(romPath)
	if err != nil {
		return err
	}

	renderer, err := NewTerminalRenderer(emu)
	if err != nil {
		return err
	}

	return renderer.Run()
}
