package memory

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	titleAddress         = 0x0134
	titleLength          = 16
	cartridgeTypeAddress = 0x0147
	romSizeAddress       = 0x0148
	ramSizeAddress       = 0x0149
)

// MBCKind identifies the cartridge's bank controller chip.
type MBCKind uint8

const (
	NoMBCKind MBCKind = iota
	MBC1Kind
	MBC2Kind
	MBC3Kind
	MBC5Kind
	UnknownMBCKind
)

// ramSizeCodeToBytes maps header byte 0x0149 to total external RAM size.
var ramSizeCodeToBytes = map[uint8]int{
	0x00: 0,
	0x01: 2 * 1024,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// Cartridge holds the parsed ROM header plus the raw ROM image. It does not
// perform any bank switching itself; that is the MBC's job (see mbc.go).
type Cartridge struct {
	data []byte

	Title        string
	Kind         MBCKind
	HasBattery   bool
	HasRTC       bool
	HasRumble    bool
	ROMBankCount int
	RAMSize      int
}

// NewCartridge creates an empty cartridge with no ROM loaded, useful for
// booting the emulator with nothing inserted.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data: make([]byte, 0x8000),
		Kind: NoMBCKind,
	}
}

// NewCartridgeWithData parses a ROM image's header and wraps its bytes.
func NewCartridgeWithData(data []byte) (*Cartridge, error) {
	if len(data) < 0x0150 {
		return nil, fmt.Errorf("memory: ROM too short to contain a header (%d bytes)", len(data))
	}

	cart := &Cartridge{
		data:    make([]byte, len(data)),
		Title:   cleanTitle(data[titleAddress : titleAddress+titleLength]),
		RAMSize: ramSizeCodeToBytes[data[ramSizeAddress]],
	}
	copy(cart.data, data)

	cart.Kind, cart.HasBattery, cart.HasRTC, cart.HasRumble = decodeCartType(data[cartridgeTypeAddress])
	cart.ROMBankCount = romBankCount(data[romSizeAddress])

	return cart, nil
}

func romBankCount(code uint8) int {
	if code > 0x08 {
		return 2
	}
	return 2 << code
}

func decodeCartType(code uint8) (kind MBCKind, battery, rtc, rumble bool) {
	switch code {
	case 0x00, 0x08, 0x09:
		return NoMBCKind, code != 0x00, false, false
	case 0x01, 0x02:
		return MBC1Kind, false, false, false
	case 0x03:
		return MBC1Kind, true, false, false
	case 0x05:
		return MBC2Kind, false, false, false
	case 0x06:
		return MBC2Kind, true, false, false
	case 0x0F:
		return MBC3Kind, true, true, false
	case 0x10:
		return MBC3Kind, true, true, false
	case 0x11, 0x12:
		return MBC3Kind, false, false, false
	case 0x13:
		return MBC3Kind, true, false, false
	case 0x19, 0x1A:
		return MBC5Kind, false, false, false
	case 0x1B:
		return MBC5Kind, true, false, false
	case 0x1C, 0x1D:
		return MBC5Kind, false, false, true
	case 0x1E:
		return MBC5Kind, true, false, true
	default:
		return UnknownMBCKind, false, false, false
	}
}

// cleanTitle converts a raw Game Boy ROM title (NUL-padded, sometimes
// containing manufacturer/CGB-flag bytes in the last few characters) into a
// trimmed, printable string.
func cleanTitle(raw []byte) string {
	runes := make([]rune, 0, len(raw))
	for _, b := range raw {
		r := rune(b)
		switch {
		case r == 0:
			r = ' '
		case !unicode.IsPrint(r):
			r = '?'
		}
		runes = append(runes, r)
	}
	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}
	return title
}
