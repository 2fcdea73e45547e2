package video

// GBColor is one of the four DMG shades, stored as packed RGBA.
type GBColor uint32

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0x989898FF
	DarkGreyColor  GBColor = 0x4C4C4CFF
	BlackColor     GBColor = 0x000000FF
)

// ByteToColor maps a 2-bit palette output (0-3) to its display color.
func ByteToColor(value byte) GBColor {
	switch value {
	case 0:
		return WhiteColor
	case 1:
		return LightGreyColor
	case 2:
		return DarkGreyColor
	case 3:
		return BlackColor
	default:
		return BlackColor
	}
}

// FrameBuffer holds one composited 160x144 frame as packed RGBA pixels.
type FrameBuffer struct {
	buffer []uint32
}

// NewFrameBuffer creates a blank (black) frame.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{buffer: make([]uint32, FramebufferSize)}
}

func (fb *FrameBuffer) GetPixel(x, y int) uint32 { return fb.buffer[y*FramebufferWidth+x] }

func (fb *FrameBuffer) SetPixel(x, y int, color GBColor) {
	fb.buffer[y*FramebufferWidth+x] = uint32(color)
}

// Pixels returns the raw RGBA backing slice, safe to read but not to retain
// across frames (the PPU mutates it in place).
func (fb *FrameBuffer) Pixels() []uint32 { return fb.buffer }

// ToGrayscale converts the framebuffer into 2-bit-per-pixel shade indices,
// for conformance-test screen comparisons.
func (fb *FrameBuffer) ToGrayscale() []byte {
	out := make([]byte, len(fb.buffer))
	for i, pixel := range fb.buffer {
		switch GBColor(pixel) {
		case WhiteColor:
			out[i] = 0
		case LightGreyColor:
			out[i] = 1
		case DarkGreyColor:
			out[i] = 2
		case BlackColor:
			out[i] = 3
		}
	}
	return out
}
