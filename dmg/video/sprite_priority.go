package video

// spritePriority resolves per-pixel sprite ownership for a single scanline
// using DMG (non-CGB) priority rules: lower X wins, ties broken by lower
// OAM index. Pixels are claimed in a single pass over the scanline's
// sprites; claim compares X and OAM index itself, so the outcome does not
// depend on the order of that pass.
type spritePriority struct {
	owner  [FramebufferWidth]int
	ownerX [FramebufferWidth]int
}

func (s *spritePriority) reset() {
	for i := range s.owner {
		s.owner[i] = -1
		s.ownerX[i] = 0xFF
	}
}

// claim attempts to give sprite spriteIndex (at spriteX) ownership of pixel
// x, returning true if it won.
func (s *spritePriority) claim(x, spriteIndex, spriteX int) bool {
	if x < 0 || x >= FramebufferWidth {
		return false
	}
	current := s.owner[x]
	if current == -1 || spriteX < s.ownerX[x] || (spriteX == s.ownerX[x] && spriteIndex < current) {
		s.owner[x] = spriteIndex
		s.ownerX[x] = spriteX
		return true
	}
	return false
}

func (s *spritePriority) ownerOf(x int) int {
	if x < 0 || x >= FramebufferWidth {
		return -1
	}
	return s.owner[x]
}
