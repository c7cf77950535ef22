package video

// SpritePriorityBuffer tracks which sprite owns each pixel of the current
// scanline, implementing DMG sprite-to-sprite priority
// (https://gbdev.io/pandocs/OAM.html#drawing-priority):
//   - sprites with lower X coordinates have priority
//   - when X coordinates match, lower OAM indices win.
//
// Example: overlap with same X coordinates
//
//	Pixels:    10 11 12 13 14 15 16 17 18 19 20 21 22 23 24 25
//	Sprite 1:           [-----D-----]                          (X=12, OAM=1)
//	Sprite 3:           [-----C-----]                          (X=12, OAM=3)
//	Sprite 5:  [-----E-----]                                   (X=10, OAM=5)
//	Result:    [-----E-----]--D-----]
//
// Ownership is settled while sprites are selected, in OAM order, so drawing
// needs no sort: each sprite only draws the pixels it owns.
type SpritePriorityBuffer struct {
	// ownerIndex is the OAM index owning each pixel, -1 when unowned
	ownerIndex [FramebufferWidth]int
	// ownerX is the X coordinate of the owning sprite
	ownerX [FramebufferWidth]int
}

// Clear resets the buffer for a new scanline
func (s *SpritePriorityBuffer) Clear() {
	for i := range FramebufferWidth {
		s.ownerIndex[i] = -1
		s.ownerX[i] = 0
	}
}

// TryClaimPixel attempts to claim ownership of a pixel for a sprite.
// Returns true if the sprite wins priority and claims the pixel.
func (s *SpritePriorityBuffer) TryClaimPixel(pixelX, spriteIndex, spriteX int) bool {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return false
	}

	currentOwner := s.ownerIndex[pixelX]
	currentX := s.ownerX[pixelX]

	wins := currentOwner == -1 ||
		spriteX < currentX ||
		(spriteX == currentX && spriteIndex < currentOwner)
	if !wins {
		return false
	}

	s.ownerIndex[pixelX] = spriteIndex
	s.ownerX[pixelX] = spriteX
	return true
}

// GetOwner returns the sprite index that owns a pixel, or -1 if none
func (s *SpritePriorityBuffer) GetOwner(pixelX int) int {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return -1
	}
	return s.ownerIndex[pixelX]
}
