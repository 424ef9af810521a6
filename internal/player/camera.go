package player

// MaxPitch bounds how far the camera looks up or down, in degrees.
const MaxPitch = 89.0

// HandleMouseMovement turns the camera by the cursor delta since the last
// call. The first call only records the position.
func (p *Player) HandleMouseMovement(xpos, ypos float64) {
	if p.FirstMouse {
		p.LastMouseX = xpos
		p.LastMouseY = ypos
		p.FirstMouse = false
		return
	}

	xoffset := float32(xpos-p.LastMouseX) * p.Sensitivity
	yoffset := float32(p.LastMouseY-ypos) * p.Sensitivity
	p.LastMouseX = xpos
	p.LastMouseY = ypos

	p.Camera.Yaw += xoffset
	// Positive pitch looks down.
	p.Camera.Pitch -= yoffset

	if p.Camera.Pitch > MaxPitch {
		p.Camera.Pitch = MaxPitch
	}
	if p.Camera.Pitch < -MaxPitch {
		p.Camera.Pitch = -MaxPitch
	}
}

// ResetMouse makes the next movement a fresh start, e.g. after the cursor
// was released.
func (p *Player) ResetMouse() {
	p.FirstMouse = true
}
