// Package canvas owns the zoom/pan viewport and the mapping between screen
// and graph coordinate spaces. It is pure state, independent of any
// rendering layer.
package canvas

import (
	"sync"

	"github.com/flowcanvas/flowcanvas/pkg/models"
)

const (
	ZoomMin = 0.5
	ZoomMax = 2.0

	// WheelSensitivity scales raw wheel deltas before they are applied.
	// Negative wheel delta (scroll up) zooms in.
	WheelSensitivity = 0.001
)

// Button identifies a pointer button during drag tracking.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// DragButton is the designated button for panning; other buttons are ignored.
const DragButton = ButtonLeft

// Viewport holds the canvas transform: screenPoint = graphPoint*zoom + pan.
type Viewport struct {
	mu       sync.Mutex
	zoom     float64
	pan      models.Position
	dragging bool
	last     models.Position
}

func NewViewport() *Viewport {
	return &Viewport{zoom: 1.0}
}

func (v *Viewport) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.zoom
}

func (v *Viewport) Pan() models.Position {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.pan
}

// ZoomBy adds delta to the current zoom, clamped to [ZoomMin, ZoomMax], and
// returns the resulting zoom.
func (v *Viewport) ZoomBy(delta float64) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.zoom = clamp(v.zoom+delta, ZoomMin, ZoomMax)

	return v.zoom
}

// HandleWheel applies a raw wheel delta scaled by WheelSensitivity.
func (v *Viewport) HandleWheel(wheelDelta float64) float64 {
	return v.ZoomBy(-wheelDelta * WheelSensitivity)
}

// PanBy unconditionally adds to the pan offset. Pan is unbounded.
func (v *Viewport) PanBy(dx, dy float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.pan.X += dx
	v.pan.Y += dy
}

// BeginDrag starts pan tracking for the designated drag button. Any other
// button is ignored and does not start a drag.
func (v *Viewport) BeginDrag(button Button, at models.Position) bool {
	if button != DragButton {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.dragging = true
	v.last = at

	return true
}

// DragTo pans by the pointer delta since the previous position. A no-op when
// no drag is active.
func (v *Viewport) DragTo(at models.Position) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.dragging {
		return
	}

	v.pan.X += at.X - v.last.X
	v.pan.Y += at.Y - v.last.Y
	v.last = at
}

func (v *Viewport) EndDrag() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.dragging = false
}

// Dragging reports whether a pan drag is in progress.
func (v *Viewport) Dragging() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.dragging
}

// ToScreen maps a graph-space point to screen space.
func (v *Viewport) ToScreen(p models.Position) models.Position {
	v.mu.Lock()
	defer v.mu.Unlock()

	return models.Position{
		X: p.X*v.zoom + v.pan.X,
		Y: p.Y*v.zoom + v.pan.Y,
	}
}

// ToGraph maps a screen-space point back to graph space. Inverse of ToScreen.
func (v *Viewport) ToGraph(p models.Position) models.Position {
	v.mu.Lock()
	defer v.mu.Unlock()

	return models.Position{
		X: (p.X - v.pan.X) / v.zoom,
		Y: (p.Y - v.pan.Y) / v.zoom,
	}
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}

	if value > high {
		return high
	}

	return value
}
