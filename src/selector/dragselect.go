// Package selector implements the two interchangeable region-selection
// state machines: a lightweight click-drag selector and a pan/zoom crop
// editor. Both sample the original full-resolution frame and emit a final
// raster through caller-supplied callbacks; neither owns any rendering.
package selector

import (
	"errors"
	"image"
	"log"

	"screen-chat-llm/src/frame"
	"screen-chat-llm/src/geometry"
	"screen-chat-llm/src/raster"
)

// DragState enumerates the click-drag selector states.
type DragState int

const (
	DragIdle DragState = iota
	DragSelecting
)

// DragConfig wires a DragSelector. Frame and Display are required;
// Cropper defaults to the in-memory surface.
type DragConfig struct {
	Frame   *frame.RawFrame
	Display geometry.DisplayedImage
	Cropper raster.Cropper

	// OnSelect receives the cropped image once a drag completes above the
	// minimum size. OnCancel fires on Cancel with no emission.
	OnSelect func(img *image.RGBA)
	OnCancel func()
}

// DragSelector is a strict sequential state machine: Idle until pointer
// down, Selecting while dragging, back to Idle on pointer up or cancel.
// Events must arrive from a single goroutine in platform order.
type DragSelector struct {
	cfg   DragConfig
	state DragState
	rect  geometry.SelectionRect
}

// NewDragSelector validates the config and returns an Idle selector.
func NewDragSelector(cfg DragConfig) (*DragSelector, error) {
	if cfg.Frame == nil || cfg.Frame.Image == nil {
		return nil, errors.New("drag selector requires a captured frame")
	}
	if cfg.Display.DisplayWidth <= 0 || cfg.Display.DisplayHeight <= 0 {
		return nil, errors.New("drag selector requires display dimensions")
	}
	if cfg.Cropper == nil {
		cfg.Cropper = raster.SurfaceCropper{}
	}
	return &DragSelector{cfg: cfg, state: DragIdle}, nil
}

func (s *DragSelector) State() DragState { return s.state }

// Box returns the current normalized selection in display space.
func (s *DragSelector) Box() geometry.NormalizedBox { return s.rect.Normalize() }

// PointerDown anchors a new selection. Ignored unless Idle.
func (s *DragSelector) PointerDown(p geometry.Point) {
	if s.state != DragIdle {
		return
	}
	s.rect = geometry.SelectionRect{StartX: p.X, StartY: p.Y, EndX: p.X, EndY: p.Y}
	s.state = DragSelecting
}

// PointerMove tracks the drag; the anchor corner stays fixed. The rect is
// recomputed on every move with no smoothing or throttling.
func (s *DragSelector) PointerMove(p geometry.Point) {
	if s.state != DragSelecting {
		return
	}
	s.rect.EndX = p.X
	s.rect.EndY = p.Y
}

// PointerUp completes the drag. Selections under the minimum display-space
// size are discarded silently: that is the "accidental click" policy, not
// an error. A PointerUp without a preceding PointerDown is a no-op.
func (s *DragSelector) PointerUp() error {
	if s.state != DragSelecting {
		return nil
	}
	s.state = DragIdle

	box := s.rect.Normalize()
	if !box.Complete() {
		log.Printf("DragSelector: selection %dx%d below %dpx minimum, ignoring",
			box.Width, box.Height, geometry.MinSelectionPx)
		return nil
	}

	nativeRect := s.cfg.Display.ToNative(box)
	nativeRect = geometry.ClampRect(nativeRect, s.cfg.Frame.Image.Bounds())
	if nativeRect.Empty() {
		log.Printf("DragSelector: selection outside frame bounds, ignoring")
		return nil
	}

	img, err := s.cfg.Cropper.Crop(s.cfg.Frame.Image, nativeRect, nativeRect.Dx(), nativeRect.Dy())
	if err != nil {
		log.Printf("DragSelector: crop failed: %v", err)
		return err
	}

	log.Printf("DragSelector: selected display box %+v -> native %v", box, nativeRect)
	if s.cfg.OnSelect != nil {
		s.cfg.OnSelect(img)
	}
	return nil
}

// Cancel abandons any in-progress selection and notifies the caller
// without emitting an image.
func (s *DragSelector) Cancel() {
	s.state = DragIdle
	s.rect = geometry.SelectionRect{}
	if s.cfg.OnCancel != nil {
		s.cfg.OnCancel()
	}
}

// DimRegions returns the four display-space rectangles outside the active
// selection, for the front-end to dim. Empty unless a drag with non-zero
// area is in progress.
func (s *DragSelector) DimRegions() []geometry.NormalizedBox {
	if s.state != DragSelecting {
		return nil
	}
	box := s.rect.Normalize()
	if box.Empty() {
		return nil
	}
	dw := s.cfg.Display.DisplayWidth
	dh := s.cfg.Display.DisplayHeight
	return []geometry.NormalizedBox{
		{Left: 0, Top: 0, Width: dw, Height: box.Top},
		{Left: 0, Top: box.Top + box.Height, Width: dw, Height: dh - box.Top - box.Height},
		{Left: 0, Top: box.Top, Width: box.Left, Height: box.Height},
		{Left: box.Left + box.Width, Top: box.Top, Width: dw - box.Left - box.Width, Height: box.Height},
	}
}

// SizeLabel is the live "W × H" readout in display pixels, empty when no
// drag is in progress.
func (s *DragSelector) SizeLabel() string {
	if s.state != DragSelecting {
		return ""
	}
	box := s.rect.Normalize()
	if box.Empty() {
		return ""
	}
	return box.Label()
}
