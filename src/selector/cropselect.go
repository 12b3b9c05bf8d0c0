package selector

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	"screen-chat-llm/src/frame"
	"screen-chat-llm/src/geometry"
	"screen-chat-llm/src/raster"
)

// ErrApplyInFlight is returned when ApplyCrop is called while a previous
// application is still rasterizing.
var ErrApplyInFlight = errors.New("crop application already in flight")

// CropState enumerates the pan/zoom selector states.
type CropState int

const (
	CropIdle CropState = iota
	CropEditing
	CropApplying
)

// Key is a keyboard signal delivered to the selector.
type Key int

const (
	KeyEscape Key = iota
	KeyEnter
)

// CropConfig wires a CropSelector.
type CropConfig struct {
	Frame   *frame.RawFrame
	Aspect  geometry.AspectRatio
	Cropper raster.Cropper

	// OnComplete receives the final image: the cropped raster after
	// ApplyCrop, or the untouched original after Skip.
	OnComplete func(img *image.RGBA)
	OnCancel   func()
	// OnError observes rasterization failures; the selector has already
	// returned to its pre-submit state when it fires.
	OnError func(err error)
}

// CropSelector wraps an interactive pan/zoom viewport. It stores what the
// viewport reports and performs no coordinate math of its own beyond the
// aspect-ratio default crop. ApplyCrop rasterizes asynchronously; repeated
// submission is rejected while one application is in flight.
type CropSelector struct {
	cfg CropConfig

	mu    sync.Mutex
	state CropState
	pan   geometry.Point
	zoom  float64
	area  *geometry.CropArea
	// gen invalidates in-flight applies: Cancel bumps it, and a finishing
	// apply goroutine discards its result when the counts no longer match.
	gen uint64
}

// NewCropSelector returns a selector in the Editing state with zoom 1 and
// no reported crop area.
func NewCropSelector(cfg CropConfig) (*CropSelector, error) {
	if cfg.Frame == nil || cfg.Frame.Image == nil {
		return nil, errors.New("crop selector requires a captured frame")
	}
	if cfg.Cropper == nil {
		cfg.Cropper = raster.SurfaceCropper{}
	}
	return &CropSelector{cfg: cfg, state: CropEditing, zoom: geometry.MinZoom}, nil
}

func (s *CropSelector) State() CropState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetZoom updates the zoom factor, clamped to [1,3].
func (s *CropSelector) SetZoom(z float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = geometry.ClampZoom(z)
}

func (s *CropSelector) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// SetPan updates the pan offset.
func (s *CropSelector) SetPan(p geometry.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pan = p
}

func (s *CropSelector) Pan() geometry.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pan
}

// SetAspectRatio switches the constraint and resets the effective crop to
// the frame's default centered crop for that ratio.
func (s *CropSelector) SetAspectRatio(r geometry.AspectRatio) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Aspect = r
	area := geometry.DefaultCrop(s.cfg.Frame.Width, s.cfg.Frame.Height, r)
	s.area = &area
}

func (s *CropSelector) AspectRatio() geometry.AspectRatio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Aspect
}

// SetCropArea stores the viewport-reported native-pixel crop rectangle.
func (s *CropSelector) SetCropArea(a geometry.CropArea) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.area = &a
}

// CropArea returns the last reported area, or false when none exists yet.
func (s *CropSelector) CropArea() (geometry.CropArea, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.area == nil {
		return geometry.CropArea{}, false
	}
	return *s.area, true
}

// ApplyCrop rasterizes exactly the reported crop rectangle from the
// original full-resolution frame, at identical pixel dimensions, on a
// background goroutine. A no-op when nothing has been reported yet.
// Returns ErrApplyInFlight while a previous application is rasterizing;
// on failure the selector returns to Editing so the user may retry.
func (s *CropSelector) ApplyCrop(ctx context.Context) error {
	s.mu.Lock()
	if s.state == CropApplying {
		s.mu.Unlock()
		return ErrApplyInFlight
	}
	if s.area == nil {
		s.mu.Unlock()
		log.Printf("CropSelector: no crop area reported yet, ignoring apply")
		return nil
	}
	area := *s.area
	s.state = CropApplying
	gen := s.gen
	s.mu.Unlock()

	go s.applyCrop(ctx, area, gen)
	return nil
}

func (s *CropSelector) applyCrop(ctx context.Context, area geometry.CropArea, gen uint64) {
	fail := func(err error) {
		s.mu.Lock()
		if s.gen != gen || s.state != CropApplying {
			s.mu.Unlock()
			log.Printf("CropSelector: apply cancelled mid-flight, dropping error: %v", err)
			return
		}
		s.state = CropEditing
		s.mu.Unlock()
		log.Printf("CropSelector: apply failed: %v", err)
		if s.cfg.OnError != nil {
			s.cfg.OnError(err)
		}
	}

	if err := ctx.Err(); err != nil {
		fail(err)
		return
	}
	if area.Empty() {
		fail(errors.New("reported crop area is empty"))
		return
	}

	img, err := s.cfg.Cropper.Crop(s.cfg.Frame.Image, area.Rect(), area.Width, area.Height)
	if err != nil {
		fail(err)
		return
	}

	s.mu.Lock()
	if s.gen != gen || s.state != CropApplying {
		s.mu.Unlock()
		log.Printf("CropSelector: apply cancelled mid-flight, dropping result")
		return
	}
	s.state = CropIdle
	s.mu.Unlock()
	log.Printf("CropSelector: applied crop %+v", area)
	if s.cfg.OnComplete != nil {
		s.cfg.OnComplete(img)
	}
}

// Skip emits the unmodified original frame, bypassing cropping entirely.
func (s *CropSelector) Skip() {
	s.mu.Lock()
	if s.state == CropApplying {
		s.mu.Unlock()
		return
	}
	s.state = CropIdle
	s.mu.Unlock()
	if s.cfg.OnComplete != nil {
		s.cfg.OnComplete(s.cfg.Frame.Image)
	}
}

// Cancel emits cancellation without an image. An apply still rasterizing is
// invalidated; its result is dropped when it finishes.
func (s *CropSelector) Cancel() {
	s.mu.Lock()
	s.gen++
	s.state = CropIdle
	s.mu.Unlock()
	if s.cfg.OnCancel != nil {
		s.cfg.OnCancel()
	}
}

// HandleKey maps keyboard signals: Escape cancels, Enter applies unless an
// application is already processing.
func (s *CropSelector) HandleKey(ctx context.Context, k Key) {
	switch k {
	case KeyEscape:
		s.Cancel()
	case KeyEnter:
		if err := s.ApplyCrop(ctx); err != nil && !errors.Is(err, ErrApplyInFlight) {
			log.Printf("CropSelector: enter apply failed: %v", err)
		}
	}
}
