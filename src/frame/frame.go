package frame

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/kbinani/screenshot"
)

// Capture error taxonomy. Callers classify with errors.Is.
var (
	// ErrUnsupported means the platform offers no screen-capture capability
	// (no active displays, headless session).
	ErrUnsupported = errors.New("screen capture unsupported")
	// ErrPermissionDenied means the OS refused access to the display.
	ErrPermissionDenied = errors.New("screen capture permission denied")
	// ErrCaptureFailed covers any other acquisition error.
	ErrCaptureFailed = errors.New("screen capture failed")
)

// RawFrame is a still raster captured from a live display stream.
// It is read-only once produced: both selector variants sample it, never
// mutate it, so a single capture cycle needs no locking.
type RawFrame struct {
	Image  *image.RGBA
	Width  int
	Height int
}

// StreamOptions mirror the display-stream request: cursor rendered into the
// frame, never any audio.
type StreamOptions struct {
	ShowCursor bool
	Audio      bool
}

// DisplayStream is one live frame source. Close stops the underlying
// tracks; a stream left open keeps the OS capture indicator active, so
// release is a correctness requirement, not cleanup hygiene.
type DisplayStream interface {
	Bounds() image.Rectangle
	Frame() (*image.RGBA, error)
	Close() error
}

// StreamSource acquires display streams. The production implementation
// talks to the platform screen-sharing facility; tests inject fakes.
type StreamSource interface {
	OpenDisplayStream(opts StreamOptions) (DisplayStream, error)
}

// Capturer grabs exactly one still frame per Capture call.
type Capturer struct {
	source StreamSource
}

// NewCapturer returns a capturer over the given source, defaulting to the
// platform screen source when src is nil.
func NewCapturer(src StreamSource) *Capturer {
	if src == nil {
		src = ScreenSource{}
	}
	return &Capturer{source: src}
}

// Capture acquires a display stream, snapshots the first frame at native
// resolution, and releases the stream on every exit path.
func (c *Capturer) Capture(ctx context.Context) (*RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stream, err := c.source.OpenDisplayStream(StreamOptions{ShowCursor: true, Audio: false})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			log.Printf("Capture: stream close failed: %v", cerr)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := stream.Frame()
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	log.Printf("Capture: got frame %dx%d", b.Dx(), b.Dy())
	return &RawFrame{Image: img, Width: b.Dx(), Height: b.Dy()}, nil
}

// ScreenSource is the production StreamSource over the OS screen-capture
// facility. It captures the union of all active displays.
type ScreenSource struct{}

func (ScreenSource) OpenDisplayStream(opts StreamOptions) (DisplayStream, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("%w: no active displays found", ErrUnsupported)
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	log.Printf("OpenDisplayStream: virtual screen %v, cursor=%v", union, opts.ShowCursor)
	return &screenStream{bounds: union}, nil
}

type screenStream struct {
	bounds image.Rectangle
	closed bool
}

func (s *screenStream) Bounds() image.Rectangle { return s.bounds }

func (s *screenStream) Frame() (*image.RGBA, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: stream already closed", ErrCaptureFailed)
	}
	img, err := screenshot.CaptureRect(s.bounds)
	if err != nil {
		return nil, classifyCaptureError(err)
	}
	return img, nil
}

func (s *screenStream) Close() error {
	s.closed = true
	return nil
}

// classifyCaptureError maps a platform capture error onto the taxonomy.
func classifyCaptureError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "denied") ||
		strings.Contains(msg, "not authorized"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case strings.Contains(msg, "no active displays") || strings.Contains(msg, "unsupported"):
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	default:
		return fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
}
