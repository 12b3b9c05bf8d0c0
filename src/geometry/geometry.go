package geometry

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// MinSelectionPx is the display-space minimum for a completed drag selection.
// Boxes smaller than this in either dimension are treated as accidental
// clicks and discarded, not clamped.
const MinSelectionPx = 10

// Zoom bounds for the pan/zoom crop editor.
const (
	MinZoom = 1.0
	MaxZoom = 3.0
)

// Point is a pixel coordinate. Which space it lives in (display or native)
// depends on the producer.
type Point struct {
	X int
	Y int
}

// SelectionRect is a raw drag rectangle in display-space coordinates.
// Start is the pointer-down corner and End the current pointer position;
// start may be any corner of the visual box.
type SelectionRect struct {
	StartX int
	StartY int
	EndX   int
	EndY   int
}

// NormalizedBox is a selection rectangle with non-negative width/height
// derived from two arbitrary corner points.
type NormalizedBox struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Normalize folds the two corners into a box with Width, Height >= 0
// regardless of drag direction.
func (r SelectionRect) Normalize() NormalizedBox {
	return NormalizedBox{
		Left:   minInt(r.StartX, r.EndX),
		Top:    minInt(r.StartY, r.EndY),
		Width:  absInt(r.EndX - r.StartX),
		Height: absInt(r.EndY - r.StartY),
	}
}

// Complete reports whether the box meets the minimum selection size.
func (b NormalizedBox) Complete() bool {
	return b.Width >= MinSelectionPx && b.Height >= MinSelectionPx
}

// Empty reports whether the box has zero area.
func (b NormalizedBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Label renders the live size readout shown next to an in-progress
// selection, in display pixels.
func (b NormalizedBox) Label() string {
	return fmt.Sprintf("%d × %d", b.Width, b.Height)
}

// DisplayedImage describes a raster shown at a possibly different on-screen
// size than its native pixel dimensions. Selections arrive in display space
// and must be pushed through the scale factors before sampling pixels, or
// the crop will not match what the user saw.
type DisplayedImage struct {
	NativeWidth   int
	NativeHeight  int
	DisplayWidth  int
	DisplayHeight int
}

func (d DisplayedImage) ScaleX() float64 {
	if d.DisplayWidth == 0 {
		return 1
	}
	return float64(d.NativeWidth) / float64(d.DisplayWidth)
}

func (d DisplayedImage) ScaleY() float64 {
	if d.DisplayHeight == 0 {
		return 1
	}
	return float64(d.NativeHeight) / float64(d.DisplayHeight)
}

// ToNative maps a display-space box into native pixel space.
func (d DisplayedImage) ToNative(b NormalizedBox) image.Rectangle {
	sx := d.ScaleX()
	sy := d.ScaleY()
	x0 := int(math.Round(float64(b.Left) * sx))
	y0 := int(math.Round(float64(b.Top) * sy))
	x1 := int(math.Round(float64(b.Left+b.Width) * sx))
	y1 := int(math.Round(float64(b.Top+b.Height) * sy))
	return image.Rect(x0, y0, x1, y1)
}

// CropArea is a native-pixel rectangle reported by the pan/zoom viewport.
type CropArea struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (a CropArea) Rect() image.Rectangle {
	return image.Rect(a.X, a.Y, a.X+a.Width, a.Y+a.Height)
}

func (a CropArea) Empty() bool {
	return a.Width <= 0 || a.Height <= 0
}

// AspectRatio constrains the pan/zoom crop box shape.
type AspectRatio int

const (
	AspectFree AspectRatio = iota
	AspectSquare
	Aspect4x3
	Aspect16x9
)

// Ratio returns the width/height terms of the constraint. ok is false for
// the unconstrained ratio.
func (r AspectRatio) Ratio() (w, h int, ok bool) {
	switch r {
	case AspectSquare:
		return 1, 1, true
	case Aspect4x3:
		return 4, 3, true
	case Aspect16x9:
		return 16, 9, true
	default:
		return 0, 0, false
	}
}

func (r AspectRatio) String() string {
	switch r {
	case AspectSquare:
		return "1:1"
	case Aspect4x3:
		return "4:3"
	case Aspect16x9:
		return "16:9"
	default:
		return "free"
	}
}

// ParseAspectRatio maps a config/CLI string to an AspectRatio. Unknown
// values fall back to free.
func ParseAspectRatio(value string) AspectRatio {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1:1", "square":
		return AspectSquare
	case "4:3":
		return Aspect4x3
	case "16:9":
		return Aspect16x9
	default:
		return AspectFree
	}
}

// DefaultCrop computes the largest centered crop of the given ratio that
// fits a native frame. The free ratio selects the whole frame.
func DefaultCrop(nativeW, nativeH int, r AspectRatio) CropArea {
	if nativeW <= 0 || nativeH <= 0 {
		return CropArea{}
	}
	rw, rh, ok := r.Ratio()
	if !ok {
		return CropArea{X: 0, Y: 0, Width: nativeW, Height: nativeH}
	}
	w := nativeW
	h := w * rh / rw
	if h > nativeH {
		h = nativeH
		w = h * rw / rh
	}
	return CropArea{
		X:      (nativeW - w) / 2,
		Y:      (nativeH - h) / 2,
		Width:  w,
		Height: h,
	}
}

// ClampZoom forces a zoom factor into [MinZoom, MaxZoom]. The slider UI
// cannot produce out-of-range values; this guards programmatic sets.
func ClampZoom(z float64) float64 {
	if z < MinZoom || math.IsNaN(z) {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// ClampRect restricts r to the bounds rectangle, preserving as much of the
// requested area as fits.
func ClampRect(r, bounds image.Rectangle) image.Rectangle {
	return r.Intersect(bounds)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
