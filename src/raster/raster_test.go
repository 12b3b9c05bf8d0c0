package raster

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
)

// checkerboard paints a frame where each pixel encodes its own coordinates,
// so crops can be verified against the sampled origin.
func coordinateFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	return img
}

func TestCropIdentitySize(t *testing.T) {
	src := coordinateFrame(200, 200)
	out, err := SurfaceCropper{}.Crop(src, image.Rect(100, 100, 200, 200), 100, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Fatalf("expected 100x100 output, got %v", out.Bounds())
	}
	// Pixel (0,0) of the crop must be source pixel (100,100).
	got := out.RGBAAt(0, 0)
	if got.R != 100 || got.G != 100 {
		t.Fatalf("expected source pixel (100,100) at crop origin, got (%d,%d)", got.R, got.G)
	}
}

func TestCropScales(t *testing.T) {
	src := coordinateFrame(100, 100)

	up, err := SurfaceCropper{}.Crop(src, image.Rect(0, 0, 50, 50), 100, 100)
	if err != nil {
		t.Fatalf("upscale failed: %v", err)
	}
	if up.Bounds().Dx() != 100 || up.Bounds().Dy() != 100 {
		t.Fatalf("expected 100x100 upscale, got %v", up.Bounds())
	}

	down, err := SurfaceCropper{}.Crop(src, image.Rect(0, 0, 100, 100), 25, 25)
	if err != nil {
		t.Fatalf("downscale failed: %v", err)
	}
	if down.Bounds().Dx() != 25 || down.Bounds().Dy() != 25 {
		t.Fatalf("expected 25x25 downscale, got %v", down.Bounds())
	}
}

func TestCropNilSource(t *testing.T) {
	_, err := SurfaceCropper{}.Crop(nil, image.Rect(0, 0, 10, 10), 10, 10)
	if !errors.Is(err, ErrRenderingUnavailable) {
		t.Fatalf("expected ErrRenderingUnavailable, got %v", err)
	}
}

func TestCropEmptyRect(t *testing.T) {
	src := coordinateFrame(10, 10)
	if _, err := (SurfaceCropper{}).Crop(src, image.Rect(50, 50, 60, 60), 10, 10); err == nil {
		t.Fatal("expected error for rect outside source bounds")
	}
}

func TestDataURLPrefix(t *testing.T) {
	url, err := ImageDataURL(coordinateFrame(4, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected data URL prefix: %.40s", url)
	}
}
