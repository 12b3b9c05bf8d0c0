package geometry

import (
	"image"
	"testing"
)

func TestNormalizeInverseDrag(t *testing.T) {
	rect := SelectionRect{StartX: 300, StartY: 300, EndX: 100, EndY: 100}
	box := rect.Normalize()

	if box.Left != 100 || box.Top != 100 {
		t.Fatalf("expected origin (100,100), got (%d,%d)", box.Left, box.Top)
	}
	if box.Width != 200 || box.Height != 200 {
		t.Fatalf("expected 200x200, got %dx%d", box.Width, box.Height)
	}
}

func TestNormalizeNonNegativeForAllDirections(t *testing.T) {
	corners := []SelectionRect{
		{StartX: 10, StartY: 10, EndX: 50, EndY: 50},
		{StartX: 50, StartY: 10, EndX: 10, EndY: 50},
		{StartX: 10, StartY: 50, EndX: 50, EndY: 10},
		{StartX: 50, StartY: 50, EndX: 10, EndY: 10},
	}
	for _, rect := range corners {
		box := rect.Normalize()
		if box.Width < 0 || box.Height < 0 {
			t.Fatalf("negative dimensions for %+v: %+v", rect, box)
		}
		if box.Left != 10 || box.Top != 10 || box.Width != 40 || box.Height != 40 {
			t.Fatalf("expected {10 10 40 40} for %+v, got %+v", rect, box)
		}
	}
}

func TestCompleteThreshold(t *testing.T) {
	if (NormalizedBox{Width: 9, Height: 100}).Complete() {
		t.Error("9px wide box should not be complete")
	}
	if (NormalizedBox{Width: 100, Height: 9}).Complete() {
		t.Error("9px tall box should not be complete")
	}
	if !(NormalizedBox{Width: 10, Height: 10}).Complete() {
		t.Error("10x10 box should be complete")
	}
}

func TestToNativeScaled(t *testing.T) {
	// 1000x800 native shown at 500x400: scale factor 2 on both axes.
	d := DisplayedImage{NativeWidth: 1000, NativeHeight: 800, DisplayWidth: 500, DisplayHeight: 400}
	if d.ScaleX() != 2 || d.ScaleY() != 2 {
		t.Fatalf("expected 2x scale, got %f x %f", d.ScaleX(), d.ScaleY())
	}

	got := d.ToNative(NormalizedBox{Left: 50, Top: 50, Width: 50, Height: 50})
	want := image.Rect(100, 100, 200, 200)
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestToNativeIdentity(t *testing.T) {
	d := DisplayedImage{NativeWidth: 640, NativeHeight: 480, DisplayWidth: 640, DisplayHeight: 480}
	got := d.ToNative(NormalizedBox{Left: 100, Top: 100, Width: 100, Height: 100})
	want := image.Rect(100, 100, 200, 200)
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBoxLabel(t *testing.T) {
	if got := (NormalizedBox{Width: 123, Height: 45}).Label(); got != "123 × 45" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestDefaultCrop(t *testing.T) {
	free := DefaultCrop(1920, 1080, AspectFree)
	if free != (CropArea{X: 0, Y: 0, Width: 1920, Height: 1080}) {
		t.Fatalf("free crop should cover the frame, got %+v", free)
	}

	square := DefaultCrop(1920, 1080, AspectSquare)
	if square.Width != square.Height {
		t.Fatalf("square crop not square: %+v", square)
	}
	if square.Height != 1080 {
		t.Fatalf("square crop should fill the short axis, got %+v", square)
	}
	if square.X != (1920-1080)/2 {
		t.Fatalf("square crop not centered: %+v", square)
	}

	wide := DefaultCrop(1000, 800, Aspect16x9)
	if wide.Width != 1000 {
		t.Fatalf("16:9 crop should fill the width, got %+v", wide)
	}
	if wide.Height != 562 {
		t.Fatalf("expected 562 high 16:9 crop, got %+v", wide)
	}
}

func TestParseAspectRatio(t *testing.T) {
	cases := map[string]AspectRatio{
		"free":   AspectFree,
		"":       AspectFree,
		"1:1":    AspectSquare,
		"Square": AspectSquare,
		"4:3":    Aspect4x3,
		"16:9":   Aspect16x9,
		"weird":  AspectFree,
	}
	for in, want := range cases {
		if got := ParseAspectRatio(in); got != want {
			t.Errorf("ParseAspectRatio(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestClampZoom(t *testing.T) {
	if got := ClampZoom(0.5); got != MinZoom {
		t.Errorf("expected %f, got %f", MinZoom, got)
	}
	if got := ClampZoom(5); got != MaxZoom {
		t.Errorf("expected %f, got %f", MaxZoom, got)
	}
	if got := ClampZoom(2.2); got != 2.2 {
		t.Errorf("in-range zoom should be untouched, got %f", got)
	}
}
