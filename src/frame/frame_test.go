package frame

import (
	"context"
	"errors"
	"image"
	"testing"
)

type fakeStream struct {
	bounds   image.Rectangle
	img      *image.RGBA
	frameErr error
	closed   int
}

func (s *fakeStream) Bounds() image.Rectangle { return s.bounds }

func (s *fakeStream) Frame() (*image.RGBA, error) {
	if s.frameErr != nil {
		return nil, s.frameErr
	}
	return s.img, nil
}

func (s *fakeStream) Close() error {
	s.closed++
	return nil
}

type fakeSource struct {
	stream  *fakeStream
	openErr error
}

func (s fakeSource) OpenDisplayStream(opts StreamOptions) (DisplayStream, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.stream, nil
}

func TestCaptureReleasesStreamOnSuccess(t *testing.T) {
	stream := &fakeStream{
		bounds: image.Rect(0, 0, 64, 48),
		img:    image.NewRGBA(image.Rect(0, 0, 64, 48)),
	}
	c := NewCapturer(fakeSource{stream: stream})

	f, err := c.Capture(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Width != 64 || f.Height != 48 {
		t.Fatalf("expected 64x48 frame, got %dx%d", f.Width, f.Height)
	}
	if stream.closed != 1 {
		t.Fatalf("stream must be closed exactly once, closed %d times", stream.closed)
	}
}

func TestCaptureReleasesStreamOnFrameError(t *testing.T) {
	stream := &fakeStream{frameErr: errors.New("device lost")}
	c := NewCapturer(fakeSource{stream: stream})

	if _, err := c.Capture(context.Background()); err == nil {
		t.Fatal("expected frame error")
	}
	if stream.closed != 1 {
		t.Fatalf("stream must be released on the error path, closed %d times", stream.closed)
	}
}

func TestCaptureOpenErrorPropagates(t *testing.T) {
	c := NewCapturer(fakeSource{openErr: ErrPermissionDenied})
	_, err := c.Capture(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestCaptureCancelledContext(t *testing.T) {
	stream := &fakeStream{img: image.NewRGBA(image.Rect(0, 0, 1, 1))}
	c := NewCapturer(fakeSource{stream: stream})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Capture(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClassifyCaptureError(t *testing.T) {
	cases := []struct {
		msg  string
		want error
	}{
		{"operation not authorized by user", ErrPermissionDenied},
		{"access denied to display", ErrPermissionDenied},
		{"no active displays found", ErrUnsupported},
		{"BitBlt failed", ErrCaptureFailed},
	}
	for _, tc := range cases {
		got := classifyCaptureError(errors.New(tc.msg))
		if !errors.Is(got, tc.want) {
			t.Errorf("classifyCaptureError(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

func TestScreenStreamFrameAfterClose(t *testing.T) {
	s := &screenStream{bounds: image.Rect(0, 0, 10, 10)}
	_ = s.Close()
	if _, err := s.Frame(); !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected ErrCaptureFailed after close, got %v", err)
	}
}
