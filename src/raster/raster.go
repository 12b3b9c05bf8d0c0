package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// ErrRenderingUnavailable is returned when a drawing surface cannot be
// obtained for a crop operation.
var ErrRenderingUnavailable = errors.New("rendering surface unavailable")

// Cropper rasterizes a source rectangle of an image into a new image of the
// requested destination size. Destination size need not match the source
// rectangle; both downscale and upscale are supported.
type Cropper interface {
	Crop(src image.Image, srcRect image.Rectangle, dstW, dstH int) (*image.RGBA, error)
}

// SurfaceCropper is the in-memory Cropper implementation.
type SurfaceCropper struct{}

func (SurfaceCropper) Crop(src image.Image, srcRect image.Rectangle, dstW, dstH int) (*image.RGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source image", ErrRenderingUnavailable)
	}
	if dstW <= 0 || dstH <= 0 {
		return nil, fmt.Errorf("%w: invalid destination size %dx%d", ErrRenderingUnavailable, dstW, dstH)
	}
	srcRect = srcRect.Intersect(src.Bounds())
	if srcRect.Empty() {
		return nil, fmt.Errorf("invalid source rectangle: empty after clamping to %v", src.Bounds())
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	if srcRect.Dx() == dstW && srcRect.Dy() == dstH {
		draw.Draw(dst, dst.Bounds(), src, srcRect.Min, draw.Src)
		return dst, nil
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, srcRect, xdraw.Src, nil)
	return dst, nil
}

// EncodePNG serializes an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrRenderingUnavailable)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %v", err)
	}
	return buf.Bytes(), nil
}

// DataURL wraps PNG bytes into a self-contained embeddable image reference.
func DataURL(pngData []byte) string {
	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(pngData))
}

// ImageDataURL encodes an image straight to its data URL form.
func ImageDataURL(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return DataURL(data), nil
}
