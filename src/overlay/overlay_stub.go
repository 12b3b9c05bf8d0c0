//go:build !windows

package overlay

import (
	"context"
	"fmt"
	"image"

	"screen-chat-llm/src/frame"
)

type stubSelector struct{}

func newPlatformSelector() Selector { return &stubSelector{} }

func (s *stubSelector) Select(ctx context.Context, f *frame.RawFrame) (*image.RGBA, bool, error) {
	return nil, false, fmt.Errorf("interactive region selection not implemented for this platform")
}
