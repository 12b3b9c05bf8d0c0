package overlay

import (
	"context"
	"image"
	"unicode/utf16"

	"screen-chat-llm/src/frame"
)

// Selector defines a synchronous region-selection API owned by the event loop.
// The call is blocking and MUST be invoked only from the single event-loop goroutine.
// Returns (img, cancelled, error). If cancelled is true, img is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context, f *frame.RawFrame) (*image.RGBA, bool, error)
}

// NewSelector returns the platform implementation (Windows in this project).
// Implementation is provided in a platform-specific file.
func NewSelector() Selector {
	return newPlatformSelector()
}

// labelUTF16 converts overlay text for TextOut: a NUL-terminated UTF-16
// buffer plus the code-unit count excluding the NUL. The count must not be
// the byte length; the size label's multiplication sign is two UTF-8 bytes
// but one UTF-16 unit.
func labelUTF16(s string) ([]uint16, int32) {
	u := utf16.Encode([]rune(s))
	return append(u, 0), int32(len(u))
}
