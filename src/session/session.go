// Package session drives one capture-to-reply flow: grab a frame, let the
// user pick a region, attach the result to the conversation, send it
// through the chat transport, and deliver the streamed reply to a target.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"time"

	"screen-chat-llm/src/chat"
	"screen-chat-llm/src/clipboard"
	"screen-chat-llm/src/frame"
	"screen-chat-llm/src/raster"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

// CaptureFunc produces one raw frame.
type CaptureFunc func(ctx context.Context) (*frame.RawFrame, error)

// SelectFunc narrows a frame to the final image. cancelled=true means the
// user dismissed the selection; img is then undefined and err is nil.
type SelectFunc func(ctx context.Context, f *frame.RawFrame) (img *image.RGBA, cancelled bool, err error)

// SendFunc streams the conversation to the model and returns the reply.
type SendFunc func(ctx context.Context, history []chat.Message, onDelta func(string)) (string, error)

// ResultTarget receives the outcome of a flow.
type ResultTarget interface {
	OnSuccess(reply string) error
	OnFailure(err error) error
}

type Options struct {
	Deadline     time.Duration
	Capture      CaptureFunc
	Select       SelectFunc
	Send         SendFunc
	Target       ResultTarget
	Conversation *chat.Conversation
	Prompt       string
	OnDelta      func(string)
}

type Result struct {
	Reply string
}

// Execute runs a full flow. Cancellation or failure at any stage leaves the
// conversation unchanged and produces no attachment.
func Execute(ctx context.Context, opts Options) (Result, error) {
	if opts.Capture == nil {
		return Result{}, errors.New("Capture is required")
	}
	if opts.Select == nil {
		return Result{}, errors.New("Select is required")
	}
	if opts.Send == nil {
		return Result{}, errors.New("Send is required")
	}
	if opts.Target == nil {
		return Result{}, errors.New("Target is required")
	}
	conv := opts.Conversation
	if conv == nil {
		conv = chat.NewConversation()
	}

	f, err := opts.Capture(ctx)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}

	img, cancelled, err := opts.Select(ctx, f)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	if cancelled {
		log.Printf("session: selection cancelled, conversation untouched")
		_ = opts.Target.OnFailure(ErrSelectionCancelled)
		return Result{}, ErrSelectionCancelled
	}

	url, err := raster.ImageDataURL(img)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}

	conv.Append(chat.NewImageMessage(url))
	if opts.Prompt != "" {
		conv.Append(chat.NewTextMessage(chat.RoleUser, opts.Prompt))
	}

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = 60 * time.Second
	}
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	reply, err := opts.Send(jobCtx, conv.Messages(), opts.OnDelta)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	conv.Append(chat.NewTextMessage(chat.RoleAssistant, reply))

	if err := opts.Target.OnSuccess(reply); err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	return Result{Reply: reply}, nil
}

// ClipboardTarget copies the reply to the system clipboard.
type ClipboardTarget struct{}

func (ClipboardTarget) OnSuccess(reply string) error {
	return clipboard.Write(reply)
}

func (ClipboardTarget) OnFailure(err error) error { return nil }

// StdoutTarget writes the reply to a stream (stdout by default).
type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) OnSuccess(reply string) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprint(w, reply)
	return err
}

func (t StdoutTarget) OnFailure(err error) error { return nil }
