package eventloop

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"screen-chat-llm/src/chat"
	"screen-chat-llm/src/config"
	"screen-chat-llm/src/frame"
)

type fakeSelector struct {
	cancelled bool
	err       error
}

func (f *fakeSelector) Select(ctx context.Context, fr *frame.RawFrame) (*image.RGBA, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if f.cancelled {
		return nil, true, nil
	}
	return fr.Image, false, nil
}

type recordingTarget struct {
	success chan string
	failed  chan error
}

func newRecordingTarget() *recordingTarget {
	return &recordingTarget{success: make(chan string, 1), failed: make(chan error, 1)}
}

func (t *recordingTarget) OnSuccess(text string) error { t.success <- text; return nil }
func (t *recordingTarget) OnProcessError(err error)    { t.failed <- err }
func (t *recordingTarget) OnDeliveryError(err error)   { t.failed <- err }
func (t *recordingTarget) Close()                      {}

func testLoop(sel *fakeSelector, send func(ctx context.Context, history []chat.Message, onDelta func(string)) (string, error)) *Loop {
	capture := func(ctx context.Context) (*frame.RawFrame, error) {
		img := image.NewRGBA(image.Rect(0, 0, 16, 16))
		return &frame.RawFrame{Image: img, Width: 16, Height: 16}, nil
	}
	cfg := &config.Config{Prompt: "describe this", ReplyDeadlineSec: 5}
	return New(cfg, Options{Capture: capture, Selector: sel, Send: send})
}

func TestStartRequestAppendsConversation(t *testing.T) {
	send := func(ctx context.Context, history []chat.Message, onDelta func(string)) (string, error) {
		if len(history) != 2 {
			t.Errorf("expected image+prompt history, got %d messages", len(history))
		}
		return "a reply", nil
	}
	l := testLoop(&fakeSelector{}, send)
	defer l.pool.Close()
	target := newRecordingTarget()

	l.startRequest(context.Background(), target, l.prompt, requestCallbacks{})

	select {
	case res := <-l.results:
		l.handleResult(res)
	case <-time.After(2 * time.Second):
		t.Fatal("no result arrived")
	}

	select {
	case text := <-target.success:
		if text != "a reply" {
			t.Fatalf("unexpected reply %q", text)
		}
	default:
		t.Fatal("target never saw the reply")
	}

	msgs := l.Conversation().Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected image+prompt+assistant, got %d messages", len(msgs))
	}
	if !msgs[0].HasImage() {
		t.Fatal("first message must carry the attachment")
	}
	if msgs[2].Role != chat.RoleAssistant {
		t.Fatalf("last message must be the assistant reply, got %+v", msgs[2])
	}
	if l.busy {
		t.Fatal("loop must be idle after handleResult")
	}
}

func TestStartRequestCancelledLeavesConversationUnchanged(t *testing.T) {
	sendCalled := false
	send := func(ctx context.Context, history []chat.Message, onDelta func(string)) (string, error) {
		sendCalled = true
		return "", nil
	}
	l := testLoop(&fakeSelector{cancelled: true}, send)
	defer l.pool.Close()

	cancelled := false
	l.startRequest(context.Background(), newRecordingTarget(), l.prompt, requestCallbacks{
		onCancelled: func() { cancelled = true },
	})

	if !cancelled {
		t.Fatal("onCancelled must fire")
	}
	if l.Conversation().Len() != 0 {
		t.Fatal("cancellation must leave the conversation unchanged")
	}
	if sendCalled {
		t.Fatal("cancellation must not reach the transport")
	}
}

func TestStartRequestBusyGuard(t *testing.T) {
	block := make(chan struct{})
	send := func(ctx context.Context, history []chat.Message, onDelta func(string)) (string, error) {
		<-block
		return "", nil
	}
	l := testLoop(&fakeSelector{}, send)
	defer func() {
		close(block)
		l.pool.Close()
	}()

	l.startRequest(context.Background(), newRecordingTarget(), "", requestCallbacks{})
	if !l.busy {
		t.Fatal("loop must be busy while a job is in flight")
	}

	busy := false
	l.startRequest(context.Background(), newRecordingTarget(), "", requestCallbacks{
		onBusy: func() { busy = true },
	})
	if !busy {
		t.Fatal("second request during flight must hit the busy guard")
	}
}

func TestStartRequestSelectError(t *testing.T) {
	selErr := errors.New("no display")
	l := testLoop(&fakeSelector{err: selErr}, func(ctx context.Context, h []chat.Message, d func(string)) (string, error) {
		return "", nil
	})
	defer l.pool.Close()

	var got error
	l.startRequest(context.Background(), newRecordingTarget(), "", requestCallbacks{
		onSelectError: func(err error) { got = err },
	})
	if !errors.Is(got, selErr) {
		t.Fatalf("expected selection error, got %v", got)
	}
	if l.Conversation().Len() != 0 {
		t.Fatal("failed selection must not touch the conversation")
	}
}
