package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"screen-chat-llm/src/chat"
	"screen-chat-llm/src/config"
	"screen-chat-llm/src/frame"
	"screen-chat-llm/src/hotkey"
	"screen-chat-llm/src/overlay"
	"screen-chat-llm/src/popup"
	"screen-chat-llm/src/raster"
	"screen-chat-llm/src/session"
	"screen-chat-llm/src/singleinstance"
	"screen-chat-llm/src/tray"
	"screen-chat-llm/src/worker"
)

// Loop is the single-threaded coordinator for hotkey and run-once flows.
// It owns the resident conversation: every capture appends an attachment and
// its reply, so follow-up captures carry the full history to the model.
type Loop struct {
	capture        session.CaptureFunc
	selector       overlay.Selector
	pool           *worker.Pool
	conv           *chat.Conversation
	prompt         string
	srv            singleinstance.Server
	busy           bool
	results        chan result
	hotkeyCh       chan struct{}
	defaultTooltip string
	deadline       time.Duration
}

type result struct {
	text   string
	err    error
	target resultTarget
	cancel context.CancelFunc
}

type resultTarget interface {
	OnSuccess(text string) error
	OnProcessError(err error)
	OnDeliveryError(err error)
	Close()
}

type hotkeyResultTarget struct{}

func (hotkeyResultTarget) OnSuccess(text string) error {
	return session.ClipboardTarget{}.OnSuccess(text)
}

func (hotkeyResultTarget) OnProcessError(err error) {}

func (hotkeyResultTarget) OnDeliveryError(err error) {
	_ = popup.Show("Clipboard error")
}

func (hotkeyResultTarget) Close() {}

type delegatedResultTarget struct {
	sink session.DelegatedTarget
	conn singleinstance.Conn
}

func newDelegatedResultTarget(conn singleinstance.Conn, outputToStdout bool) delegatedResultTarget {
	return delegatedResultTarget{
		sink: session.DelegatedTarget{Conn: conn, OutputToStdout: outputToStdout},
		conn: conn,
	}
}

func (t delegatedResultTarget) OnSuccess(text string) error {
	return t.sink.OnSuccess(text)
}

func (t delegatedResultTarget) OnProcessError(err error) {
	_ = t.sink.OnFailure(err)
}

func (t delegatedResultTarget) OnDeliveryError(err error) {
	_ = t.sink.OnFailure(err)
}

func (t delegatedResultTarget) Close() {
	if t.conn != nil {
		_ = t.conn.Close()
	}
}

type requestCallbacks struct {
	onBusy        func()
	onSelectError func(err error)
	onCancelled   func()
}

// Options inject the capture, selection, and transport stages. Zero values
// get production defaults; tests supply fakes.
type Options struct {
	Capture  session.CaptureFunc
	Selector overlay.Selector
	Send     worker.SendFunc
}

// New creates a new event loop with defaults based on config.
// If cfg is nil or cfg.ReplyDeadlineSec <= 0, a 60s deadline is used.
func New(cfg *config.Config, opts Options) *Loop {
	deadlineSec := 60
	prompt := ""
	if cfg != nil {
		if cfg.ReplyDeadlineSec > 0 {
			deadlineSec = cfg.ReplyDeadlineSec
		}
		prompt = cfg.Prompt
	}

	if opts.Capture == nil {
		opts.Capture = frame.NewCapturer(nil).Capture
	}
	if opts.Selector == nil {
		opts.Selector = overlay.NewSelector()
	}

	return &Loop{
		capture:        opts.Capture,
		selector:       opts.Selector,
		pool:           worker.New(0, opts.Send),
		conv:           chat.NewConversation(),
		prompt:         prompt,
		results:        make(chan result, 1),
		hotkeyCh:       make(chan struct{}, 4),
		defaultTooltip: "Screen Chat",
		deadline:       time.Duration(deadlineSec) * time.Second,
	}
}

// SetDefaultTooltip optionally sets the tray tooltip base text.
func (l *Loop) SetDefaultTooltip(tt string) { l.defaultTooltip = tt }

// Conversation exposes the resident conversation (read via Messages).
func (l *Loop) Conversation() *chat.Conversation { return l.conv }

// Deadline returns the configured reply deadline for this loop.
func (l *Loop) Deadline() time.Duration { return l.deadline }

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if b {
		tray.UpdateTooltip("Screen Chat: waiting for reply...")
	} else {
		tray.UpdateTooltip(l.defaultTooltip)
	}
}

// StartHotkey registers a global hotkey and posts events into the loop.
func (l *Loop) StartHotkey(combo string) {
	if combo == "" {
		return
	}
	hotkey.Listen(combo, func() {
		select {
		case l.hotkeyCh <- struct{}{}:
		default:
		}
	})
}

// RequestCapture posts a capture event into the loop, e.g. from the tray menu.
func (l *Loop) RequestCapture() {
	select {
	case l.hotkeyCh <- struct{}{}:
	default:
	}
}

// Run starts the singleinstance server and processes requests.
// It blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.srv = singleinstance.NewServer()
	if err := l.srv.Start(ctx); err != nil {
		return err
	}
	if p := l.srv.Port(); p > 0 {
		log.Printf("Resident listening on 127.0.0.1:%d", p)
		tray.SetAboutExtra(fmt.Sprintf("Resident TCP port: %d", p))
	}
	defer l.pool.Close()

	// Accept loop in background to avoid blocking result handling
	reqCh := make(chan singleinstance.Conn, 4)
	go func() {
		for {
			conn, err := l.srv.Next(ctx)
			if err != nil {
				close(reqCh)
				return
			}
			reqCh <- conn
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.hotkeyCh:
			l.handleHotkey(ctx)
		case conn, ok := <-reqCh:
			if !ok {
				return nil
			}
			l.handleConn(ctx, conn)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	req := conn.Request()
	target := newDelegatedResultTarget(conn, req.OutputToStdout)
	prompt := req.Prompt
	if prompt == "" {
		prompt = l.prompt
	}
	l.startRequest(ctx, target, prompt, requestCallbacks{
		onBusy: func() {
			target.OnProcessError(errors.New("Busy, please retry"))
			target.Close()
		},
		onSelectError: func(err error) {
			target.OnProcessError(fmt.Errorf("Failed to capture region: %w", err))
			target.Close()
		},
		onCancelled: func() {
			target.OnProcessError(session.ErrSelectionCancelled)
			target.Close()
		},
	})
}

func (l *Loop) handleHotkey(ctx context.Context) {
	log.Printf("handleHotkey: called")
	l.startRequest(ctx, hotkeyResultTarget{}, l.prompt, requestCallbacks{
		onBusy: func() {
			log.Printf("handleHotkey: busy, skipping")
			_ = popup.Show("Busy, please retry")
		},
		onSelectError: func(err error) {
			log.Printf("handleHotkey: capture error: %v", err)
			_ = popup.Show("Capture error")
		},
		onCancelled: func() {
			log.Printf("handleHotkey: selection cancelled")
		},
	})
}

func (l *Loop) handleResult(res result) {
	log.Printf("handleResult: text length=%d, err=%v", len(res.text), res.err)
	defer func() {
		l.setBusy(false)
		if res.cancel != nil {
			res.cancel()
		}
	}()
	if res.target == nil {
		log.Printf("handleResult: missing target")
		_ = popup.Close()
		return
	}
	defer res.target.Close()

	if res.err != nil {
		log.Printf("handleResult: processing error: %v", res.err)
		_ = popup.Close()
		res.target.OnProcessError(res.err)
		return
	}

	// The reply joins the conversation so the next capture carries it.
	l.conv.Append(chat.NewTextMessage(chat.RoleAssistant, res.text))

	if err := res.target.OnSuccess(res.text); err != nil {
		log.Printf("handleResult: delivery error: %v", err)
		_ = popup.Close()
		res.target.OnDeliveryError(err)
		return
	}

	log.Printf("handleResult: updating popup with reply")
	_ = popup.UpdateText(res.text)
}

func (l *Loop) startRequest(ctx context.Context, target resultTarget, prompt string, callbacks requestCallbacks) {
	if l.busy {
		if callbacks.onBusy != nil {
			callbacks.onBusy()
		}
		return
	}

	f, err := l.capture(ctx)
	if err != nil {
		if callbacks.onSelectError != nil {
			callbacks.onSelectError(err)
		}
		return
	}

	img, cancelled, err := l.selector.Select(ctx, f)
	if err != nil {
		if callbacks.onSelectError != nil {
			callbacks.onSelectError(err)
		}
		return
	}
	if cancelled {
		if callbacks.onCancelled != nil {
			callbacks.onCancelled()
		}
		return
	}

	url, err := raster.ImageDataURL(img)
	if err != nil {
		if callbacks.onSelectError != nil {
			callbacks.onSelectError(err)
		}
		return
	}

	l.conv.Append(chat.NewImageMessage(url))
	if prompt != "" {
		l.conv.Append(chat.NewTextMessage(chat.RoleUser, prompt))
	}

	jobCtx, cancel := context.WithTimeout(ctx, l.deadline)
	_ = popup.StartCountdown(int(l.deadline.Seconds()))

	l.setBusy(true)
	submitted := l.pool.Submit(jobCtx, l.conv.Messages(), nil, func(text string, err error) {
		l.results <- result{text: text, err: err, target: target, cancel: cancel}
	})
	if !submitted {
		cancel()
		l.setBusy(false)
		_ = popup.Close()
		if callbacks.onBusy != nil {
			callbacks.onBusy()
		}
	}
}
