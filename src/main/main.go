package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"screen-chat-llm/src/config"
	"screen-chat-llm/src/eventloop"
	"screen-chat-llm/src/frame"
	"screen-chat-llm/src/overlay"
	"screen-chat-llm/src/popup"
	"screen-chat-llm/src/runtimeinit"
	"screen-chat-llm/src/session"
	"screen-chat-llm/src/singleinstance"
	"screen-chat-llm/src/tray"
)

// normalizeFlagDashes maps GNU-style --flag to Go's -flag for the flags we accept.
func normalizeFlagDashes() {
	known := []string{"run-once", "run-once-std", "prompt"}
	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		for _, name := range known {
			double := "--" + name
			switch {
			case arg == double:
				os.Args[i] = "-" + name
			case strings.HasPrefix(arg, double+"="):
				os.Args[i] = "-" + name + arg[len(double):]
			}
		}
	}
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// Lock main goroutine to its own OS thread so the overlay message loop
	// stays on a stable thread.
	runtime.LockOSThread()

	runOnce := flag.Bool("run-once", false, "Capture once, copy the reply to the clipboard, and exit")
	runOnceStd := flag.Bool("run-once-std", false, "Capture once, print the reply to stdout, and exit")
	prompt := flag.String("prompt", "", "Question to send with the capture (defaults to PROMPT from .env)")
	normalizeFlagDashes()
	flag.Parse()

	if *runOnce || *runOnceStd {
		// Load .env early so SINGLEINSTANCE_PORT_* are applied before the scan
		_, _ = config.Load()
		stdout := *runOnceStd
		ctx := context.Background()
		client := singleinstance.NewClient()

		delegated, text, err := client.TryRunOnce(ctx, singleinstance.Request{
			OutputToStdout: stdout,
			Prompt:         *prompt,
		})
		if err != nil {
			log.Printf("Delegation error: %v; falling back to standalone", err)
			runOnceStandalone(stdout, *prompt)
			return
		}
		if delegated {
			log.Printf("Delegated to resident")
			if stdout {
				fmt.Print(text)
			}
			return
		}
		log.Printf("No resident detected, running standalone")
		runOnceStandalone(stdout, *prompt)
		return
	}

	// Load .env early so SINGLEINSTANCE_PORT_* are available for pre-flight
	_, _ = config.Load()
	// ---------- SINGLE-INSTANCE PRE-FLIGHT ----------
	startPort, _ := singleinstance.GetPortRangeForDebug()
	addr := fmt.Sprintf("127.0.0.1:%d", startPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("Pre-flight: port %d busy, resident already exists", startPort)
		fmt.Printf("one is already running on port %d\n", startPort)
		os.Exit(1)
	}
	// We claimed the port; release it so the event loop can re-bind.
	_ = listener.Close()
	log.Printf("Pre-flight: port %d free, we are the resident", startPort)
	// ------------------------------------------------

	cfg, tr, err := runtimeinit.Bootstrap(runtimeinit.Options{
		ShowBlockingTransportError: true,
	})
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	log.Printf("Screen Chat initialized")
	log.Printf("Using model: %s", cfg.Model)
	log.Printf("Hotkey: %s", cfg.Hotkey)
	log.Printf("Reply deadline: %ds", cfg.ReplyDeadlineSec)

	tray.SetAboutHotkey(cfg.Hotkey)

	loop := eventloop.New(cfg, eventloop.Options{Send: tr.Stream})
	tooltip := fmt.Sprintf("Screen Chat - Press %s to capture", cfg.Hotkey)
	loop.SetDefaultTooltip(tooltip)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trayIcon, _ := tray.New(tray.Config{
		Title:     "Screen Chat",
		Tooltip:   tooltip,
		OnCapture: loop.RequestCapture,
		OnExit:    func() { cancel() },
	})
	go trayIcon.Run()
	defer trayIcon.Destroy()

	loop.StartHotkey(cfg.Hotkey)

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := loop.Run(ctx); err != nil {
		log.Printf("event loop stopped: %v", err)
	}
}

// runOnceStandalone performs a single capture-select-send cycle and exits.
func runOnceStandalone(outputToStdout bool, promptOverride string) {
	cfg, tr, err := runtimeinit.Bootstrap(runtimeinit.Options{
		ShowBlockingTransportError: !outputToStdout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		os.Exit(1)
	}

	prompt := promptOverride
	if prompt == "" {
		prompt = cfg.Prompt
	}

	var target session.ResultTarget
	if outputToStdout {
		target = session.StdoutTarget{}
	} else {
		target = session.ClipboardTarget{}
	}

	sel := overlay.NewSelector()
	capturer := frame.NewCapturer(nil)

	_ = popup.StartCountdown(cfg.ReplyDeadlineSec)

	res, err := session.Execute(context.Background(), session.Options{
		Deadline: time.Duration(cfg.ReplyDeadlineSec) * time.Second,
		Capture:  capturer.Capture,
		Select:   sel.Select,
		Send:     tr.Stream,
		Target:   target,
		Prompt:   prompt,
	})
	if err != nil {
		_ = popup.Close()
		if errors.Is(err, session.ErrSelectionCancelled) {
			log.Printf("Selection cancelled, exiting")
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Capture failed: %v\n", err)
		os.Exit(1)
	}

	safeReply := sanitizeForLogging(res.Reply)
	log.Printf("Reply received (%d chars): %q", len(res.Reply), safeReply)

	if !outputToStdout {
		// Block long enough for the popup to be visible before process exit
		_ = popup.UpdateText(res.Reply)
		time.Sleep(3 * time.Second)
	}
	os.Exit(0)
}

// sanitizeForLogging removes control characters from text for safe logging.
func sanitizeForLogging(text string) string {
	const maxLogLength = 100
	if len(text) > maxLogLength {
		text = text[:maxLogLength] + "..."
	}

	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			b.WriteString("\\n")
		case r == '\t':
			b.WriteString("\\t")
		case r < 32 || r == 127:
			b.WriteString("?")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
