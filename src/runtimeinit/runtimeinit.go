package runtimeinit

import (
	"context"
	"fmt"
	"log"
	"time"

	"screen-chat-llm/src/clipboard"
	"screen-chat-llm/src/config"
	"screen-chat-llm/src/logutil"
	"screen-chat-llm/src/notification"
	"screen-chat-llm/src/transport"
)

// Options control the shared startup sequence of the resident app and CLI.
type Options struct {
	LoadOptions config.LoadOptions
	// ShowBlockingTransportError pops a modal dialog when the startup ping
	// fails (resident app); the CLI reports on stderr instead.
	ShowBlockingTransportError bool
	// SkipClipboard leaves the clipboard uninitialized (stdout-only flows).
	SkipClipboard bool
}

// Bootstrap loads configuration, sets up logging, validates the transport
// with a ping, and initializes the clipboard.
func Bootstrap(opts Options) (*config.Config, *transport.Client, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logutil.Setup(cfg.EnableFileLogging)

	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("OPENROUTER_API_KEY is required. Checked key file %s and OPENROUTER_API_KEY env var", cfg.APIKeyPath)
	}
	if cfg.Model == "" {
		return nil, nil, fmt.Errorf("MODEL is required. Please set it in your .env file")
	}

	tr, err := transport.New(transport.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transport: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := tr.Ping(pingCtx); err != nil {
		if opts.ShowBlockingTransportError {
			notification.ShowBlockingError("Model unavailable",
				fmt.Sprintf("Startup check failed: %v\n\nPlease verify your API key and network connectivity.", err))
		}
		return nil, nil, fmt.Errorf("startup check failed: %w", err)
	}
	log.Printf("Transport ping succeeded, key %s", logutil.RedactKey(cfg.APIKey))

	if !opts.SkipClipboard {
		if err := clipboard.Init(); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	return cfg, tr, nil
}
