package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-chat-llm/src/chat"
	"screen-chat-llm/src/config"
	"screen-chat-llm/src/frame"
	"screen-chat-llm/src/geometry"
	"screen-chat-llm/src/raster"
	"screen-chat-llm/src/runtimeinit"
	"screen-chat-llm/src/selector"
	"screen-chat-llm/src/transport"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath   string
	prompt     string
	aspect     string
	full       bool
	jsonOutput bool
	verbose    bool
	apiKeyPath string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"chat-tool"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chat-tool",
		Short:         "Send a screen capture or PNG to a vision model and print the reply",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file ('-' for stdin); captures the screen when omitted")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "Question to send with the image (defaults to PROMPT from .env)")
	cmd.Flags().StringVar(&opts.aspect, "aspect", "", "Crop aspect ratio: 1:1, 4:3, 16:9, or free")
	cmd.Flags().BoolVar(&opts.full, "full", false, "Skip cropping and send the full image")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the reply as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")

	return cmd
}

func runWithOptions(opts cliOptions) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
		fmt.Fprintf(os.Stderr, "[verbose] Starting chat tool\n")
	}

	cfg, tr, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:   config.LoadOptions{APIKeyPathOverride: opts.apiKeyPath},
		SkipClipboard: true,
	})
	if err != nil {
		return err
	}

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Config loaded: Model=%s\n", cfg.Model)
		fmt.Fprintf(os.Stderr, "[verbose] Effective API key path: %s\n", cfg.APIKeyPath)
	}

	ctx := context.Background()

	f, err := loadFrame(ctx, opts)
	if err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Frame loaded: %dx%d\n", f.Width, f.Height)
	}

	aspect := opts.aspect
	if aspect == "" {
		aspect = cfg.DefaultAspect
	}

	img, err := cropFrame(ctx, f, aspect, opts.full)
	if err != nil {
		return err
	}
	if opts.verbose {
		b := img.Bounds()
		fmt.Fprintf(os.Stderr, "[verbose] Sending %dx%d image\n", b.Dx(), b.Dy())
	}

	prompt := opts.prompt
	if prompt == "" {
		prompt = cfg.Prompt
	}

	return sendAndPrint(ctx, cfg, tr, img, prompt, opts)
}

// loadFrame reads a PNG from the file or stdin, or captures the screen when
// no file is given.
func loadFrame(ctx context.Context, opts cliOptions) (*frame.RawFrame, error) {
	if opts.filePath == "" {
		if opts.verbose {
			fmt.Fprintf(os.Stderr, "[verbose] Capturing screen\n")
		}
		return frame.NewCapturer(nil).Capture(ctx)
	}

	var data []byte
	var err error
	if opts.filePath == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(opts.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", opts.filePath, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return nil, fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}
	return frameFromImage(decoded), nil
}

func frameFromImage(src image.Image) *frame.RawFrame {
	b := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}
	return &frame.RawFrame{Image: rgba, Width: b.Dx(), Height: b.Dy()}
}

// cropFrame runs the pan/zoom crop selector non-interactively: --full skips
// cropping, otherwise the aspect ratio's default centered crop is applied.
func cropFrame(ctx context.Context, f *frame.RawFrame, aspect string, full bool) (*image.RGBA, error) {
	done := make(chan *image.RGBA, 1)
	failed := make(chan error, 1)

	sel, err := selector.NewCropSelector(selector.CropConfig{
		Frame:      f,
		OnComplete: func(img *image.RGBA) { done <- img },
		OnCancel:   func() { failed <- fmt.Errorf("crop cancelled") },
		OnError:    func(err error) { failed <- err },
	})
	if err != nil {
		return nil, err
	}

	if full {
		sel.Skip()
	} else {
		sel.SetAspectRatio(geometry.ParseAspectRatio(aspect))
		if err := sel.ApplyCrop(ctx); err != nil {
			return nil, err
		}
	}

	select {
	case img := <-done:
		return img, nil
	case err := <-failed:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func sendAndPrint(ctx context.Context, cfg *config.Config, tr *transport.Client, img *image.RGBA, prompt string, opts cliOptions) error {
	url, err := raster.ImageDataURL(img)
	if err != nil {
		return err
	}

	conv := chat.NewConversation()
	conv.Append(chat.NewImageMessage(url))
	if prompt != "" {
		conv.Append(chat.NewTextMessage(chat.RoleUser, prompt))
	}

	deadline := time.Duration(cfg.ReplyDeadlineSec) * time.Second
	sendCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// Plain mode streams fragments to stdout as they arrive; JSON buffers.
	var onDelta func(string)
	if !opts.jsonOutput {
		onDelta = func(d string) { fmt.Print(d) }
	}

	startTime := time.Now()
	reply, err := tr.Stream(sendCtx, conv.Messages(), onDelta)
	elapsed := time.Since(startTime)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Reply received in %v, %d characters\n", elapsed, len(reply))
	}

	if opts.jsonOutput {
		return printJSON(reply, opts.filePath, prompt, cfg.Model, elapsed)
	}
	if !strings.HasSuffix(reply, "\n") {
		fmt.Println()
	}
	return nil
}

type ChatResult struct {
	Reply     string  `json:"reply"`
	Source    string  `json:"source"`
	Prompt    string  `json:"prompt"`
	Model     string  `json:"model"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func printJSON(reply, source, prompt, model string, elapsed time.Duration) error {
	if source == "" {
		source = "screen"
	}
	result := ChatResult{
		Reply:     reply,
		Source:    source,
		Prompt:    prompt,
		Model:     model,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		CharCount: len(reply),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

// normalizeLegacyArgs maps single-dash long flags to cobra's double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"file", "prompt", "aspect", "full", "json", "verbose", "api-key-path"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range long {
			single := "-" + name
			switch {
			case arg == single:
				normalized[i] = "-" + single
			case strings.HasPrefix(arg, single+"="):
				normalized[i] = "-" + single + arg[len(single):]
			}
		}
	}

	return normalized
}
