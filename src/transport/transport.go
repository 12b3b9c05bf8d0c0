// Package transport carries composed conversations to a hosted
// vision-capable model API and streams the reply back as text fragments.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"screen-chat-llm/src/chat"
)

// DefaultBaseURL targets OpenRouter's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

const (
	defaultMaxTokens   = 2000
	defaultTemperature = 0.1
)

// Transport accepts the ordered message list and yields the streamed reply.
// onDelta observes each fragment as it arrives; the full reply is returned
// once the stream ends.
type Transport interface {
	Stream(ctx context.Context, history []chat.Message, onDelta func(delta string)) (string, error)
}

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// Client is the production Transport over an OpenAI-compatible API.
type Client struct {
	api *openai.Client
	cfg Config
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	return &Client{api: openai.NewClientWithConfig(apiCfg), cfg: cfg}, nil
}

// Stream sends the conversation and forwards reply fragments to onDelta in
// arrival order.
func (c *Client) Stream(ctx context.Context, history []chat.Message, onDelta func(string)) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    toAPIMessages(history),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.temperature(),
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return reply.String(), fmt.Errorf("stream interrupted: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		reply.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}

	log.Printf("transport: reply complete, %d chars", reply.Len())
	return reply.String(), nil
}

// Ping performs a minimal round trip to validate key, model and network.
func (c *Client) Ping(ctx context.Context) error {
	req := openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: 1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
	}
	if _, err := c.api.CreateChatCompletion(ctx, req); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (c *Client) temperature() float32 {
	if c.cfg.Temperature > 0 {
		return c.cfg.Temperature
	}
	return defaultTemperature
}

// toAPIMessages converts the part-based message model into API messages.
// Text-only messages use the plain content field; anything carrying an
// image becomes multi-part content.
func toAPIMessages(history []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		if !m.HasImage() {
			out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Text()})
			continue
		}
		parts := make([]openai.ChatMessagePart, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch p.Kind {
			case chat.PartText:
				if p.Text == "" {
					continue
				}
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: p.Text,
				})
			case chat.PartImage:
				parts = append(parts, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: p.URL},
				})
			}
		}
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, MultiContent: parts})
	}
	return out
}
