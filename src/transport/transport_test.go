package transport

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"screen-chat-llm/src/chat"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Model: "some/model"}); err == nil {
		t.Error("missing API key must be rejected")
	}
	if _, err := New(Config{APIKey: "sk-x"}); err == nil {
		t.Error("missing model must be rejected")
	}
	c, err := New(Config{APIKey: "sk-x", Model: "some/model"})
	if err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if c.cfg.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", c.cfg.BaseURL)
	}
	if c.cfg.MaxTokens != defaultMaxTokens {
		t.Errorf("expected default max tokens, got %d", c.cfg.MaxTokens)
	}
}

func TestToAPIMessagesTextOnly(t *testing.T) {
	history := []chat.Message{chat.NewTextMessage(chat.RoleUser, "hello")}
	msgs := toAPIMessages(history)

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != chat.RoleUser || msgs[0].Content != "hello" {
		t.Fatalf("unexpected message %+v", msgs[0])
	}
	if msgs[0].MultiContent != nil {
		t.Fatal("text-only message must not use multi-part content")
	}
}

func TestToAPIMessagesImage(t *testing.T) {
	url := "data:image/png;base64,AAAA"
	history := []chat.Message{
		chat.NewImageMessage(url),
		chat.NewTextMessage(chat.RoleUser, "what is this?"),
		chat.NewTextMessage(chat.RoleAssistant, "a screenshot"),
	}
	msgs := toAPIMessages(history)

	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}

	img := msgs[0]
	if img.Content != "" {
		t.Fatal("image message must not carry plain content")
	}
	if len(img.MultiContent) != 1 {
		t.Fatalf("expected 1 content part, got %d", len(img.MultiContent))
	}
	part := img.MultiContent[0]
	if part.Type != openai.ChatMessagePartTypeImageURL || part.ImageURL == nil || part.ImageURL.URL != url {
		t.Fatalf("unexpected image part %+v", part)
	}

	if msgs[2].Role != chat.RoleAssistant || msgs[2].Content != "a screenshot" {
		t.Fatalf("unexpected assistant message %+v", msgs[2])
	}
}

func TestToAPIMessagesMixedParts(t *testing.T) {
	m := chat.Message{
		ID:   "x",
		Role: chat.RoleUser,
		Parts: []chat.Part{
			chat.TextPart("look at this"),
			chat.ImagePart("data:image/png;base64,BBBB"),
		},
	}
	msgs := toAPIMessages([]chat.Message{m})
	if len(msgs[0].MultiContent) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(msgs[0].MultiContent))
	}
	if msgs[0].MultiContent[0].Type != openai.ChatMessagePartTypeText {
		t.Fatal("text part must come through first")
	}
}
