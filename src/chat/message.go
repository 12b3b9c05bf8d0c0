package chat

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// PartKind tags a message part.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// Part is one element of a message body: either text or a self-contained
// image data reference.
type Part struct {
	Kind PartKind `json:"kind"`
	Text string   `json:"text,omitempty"`
	URL  string   `json:"url,omitempty"`
}

func TextPart(text string) Part { return Part{Kind: PartText, Text: text} }

func ImagePart(url string) Part { return Part{Kind: PartImage, URL: url} }

// Message is one conversation entry. The ID is assigned at creation and
// never reused; parts are never mutated after construction.
type Message struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Text concatenates the message's text parts.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Kind == PartText {
			out += p.Text
		}
	}
	return out
}

// HasImage reports whether any part carries an image reference.
func (m Message) HasImage() bool {
	for _, p := range m.Parts {
		if p.Kind == PartImage {
			return true
		}
	}
	return false
}

// NewImageMessage builds a user message with an empty text body and exactly
// one image part referencing url.
func NewImageMessage(url string) Message {
	return Message{
		ID:    newID(),
		Role:  RoleUser,
		Parts: []Part{ImagePart(url)},
	}
}

// NewTextMessage builds a message with a single text part.
func NewTextMessage(role, text string) Message {
	return Message{
		ID:    newID(),
		Role:  role,
		Parts: []Part{TextPart(text)},
	}
}

func newID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Conversation is an append-only ordered message list. Past messages are
// never mutated or removed.
type Conversation struct {
	id string

	mu       sync.Mutex
	messages []Message
}

func NewConversation() *Conversation {
	return &Conversation{id: uuid.NewString()}
}

func (c *Conversation) ID() string { return c.id }

// Append adds a message at the end of the conversation.
func (c *Conversation) Append(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

// Messages returns a snapshot copy of the ordered message list.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
