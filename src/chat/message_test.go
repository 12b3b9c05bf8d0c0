package chat

import (
	"testing"
)

func TestNewImageMessageShape(t *testing.T) {
	m := NewImageMessage("data:image/png;base64,AAAA")

	if m.ID == "" {
		t.Fatal("message must get a fresh id")
	}
	if m.Role != RoleUser {
		t.Fatalf("expected role %q, got %q", RoleUser, m.Role)
	}
	if len(m.Parts) != 1 {
		t.Fatalf("expected exactly one part, got %d", len(m.Parts))
	}
	if m.Parts[0].Kind != PartImage || m.Parts[0].URL != "data:image/png;base64,AAAA" {
		t.Fatalf("unexpected image part: %+v", m.Parts[0])
	}
	if m.Text() != "" {
		t.Fatalf("image message should have an empty text body, got %q", m.Text())
	}
	if !m.HasImage() {
		t.Fatal("HasImage should report true")
	}
}

func TestMessageIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		m := NewTextMessage(RoleUser, "hi")
		if seen[m.ID] {
			t.Fatalf("duplicate id %s after %d messages", m.ID, i)
		}
		seen[m.ID] = true
	}
}

func TestConversationAppendOnly(t *testing.T) {
	c := NewConversation()
	if c.ID() == "" {
		t.Fatal("conversation needs an identity")
	}

	first := NewTextMessage(RoleUser, "hello")
	c.Append(first)
	c.Append(NewImageMessage("data:image/png;base64,BBBB"))

	if c.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", c.Len())
	}

	snapshot := c.Messages()
	snapshot[0] = NewTextMessage(RoleSystem, "tampered")

	if got := c.Messages()[0]; got.ID != first.ID || got.Text() != "hello" {
		t.Fatal("mutating a snapshot must not affect the conversation")
	}
}

func TestConversationOrderPreserved(t *testing.T) {
	c := NewConversation()
	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		m := NewTextMessage(RoleUser, "msg")
		ids = append(ids, m.ID)
		c.Append(m)
	}
	for i, m := range c.Messages() {
		if m.ID != ids[i] {
			t.Fatalf("message order broken at %d", i)
		}
	}
}
