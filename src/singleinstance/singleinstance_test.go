package singleinstance

import (
	"context"
	"testing"
	"time"
)

func TestServerClientRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback port unavailable in this environment: %v", err)
	}
	defer srv.Close()

	// client delegates stdout request with a prompt
	client := NewClient()
	delegatedCh := make(chan struct{})
	go func() {
		defer close(delegatedCh)
		delegated, text, err := client.TryRunOnce(ctx, Request{OutputToStdout: true, Prompt: "what is this?"})
		if err != nil {
			t.Errorf("client: %v", err)
		}
		if !delegated {
			t.Errorf("expected delegation")
		}
		if text != "a reply" {
			t.Errorf("expected reply text, got %q", text)
		}
	}()

	// server accept and respond
	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	req := conn.Request()
	if !req.OutputToStdout {
		t.Errorf("expected stdout request")
	}
	if req.Prompt != "what is this?" {
		t.Errorf("prompt did not survive the wire, got %q", req.Prompt)
	}
	if err := conn.RespondSuccess("a reply"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	_ = conn.Close()
	<-delegatedCh
}

func TestPingTimeoutFromEnv(t *testing.T) {
	t.Setenv("SINGLEINSTANCE_PING_TIMEOUT_MS", "")
	if got := getPingTimeout(); got != defaultPingTimeout {
		t.Errorf("default timeout = %v, want %v", got, defaultPingTimeout)
	}

	t.Setenv("SINGLEINSTANCE_PING_TIMEOUT_MS", "750")
	if got := getPingTimeout(); got != 750*time.Millisecond {
		t.Errorf("timeout = %v, want 750ms", got)
	}

	// out-of-range values clamp instead of stalling the startup scan
	t.Setenv("SINGLEINSTANCE_PING_TIMEOUT_MS", "1")
	if got := getPingTimeout(); got != 10*time.Millisecond {
		t.Errorf("timeout = %v, want 10ms floor", got)
	}
	t.Setenv("SINGLEINSTANCE_PING_TIMEOUT_MS", "60000")
	if got := getPingTimeout(); got != 5*time.Second {
		t.Errorf("timeout = %v, want 5s ceiling", got)
	}

	t.Setenv("SINGLEINSTANCE_PING_TIMEOUT_MS", "bogus")
	if got := getPingTimeout(); got != defaultPingTimeout {
		t.Errorf("invalid value must fall back, got %v", got)
	}
}

func TestClientStripsPromptNewlines(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback port unavailable in this environment: %v", err)
	}
	defer srv.Close()

	client := NewClient()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = client.TryRunOnce(ctx, Request{Prompt: "line one\nline two"})
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := conn.Request().Prompt; got != "line one line two" {
		t.Errorf("embedded newline must be flattened, got %q", got)
	}
	_ = conn.RespondSuccess("")
	_ = conn.Close()
	<-done
}
