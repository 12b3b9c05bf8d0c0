package main

import (
	"os"
	"testing"
)

func TestSanitizeForLogging(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"line1\nline2", "line1\\nline2"},
		{"tab\there", "tab\\there"},
		{"ctrl\x01char", "ctrl?char"},
	}
	for _, c := range cases {
		if got := sanitizeForLogging(c.in); got != c.want {
			t.Errorf("sanitizeForLogging(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	if got := sanitizeForLogging(string(long)); len(got) != 103 {
		t.Errorf("long text must truncate to 100 chars plus ellipsis, got %d", len(got))
	}
}

func TestNormalizeFlagDashes(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()

	os.Args = []string{"screen-chat", "--run-once", "--prompt=what is this", "--run-once-std"}
	normalizeFlagDashes()

	want := []string{"screen-chat", "-run-once", "-prompt=what is this", "-run-once-std"}
	for i, w := range want {
		if os.Args[i] != w {
			t.Errorf("arg %d = %q, want %q", i, os.Args[i], w)
		}
	}
}
