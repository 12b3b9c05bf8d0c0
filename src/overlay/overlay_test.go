package overlay

import "testing"

func TestLabelUTF16CountsCodeUnits(t *testing.T) {
	label := "123 × 45"
	buf, n := labelUTF16(label)

	// The multiplication sign is two UTF-8 bytes but one UTF-16 unit, so the
	// byte length would overshoot by one.
	if int(n) == len(label) {
		t.Fatalf("count %d must not equal the byte length", n)
	}
	if n != 8 {
		t.Fatalf("expected 8 code units, got %d", n)
	}
	if len(buf) != int(n)+1 || buf[n] != 0 {
		t.Fatalf("buffer must be NUL-terminated, got len %d last %d", len(buf), buf[len(buf)-1])
	}
	if buf[4] != 0x00D7 {
		t.Fatalf("expected multiplication sign at unit 4, got %#x", buf[4])
	}
}

func TestLabelUTF16ASCII(t *testing.T) {
	buf, n := labelUTF16("ESC cancels")
	if n != 11 || len(buf) != 12 {
		t.Fatalf("unexpected encoding: count %d, buffer %d", n, len(buf))
	}
}
