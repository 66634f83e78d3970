package logbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSectionAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "relay.log")
	lb, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	lb.Section("maker prompt (turn 0)", "fix bug")
	lb.Section("maker response (turn 0)", "patched X")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "=== maker prompt (turn 0) [") {
		t.Fatalf("missing prompt section: %s", content)
	}
	if !strings.Contains(content, "fix bug") || !strings.Contains(content, "patched X") {
		t.Fatalf("missing content: %s", content)
	}
	if strings.Index(content, "fix bug") > strings.Index(content, "patched X") {
		t.Fatalf("sections out of order: %s", content)
	}
}

func TestTailReturnsRecentLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.log")
	lb, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		lb.Section("turn", strings.Repeat("x", i+1))
	}
	tail := lb.Tail(3)
	if len(tail) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(tail))
	}

	if got := lb.Tail(0); got != nil {
		t.Fatalf("expected nil for zero maxLines, got %v", got)
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var lb *Logbook
	lb.Section("label", "content")
	if lb.Tail(10) != nil {
		t.Fatal("nil logbook should return no lines")
	}
	if lb.Path() != "" {
		t.Fatal("nil logbook should have empty path")
	}
}
