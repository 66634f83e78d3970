// internal/logbook/logbook.go
//
// The logbook persists the relay transcript (prompts and responses) to a
// plain text file for post-hoc debugging, enabled with --log-file.

package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logbook appends labeled transcript sections to a single file.
type Logbook struct {
	path string
	mu   sync.Mutex
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Logbook{path: path}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Section appends one labeled block of content. Write failures are
// swallowed: transcript logging must never interfere with the relay.
func (l *Logbook) Section(label, content string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	timestamp := time.Now().UTC().Format(time.RFC3339)
	fmt.Fprintf(file, "\n=== %s [%s] ===\n%s\n", label, timestamp, content)
}

// Tail returns up to maxLines of the most recent transcript lines.
func (l *Logbook) Tail(maxLines int) []string {
	if l == nil || maxLines <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}
