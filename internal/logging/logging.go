// internal/logging/logging.go
//
// Timestamped, role-tagged diagnostics. Lifecycle messages (spawn, exit,
// interrupt, parse anomalies) go to stderr so the primary stream stays
// reserved for relayed agent text.

package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Logger writes one diagnostic line per call in the form
// "2006-01-02T15:04:05Z [tag] message".
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// New creates a logger writing to w, typically os.Stderr.
func New(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// Printf writes a single tagged line. A nil logger discards everything.
func (l *Logger) Printf(tag, format string, args ...any) {
	if l == nil || l.w == nil {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s [%s] %s\n", l.now().Format(time.RFC3339), tag, msg)
}
