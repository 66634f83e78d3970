// internal/relay/collector.go
//
// Accumulates the text an agent produced during one invocation. Each
// stdout line is parsed as a structured event; text-bearing items are
// concatenated verbatim into the collected output, everything else is
// surfaced to observers for display.

package relay

import (
	"bufio"
	"io"
	"strings"

	"github.com/rsdouglas/leonard/internal/events"
)

// Agent CLIs emit one JSON event per line; a single event can embed a
// whole file's contents, so the default scanner buffer is far too small.
const maxScanBuffer = 4 * 1024 * 1024

// Collector folds one invocation's stdout stream into the text to relay.
// Not safe for concurrent use; each invocation gets its own collector.
type Collector struct {
	dialect   events.Dialect
	onItem    func(events.Item)
	onAnomaly func(line string)
	out       strings.Builder
}

// NewCollector builds a collector for one agent invocation. onItem and
// onAnomaly may be nil; onAnomaly receives raw lines that were not valid
// structured events.
func NewCollector(dialect events.Dialect, onItem func(events.Item), onAnomaly func(line string)) *Collector {
	return &Collector{dialect: dialect, onItem: onItem, onAnomaly: onAnomaly}
}

// Line consumes a single stdout line. Lines that fail to parse are
// reported and skipped; a noisy child must never abort the relay.
func (c *Collector) Line(line string) {
	items, ok := events.Extract(c.dialect, line)
	if !ok {
		if c.onAnomaly != nil && strings.TrimSpace(line) != "" {
			c.onAnomaly(line)
		}
		return
	}
	for _, item := range items {
		if item.Forwardable() {
			c.out.WriteString(item.Text)
		}
		if c.onItem != nil {
			c.onItem(item)
		}
	}
}

// Consume scans r to EOF, feeding every line through Line.
func (c *Collector) Consume(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxScanBuffer)
	for scanner.Scan() {
		c.Line(scanner.Text())
	}
	return scanner.Err()
}

// Output returns the concatenated forwardable text collected so far.
func (c *Collector) Output() string {
	return c.out.String()
}
