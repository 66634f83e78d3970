// internal/relay/truncate.go
//
// Bounds the text relayed between agents to the forward byte budget.
// When output exceeds the budget the oldest text is dropped: the tail of
// an agent's output (conclusions, final answers) is worth more than the
// preamble.

package relay

import (
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// TruncationMarker prefixes any truncated payload so the receiving agent
// knows earlier text was dropped.
const TruncationMarker = "[...truncated...]\n"

// Truncate bounds text to maxBytes. Within budget the text is returned
// unchanged. Over budget, the marker plus the longest suffix that fits is
// returned; the cut lands on a character boundary so no multi-byte rune
// is ever split. The combined result never exceeds maxBytes, which also
// makes the function idempotent.
func Truncate(text string, maxBytes int) string {
	if maxBytes < 0 {
		maxBytes = 0
	}
	if len(text) <= maxBytes {
		return text
	}

	keep := maxBytes - len(TruncationMarker)
	if keep <= 0 {
		// Budget smaller than the marker itself. The marker is ASCII, so
		// cutting it at any byte is boundary-safe.
		return TruncationMarker[:maxBytes]
	}

	cut := len(text) - keep
	for cut < len(text) && !utf8.RuneStart(text[cut]) {
		cut++
	}
	return TruncationMarker + text[cut:]
}

// StripANSI removes ANSI escape sequences from text. Pure and stateless;
// applied to collected output before truncation when --strip-ansi is on.
func StripANSI(text string) string {
	return ansi.Strip(text)
}
