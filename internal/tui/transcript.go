// internal/tui/transcript.go
//
// Renders the running relay as a scrollable transcript. Each agent
// invocation contributes a turn header followed by the items extracted
// from its stream.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rsdouglas/leonard/internal/events"
	"github.com/rsdouglas/leonard/internal/relay"
)

var (
	makerHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	criticHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	toolStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	reasoningStyle    = lipgloss.NewStyle().Faint(true)
	commandStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	anomalyStyle      = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("1"))
)

// Transcript accumulates display lines for the viewport.
type Transcript struct {
	lines []string
}

// TurnStarted appends a header for one agent invocation.
func (t *Transcript) TurnStarted(role relay.Role, turn int) {
	header := fmt.Sprintf("=== %s (turn %d) ===", strings.ToUpper(string(role)), turn)
	style := makerHeaderStyle
	if role == relay.RoleCritic {
		style = criticHeaderStyle
	}
	if len(t.lines) > 0 {
		t.lines = append(t.lines, "")
	}
	t.lines = append(t.lines, style.Render(header))
}

// Item appends the rendering of one extracted stream item.
func (t *Transcript) Item(item events.Item) {
	switch item.Kind {
	case events.ItemText:
		for _, line := range strings.Split(strings.TrimRight(item.Text, "\n"), "\n") {
			t.lines = append(t.lines, line)
		}
	case events.ItemReasoning:
		t.lines = append(t.lines, reasoningStyle.Render("  thinking: "+events.TruncateLine(flatten(item.Text), 100)))
	case events.ItemToolUse:
		t.lines = append(t.lines, toolStyle.Render("  [tool] "+item.Tool))
	case events.ItemToolResult:
		t.lines = append(t.lines, toolStyle.Render("  [tool] "+item.Summary))
	case events.ItemCommand:
		line := fmt.Sprintf("  [exit %d] %s", item.ExitCode, events.TruncateLine(item.Command, 60))
		if item.Summary != "" {
			line += " -> " + item.Summary
		}
		t.lines = append(t.lines, commandStyle.Render(line))
	}
}

// Anomaly appends an unparsable child stdout line, dimmed.
func (t *Transcript) Anomaly(line string) {
	t.lines = append(t.lines, anomalyStyle.Render("  ? "+events.TruncateLine(line, 100)))
}

// Note appends a plain status line.
func (t *Transcript) Note(text string) {
	t.lines = append(t.lines, text)
}

// Render joins the transcript for the viewport.
func (t *Transcript) Render() string {
	return strings.Join(t.lines, "\n")
}

// Len returns the number of rendered lines.
func (t *Transcript) Len() int {
	return len(t.lines)
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
