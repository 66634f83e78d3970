// internal/events/events.go
//
// Parses the structured event streams emitted by the two agent CLIs.
// The maker (claude) emits stream-json events; the critic (codex) emits
// JSONL events. Each line is parsed independently; lines that are not
// valid JSON are skipped by the caller, never fatal.

package events

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Dialect selects which structured-event format a line is parsed as.
type Dialect int

const (
	// DialectMaker is the claude stream-json format.
	DialectMaker Dialect = iota
	// DialectCritic is the codex exec --json JSONL format.
	DialectCritic
)

func (d Dialect) String() string {
	if d == DialectCritic {
		return "critic"
	}
	return "maker"
}

// ItemKind classifies one extracted piece of a message.
type ItemKind int

const (
	// ItemText is assistant text (maker) or a final agent message (critic).
	ItemText ItemKind = iota
	// ItemReasoning is critic chain-of-thought text.
	ItemReasoning
	// ItemToolUse marks the start of a maker tool invocation.
	ItemToolUse
	// ItemToolResult summarizes the outcome of a maker tool invocation.
	ItemToolResult
	// ItemCommand summarizes a critic shell command execution.
	ItemCommand
)

// Item is one extracted piece of an agent message. Text-bearing kinds
// (ItemText, ItemReasoning) contribute to the text relayed to the other
// agent; the remaining kinds exist for human-facing display only.
type Item struct {
	Kind     ItemKind
	Text     string // fragment text for ItemText / ItemReasoning
	Tool     string // tool name for ItemToolUse / ItemToolResult
	ToolID   string // ties an ItemToolResult back to its ItemToolUse
	Summary  string // result summary for ItemToolResult / ItemCommand
	Command  string // command line for ItemCommand
	ExitCode int    // exit code for ItemCommand
}

// Forwardable reports whether the item carries text that should be
// relayed to the other agent.
func (it Item) Forwardable() bool {
	return it.Kind == ItemText || it.Kind == ItemReasoning
}

// Extract parses one line of a child's output stream. It returns the
// extracted items and whether the line was valid structured data.
// Valid events with unrecognized discriminators yield (nil, true);
// lines that fail to parse yield (nil, false) and should be skipped.
func Extract(dialect Dialect, line string) ([]Item, bool) {
	if dialect == DialectCritic {
		return extractCritic(line)
	}
	return extractMaker(line)
}

// makerEvent is one claude stream-json line. The type field discriminates;
// unknown types are tolerated and ignored.
type makerEvent struct {
	Type    string        `json:"type"`
	Message *makerMessage `json:"message"`
}

type makerMessage struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

func extractMaker(line string) ([]Item, bool) {
	var ev makerEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return nil, false
	}
	switch ev.Type {
	case "assistant":
		if ev.Message == nil {
			return nil, true
		}
		var items []Item
		for _, block := range ev.Message.Content {
			switch block.Type {
			case "text":
				items = append(items, Item{Kind: ItemText, Text: block.Text})
			case "tool_use":
				items = append(items, Item{Kind: ItemToolUse, Tool: block.Name, ToolID: block.ID})
			}
		}
		return items, true
	case "user":
		if ev.Message == nil {
			return nil, true
		}
		var items []Item
		for _, block := range ev.Message.Content {
			if block.Type != "tool_result" {
				continue
			}
			items = append(items, Item{
				Kind:    ItemToolResult,
				ToolID:  block.ToolUseID,
				Summary: SummarizeToolResult(block.Content),
			})
		}
		return items, true
	default:
		// result, system and anything claude adds later.
		return nil, true
	}
}

// criticEvent is one codex JSONL line. Only item.completed events carry
// content we care about.
type criticEvent struct {
	Type string      `json:"type"`
	Item *criticItem `json:"item"`
}

type criticItem struct {
	Type     string  `json:"type"`
	Text     *string `json:"text"`
	Command  *string `json:"command"`
	ExitCode *int    `json:"exit_code"`
	Output   *string `json:"output"`
}

func extractCritic(line string) ([]Item, bool) {
	var ev criticEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return nil, false
	}
	if ev.Type != "item.completed" || ev.Item == nil {
		return nil, true
	}
	switch ev.Item.Type {
	case "reasoning":
		if text := deref(ev.Item.Text); text != "" {
			return []Item{{Kind: ItemReasoning, Text: text}}, true
		}
		return nil, true
	case "agent_message":
		if text := deref(ev.Item.Text); text != "" {
			return []Item{{Kind: ItemText, Text: text}}, true
		}
		return nil, true
	case "command_execution":
		command := deref(ev.Item.Command)
		if command == "" {
			return nil, true
		}
		exitCode := 0
		if ev.Item.ExitCode != nil {
			exitCode = *ev.Item.ExitCode
		}
		return []Item{{
			Kind:     ItemCommand,
			Command:  command,
			ExitCode: exitCode,
			Summary:  SummarizeCommandOutput(ev.Item.Output),
		}}, true
	default:
		return nil, true
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SummarizeToolResult renders a compact one-line summary of a maker tool
// result for display. Content may be a plain string, an array of content
// blocks, or any other JSON value.
func SummarizeToolResult(content json.RawMessage) string {
	if len(content) == 0 || string(content) == "null" {
		return "done"
	}

	var asString string
	if err := json.Unmarshal(content, &asString); err == nil {
		return summarizeText(asString, 100)
	}

	var asArray []map[string]any
	if err := json.Unmarshal(content, &asArray); err == nil {
		var textParts []string
		for _, obj := range asArray {
			if t, _ := obj["type"].(string); t != "text" {
				continue
			}
			if text, ok := obj["text"].(string); ok {
				textParts = append(textParts, text)
			}
		}
		if len(textParts) > 0 {
			return summarizeText(strings.Join(textParts, " "), 100)
		}
		return fmt.Sprintf("%d items", len(asArray))
	}

	return TruncateLine(string(content), 50)
}

// SummarizeCommandOutput renders a compact summary of critic command
// output for display. Missing or empty output yields an empty string.
func SummarizeCommandOutput(output *string) string {
	if output == nil || *output == "" {
		return ""
	}
	return summarizeText(*output, 100)
}

// summarizeText shows short content verbatim and collapses anything
// longer than three lines to a line count.
func summarizeText(s string, maxChars int) string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines) <= 3 {
		return TruncateLine(s, maxChars)
	}
	return fmt.Sprintf("%d lines", len(lines))
}

// TruncateLine caps a display line at maxChars characters, appending
// "..." when anything was cut. Counts runes, not bytes.
func TruncateLine(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + "..."
}
