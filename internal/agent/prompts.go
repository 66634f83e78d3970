// internal/agent/prompts.go
//
// Frames the raw relayed text into the prompts each agent actually
// receives. The maker gets the task plus any project context; the critic
// gets a reviewing-peer role framing on its first call and the maker's
// latest response on every call after that.

package agent

import (
	"fmt"
	"strings"
)

const makerPreamble = "Explain your plan first, so your peer can help identify blindspots, " +
	"then build it with your peer's feedback."

const criticRoleFraming = `ROLE: Helpful Peer
You are acting as a helpful peer. Your job is to evaluate the maker's work for the task below.
Do not offer to do things. Discuss, comment, and guide the maker.
Your job is not to block the maker, but to help them make progress and point out things they may have missed.
Progress is the goal, not perfection. We work iteratively, so we can improve incrementally.

`

// BuildMakerPrompt frames the initial maker prompt from the task and
// optional project context.
func BuildMakerPrompt(task, context string) string {
	parts := []string{makerPreamble}
	if task != "" {
		parts = append(parts, "## Task\n"+task)
	}
	if context != "" {
		parts = append(parts, "## Context\n"+context)
	}
	return strings.Join(parts, "\n\n")
}

// BuildCriticPrompt frames the maker's output for the critic. The first
// call establishes the critic's role; continuations just present the
// maker's latest response for review.
func BuildCriticPrompt(task, context, makerOutput string, continuation bool) string {
	if continuation {
		return fmt.Sprintf("The maker has responded:\n\n---\n%s\n---\n\nReview this response.\n", makerOutput)
	}

	var b strings.Builder
	b.WriteString(criticRoleFraming)
	if task != "" {
		fmt.Fprintf(&b, "## Original Task\n%s\n\n", task)
	}
	if context != "" {
		fmt.Fprintf(&b, "## Context\n%s\n\n", context)
	}
	fmt.Fprintf(&b, "## Maker's Output\n\n---\n%s\n---\n", makerOutput)
	return b.String()
}
