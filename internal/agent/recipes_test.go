package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rsdouglas/leonard/internal/config"
	"github.com/rsdouglas/leonard/internal/relay"
)

func testRecipes() *Recipes {
	return &Recipes{
		Dir:     "/work",
		Task:    "build the thing",
		Context: "legacy constraints",
		Maker: config.AgentRecipe{
			Command:      "claude",
			Args:         []string{"-p", "--output-format", "stream-json"},
			ContinueArgs: []string{"-p", "--output-format", "stream-json", "--continue"},
		},
		Critic: config.AgentRecipe{
			Command:      "codex",
			Args:         []string{"exec", "--json"},
			ContinueArgs: []string{"exec", "resume", "--last", "--json"},
			Env:          map[string]string{"B": "2", "A": "1"},
		},
	}
}

func TestBuildMakerFirstInvocation(t *testing.T) {
	inv := testRecipes().Build(relay.RoleMaker, "build the thing", 0, false)

	if inv.Command != "claude" || inv.Tag != "maker" || inv.Dir != "/work" {
		t.Fatalf("invocation: %+v", inv)
	}
	prompt := inv.Args[len(inv.Args)-1]
	if !strings.Contains(prompt, "## Task\nbuild the thing") || !strings.Contains(prompt, "## Context\nlegacy constraints") {
		t.Fatalf("prompt not framed: %q", prompt)
	}
	if inv.Prompt != prompt {
		t.Fatalf("Prompt field must match the argv prompt: %q vs %q", inv.Prompt, prompt)
	}
	if contains(inv.Args, "--continue") {
		t.Fatalf("first call must not continue: %v", inv.Args)
	}
}

func TestBuildMakerContinuationForwardsVerbatim(t *testing.T) {
	inv := testRecipes().Build(relay.RoleMaker, "critic feedback here", 1, true)

	if !contains(inv.Args, "--continue") {
		t.Fatalf("continuation args missing: %v", inv.Args)
	}
	if got := inv.Args[len(inv.Args)-1]; got != "critic feedback here" {
		t.Fatalf("follow-up prompt must be verbatim, got %q", got)
	}
}

func TestBuildMakerResumedFirstTurnKeepsFraming(t *testing.T) {
	inv := testRecipes().Build(relay.RoleMaker, "build the thing", 0, true)

	if !contains(inv.Args, "--continue") {
		t.Fatalf("resumed first call should continue: %v", inv.Args)
	}
	if !strings.Contains(inv.Args[len(inv.Args)-1], "## Task\nbuild the thing") {
		t.Fatalf("turn-zero prompt must stay framed: %q", inv.Args[len(inv.Args)-1])
	}
}

func TestBuildCriticInvocations(t *testing.T) {
	r := testRecipes()

	first := r.Build(relay.RoleCritic, "maker output", 0, false)
	if first.Command != "codex" || contains(first.Args, "resume") {
		t.Fatalf("first critic call: %+v", first)
	}
	prompt := first.Args[len(first.Args)-1]
	if !strings.HasPrefix(prompt, "ROLE: Helpful Peer") || !strings.Contains(prompt, "## Original Task\nbuild the thing") {
		t.Fatalf("prompt: %q", prompt)
	}
	if first.Prompt != prompt {
		t.Fatalf("Prompt field must match the argv prompt: %q vs %q", first.Prompt, prompt)
	}

	resumed := r.Build(relay.RoleCritic, "maker output 2", 1, true)
	if !contains(resumed.Args, "resume") {
		t.Fatalf("resume args missing: %v", resumed.Args)
	}
	if !strings.Contains(resumed.Args[len(resumed.Args)-1], "The maker has responded:") {
		t.Fatalf("prompt: %q", resumed.Args[len(resumed.Args)-1])
	}
}

func TestBuildEnvIsStable(t *testing.T) {
	inv := testRecipes().Build(relay.RoleCritic, "x", 0, false)
	want := []string{"A=1", "B=2"}
	if len(inv.Env) != 2 || inv.Env[0] != want[0] || inv.Env[1] != want[1] {
		t.Fatalf("env: %v", inv.Env)
	}
}

func TestBuildWithoutContinueArgsReusesArgs(t *testing.T) {
	r := testRecipes()
	r.Maker.ContinueArgs = nil
	inv := r.Build(relay.RoleMaker, "feedback", 1, true)
	if got := inv.Args[:len(inv.Args)-1]; len(got) != 3 || got[0] != "-p" {
		t.Fatalf("args: %v", inv.Args)
	}
}

func TestLoadContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ContextFile)

	got, err := LoadContext(path)
	if err != nil || got != "" {
		t.Fatalf("missing file: %q, %v", got, err)
	}

	if err := os.WriteFile(path, []byte("  notes about the project\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = LoadContext(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "notes about the project" {
		t.Fatalf("got %q", got)
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
