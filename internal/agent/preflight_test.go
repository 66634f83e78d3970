package agent

import (
	"path/filepath"
	"testing"

	"github.com/rsdouglas/leonard/internal/config"
)

func preflightConfig(t *testing.T, makerCmd, criticCmd string) *config.Config {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg.Project.Maker.Command = makerCmd
	cfg.Project.Critic.Command = criticCmd
	return cfg
}

func TestPreflightPassesWithRealBinaries(t *testing.T) {
	// sh is a stand-in for the agent CLIs; any executable on PATH that
	// accepts --version (even by failing) satisfies the probe.
	cfg := preflightConfig(t, "sh", "sh")
	if _, err := Preflight(cfg); err != nil {
		t.Fatal(err)
	}
}

func TestPreflightRejectsMissingBinary(t *testing.T) {
	cfg := preflightConfig(t, "definitely-not-a-real-binary-4321", "sh")
	if _, err := Preflight(cfg); err == nil {
		t.Fatal("expected error for missing maker binary")
	}

	cfg = preflightConfig(t, "sh", "definitely-not-a-real-binary-4321")
	if _, err := Preflight(cfg); err == nil {
		t.Fatal("expected error for missing critic binary")
	}
}

func TestPreflightRejectsBadWorkingDirectory(t *testing.T) {
	cfg := preflightConfig(t, "sh", "sh")
	cfg.ProjectDir = filepath.Join(cfg.ProjectDir, "does-not-exist")
	if _, err := Preflight(cfg); err == nil {
		t.Fatal("expected error for missing working directory")
	}
}

func TestPreflightWarnsAboutMissingKeys(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "set")

	cfg := preflightConfig(t, "sh", "sh")
	warnings, err := Preflight(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings: %v", warnings)
	}
}
