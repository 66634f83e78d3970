// internal/agent/preflight.go
//
// Checks run before the first child is spawned, so a missing binary or
// bad working directory fails fast instead of mid-relay.

package agent

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rsdouglas/leonard/internal/config"
)

// Warning is a non-blocking preflight finding, surfaced but not fatal.
type Warning string

// Preflight validates that both agent CLIs are runnable and the working
// directory exists. API key checks only warn: either CLI may be
// authenticated through other means.
func Preflight(cfg *config.Config) ([]Warning, error) {
	if err := checkBinary(cfg.Project.Maker.Command); err != nil {
		return nil, fmt.Errorf("maker binary %q not found on PATH: %w", cfg.Project.Maker.Command, err)
	}
	if err := checkBinary(cfg.Project.Critic.Command); err != nil {
		return nil, fmt.Errorf("critic binary %q not found on PATH: %w", cfg.Project.Critic.Command, err)
	}

	info, err := os.Stat(cfg.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("invalid working directory %q: %w", cfg.ProjectDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("working directory %q is not a directory", cfg.ProjectDir)
	}

	var warnings []Warning
	for _, probe := range []struct{ key, role string }{
		{"ANTHROPIC_API_KEY", "maker"},
		{"OPENAI_API_KEY", "critic"},
	} {
		if os.Getenv(probe.key) == "" {
			warnings = append(warnings, Warning(fmt.Sprintf("%s is not set; the %s CLI must be authenticated another way", probe.key, probe.role)))
		}
	}
	return warnings, nil
}

// checkBinary runs a lightweight --version probe. The exit status does
// not matter, only that the binary could be found and executed.
func checkBinary(name string) error {
	err := exec.Command(name, "--version").Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
