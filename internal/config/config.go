// internal/config/config.go
//
// This package handles configuration and the .leonard directory structure.
// Every project that uses Leonard gets a .leonard/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// LeonardDir is the name of the directory we create in each project
	LeonardDir = ".leonard"

	// ContextFile is the optional per-project context document injected
	// into the maker's first prompt.
	ContextFile = "leonard.md"

	defaultMaxTurns        = 10
	defaultMaxForwardBytes = 100_000
)

const defaultProjectConfigYAML = `# leonard project configuration
version: 1

# The maker writes code; the critic reviews it. Each entry names the CLI
# to run and the arguments for a fresh session. continue_args, when set,
# fully replaces args for follow-up calls in the same session.
maker:
  command: claude
  args:
    - -p
    - --verbose
    - --output-format
    - stream-json
    - --dangerously-skip-permissions
    - --permission-mode
    - acceptEdits
  continue_args:
    - -p
    - --verbose
    - --output-format
    - stream-json
    - --dangerously-skip-permissions
    - --permission-mode
    - acceptEdits
    - --continue

critic:
  command: codex
  args:
    - exec
    - --skip-git-repo-check
    - --sandbox
    - read-only
    - --json
  continue_args:
    - exec
    - --skip-git-repo-check
    - resume
    - --last
    - --json

defaults:
  max_turns: 10          # full maker/critic exchanges; 0 means unbounded
  max_forward_bytes: 100000
  strip_ansi: true
`

// AgentRecipe describes how to invoke one agent CLI. The prompt is
// always appended as the final argument.
type AgentRecipe struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	// ContinueArgs replaces Args entirely when continuing a session.
	// Empty means the agent has no session support; Args is reused.
	ContinueArgs []string `yaml:"continue_args,omitempty"`
	// Env entries are added to the child's environment.
	Env map[string]string `yaml:"env,omitempty"`
}

// Defaults captures the tunables that flags may override per run.
type Defaults struct {
	MaxTurns        *int  `yaml:"max_turns,omitempty"`
	MaxForwardBytes int   `yaml:"max_forward_bytes,omitempty"`
	StripANSI       *bool `yaml:"strip_ansi,omitempty"`
}

// ProjectConfig models .leonard/config.yaml.
type ProjectConfig struct {
	Version  int         `yaml:"version"`
	Maker    AgentRecipe `yaml:"maker"`
	Critic   AgentRecipe `yaml:"critic"`
	Defaults Defaults    `yaml:"defaults"`
}

// Config holds the runtime configuration for Leonard.
type Config struct {
	// ProjectDir is the working directory the agents operate in
	ProjectDir string

	// LeonardProjectDir is ProjectDir/.leonard
	LeonardProjectDir string

	Project ProjectConfig
}

// InitLeonardDir creates the .leonard directory structure in the given
// project directory and seeds config.yaml on first run.
//
// Structure created:
// .leonard/
// ├── logs/         <- Relay transcripts (--log-file default location)
// └── config.yaml   <- Agent recipes and defaults
func InitLeonardDir(projectDir string) error {
	leonardDir := filepath.Join(projectDir, LeonardDir)
	if err := os.MkdirAll(filepath.Join(leonardDir, "logs"), 0755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(leonardDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		LeonardProjectDir: filepath.Join(projectDir, LeonardDir),
		Project:           defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.LeonardProjectDir, "logs")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.LeonardProjectDir, "config.yaml")
}

// ContextFilePath returns the location of the optional project context
// document.
func (c *Config) ContextFilePath() string {
	return filepath.Join(c.ProjectDir, ContextFile)
}

// MaxTurns returns the configured exchange bound; zero means unbounded.
func (c *Config) MaxTurns() int {
	if c.Project.Defaults.MaxTurns != nil {
		return *c.Project.Defaults.MaxTurns
	}
	return defaultMaxTurns
}

// MaxForwardBytes returns the per-turn relay budget.
func (c *Config) MaxForwardBytes() int {
	if c.Project.Defaults.MaxForwardBytes > 0 {
		return c.Project.Defaults.MaxForwardBytes
	}
	return defaultMaxForwardBytes
}

// StripANSI reports whether relayed text is scrubbed of escape sequences.
func (c *Config) StripANSI() bool {
	if c.Project.Defaults.StripANSI != nil {
		return *c.Project.Defaults.StripANSI
	}
	return true
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{Version: 1}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Maker.Command == "" {
		pc.Maker = defaultMakerRecipe()
	}
	if pc.Critic.Command == "" {
		pc.Critic = defaultCriticRecipe()
	}
}

func defaultMakerRecipe() AgentRecipe {
	base := []string{
		"-p", "--verbose",
		"--output-format", "stream-json",
		"--dangerously-skip-permissions",
		"--permission-mode", "acceptEdits",
	}
	return AgentRecipe{
		Command:      "claude",
		Args:         base,
		ContinueArgs: append(append([]string{}, base...), "--continue"),
	}
}

func defaultCriticRecipe() AgentRecipe {
	return AgentRecipe{
		Command:      "codex",
		Args:         []string{"exec", "--skip-git-repo-check", "--sandbox", "read-only", "--json"},
		ContinueArgs: []string{"exec", "--skip-git-repo-check", "resume", "--last", "--json"},
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Maker.normalize()
	pc.Critic.normalize()
}

func (r *AgentRecipe) normalize() {
	r.Command = strings.TrimSpace(r.Command)
	for i := range r.Args {
		r.Args[i] = strings.TrimSpace(r.Args[i])
	}
	for i := range r.ContinueArgs {
		r.ContinueArgs[i] = strings.TrimSpace(r.ContinueArgs[i])
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Maker.Command == "" {
		return fmt.Errorf("maker.command is required")
	}
	if pc.Critic.Command == "" {
		return fmt.Errorf("critic.command is required")
	}
	if pc.Defaults.MaxTurns != nil && *pc.Defaults.MaxTurns < 0 {
		return fmt.Errorf("defaults.max_turns must be >= 0")
	}
	if pc.Defaults.MaxForwardBytes < 0 {
		return fmt.Errorf("defaults.max_forward_bytes must be >= 0")
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}
