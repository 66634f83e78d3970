// cmd/leonard/main.go
//
// Entry point for leonard, a supervisor that pairs two coding agent
// CLIs: a maker that writes code and a critic that reviews it, relaying
// each one's output to the other turn by turn.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rsdouglas/leonard/internal/agent"
	"github.com/rsdouglas/leonard/internal/config"
	"github.com/rsdouglas/leonard/internal/events"
	"github.com/rsdouglas/leonard/internal/logbook"
	"github.com/rsdouglas/leonard/internal/logging"
	"github.com/rsdouglas/leonard/internal/relay"
	"github.com/rsdouglas/leonard/internal/tui"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

var (
	makerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	criticStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

type options struct {
	cwd             string
	task            string
	maxTurns        int
	maxForwardBytes int
	stripANSI       bool
	resume          bool
	logFile         string
	interactive     bool
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	flag.StringVar(&opts.cwd, "cwd", ".", "working directory the agents operate in")
	flag.StringVar(&opts.task, "task", "", "task statement for the maker")
	flag.IntVar(&opts.maxTurns, "max-turns", 0, "full maker/critic exchanges before stopping (0 = unbounded)")
	flag.IntVar(&opts.maxForwardBytes, "max-forward-bytes", 0, "byte budget for text relayed between agents")
	flag.BoolVar(&opts.stripANSI, "strip-ansi", true, "strip terminal escape sequences from relayed text")
	flag.BoolVar(&opts.resume, "continue", false, "resume both agents' previous sessions on the first turn")
	flag.BoolVar(&opts.resume, "c", false, "shorthand for --continue")
	flag.StringVar(&opts.logFile, "log-file", "", "append the relay transcript to this file")
	flag.BoolVar(&opts.interactive, "interactive", false, "run the interactive TUI")
	flag.Parse()

	log := logging.New(os.Stderr)

	projectDir, err := filepath.Abs(opts.cwd)
	if err != nil {
		log.Printf("system", "resolve working directory: %v", err)
		return exitFailure
	}

	if err := config.InitLeonardDir(projectDir); err != nil {
		log.Printf("system", "init %s: %v", config.LeonardDir, err)
		return exitFailure
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		log.Printf("system", "%v", err)
		return exitFailure
	}

	engineCfg := engineConfig(cfg, &opts)

	warnings, err := agent.Preflight(cfg)
	if err != nil {
		log.Printf("system", "preflight: %v", err)
		return exitFailure
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+string(w)))
	}
	log.Printf("system", "preflight checks passed")

	var lb *logbook.Logbook
	if opts.logFile != "" {
		lb, err = logbook.New(opts.logFile)
		if err != nil {
			log.Printf("system", "open log file: %v", err)
			return exitFailure
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.interactive || opts.task == "" {
		app, err := tui.NewApp(cfg, engineCfg, opts.task, lb)
		if err != nil {
			log.Printf("system", "%v", err)
			return exitFailure
		}
		return exitCode(tui.Run(ctx, app))
	}

	return exitCode(runConsole(ctx, cfg, engineCfg, opts.task, lb, log))
}

// engineConfig merges config file defaults with explicit flag overrides.
func engineConfig(cfg *config.Config, opts *options) relay.Config {
	engineCfg := relay.Config{
		MaxTurns:        cfg.MaxTurns(),
		MaxForwardBytes: cfg.MaxForwardBytes(),
		StripANSI:       cfg.StripANSI(),
		Resume:          opts.resume,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-turns":
			engineCfg.MaxTurns = opts.maxTurns
		case "max-forward-bytes":
			engineCfg.MaxForwardBytes = opts.maxForwardBytes
		case "strip-ansi":
			engineCfg.StripANSI = opts.stripANSI
		}
	})
	return engineCfg
}

// runConsole drives one relay run with plain streaming output.
func runConsole(ctx context.Context, cfg *config.Config, engineCfg relay.Config, task string, lb *logbook.Logbook, log *logging.Logger) error {
	contextText, err := agent.LoadContext(cfg.ContextFilePath())
	if err != nil {
		return err
	}
	if contextText != "" {
		log.Printf("system", "loaded context from %s", cfg.ContextFilePath())
	}

	recipes := &agent.Recipes{
		Dir:     cfg.ProjectDir,
		Task:    task,
		Context: contextText,
		Maker:   cfg.Project.Maker,
		Critic:  cfg.Project.Critic,
	}

	hooks := relay.Hooks{
		TurnStarted: func(role relay.Role, turn int, prompt string) {
			header := fmt.Sprintf("=== %s (turn %d) ===", strings.ToUpper(string(role)), turn)
			style := makerStyle
			if role == relay.RoleCritic {
				style = criticStyle
			}
			fmt.Println(style.Render(header))
			fmt.Println(dimStyle.Render("prompt: " + events.TruncateLine(flattenPreview(prompt), 120)))
			lb.Section(fmt.Sprintf("%s prompt (turn %d)", role, turn), prompt)
			log.Printf(string(role), "turn %d started", turn)
		},
		Item: printItem,
		Anomaly: func(role relay.Role, turn int, line string) {
			log.Printf(string(role), "skipped unparsable line: %s", events.TruncateLine(line, 120))
		},
		TurnEnded: func(role relay.Role, turn int, output string) {
			lb.Section(fmt.Sprintf("%s response (turn %d)", role, turn), output)
			log.Printf(string(role), "turn %d complete (%d bytes)", turn, len(output))
		},
	}

	engine := relay.New(engineCfg, recipes, hooks)
	started := time.Now()
	err = engine.Run(ctx, task)
	elapsed := time.Since(started).Round(time.Second)

	switch {
	case errors.Is(err, relay.ErrInterrupted):
		log.Printf("system", "interrupted after %d turns (%s)", engine.State().Turn, elapsed)
	case err != nil:
		log.Printf("system", "relay failed: %v", err)
	default:
		log.Printf("system", "relay complete: %d turns (%s)", engine.State().Turn, elapsed)
	}
	if lb != nil {
		log.Printf("system", "transcript written to %s", lb.Path())
	}
	return err
}

func printItem(role relay.Role, turn int, item events.Item) {
	switch item.Kind {
	case events.ItemText:
		fmt.Println(strings.TrimRight(item.Text, "\n"))
	case events.ItemReasoning:
		fmt.Println(dimStyle.Render("  thinking: " + events.TruncateLine(flattenPreview(item.Text), 100)))
	case events.ItemToolUse:
		fmt.Println(dimStyle.Render("  [tool] " + item.Tool))
	case events.ItemToolResult:
		fmt.Println(dimStyle.Render("  [tool] " + item.Summary))
	case events.ItemCommand:
		line := fmt.Sprintf("  [exit %d] %s", item.ExitCode, events.TruncateLine(item.Command, 60))
		if item.Summary != "" {
			line += " -> " + item.Summary
		}
		fmt.Println(dimStyle.Render(line))
	}
}

func flattenPreview(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, relay.ErrInterrupted):
		return exitInterrupted
	default:
		return exitFailure
	}
}
