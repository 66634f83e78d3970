// internal/tui/app.go
//
// Interactive front end for the relay. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The engine runs in its own goroutine and feeds the UI through a
// message channel; the UI never blocks on a child process.

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rsdouglas/leonard/internal/agent"
	"github.com/rsdouglas/leonard/internal/config"
	"github.com/rsdouglas/leonard/internal/events"
	"github.com/rsdouglas/leonard/internal/logbook"
	"github.com/rsdouglas/leonard/internal/relay"
)

// appState represents which "screen" we're on
type appState int

const (
	stateTaskEntry appState = iota // Waiting for the user to type a task
	stateRunning                   // Relay loop in progress
	stateDone                      // Loop finished its turn bound
	stateFailed                    // A child failed or the run was interrupted
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	statusStyle = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

type turnStartedMsg struct {
	role relay.Role
	turn int
}

type itemMsg struct {
	item events.Item
}

type anomalyMsg struct {
	line string
}

type relayDoneMsg struct {
	err error
}

// App is the main application model.
type App struct {
	cfg       *config.Config
	engineCfg relay.Config
	lb        *logbook.Logbook

	task        string
	contextText string

	state      appState
	input      textarea.Model
	view       viewport.Model
	spin       spinner.Model
	transcript Transcript

	engine  *relay.Engine
	parent  context.Context
	cancel  context.CancelFunc
	eventCh chan tea.Msg
	runErr  error

	width, height int
	ready         bool
}

// NewApp creates the TUI model. An empty task opens the task editor
// first; otherwise the relay starts immediately.
func NewApp(cfg *config.Config, engineCfg relay.Config, task string, lb *logbook.Logbook) (*App, error) {
	contextText, err := agent.LoadContext(cfg.ContextFilePath())
	if err != nil {
		return nil, err
	}

	input := textarea.New()
	input.Placeholder = "Describe the task for the maker..."
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	app := &App{
		cfg:         cfg,
		engineCfg:   engineCfg,
		lb:          lb,
		task:        strings.TrimSpace(task),
		contextText: contextText,
		state:       stateTaskEntry,
		input:       input,
		spin:        sp,
		parent:      context.Background(),
		eventCh:     make(chan tea.Msg, 64),
	}
	if app.task != "" {
		app.state = stateRunning
	}
	return app, nil
}

// Err returns the engine's final error after the program exits.
func (a *App) Err() error {
	return a.runErr
}

func (a *App) Init() tea.Cmd {
	if a.state == stateRunning {
		return tea.Batch(a.startRelay(), a.spin.Tick)
	}
	return textarea.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		bodyHeight := msg.Height - 4
		if bodyHeight < 1 {
			bodyHeight = 1
		}
		if !a.ready {
			a.view = viewport.New(msg.Width, bodyHeight)
			a.view.SetContent(a.transcript.Render())
			a.ready = true
		} else {
			a.view.Width = msg.Width
			a.view.Height = bodyHeight
		}
		a.input.SetWidth(msg.Width - 2)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case turnStartedMsg:
		a.transcript.TurnStarted(msg.role, msg.turn)
		a.syncViewport()
		return a, a.waitForEvent()

	case itemMsg:
		a.transcript.Item(msg.item)
		a.syncViewport()
		return a, a.waitForEvent()

	case anomalyMsg:
		a.transcript.Anomaly(msg.line)
		a.syncViewport()
		return a, a.waitForEvent()

	case relayDoneMsg:
		a.runErr = msg.err
		if msg.err != nil {
			a.state = stateFailed
			a.transcript.Note(errStyle.Render("relay stopped: " + msg.err.Error()))
		} else {
			a.state = stateDone
			a.transcript.Note(statusStyle.Render(fmt.Sprintf("relay complete after %d turns", a.engine.State().Turn)))
		}
		a.syncViewport()
		return a, nil
	}

	if a.state == stateTaskEntry {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	var cmd tea.Cmd
	a.view, cmd = a.view.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.state {
	case stateTaskEntry:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "enter":
			task := strings.TrimSpace(a.input.Value())
			if task == "" {
				return a, nil
			}
			a.task = task
			a.state = stateRunning
			return a, tea.Batch(a.startRelay(), a.spin.Tick)
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case stateRunning:
		switch msg.String() {
		case "ctrl+c", "q":
			// Kill the active child; the engine reports the
			// interrupt through relayDoneMsg.
			if a.cancel != nil {
				a.cancel()
			}
			if a.engine != nil {
				a.engine.Terminate()
			}
			return a, nil
		}

	default:
		switch msg.String() {
		case "ctrl+c", "q", "enter", "esc":
			return a, tea.Quit
		}
	}
	var cmd tea.Cmd
	a.view, cmd = a.view.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	title := titleStyle.Render("leonard · maker/critic relay")

	switch a.state {
	case stateTaskEntry:
		return fmt.Sprintf("%s\n\n%s\n\n%s", title, a.input.View(),
			statusStyle.Render("enter to start · esc to quit"))
	case stateRunning:
		status := fmt.Sprintf("%s turn %d · q to interrupt", a.spin.View(), a.engine.State().Turn)
		return fmt.Sprintf("%s\n%s\n%s", title, a.view.View(), statusStyle.Render(status))
	case stateFailed:
		return fmt.Sprintf("%s\n%s\n%s", title, a.view.View(),
			errStyle.Render("stopped · press q to exit"))
	default:
		return fmt.Sprintf("%s\n%s\n%s", title, a.view.View(),
			statusStyle.Render("done · press q to exit"))
	}
}

func (a *App) syncViewport() {
	if !a.ready {
		return
	}
	a.view.SetContent(a.transcript.Render())
	a.view.GotoBottom()
}

// startRelay spawns the engine goroutine and begins draining its events.
// The relay context descends from the program's signal context, so a
// SIGTERM to the supervisor still tears down the running child.
func (a *App) startRelay() tea.Cmd {
	ctx, cancel := context.WithCancel(a.parent)
	a.cancel = cancel

	recipes := &agent.Recipes{
		Dir:     a.cfg.ProjectDir,
		Task:    a.task,
		Context: a.contextText,
		Maker:   a.cfg.Project.Maker,
		Critic:  a.cfg.Project.Critic,
	}
	hooks := relay.Hooks{
		TurnStarted: func(role relay.Role, turn int, prompt string) {
			a.lb.Section(fmt.Sprintf("%s prompt (turn %d)", role, turn), prompt)
			a.eventCh <- turnStartedMsg{role: role, turn: turn}
		},
		Item: func(role relay.Role, turn int, item events.Item) {
			a.eventCh <- itemMsg{item: item}
		},
		Anomaly: func(role relay.Role, turn int, line string) {
			a.eventCh <- anomalyMsg{line: line}
		},
		TurnEnded: func(role relay.Role, turn int, output string) {
			a.lb.Section(fmt.Sprintf("%s response (turn %d)", role, turn), output)
		},
	}
	a.engine = relay.New(a.engineCfg, recipes, hooks)

	go func() {
		err := a.engine.Run(ctx, a.task)
		cancel()
		a.eventCh <- relayDoneMsg{err: err}
	}()
	return a.waitForEvent()
}

func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-a.eventCh
	}
}

// Run drives the program to completion and reports how the relay ended.
// Cancelling ctx (interrupt signal) stops both the program and any
// running child.
func Run(ctx context.Context, app *App) error {
	app.parent = ctx
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return relay.ErrInterrupted
		}
		return err
	}
	return app.runErr
}
