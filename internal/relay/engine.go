// internal/relay/engine.go
//
// Drives the maker/critic loop: run the maker, relay its output to the
// critic, relay the critic's feedback back to the maker, repeat until
// the turn bound is reached or a child fails. Invocations are strictly
// sequential; at most one child runs at any moment.

package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/rsdouglas/leonard/internal/events"
)

// Role identifies which side of the relay an invocation belongs to.
type Role string

const (
	RoleMaker  Role = "maker"
	RoleCritic Role = "critic"
)

// Dialect returns the event format the role's CLI emits.
func (r Role) Dialect() events.Dialect {
	if r == RoleCritic {
		return events.DialectCritic
	}
	return events.DialectMaker
}

// Config tunes one relay run.
type Config struct {
	// MaxTurns bounds the number of full maker/critic exchanges.
	// Zero means unbounded.
	MaxTurns int
	// MaxForwardBytes caps the text relayed between agents per turn.
	MaxForwardBytes int
	// StripANSI removes terminal escape sequences from relayed text.
	StripANSI bool
	// Resume makes each agent's first call resume its previous
	// session instead of starting fresh.
	Resume bool
}

// InvocationBuilder turns a role, a prompt, the turn index, and a
// continuation flag into the concrete CLI invocation to run. Prompt
// framing happens here; the engine relays text verbatim. The
// continuation flag tracks session resumption and may be set on turn
// zero when the run resumes earlier sessions.
type InvocationBuilder interface {
	Build(role Role, prompt string, turn int, continuation bool) Invocation
}

// Hooks observe the relay as it runs. All fields are optional.
type Hooks struct {
	// TurnStarted fires before a child is spawned, with the exact
	// framed prompt text the child receives (the invocation's Prompt).
	TurnStarted func(role Role, turn int, prompt string)
	// Item fires for every structured item extracted from the
	// running child's stdout.
	Item func(role Role, turn int, item events.Item)
	// Anomaly fires for stdout lines that were not valid events.
	Anomaly func(role Role, turn int, line string)
	// TurnEnded fires after a child exits cleanly, with its
	// collected output before stripping and truncation.
	TurnEnded func(role Role, turn int, output string)
}

// State is a snapshot of the relay's progress.
type State struct {
	// Turn is the index of the current (or next) exchange.
	Turn int
	// MakerSessionActive reports whether the maker has been invoked
	// at least once, so later calls continue its session.
	MakerSessionActive bool
	// Pending is the text queued for the next invocation.
	Pending string
}

// processRunner is what the engine needs from a Runner. Narrowed to an
// interface so tests can substitute scripted agents.
type processRunner interface {
	Run(ctx context.Context, inv Invocation, onItem func(events.Item), onAnomaly func(string)) (Result, error)
}

// Engine owns one relay run.
type Engine struct {
	cfg     Config
	builder InvocationBuilder
	runner  processRunner
	hooks   Hooks

	mu    sync.Mutex
	state State
}

// New builds an engine backed by a real process runner.
func New(cfg Config, builder InvocationBuilder, hooks Hooks) *Engine {
	return &Engine{cfg: cfg, builder: builder, runner: &Runner{}, hooks: hooks}
}

// State returns a snapshot of the relay's progress. Safe to call from
// any goroutine while Run is in flight; the loop itself works on a
// local copy and publishes snapshots here.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) publish(st State) {
	e.mu.Lock()
	e.state = st
	e.mu.Unlock()
}

// Terminate kills the currently running child, if any.
func (e *Engine) Terminate() {
	if r, ok := e.runner.(*Runner); ok {
		r.Terminate()
	}
}

// Run relays task through maker/critic exchanges until the turn bound is
// reached, a child fails, or ctx is cancelled. A nil return means the
// loop completed MaxTurns full exchanges.
func (e *Engine) Run(ctx context.Context, task string) error {
	st := State{Pending: task}
	e.publish(st)

	for {
		makerCont := st.MakerSessionActive || e.cfg.Resume
		makerOut, err := e.invoke(ctx, RoleMaker, st.Pending, st.Turn, makerCont)
		if err != nil {
			return err
		}
		st.MakerSessionActive = true
		e.publish(st)

		criticCont := st.Turn > 0 || e.cfg.Resume
		criticOut, err := e.invoke(ctx, RoleCritic, e.bound(makerOut), st.Turn, criticCont)
		if err != nil {
			return err
		}

		st.Turn++
		if e.cfg.MaxTurns != 0 && st.Turn >= e.cfg.MaxTurns {
			st.Pending = ""
			e.publish(st)
			return nil
		}
		st.Pending = e.bound(criticOut)
		e.publish(st)
	}
}

func (e *Engine) invoke(ctx context.Context, role Role, prompt string, turn int, continuation bool) (string, error) {
	inv := e.builder.Build(role, prompt, turn, continuation)
	if e.hooks.TurnStarted != nil {
		e.hooks.TurnStarted(role, turn, inv.Prompt)
	}

	var onItem func(events.Item)
	if e.hooks.Item != nil {
		onItem = func(item events.Item) { e.hooks.Item(role, turn, item) }
	}
	var onAnomaly func(string)
	if e.hooks.Anomaly != nil {
		onAnomaly = func(line string) { e.hooks.Anomaly(role, turn, line) }
	}

	result, err := e.runner.Run(ctx, inv, onItem, onAnomaly)
	if err != nil {
		return result.Output, fmt.Errorf("%s turn %d: %w", role, turn, err)
	}
	if e.hooks.TurnEnded != nil {
		e.hooks.TurnEnded(role, turn, result.Output)
	}
	return result.Output, nil
}

// bound applies the relay's text hygiene: optional ANSI stripping, then
// the forward byte budget.
func (e *Engine) bound(text string) string {
	if e.cfg.StripANSI {
		text = StripANSI(text)
	}
	return Truncate(text, e.cfg.MaxForwardBytes)
}
