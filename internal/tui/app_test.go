package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rsdouglas/leonard/internal/config"
	"github.com/rsdouglas/leonard/internal/relay"
)

func TestRelayStopsWhenParentContextCancelled(t *testing.T) {
	// A signal cancels the program context; the relay's own context
	// descends from it, so the running child must be killed and the
	// engine must report the interrupt.
	cfg, err := config.NewConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg.Project.Maker = config.AgentRecipe{Command: "sh", Args: []string{"-c", "sleep 30"}}
	cfg.Project.Critic = config.AgentRecipe{Command: "sh", Args: []string{"-c", "true"}}

	app, err := NewApp(cfg, relay.Config{MaxTurns: 1, MaxForwardBytes: 1000}, "some task", nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.parent = ctx
	app.startRelay()

	time.Sleep(200 * time.Millisecond)
	cancel()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case msg := <-app.eventCh:
			done, ok := msg.(relayDoneMsg)
			if !ok {
				continue
			}
			if !errors.Is(done.err, relay.ErrInterrupted) {
				t.Fatalf("expected ErrInterrupted, got %v", done.err)
			}
			return
		case <-deadline:
			t.Fatal("relay did not stop after context cancellation")
		}
	}
}
