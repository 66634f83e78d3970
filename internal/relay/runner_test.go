package relay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rsdouglas/leonard/internal/events"
)

func shInvocation(script string, dialect events.Dialect, tag string) Invocation {
	return Invocation{
		Command: "sh",
		Args:    []string{"-c", script},
		Dialect: dialect,
		Tag:     tag,
	}
}

func TestRunnerCollectsStdout(t *testing.T) {
	script := `echo '{"type":"assistant","message":{"content":[{"type":"text","text":"hello "}]}}'
echo 'noise that is not json'
echo '{"type":"assistant","message":{"content":[{"type":"text","text":"world"}]}}'`

	var r Runner
	result, err := r.Run(context.Background(), shInvocation(script, events.DialectMaker, "maker"), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Output != "hello world" {
		t.Fatalf("got %q", result.Output)
	}
}

func TestRunnerSpawnError(t *testing.T) {
	var r Runner
	inv := Invocation{Command: "definitely-not-a-real-binary-4321", Tag: "maker"}
	_, err := r.Run(context.Background(), inv, nil, nil)

	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
	if spawnErr.Command != inv.Command {
		t.Fatalf("command: %q", spawnErr.Command)
	}
}

func TestRunnerExitErrorKeepsPartialOutput(t *testing.T) {
	script := `echo '{"type":"item.completed","item":{"type":"agent_message","text":"partial"}}'
echo 'boom' >&2
exit 3`

	var r Runner
	result, err := r.Run(context.Background(), shInvocation(script, events.DialectCritic, "critic"), nil, nil)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 || exitErr.Tag != "critic" {
		t.Fatalf("exit error: %+v", exitErr)
	}
	if len(exitErr.Stderr) != 1 || exitErr.Stderr[0] != "boom" {
		t.Fatalf("stderr: %v", exitErr.Stderr)
	}
	if result.Output != "partial" {
		t.Fatalf("partial output lost: %q", result.Output)
	}
}

func TestRunnerInterruptKillsChild(t *testing.T) {
	script := `echo '{"type":"assistant","message":{"content":[{"type":"text","text":"before"}]}}'
sleep 30`

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	var r Runner
	start := time.Now()
	result, err := r.Run(ctx, shInvocation(script, events.DialectMaker, "maker"), nil, nil)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("child not killed promptly: %v", elapsed)
	}
	if result.Output != "before" {
		t.Fatalf("partial output lost: %q", result.Output)
	}
}

func TestRunnerSurvivesOversizedStdoutLine(t *testing.T) {
	// A single stdout line beyond the scanner budget must be reported
	// as an anomaly and must not hang the relay: the pipe keeps
	// draining so the child can finish writing and exit.
	script := `echo '{"type":"assistant","message":{"content":[{"type":"text","text":"ok"}]}}'
head -c 4500000 /dev/zero | tr '\0' x
echo`

	var anomalies []string
	var r Runner
	result, err := r.Run(context.Background(), shInvocation(script, events.DialectMaker, "maker"), nil, func(line string) {
		anomalies = append(anomalies, line)
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Output != "ok" {
		t.Fatalf("output before the oversized line lost: %q", result.Output)
	}
	found := false
	for _, a := range anomalies {
		if strings.Contains(a, "read error") {
			found = true
		}
	}
	if !found {
		t.Fatalf("oversized line not reported: %v", anomalies)
	}
}

func TestRunnerObservesItems(t *testing.T) {
	script := `echo '{"type":"assistant","message":{"content":[{"type":"tool_use","id":"t1","name":"Bash"}]}}'`

	var seen []events.Item
	var r Runner
	_, err := r.Run(context.Background(), shInvocation(script, events.DialectMaker, "maker"), func(item events.Item) {
		seen = append(seen, item)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || seen[0].Kind != events.ItemToolUse || seen[0].Tool != "Bash" {
		t.Fatalf("items: %+v", seen)
	}
}
