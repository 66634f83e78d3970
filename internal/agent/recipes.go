// internal/agent/recipes.go
//
// Turns configured agent recipes into concrete CLI invocations for the
// relay engine. This is the only place that knows which binary each role
// runs and how its argv is shaped.

package agent

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/rsdouglas/leonard/internal/config"
	"github.com/rsdouglas/leonard/internal/relay"
)

// Recipes builds invocations for both roles of one relay run.
type Recipes struct {
	// Dir is the working directory the agents operate in.
	Dir string
	// Task is the user's task statement, injected into first prompts.
	Task string
	// Context is the optional project context document text.
	Context string

	Maker  config.AgentRecipe
	Critic config.AgentRecipe
}

// Build implements relay.InvocationBuilder. The engine hands over the
// raw relayed text; framing happens here, and the framed prompt is
// always the final argument.
func (r *Recipes) Build(role relay.Role, prompt string, turn int, continuation bool) relay.Invocation {
	recipe := r.Maker
	if role == relay.RoleCritic {
		recipe = r.Critic
	}

	args := recipe.Args
	if continuation && len(recipe.ContinueArgs) > 0 {
		args = recipe.ContinueArgs
	}

	framed := prompt
	switch role {
	case relay.RoleMaker:
		// The maker's turn-zero prompt frames the task, even when the
		// run resumes an earlier session; follow-ups carry the
		// critic's feedback verbatim.
		if turn == 0 {
			framed = BuildMakerPrompt(prompt, r.Context)
		}
	case relay.RoleCritic:
		framed = BuildCriticPrompt(r.Task, r.Context, prompt, continuation)
	}

	argv := make([]string, 0, len(args)+1)
	argv = append(argv, args...)
	argv = append(argv, framed)

	return relay.Invocation{
		Command: recipe.Command,
		Args:    argv,
		Dir:     r.Dir,
		Env:     envList(recipe.Env),
		Dialect: role.Dialect(),
		Tag:     string(role),
		Prompt:  framed,
	}
}

// envList flattens an env map into KEY=VALUE pairs in stable order.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// LoadContext reads the project context document. A missing file is not
// an error; the relay simply runs without context.
func LoadContext(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
