// Package actions provides the catalog of pre-defined queries exercised by
// scripted and scheduled callers. Each action is a synthesized prompt run
// through the same conversation loop as interactive queries, but with a
// looser tool-result budget: these paths are not latency-bound by a waiting
// end user, so they can afford richer data.
package actions

import (
	"context"
	"fmt"
	"sort"
)

// ResultBudget is the tool-result byte budget for action runs. Wire the
// loop serving this catalog with this value instead of the interactive
// default.
const ResultBudget = 25 * 1024

// ErrNotFound is returned by [Catalog.Run] for an unknown action name.
var ErrNotFound = fmt.Errorf("actions: action not found")

// Runner executes one conversation from a prompt to a final answer. It is
// satisfied by [github.com/jmallard/simwatch/internal/agent.Loop].
type Runner interface {
	Run(ctx context.Context, userMessage string) (string, error)
}

// Action is one named entry in the catalog.
type Action struct {
	// Name is the stable identifier used in API paths.
	Name string `json:"name"`

	// Description explains what the action reports on.
	Description string `json:"description"`

	// prompt is the synthesized user message sent through the loop.
	prompt string
}

// catalog lists every pre-defined action. Names are stable API surface;
// changing one breaks scripted callers.
var catalog = []Action{
	{
		Name:        "situation-overview",
		Description: "High-level summary of the current simulation state across all domains.",
		prompt: "Give me a concise situation overview of the disaster simulation. " +
			"Summarize incident counts per domain and severity, and call out anything unusual.",
	},
	{
		Name:        "critical-incidents",
		Description: "All incidents currently at CRITICAL severity.",
		prompt: "List all critical severity incidents. For each, include the domain, " +
			"title, time, and location, and order them from most to least recent.",
	},
	{
		Name:        "medical-status",
		Description: "Status report for the medical response domain.",
		prompt: "Report on the medical domain: how many medical incidents exist, how " +
			"severe they are, and where response capacity appears most strained.",
	},
	{
		Name:        "infrastructure-damage",
		Description: "Structural and logistics damage assessment.",
		prompt: "Assess infrastructure damage: summarize structural and logistics " +
			"incidents, highlighting any critical or high severity items.",
	},
	{
		Name:        "communications-check",
		Description: "Communication outages and degradations.",
		prompt: "Check the communication domain for outages or degradations. List " +
			"affected areas and severity.",
	},
	{
		Name:        "timeline-summary",
		Description: "Chronological narrative of how the scenario has unfolded.",
		prompt: "Build a chronological timeline of the scenario so far: the major " +
			"incidents in order, with times and how the situation escalated.",
	},
}

// Catalog runs pre-defined actions through a conversation loop.
type Catalog struct {
	runner  Runner
	actions map[string]Action
}

// New returns a Catalog over the built-in action set.
func New(runner Runner) (*Catalog, error) {
	if runner == nil {
		return nil, fmt.Errorf("actions: runner must not be nil")
	}

	c := &Catalog{
		runner:  runner,
		actions: make(map[string]Action, len(catalog)),
	}
	for _, a := range catalog {
		c.actions[a.Name] = a
	}
	return c, nil
}

// List returns every action sorted by name. The prompt stays private; only
// name and description are API surface.
func (c *Catalog) List() []Action {
	out := make([]Action, 0, len(c.actions))
	for _, a := range c.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run executes the named action and returns its answer. Unknown names
// return [ErrNotFound].
func (c *Catalog) Run(ctx context.Context, name string) (string, error) {
	action, ok := c.actions[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	answer, err := c.runner.Run(ctx, action.prompt)
	if err != nil {
		return "", fmt.Errorf("actions: run %q: %w", name, err)
	}
	return answer, nil
}
