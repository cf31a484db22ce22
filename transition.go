package petri

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Transition represents a transition.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	// ArcIDs are the arcs incident to this transition, incoming and outgoing.
	ArcIDs []string `json:"arcIds"`
	// Expression is an optional guard evaluated against the marking when the
	// transition is checked for enablement. Empty means always true.
	Expression string `json:"expression,omitempty"`
	// Enabled is transient simulator output; it is not persisted across steps.
	Enabled bool `json:"enabled"`
}

func NewTransition(id string, arcIDs ...string) *Transition {
	return &Transition{
		ID:     id,
		ArcIDs: arcIDs,
	}
}

// WithExpression sets the guard expression.
func (t *Transition) WithExpression(expression string) *Transition {
	t.Expression = expression
	return t
}

// CanFire evaluates the guard expression against a marking of place id to
// token count. A transition without an expression can always fire.
func (t *Transition) CanFire(marking map[string]int) (bool, error) {
	if t.Expression == "" {
		return true, nil
	}
	env := guardEnv(marking)
	program, err := expr.Compile(t.Expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compiling guard for %s: %w", t.ID, err)
	}
	ret, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluating guard for %s: %w", t.ID, err)
	}
	return ret.(bool), nil
}

// CompileGuard checks that the guard parses and only references the given
// places, without running it.
func (t *Transition) CompileGuard(marking map[string]int) error {
	if t.Expression == "" {
		return nil
	}
	_, err := expr.Compile(t.Expression, expr.Env(guardEnv(marking)), expr.AsBool())
	if err != nil {
		return fmt.Errorf("compiling guard for %s: %w", t.ID, err)
	}
	return nil
}

func guardEnv(marking map[string]int) map[string]interface{} {
	env := make(map[string]interface{}, len(marking))
	for id, tokens := range marking {
		env[id] = tokens
	}
	return env
}

func (t *Transition) String() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

func (t *Transition) Kind() NodeKind { return TransitionNode }

func (t *Transition) Identifier() string { return t.ID }
