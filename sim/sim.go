// Package sim implements the simulation semantics for a net: which
// transitions are enabled under the current marking, and what the marking
// becomes when one of them fires.
//
// A Simulator is stateless across calls. Every step works on a fresh Net
// built from the caller's wire description and discarded afterwards, so
// concurrent steps on independent nets are safe without locking.
package sim

import (
	"math/rand"

	"github.com/patsnet/petri"
)

// Source yields uniform random indices for selecting among conflicting
// transitions. *math/rand.Rand satisfies it; tests inject fixed sources.
type Source interface {
	Intn(n int) int
}

type entropySource struct{}

func (entropySource) Intn(n int) int { return rand.Intn(n) }

// CapacityPolicy decides how bounded places interact with enablement.
type CapacityPolicy int

const (
	// SoftCap never blocks a firing; production beyond a place's capacity is
	// silently dropped. This is the behaviour the editor has always had.
	SoftCap CapacityPolicy = iota
	// StrictCap disables a transition whose firing would overflow a bounded
	// place.
	StrictCap
)

// Simulator evaluates and fires transitions.
type Simulator struct {
	rand   Source
	policy CapacityPolicy
}

type Option func(*Simulator)

// WithSource replaces the randomness source used to arbitrate conflicts in
// non-deterministic mode.
func WithSource(src Source) Option {
	return func(s *Simulator) { s.rand = src }
}

// WithCapacityPolicy replaces the default SoftCap policy.
func WithCapacityPolicy(p CapacityPolicy) Option {
	return func(s *Simulator) { s.policy = p }
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		rand:   entropySource{},
		policy: SoftCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Outcome describes what a step did. A ProcessStep outcome has one of three
// shapes: nothing (no transition enabled), one firing, or a pause on
// conflict. A ResolveConflict outcome always lists the selected firing and
// may also carry a follow-up firing or a new conflict.
type Outcome struct {
	// Fired holds the transitions fired during the call, in firing order.
	Fired []*petri.Transition
	// Conflict holds the enabled set when the step paused for arbitration.
	Conflict []*petri.Transition
}

// Paused returns true when the step stopped on a deterministic conflict.
func (o *Outcome) Paused() bool { return len(o.Conflict) > 0 }

// Enabled reports whether t may fire under the current marking of net.
//
// Inhibitor arcs veto on a marked source place. Bidirectional arcs need at
// least one token at the connected place whichever way they are drawn, and
// count one consumption when drawn place -> transition. Regular incoming arcs
// each count one consumption; multiple arcs from the same place accumulate.
// Outgoing regular arcs never affect enablement under SoftCap.
func (s *Simulator) Enabled(t *petri.Transition, net *petri.Net) bool {
	required := make(map[string]int)
	produced := make(map[string]int)
	for _, arc := range net.Incident(t) {
		switch arc.Kind {
		case petri.Inhibitor:
			if !arc.EntersTransition(t) {
				continue
			}
			if p := net.Place(arc.Incoming); p != nil && p.Tokens > 0 {
				return false
			}
		case petri.Bidirectional:
			p := net.Place(arc.PlaceEnd(t))
			if p == nil || p.Tokens < 1 {
				return false
			}
			if arc.EntersTransition(t) {
				required[p.ID]++
			}
		case petri.Regular:
			if arc.EntersTransition(t) {
				required[arc.Incoming]++
			} else if arc.LeavesTransition(t) {
				produced[arc.Outgoing]++
			}
		}
	}
	for id, need := range required {
		p := net.Place(id)
		if p == nil || p.Tokens < need {
			return false
		}
	}
	if s.policy == StrictCap {
		for id, extra := range produced {
			p := net.Place(id)
			if p == nil || !p.Bounded {
				continue
			}
			if p.Tokens-required[id]+extra > p.Capacity {
				return false
			}
		}
	}
	ok, err := t.CanFire(net.Marking())
	if err != nil {
		return false
	}
	return ok
}

// Fire applies t's arc effects to the marking. The transition must be
// enabled. Fire itself only checks that the places it consumes from hold
// enough tokens; when they do not, it reports an InvariantError before
// touching any place, so a failed firing never leaves a half-applied marking.
// Inhibitor arcs, guards and the capacity policy are not re-checked here.
//
// Regular incoming arcs consume one token, regular outgoing arcs produce one
// (dropped silently at capacity), bidirectional arcs consume then produce at
// the connected place, inhibitors change nothing.
func (s *Simulator) Fire(t *petri.Transition, net *petri.Net) error {
	needed := make(map[string]int)
	for _, arc := range net.Incident(t) {
		if arc.Kind == petri.Regular && arc.EntersTransition(t) {
			needed[arc.Incoming]++
		}
	}
	for _, arc := range net.Incident(t) {
		// a bidirectional arc returns its token within the firing, so one
		// present token satisfies it alongside any regular consumption
		if arc.Kind == petri.Bidirectional && needed[arc.PlaceEnd(t)] == 0 {
			needed[arc.PlaceEnd(t)] = 1
		}
	}
	for id, need := range needed {
		p := net.Place(id)
		if p == nil {
			return &petri.InvariantError{TransitionID: t.ID, PlaceID: id, Reason: "no such place"}
		}
		if p.Tokens < need {
			return &petri.InvariantError{
				TransitionID: t.ID,
				PlaceID:      id,
				Reason:       "insufficient tokens for consumption",
			}
		}
	}
	for _, arc := range net.Incident(t) {
		switch arc.Kind {
		case petri.Regular:
			if arc.EntersTransition(t) {
				net.Place(arc.Incoming).RemoveToken()
			} else if arc.LeavesTransition(t) {
				if p := net.Place(arc.Outgoing); p != nil {
					p.AddToken()
				}
			}
		case petri.Bidirectional:
			if p := net.Place(arc.PlaceEnd(t)); p != nil {
				// decrement then increment: net zero today, but the order is
				// what a weighted extension would rely on
				p.RemoveToken()
				p.AddToken()
			}
		}
	}
	return nil
}

// ProcessStep evaluates every transition, then applies the mode policy: with
// nothing enabled the marking is untouched, a single enabled transition
// fires, and a conflict either pauses (deterministic) or is settled by a
// uniform random pick. Enabled flags on the returned net encode either the
// transition that fired or the conflicting choices awaiting arbitration.
func (s *Simulator) ProcessStep(net *petri.Net, deterministic bool) (*Outcome, error) {
	for _, t := range net.Transitions {
		t.Enabled = s.Enabled(t, net)
	}
	enabled := net.Enabled()
	if len(enabled) == 0 {
		return &Outcome{}, nil
	}
	if deterministic && len(enabled) > 1 {
		return &Outcome{Conflict: enabled}, nil
	}
	selected := enabled[0]
	if len(enabled) > 1 {
		selected = enabled[s.rand.Intn(len(enabled))]
	}
	for _, t := range net.Transitions {
		t.Enabled = t == selected
	}
	if err := s.Fire(selected, net); err != nil {
		return nil, err
	}
	return &Outcome{Fired: []*petri.Transition{selected}}, nil
}

// ResolveConflict completes a paused step by firing the transition the user
// chose, then re-evaluating and applying the mode policy to the new marking.
// The result may be another pause; repeated calls walk the net through a
// chain of conflicts without returning to ProcessStep.
//
// Selecting an id that matches no transition is a StructuralError. Whether
// the selected transition was actually enabled in the paused state is the
// caller's contract and is not re-verified here; a selection the marking
// cannot support surfaces as an InvariantError from the executor.
func (s *Simulator) ResolveConflict(net *petri.Net, selectedID string, deterministic bool) (*Outcome, error) {
	selected := net.Transition(selectedID)
	if selected == nil {
		return nil, petri.Structuralf("selected transition not found: %s", selectedID)
	}
	for _, t := range net.Transitions {
		t.Enabled = false
	}
	if err := s.Fire(selected, net); err != nil {
		return nil, err
	}
	outcome := &Outcome{Fired: []*petri.Transition{selected}}
	for _, t := range net.Transitions {
		t.Enabled = s.Enabled(t, net)
	}
	enabled := net.Enabled()
	switch {
	case len(enabled) == 0:
		// nothing left to do; flag the fired transition so the caller can see
		// which one resolved the conflict
		selected.Enabled = true
	case deterministic && len(enabled) > 1:
		outcome.Conflict = enabled
	default:
		next := enabled[0]
		if len(enabled) > 1 {
			next = enabled[s.rand.Intn(len(enabled))]
		}
		for _, t := range net.Transitions {
			t.Enabled = t == next
		}
		if err := s.Fire(next, net); err != nil {
			return nil, err
		}
		outcome.Fired = append(outcome.Fired, next)
	}
	return outcome, nil
}
