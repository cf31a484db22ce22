package dto

import (
	"github.com/patsnet/petri"
)

// ToNet builds the internal model from a wire net, checking the structural
// invariants on the way in: ids are unique, every referenced id resolves, arc
// tags are known, inhibitors run place -> transition, each transition's arc
// list only names arcs incident to it, and guards compile. Any violation is
// a StructuralError and nothing is built.
func ToNet(d *PetriNet) (*petri.Net, error) {
	places := make([]*petri.Place, 0, len(d.Places))
	placeIDs := make(map[string]bool, len(d.Places))
	for _, p := range d.Places {
		if placeIDs[p.ID] {
			return nil, petri.Structuralf("duplicate place id: %s", p.ID)
		}
		placeIDs[p.ID] = true
		pl := petri.NewPlace(p.ID, p.Tokens)
		pl.Name = p.Name
		if p.Bounded {
			pl.WithCapacity(p.Capacity)
		}
		places = append(places, pl)
	}

	transitionIDs := make(map[string]bool, len(d.Transitions))
	for _, t := range d.Transitions {
		if transitionIDs[t.ID] {
			return nil, petri.Structuralf("duplicate transition id: %s", t.ID)
		}
		if placeIDs[t.ID] {
			return nil, petri.Structuralf("id used by both a place and a transition: %s", t.ID)
		}
		transitionIDs[t.ID] = true
	}

	arcs := make([]*petri.Arc, 0, len(d.Arcs))
	arcByID := make(map[string]*petri.Arc, len(d.Arcs))
	for _, a := range d.Arcs {
		if _, ok := arcByID[a.ID]; ok {
			return nil, petri.Structuralf("duplicate arc id: %s", a.ID)
		}
		kind, err := parseKind(a.Type)
		if err != nil {
			return nil, err
		}
		if err := checkEndpoints(&a, kind, placeIDs, transitionIDs); err != nil {
			return nil, err
		}
		arc := petri.NewArc(a.ID, kind, a.Incoming, a.Outgoing)
		arcByID[a.ID] = arc
		arcs = append(arcs, arc)
	}

	transitions := make([]*petri.Transition, 0, len(d.Transitions))
	for _, t := range d.Transitions {
		tr := petri.NewTransition(t.ID, t.ArcIDs...)
		tr.Name = t.Name
		if t.Guard != "" {
			tr.WithExpression(t.Guard)
			if err := tr.CompileGuard(emptyMarking(placeIDs)); err != nil {
				return nil, petri.Structuralf("transition %s: invalid guard: %s", t.ID, t.Guard)
			}
		}
		for _, id := range t.ArcIDs {
			arc, ok := arcByID[id]
			if !ok {
				return nil, petri.Structuralf("transition %s references unknown arc: %s", t.ID, id)
			}
			if arc.Incoming != t.ID && arc.Outgoing != t.ID {
				return nil, petri.Structuralf("transition %s references arc %s which is not incident to it", t.ID, id)
			}
		}
		transitions = append(transitions, tr)
	}

	return petri.New(places, transitions, arcs), nil
}

// FromNet writes the simulation result back over a copy of the original wire
// net. Only tokens, bounded/capacity and enabled change; presentation fields
// and arcs come back exactly as they were sent.
func FromNet(n *petri.Net, d *PetriNet) *PetriNet {
	out := *d
	out.Places = make([]Place, len(d.Places))
	copy(out.Places, d.Places)
	out.Transitions = make([]Transition, len(d.Transitions))
	copy(out.Transitions, d.Transitions)
	out.Arcs = make([]Arc, len(d.Arcs))
	copy(out.Arcs, d.Arcs)

	for i := range out.Places {
		if p := n.Place(out.Places[i].ID); p != nil {
			out.Places[i].Tokens = p.Tokens
			out.Places[i].Bounded = p.Bounded
			if p.Bounded {
				out.Places[i].Capacity = p.Capacity
			}
		}
	}
	for i := range out.Transitions {
		if t := n.Transition(out.Transitions[i].ID); t != nil {
			out.Transitions[i].Enabled = t.Enabled
		}
	}
	return &out
}

func parseKind(tag string) (petri.ArcKind, error) {
	switch tag {
	case TypeRegular:
		return petri.Regular, nil
	case TypeInhibitor:
		return petri.Inhibitor, nil
	case TypeBidirectional:
		return petri.Bidirectional, nil
	}
	return 0, petri.Structuralf("unknown arc type: %q", tag)
}

func checkEndpoints(a *Arc, kind petri.ArcKind, placeIDs, transitionIDs map[string]bool) error {
	inPlace := placeIDs[a.Incoming]
	inTransition := transitionIDs[a.Incoming]
	outPlace := placeIDs[a.Outgoing]
	outTransition := transitionIDs[a.Outgoing]
	if !inPlace && !inTransition {
		return petri.Structuralf("arc %s: unknown source id: %s", a.ID, a.Incoming)
	}
	if !outPlace && !outTransition {
		return petri.Structuralf("arc %s: unknown target id: %s", a.ID, a.Outgoing)
	}
	if inPlace == outPlace {
		return petri.Structuralf("arc %s must connect a place and a transition", a.ID)
	}
	if kind == petri.Inhibitor && !inPlace {
		return petri.Structuralf("inhibitor arc %s must run place -> transition", a.ID)
	}
	return nil
}

func emptyMarking(placeIDs map[string]bool) map[string]int {
	m := make(map[string]int, len(placeIDs))
	for id := range placeIDs {
		m[id] = 0
	}
	return m
}
