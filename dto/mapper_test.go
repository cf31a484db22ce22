package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patsnet/petri"
	"github.com/patsnet/petri/dto"
)

func wireNet() *dto.PetriNet {
	return &dto.PetriNet{
		Title: "demo",
		Places: []dto.Place{
			{ID: "p1", Tokens: 1, Name: "source", X: 10, Y: 20, Radius: 23},
			{ID: "p2", Tokens: 0, Bounded: true, Capacity: 2},
		},
		Transitions: []dto.Transition{
			{ID: "t1", ArcIDs: []string{"a1", "a2"}, Name: "move", X: 50, Y: 60, Width: 30, Height: 14},
		},
		Arcs: []dto.Arc{
			{ID: "a1", Type: dto.TypeRegular, Incoming: "p1", Outgoing: "t1"},
			{ID: "a2", Type: dto.TypeRegular, Incoming: "t1", Outgoing: "p2"},
		},
	}
}

func TestToNet(t *testing.T) {
	net, err := dto.ToNet(wireNet())
	require.NoError(t, err)
	assert.Equal(t, 1, net.Place("p1").Tokens)
	assert.True(t, net.Place("p2").Bounded)
	assert.Equal(t, 2, net.Place("p2").Capacity)
	require.NotNil(t, net.Transition("t1"))
	assert.Equal(t, petri.Regular, net.Arc("a1").Kind)
}

func TestToNetStructuralErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*dto.PetriNet)
	}{
		{"unknown arc type", func(d *dto.PetriNet) { d.Arcs[0].Type = "WEIGHTED" }},
		{"dangling arc source", func(d *dto.PetriNet) { d.Arcs[0].Incoming = "ghost" }},
		{"dangling arc target", func(d *dto.PetriNet) { d.Arcs[1].Outgoing = "ghost" }},
		{"arc between two places", func(d *dto.PetriNet) { d.Arcs[0].Outgoing = "p2" }},
		{"duplicate place id", func(d *dto.PetriNet) { d.Places[1].ID = "p1" }},
		{"duplicate transition id", func(d *dto.PetriNet) {
			d.Transitions = append(d.Transitions, dto.Transition{ID: "t1"})
		}},
		{"duplicate arc id", func(d *dto.PetriNet) { d.Arcs[1].ID = "a1" }},
		{"place and transition share an id", func(d *dto.PetriNet) { d.Transitions[0].ID = "p1" }},
		{"transition references unknown arc", func(d *dto.PetriNet) {
			d.Transitions[0].ArcIDs = []string{"a1", "ghost"}
		}},
		{"transition references non-incident arc", func(d *dto.PetriNet) {
			d.Places = append(d.Places, dto.Place{ID: "p3"})
			d.Transitions = append(d.Transitions, dto.Transition{ID: "t2"})
			d.Arcs = append(d.Arcs, dto.Arc{ID: "a3", Type: dto.TypeRegular, Incoming: "p3", Outgoing: "t2"})
			d.Transitions[0].ArcIDs = append(d.Transitions[0].ArcIDs, "a3")
		}},
		{"invalid guard", func(d *dto.PetriNet) { d.Transitions[0].Guard = "p1 >" }},
		{"guard references unknown place", func(d *dto.PetriNet) { d.Transitions[0].Guard = "ghost > 0" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := wireNet()
			tc.mutate(d)
			_, err := dto.ToNet(d)
			require.Error(t, err)
			assert.True(t, petri.IsStructural(err), "expected a structural error, got %v", err)
		})
	}
}

func TestInhibitorMustEnterTransition(t *testing.T) {
	d := wireNet()
	d.Arcs[1] = dto.Arc{ID: "a2", Type: dto.TypeInhibitor, Incoming: "t1", Outgoing: "p2"}
	_, err := dto.ToNet(d)
	require.Error(t, err)
	assert.True(t, petri.IsStructural(err))

	d.Arcs[1] = dto.Arc{ID: "a2", Type: dto.TypeInhibitor, Incoming: "p2", Outgoing: "t1"}
	_, err = dto.ToNet(d)
	require.NoError(t, err)
}

func TestBidirectionalAllowsEitherOrientation(t *testing.T) {
	for _, arc := range []dto.Arc{
		{ID: "a2", Type: dto.TypeBidirectional, Incoming: "p2", Outgoing: "t1"},
		{ID: "a2", Type: dto.TypeBidirectional, Incoming: "t1", Outgoing: "p2"},
	} {
		d := wireNet()
		d.Arcs[1] = arc
		_, err := dto.ToNet(d)
		require.NoError(t, err)
	}
}

func TestFromNetPreservesPresentation(t *testing.T) {
	d := wireNet()
	net, err := dto.ToNet(d)
	require.NoError(t, err)

	net.Place("p1").RemoveToken()
	net.Place("p2").AddToken()
	net.Transition("t1").Enabled = true

	out := dto.FromNet(net, d)
	assert.Equal(t, 0, out.Places[0].Tokens)
	assert.Equal(t, 1, out.Places[1].Tokens)
	assert.True(t, out.Transitions[0].Enabled)

	// everything the engine does not own comes back untouched
	assert.Equal(t, "demo", out.Title)
	assert.Equal(t, "source", out.Places[0].Name)
	assert.Equal(t, 23.0, out.Places[0].Radius)
	assert.Equal(t, "move", out.Transitions[0].Name)
	assert.Equal(t, 30.0, out.Transitions[0].Width)
	assert.Equal(t, d.Arcs, out.Arcs)

	// and the input itself was not mutated
	assert.Equal(t, 1, d.Places[0].Tokens)
	assert.False(t, d.Transitions[0].Enabled)
}
