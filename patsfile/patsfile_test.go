package patsfile_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patsnet/petri/dto"
	"github.com/patsnet/petri/patsfile"
)

func sample() *dto.PetriNet {
	return &dto.PetriNet{
		Title: "sample",
		Places: []dto.Place{
			{ID: "p1", Tokens: 1, Name: "in", X: 1, Y: 2, Radius: 23},
			{ID: "p2", Bounded: true, Capacity: 3},
		},
		Transitions: []dto.Transition{
			{ID: "t1", ArcIDs: []string{"a1", "a2"}, Guard: "p1 > 0"},
		},
		Arcs: []dto.Arc{
			{ID: "a1", Type: dto.TypeRegular, Incoming: "p1", Outgoing: "t1"},
			{ID: "a2", Type: dto.TypeBidirectional, Incoming: "t1", Outgoing: "p2"},
		},
		DeterministicMode: true,
	}
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, patsfile.Save(&buf, sample()))
	got, err := patsfile.Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, patsfile.SaveYAML(&buf, sample()))
	got, err := patsfile.LoadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestFileDispatchByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"net.pats", "net.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, patsfile.SaveFile(path, sample()))
		got, err := patsfile.LoadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, sample(), got, name)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := patsfile.Load(bytes.NewBufferString("not json"))
	require.Error(t, err)
}
