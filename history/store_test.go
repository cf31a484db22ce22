package history_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patsnet/petri/history"
	"github.com/patsnet/petri/service"
)

func TestStoreRecordsSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.db")
	store, err := history.New(path, "session-1")
	require.NoError(t, err)
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	require.NoError(t, store.ObserveStep(ctx, service.StepEvent{
		Fired:   []string{"t1"},
		Marking: map[string]int{"p1": 0, "p2": 1},
	}))
	require.NoError(t, store.ObserveStep(ctx, service.StepEvent{
		Conflict: []string{"t1", "t2"},
		Marking:  map[string]int{"p1": 1},
	}))

	steps, err := store.Steps(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, []string{"t1"}, steps[0].Fired)
	assert.Equal(t, map[string]int{"p1": 0, "p2": 1}, steps[0].Marking)
	assert.Equal(t, []string{"t1", "t2"}, steps[1].Conflict)

	other, err := store.Steps(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, other)
}
