package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nodelog/internal/ir"
)

func TestAppend_AssignsDerivedFields(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e, inserted, err := s.Append(ctx, ir.Event{
		NodeID:    "users/1",
		Graph:     "people",
		Kind:      ir.KindCreated,
		Timestamp: 100,
		Payload:   map[string]any{"name": "ada", "age": 36},
	})
	require.NoError(t, err)

	assert.True(t, inserted)
	assert.Equal(t, int64(1), e.Seq)
	assert.Equal(t, "users", e.Collection)
	assert.Equal(t, ir.MustEventID("users/1", "people", ir.KindCreated, 100,
		map[string]any{"name": "ada", "age": int64(36)}), e.ID)

	history, err := s.ReadNode(ctx, "users/1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, e, history[0])
}

func TestAppend_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, inserted, err := s.Append(ctx, ev("users/1", "", ir.KindCreated, 1))
	require.NoError(t, err)
	require.True(t, inserted)

	again, inserted, err := s.Append(ctx, ev("users/1", "", ir.KindCreated, 1))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first, again)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Events)
}

func TestAppend_Lifecycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustAppend(t, s,
		ev("users/1", "", ir.KindCreated, 1),
		ev("users/1", "", ir.KindUpdated, 2),
		ev("users/1", "", ir.KindDeleted, 3),
		ev("users/1", "", ir.KindCreated, 4),
	)

	rejected := []ir.Event{
		ev("users/2", "", ir.KindUpdated, 1),
		ev("users/2", "", ir.KindDeleted, 1),
		ev("users/1", "", ir.KindCreated, 5),
		ev("users/1", "", ir.KindUpdated, 3),
	}
	for _, e := range rejected {
		_, _, err := s.Append(ctx, e)
		require.Error(t, err, "%s %s @%d", e.NodeID, e.Kind, e.Timestamp)
		assert.True(t, errors.Is(err, ir.ErrLifecycle))
	}
}

func TestAppend_SameTimestampOrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustAppend(t, s,
		ev("users/1", "", ir.KindCreated, 7),
		ev("users/1", "", ir.KindDeleted, 7),
	)

	history, err := s.ReadNode(ctx, "users/1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ir.KindCreated, history[0].Kind)
	assert.Equal(t, ir.KindDeleted, history[1].Kind)
	assert.Less(t, history[0].Seq, history[1].Seq)
}

func TestAppend_InvalidEvent(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.Append(context.Background(), ev("no-slash", "", ir.KindCreated, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ir.ErrInvalidEvent))
}

func TestAppendBatch_AllOrNothing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.AppendBatch(ctx, []ir.Event{
		ev("users/1", "", ir.KindCreated, 1),
		ev("users/2", "", ir.KindUpdated, 1),
	})
	require.Error(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Events, "failed batch must not leave partial writes")

	n, err := s.AppendBatch(ctx, []ir.Event{
		ev("users/1", "", ir.KindCreated, 1),
		ev("users/1", "", ir.KindCreated, 1),
		ev("users/1", "", ir.KindUpdated, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "duplicate inside the batch is not counted")
}
