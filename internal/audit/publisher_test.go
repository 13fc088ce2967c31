package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_StampsIDAndTimestamp(t *testing.T) {
	store := NewMemoryStore()
	p := NewPublisher(store)

	err := p.Emit(context.Background(), Entry{
		EntityType: "investor",
		EntityID:   "inv-1",
		Action:     ActionStatusChanged,
		ActorType:  ActorHuman,
		ActorID:    "ops@example.com",
	})
	require.NoError(t, err)

	entries := store.All()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestEmit_AIEntryRequiresModelAndRuleset(t *testing.T) {
	p := NewPublisher(NewMemoryStore())

	err := p.Emit(context.Background(), Entry{
		EntityType: "token",
		EntityID:   "tok-1",
		Action:     ActionConflictResolved,
		ActorType:  ActorAI,
		ActorID:    "advisory",
	})
	assert.Error(t, err)

	err = p.Emit(context.Background(), Entry{
		EntityType:     "token",
		EntityID:       "tok-1",
		Action:         ActionConflictResolved,
		ActorType:      ActorAI,
		ActorID:        "advisory",
		ModelID:        "conflict-resolver",
		ModelVersion:   "2.3",
		RulesetVersion: "2026-08",
	})
	assert.NoError(t, err)
}

type failingSink struct{ calls int }

func (f *failingSink) Publish(context.Context, Entry) error {
	f.calls++
	return errors.New("broker down")
}

func TestEmit_SinkFailureDoesNotFailCaller(t *testing.T) {
	sink := &failingSink{}
	p := NewPublisher(NewMemoryStore(), WithSink(sink))

	err := p.Emit(context.Background(), Entry{
		EntityType: "investor",
		EntityID:   "inv-1",
		Action:     ActionStatusChanged,
		ActorType:  ActorSystem,
		ActorID:    "execution-engine",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, sink.calls)
}

func TestMemoryStore_ListByEntity_TimestampOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Now()

	for _, offset := range []time.Duration{2 * time.Second, 0, time.Second} {
		require.NoError(t, store.Append(ctx, Entry{
			ID: "e", EntityType: "investor", EntityID: "inv-1",
			Action: ActionStatusChanged, ActorType: ActorSystem, ActorID: "sys",
			Timestamp: base.Add(offset),
		}))
	}

	entries, err := store.ListByEntity(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Timestamp.Before(entries[1].Timestamp))
	assert.True(t, entries[1].Timestamp.Before(entries[2].Timestamp))
}
