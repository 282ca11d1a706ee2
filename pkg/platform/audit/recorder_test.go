package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/platform/audit/store/memory"
	"taxdesk/pkg/requestcontext"
)

type failingStore struct{ audit.Store }

func (failingStore) Append(context.Context, *audit.Entry) error {
	return errors.New("disk full")
}

func TestRecorder_Record(t *testing.T) {
	actor := audit.Actor{ID: id.NewActorID(), Name: "Sarah Johnson"}

	t.Run("stamps request metadata and persists the entry", func(t *testing.T) {
		store := memory.NewStore()
		rec := audit.NewRecorder(store)
		ctx := requestcontext.WithRequestID(context.Background(), "req-42")

		entry, err := rec.Record(ctx, actor, audit.ActionStatusChanged, audit.EntityClient, "c-1",
			audit.Value("Documents Pending"), audit.Value("Awaiting Payment"))
		require.NoError(t, err)

		assert.Equal(t, "req-42", entry.RequestID)
		assert.Equal(t, actor.ID, entry.ActorID)
		assert.Equal(t, "Sarah Johnson", entry.ActorName)
		assert.Equal(t, int64(1), entry.Sequence)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("timestamps strictly increase under a frozen clock", func(t *testing.T) {
		frozen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		rec := audit.NewRecorder(memory.NewStore(), audit.WithClock(func(context.Context) time.Time { return frozen }))

		var prev time.Time
		for i := range 5 {
			e, err := rec.Record(context.Background(), actor, audit.ActionDocumentVerified, audit.EntityDocument, "d-1", nil, nil)
			require.NoError(t, err)
			if i > 0 {
				assert.True(t, e.Timestamp.After(prev), "entry %d not after previous", i)
			}
			prev = e.Timestamp
		}
	})

	t.Run("clock moving backwards does not reorder entries", func(t *testing.T) {
		times := []time.Time{
			time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC),
			time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC),
		}
		i := 0
		rec := audit.NewRecorder(memory.NewStore(), audit.WithClock(func(context.Context) time.Time {
			ts := times[i]
			i++
			return ts
		}))

		first, err := rec.Record(context.Background(), actor, audit.ActionNoteAdded, audit.EntityNote, "n-1", nil, nil)
		require.NoError(t, err)
		second, err := rec.Record(context.Background(), actor, audit.ActionNoteAdded, audit.EntityNote, "n-2", nil, nil)
		require.NoError(t, err)

		assert.True(t, second.Timestamp.After(first.Timestamp))
	})

	t.Run("append failure surfaces to the caller", func(t *testing.T) {
		rec := audit.NewRecorder(failingStore{})
		_, err := rec.Record(context.Background(), actor, audit.ActionPaymentAdded, audit.EntityClient, "c-1", nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestFilter_Matches(t *testing.T) {
	e := audit.Entry{Action: audit.ActionPaymentAdded, ActorName: "John Smith", EntityType: audit.EntityClient, EntityID: "c-9"}

	assert.True(t, audit.Filter{}.Matches(e))
	assert.True(t, audit.Filter{Action: "payment"}.Matches(e))
	assert.True(t, audit.Filter{Search: "smith"}.Matches(e))
	assert.True(t, audit.Filter{Search: "added"}.Matches(e))
	assert.False(t, audit.Filter{Action: "status"}.Matches(e))
	assert.False(t, audit.Filter{EntityType: audit.EntityDocument}.Matches(e))
	assert.False(t, audit.Filter{EntityID: "c-1"}.Matches(e))
}

func TestAction_Category(t *testing.T) {
	assert.Equal(t, audit.CategoryFinancial, audit.ActionPaymentAdded.Category())
	assert.Equal(t, audit.CategorySecurity, audit.ActionSignedIn.Category())
	assert.Equal(t, audit.CategoryOperations, audit.Action("Something New").Category())
}
