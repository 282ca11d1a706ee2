package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	platformaudit "taxdesk/pkg/platform/audit"
	"taxdesk/pkg/platform/audit/store/memory"
	"taxdesk/pkg/requestcontext"
)

func seed(t *testing.T, store *memory.Store, at time.Time, actor platformaudit.Actor, action platformaudit.Action) {
	t.Helper()
	rec := platformaudit.NewRecorder(store, platformaudit.WithClock(func(context.Context) time.Time { return at }))
	_, err := rec.Record(context.Background(), actor, action, platformaudit.EntityClient, "c-1", nil, nil)
	require.NoError(t, err)
}

func TestSummary(t *testing.T) {
	now := time.Date(2026, 4, 30, 15, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	john := platformaudit.Actor{ID: id.NewActorID(), Name: "John Smith"}
	sarah := platformaudit.Actor{ID: id.NewActorID(), Name: "Sarah Johnson"}

	seed(t, store, now.AddDate(0, 0, -1), john, platformaudit.ActionClientCreated)
	seed(t, store, now.Add(-2*time.Hour), sarah, platformaudit.ActionPaymentAdded)
	seed(t, store, now.Add(-time.Hour), sarah, platformaudit.ActionStatusChanged)

	svc, err := NewService(store)
	require.NoError(t, err)
	root := &actormodels.Actor{ID: john.ID, Role: permission.RoleSuperAdmin, IsActive: true}

	sum, err := svc.Summary(requestcontext.WithTime(context.Background(), now), root)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Total: 3, Today: 2, UniqueActors: 2}, sum)
}

func TestList(t *testing.T) {
	store := memory.NewStore()
	sarah := platformaudit.Actor{ID: id.NewActorID(), Name: "Sarah Johnson"}
	now := time.Now()
	for i := range 3 {
		seed(t, store, now.Add(time.Duration(i)*time.Second), sarah, platformaudit.ActionPaymentAdded)
	}
	seed(t, store, now.Add(time.Minute), sarah, platformaudit.ActionNoteAdded)

	svc, err := NewService(store)
	require.NoError(t, err)
	root := &actormodels.Actor{ID: id.NewActorID(), Role: permission.RoleSuperAdmin, IsActive: true}

	t.Run("filters by action substring", func(t *testing.T) {
		entries, err := svc.List(context.Background(), root, platformaudit.Filter{Action: "payment"})
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("newest first", func(t *testing.T) {
		entries, err := svc.List(context.Background(), root, platformaudit.Filter{Search: "sarah", Limit: 1})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, platformaudit.ActionNoteAdded, entries[0].Action)
	})

	t.Run("admins cannot read the log", func(t *testing.T) {
		admin := &actormodels.Actor{ID: id.NewActorID(), Role: permission.RoleAdmin, IsActive: true,
			Permissions: permission.All()}
		_, err := svc.List(context.Background(), admin, platformaudit.Filter{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))

		_, err = svc.Summary(context.Background(), nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
