package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"taxdesk/internal/auth/models"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/sentinel"
)

type SessionStoreSuite struct {
	suite.Suite
	now   time.Time
	store *InMemory
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) SetupTest() {
	s.now = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	s.store = New(WithClock(func() time.Time { return s.now }))
}

func (s *SessionStoreSuite) newSession(actorID id.ActorID) *models.Session {
	return &models.Session{
		ID:        id.NewSessionID(),
		ActorID:   actorID,
		Device:    "Chrome on macOS",
		CreatedAt: s.now,
		ExpiresAt: s.now.Add(time.Hour),
	}
}

func (s *SessionStoreSuite) TestLookup() {
	ctx := context.Background()

	s.Run("returns stored session", func() {
		sess := s.newSession(id.NewActorID())
		s.Require().NoError(s.store.Save(ctx, sess))

		found, err := s.store.FindByID(ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(sess, found)
	})

	s.Run("unknown session is ErrNotFound", func() {
		_, err := s.store.FindByID(ctx, id.NewSessionID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("expired session reads as missing", func() {
		sess := s.newSession(id.NewActorID())
		s.Require().NoError(s.store.Save(ctx, sess))
		s.now = s.now.Add(2 * time.Hour)

		_, err := s.store.FindByID(ctx, sess.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *SessionStoreSuite) TestDelete() {
	ctx := context.Background()
	sess := s.newSession(id.NewActorID())
	s.Require().NoError(s.store.Save(ctx, sess))

	s.Require().NoError(s.store.Delete(ctx, sess.ID))
	s.ErrorIs(s.store.Delete(ctx, sess.ID), sentinel.ErrNotFound)
}

func (s *SessionStoreSuite) TestDeleteByActor() {
	ctx := context.Background()
	actorID := id.NewActorID()
	other := s.newSession(id.NewActorID())
	s.Require().NoError(s.store.Save(ctx, s.newSession(actorID)))
	s.Require().NoError(s.store.Save(ctx, s.newSession(actorID)))
	s.Require().NoError(s.store.Save(ctx, other))

	n, err := s.store.DeleteByActor(ctx, actorID)
	s.Require().NoError(err)
	s.Equal(2, n)

	_, err = s.store.FindByID(ctx, other.ID)
	s.NoError(err)
}
