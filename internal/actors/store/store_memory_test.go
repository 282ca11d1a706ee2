package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"taxdesk/internal/actors/models"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/sentinel"
)

type ActorStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestActorStoreSuite(t *testing.T) {
	suite.Run(t, new(ActorStoreSuite))
}

func (s *ActorStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *ActorStoreSuite) newActor(email string) *models.Actor {
	return &models.Actor{
		ID:        id.NewActorID(),
		Email:     email,
		Name:      "Staff " + email,
		Role:      permission.RoleAdmin,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}

func (s *ActorStoreSuite) TestLookups() {
	a := s.newActor("sarah@taxpro.ca")
	s.Require().NoError(s.store.Save(s.ctx, a))

	s.Run("by id", func() {
		found, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(a.Email, found.Email)
	})

	s.Run("by email ignores case", func() {
		found, err := s.store.FindByEmail(s.ctx, "Sarah@TaxPro.ca")
		s.Require().NoError(err)
		s.Equal(a.ID, found.ID)
	})

	s.Run("unknown id", func() {
		_, err := s.store.FindByID(s.ctx, id.NewActorID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ActorStoreSuite) TestEmailUniqueness() {
	s.Require().NoError(s.store.Save(s.ctx, s.newActor("dup@taxpro.ca")))

	s.Run("different account with same email conflicts", func() {
		err := s.store.Save(s.ctx, s.newActor("DUP@taxpro.ca"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("renaming frees the old email", func() {
		a := s.newActor("old@taxpro.ca")
		s.Require().NoError(s.store.Save(s.ctx, a))
		a.Email = "new@taxpro.ca"
		s.Require().NoError(s.store.Save(s.ctx, a))

		_, err := s.store.FindByEmail(s.ctx, "old@taxpro.ca")
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.NoError(s.store.Save(s.ctx, s.newActor("old@taxpro.ca")))
	})
}

func (s *ActorStoreSuite) TestReturnedActorsAreCopies() {
	a := s.newActor("copy@taxpro.ca")
	a.Permissions = []permission.Permission{permission.ViewAnalytics}
	s.Require().NoError(s.store.Save(s.ctx, a))

	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	found.Permissions[0] = permission.UpdateWorkflow
	found.IsActive = false

	again, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.True(again.IsActive)
	s.Equal(permission.ViewAnalytics, again.Permissions[0])
}

func (s *ActorStoreSuite) TestDelete() {
	a := s.newActor("gone@taxpro.ca")
	s.Require().NoError(s.store.Save(s.ctx, a))
	s.Require().NoError(s.store.Delete(s.ctx, a.ID))

	_, err := s.store.FindByEmail(s.ctx, a.Email)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, a.ID), sentinel.ErrNotFound)
}
