//go:build integration

package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"taxdesk/internal/clients/models"
	clientstore "taxdesk/internal/clients/store"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/audit"
	auditpostgres "taxdesk/pkg/platform/audit/store/postgres"
	"taxdesk/pkg/platform/sentinel"
	"taxdesk/pkg/testutil/containers"
)

type RunnerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	runner   *postgresRunner
	clients  *clientstore.PostgresClients
	audit    *auditpostgres.Store
}

func TestRunnerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.runner = newPostgresRunner(s.postgres.DB)
	s.clients = clientstore.NewPostgresClients(s.postgres.DB)
	s.audit = auditpostgres.New(s.postgres.DB)
}

func (s *RunnerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "clients", "audit_entries"))
}

func (s *RunnerSuite) newClient() *models.Client {
	c, err := models.NewClient(id.NewClientID(), "Emily Tremblay", "emily@example.ca", "", 2025, 0, time.Now().UTC())
	s.Require().NoError(err)
	return c
}

func (s *RunnerSuite) TestFailureRollsBackClientAndAudit() {
	ctx := context.Background()
	c := s.newClient()
	recorder := audit.NewRecorder(s.audit)

	err := s.runner.RunInTx(ctx, c.ID.String(), func(ctx context.Context) error {
		if err := s.clients.Save(ctx, c); err != nil {
			return err
		}
		if _, err := recorder.Record(ctx, audit.Actor{ID: id.NewActorID(), Name: "John Smith"},
			audit.ActionClientCreated, audit.EntityClient, c.ID.String(), nil, audit.Value("Emily Tremblay")); err != nil {
			return err
		}
		return errors.New("boom")
	})
	s.EqualError(err, "boom")

	_, err = s.clients.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	n, err := s.audit.Count(ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *RunnerSuite) TestCommit() {
	ctx := context.Background()
	c := s.newClient()
	s.Require().NoError(s.runner.RunInTx(ctx, c.ID.String(), func(ctx context.Context) error {
		return s.clients.Save(ctx, c)
	}))
	_, err := s.clients.FindByID(ctx, c.ID)
	s.NoError(err)
}

// Concurrent payments on one client must not lose updates.
func (s *RunnerSuite) TestSameKeyIsSerialized() {
	ctx := context.Background()
	c := s.newClient()
	s.Require().NoError(s.clients.Save(ctx, c))

	const writers = 10
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.runner.RunInTx(ctx, c.ID.String(), func(ctx context.Context) error {
				current, err := s.clients.FindByID(ctx, c.ID)
				if err != nil {
					return err
				}
				current.ApplyPayment(100, time.Now().UTC())
				return s.clients.Save(ctx, current)
			}))
		}()
	}
	wg.Wait()

	found, err := s.clients.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.Money(writers*100), found.PaidAmount)
}
