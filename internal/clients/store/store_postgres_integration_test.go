//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	actormodels "taxdesk/internal/actors/models"
	actorstore "taxdesk/internal/actors/store"
	"taxdesk/internal/clients/models"
	"taxdesk/internal/clients/store"
	"taxdesk/internal/permission"
	"taxdesk/internal/workflow"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/sentinel"
	"taxdesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	clients   *store.PostgresClients
	documents *store.PostgresDocuments
	payments  *store.PostgresPayments
	notes     *store.PostgresNotes
	admin     *actormodels.Actor
	now       time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.clients = store.NewPostgresClients(s.postgres.DB)
	s.documents = store.NewPostgresDocuments(s.postgres.DB)
	s.payments = store.NewPostgresPayments(s.postgres.DB)
	s.notes = store.NewPostgresNotes(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "clients", "actors"))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.admin = &actormodels.Actor{
		ID: id.NewActorID(), Name: "Sarah Johnson", Email: "admin@taxpro.ca",
		Role: permission.RoleAdmin, IsActive: true, PasswordHash: "x",
		CreatedAt: s.now, UpdatedAt: s.now,
	}
	s.Require().NoError(actorstore.NewPostgres(s.postgres.DB).Save(ctx, s.admin))
}

func (s *PostgresStoreSuite) newClient(name string) *models.Client {
	c, err := models.NewClient(id.NewClientID(), name, name+"@example.ca", "416-555-0100", 2025, 50000, s.now)
	s.Require().NoError(err)
	return c
}

func (s *PostgresStoreSuite) TestClientRoundTrip() {
	ctx := context.Background()
	c := s.newClient("emily")
	c.ApplyPayment(20000, s.now)
	c.SetStatus(workflow.AwaitingPayment, s.admin.ID, s.now)
	c.Assign(s.admin.ID, s.now)
	s.Require().NoError(s.clients.Save(ctx, c))

	found, err := s.clients.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(workflow.AwaitingPayment, found.Status)
	s.Equal(models.Money(20000), found.PaidAmount)
	s.Equal(models.PaymentPartial, found.PaymentStatus)
	s.Require().NotNil(found.AssignedAdminID)
	s.Equal(s.admin.ID, *found.AssignedAdminID)

	counts, err := s.clients.CountAssigned(ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[s.admin.ID])
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	a, b := s.newClient("liam"), s.newClient("olivia")
	b.SetStatus(workflow.UnderReview, s.admin.ID, s.now)
	s.Require().NoError(s.clients.Save(ctx, a))
	s.Require().NoError(s.clients.Save(ctx, b))

	all, err := s.clients.List(ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	byStatus, err := s.clients.List(ctx, models.ListFilter{Status: workflow.UnderReview})
	s.Require().NoError(err)
	s.Require().Len(byStatus, 1)
	s.Equal(b.ID, byStatus[0].ID)

	bySearch, err := s.clients.List(ctx, models.ListFilter{Search: "LIAM"})
	s.Require().NoError(err)
	s.Require().Len(bySearch, 1)
	s.Equal(a.ID, bySearch[0].ID)
}

func (s *PostgresStoreSuite) TestDeleteCascades() {
	ctx := context.Background()
	c := s.newClient("noah")
	s.Require().NoError(s.clients.Save(ctx, c))

	doc, err := models.NewDocument(id.NewDocumentID(), c.ID, models.SectionPersonalInfo, "T4 slip", "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.documents.Save(ctx, doc))
	p, err := models.NewPayment(c.ID, 10000, "e-transfer", "", s.admin.ID, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.payments.Append(ctx, p))
	n, err := models.NewNote(c.ID, s.admin.ID, s.admin.Name, "called client", false, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.notes.Append(ctx, n))

	sum, err := s.payments.SumByClient(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.Money(10000), sum)

	s.Require().NoError(s.clients.Delete(ctx, c.ID))
	s.ErrorIs(s.clients.Delete(ctx, c.ID), sentinel.ErrNotFound)

	docs, err := s.documents.ListByClient(ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(docs)
	pays, err := s.payments.ListByClient(ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(pays)
	notes, err := s.notes.ListByClient(ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(notes)
}

func (s *PostgresStoreSuite) TestDocumentListAndDelete() {
	ctx := context.Background()
	c := s.newClient("ava")
	s.Require().NoError(s.clients.Save(ctx, c))

	first, err := models.NewDocument(id.NewDocumentID(), c.ID, models.SectionEmployment, "T4 slip", "", s.now)
	s.Require().NoError(err)
	second, err := models.NewDocument(id.NewDocumentID(), c.ID, models.SectionRRSP, "RRSP receipt", "", s.now.Add(time.Minute))
	s.Require().NoError(err)
	second.MarkMissing("page 2 missing", s.now)
	s.Require().NoError(s.documents.Save(ctx, first))
	s.Require().NoError(s.documents.Save(ctx, second))

	all, err := s.documents.List(ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(first.ID, all[0].ID)

	missing, err := s.documents.List(ctx, models.DocumentMissing)
	s.Require().NoError(err)
	s.Require().Len(missing, 1)
	s.Equal(second.ID, missing[0].ID)

	counts, err := s.documents.CountByStatus(ctx)
	s.Require().NoError(err)
	s.Equal(map[models.DocumentStatus]int{models.DocumentPending: 1, models.DocumentMissing: 1}, counts)

	s.Require().NoError(s.documents.Delete(ctx, first.ID))
	s.ErrorIs(s.documents.Delete(ctx, first.ID), sentinel.ErrNotFound)
	_, err = s.documents.FindByID(ctx, first.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeletingAdminUnassigns() {
	ctx := context.Background()
	c := s.newClient("ava")
	c.Assign(s.admin.ID, s.now)
	s.Require().NoError(s.clients.Save(ctx, c))

	s.Require().NoError(actorstore.NewPostgres(s.postgres.DB).Delete(ctx, s.admin.ID))

	found, err := s.clients.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Nil(found.AssignedAdminID)
}
