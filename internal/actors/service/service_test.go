package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"taxdesk/internal/actors/models"
	"taxdesk/internal/actors/store"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/audit"
	auditmemory "taxdesk/pkg/platform/audit/store/memory"
	"taxdesk/pkg/platform/tx"
)

type fixedWorkload map[id.ActorID]int

func (f fixedWorkload) CountAssigned(context.Context) (map[id.ActorID]int, error) {
	return f, nil
}

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *store.InMemory
	auditStore *auditmemory.Store
	service    *Service
	superadmin *models.Actor
	admin      *models.Actor
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.auditStore = auditmemory.NewStore()

	var err error
	s.service, err = New(s.store, tx.NewShardedRunner(time.Second), audit.NewRecorder(s.auditStore),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	s.superadmin = &models.Actor{ID: id.NewActorID(), Name: "John Smith", Email: "superadmin@taxpro.ca", Role: permission.RoleSuperAdmin, IsActive: true}
	s.admin = &models.Actor{ID: id.NewActorID(), Name: "Sarah Johnson", Email: "admin@taxpro.ca", Role: permission.RoleAdmin, IsActive: true,
		Permissions: []permission.Permission{permission.AddEditClient}}
	s.Require().NoError(s.store.Save(s.ctx, s.superadmin))
	s.Require().NoError(s.store.Save(s.ctx, s.admin))
}

func (s *ServiceSuite) auditCount() int {
	n, err := s.auditStore.Count(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *ServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, tx.NewShardedRunner(0), audit.NewRecorder(s.auditStore))
		s.ErrorContains(err, "actor store is required")
	})
	s.Run("nil auditor returns error", func() {
		_, err := New(s.store, tx.NewShardedRunner(0), nil)
		s.ErrorContains(err, "audit recorder is required")
	})
}

func (s *ServiceSuite) TestCreateAdmin() {
	req := CreateAdminRequest{
		Name:        "Mia Chen",
		Email:       "  Mia@TaxPro.ca ",
		Password:    "demo123",
		Permissions: []permission.Permission{permission.RequestDocuments, permission.RequestDocuments, permission.UpdateWorkflow},
	}

	s.Run("superadmin creates an active admin", func() {
		a, err := s.service.CreateAdmin(s.ctx, s.superadmin, req)
		s.Require().NoError(err)
		s.Equal("mia@taxpro.ca", a.Email)
		s.Equal(permission.RoleAdmin, a.Role)
		s.True(a.IsActive)
		s.Equal([]permission.Permission{permission.RequestDocuments, permission.UpdateWorkflow}, a.Permissions)
		s.NotEqual("demo123", a.PasswordHash)

		entries, err := s.auditStore.List(s.ctx, audit.Filter{})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionAdminCreated, entries[0].Action)
		s.Equal("John Smith", entries[0].ActorName)
	})

	s.Run("duplicate email conflicts without an audit entry", func() {
		before := s.auditCount()
		_, err := s.service.CreateAdmin(s.ctx, s.superadmin, req)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(before, s.auditCount())
	})

	s.Run("admin cannot create staff", func() {
		_, err := s.service.CreateAdmin(s.ctx, s.admin, CreateAdminRequest{Name: "X", Email: "x@taxpro.ca", Password: "demo123"})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	s.Run("name and email are required", func() {
		_, err := s.service.CreateAdmin(s.ctx, s.superadmin, CreateAdminRequest{Email: "y@taxpro.ca", Password: "demo123"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.CreateAdmin(s.ctx, s.superadmin, CreateAdminRequest{Name: "Y", Email: "not-an-email", Password: "demo123"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestUpdateAdmin() {
	s.Run("replaces permissions and records the change", func() {
		updated, err := s.service.UpdateAdmin(s.ctx, s.superadmin, s.admin.ID, UpdateAdminRequest{
			Permissions: []permission.Permission{permission.AddEditPayment, permission.ViewAnalytics},
		})
		s.Require().NoError(err)
		s.Equal([]permission.Permission{permission.AddEditPayment, permission.ViewAnalytics}, updated.Permissions)

		entries, err := s.auditStore.List(s.ctx, audit.Filter{Action: "Admin Updated"})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal("Add/Edit Clients", *entries[0].OldValue)
		s.Equal("Add/Edit Payments, View Analytics", *entries[0].NewValue)
	})

	s.Run("unknown admin", func() {
		_, err := s.service.UpdateAdmin(s.ctx, s.superadmin, id.NewActorID(), UpdateAdminRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestSetActive() {
	s.Run("deactivates another admin", func() {
		a, err := s.service.SetActive(s.ctx, s.superadmin, s.admin.ID, false)
		s.Require().NoError(err)
		s.False(a.IsActive)

		_, err = s.service.FindActive(s.ctx, s.admin.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("cannot deactivate self", func() {
		_, err := s.service.SetActive(s.ctx, s.superadmin, s.superadmin.ID, false)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestDeleteAdmin() {
	s.Run("cannot delete self", func() {
		err := s.service.DeleteAdmin(s.ctx, s.superadmin, s.superadmin.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("deletes and audits", func() {
		s.Require().NoError(s.service.DeleteAdmin(s.ctx, s.superadmin, s.admin.ID))
		_, err := s.service.Get(s.ctx, s.superadmin, s.admin.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		entries, err := s.auditStore.List(s.ctx, audit.Filter{Action: "Admin Deleted"})
		s.Require().NoError(err)
		s.Len(entries, 1)
	})
}

func (s *ServiceSuite) TestListAdmins() {
	WithWorkloadCounter(fixedWorkload{s.admin.ID: 3})(s.service)

	list, err := s.service.ListAdmins(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Require().Len(list, 2)

	counts := map[string]int{}
	for _, w := range list {
		counts[w.Actor.Email] = w.AssignedClients
	}
	s.Equal(3, counts["admin@taxpro.ca"])
	s.Equal(0, counts["superadmin@taxpro.ca"])

	_, err = s.service.ListAdmins(s.ctx, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

type recordingRevoker struct{ revoked []id.ActorID }

func (r *recordingRevoker) RevokeActor(_ context.Context, actorID id.ActorID) error {
	r.revoked = append(r.revoked, actorID)
	return nil
}

func (s *ServiceSuite) TestLosingAccessRevokesSessions() {
	revoker := &recordingRevoker{}
	svc, err := New(s.store, tx.NewShardedRunner(time.Second), audit.NewRecorder(s.auditStore), WithSessionRevoker(revoker))
	s.Require().NoError(err)

	_, err = svc.SetActive(s.ctx, s.superadmin, s.admin.ID, true)
	s.Require().NoError(err)
	s.Empty(revoker.revoked, "activating keeps sessions")

	_, err = svc.SetActive(s.ctx, s.superadmin, s.admin.ID, false)
	s.Require().NoError(err)
	s.Require().NoError(svc.DeleteAdmin(s.ctx, s.superadmin, s.admin.ID))

	s.Equal([]id.ActorID{s.admin.ID, s.admin.ID}, revoker.revoked)
}
