package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"taxdesk/internal/actors/handler/mocks"
	"taxdesk/internal/actors/models"
	"taxdesk/internal/actors/service"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type AdminHandlerSuite struct {
	suite.Suite
	svc    *mocks.MockService
	router chi.Router
	root   *models.Actor
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.svc = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.root = &models.Actor{ID: id.NewActorID(), Name: "John Smith", Role: permission.RoleSuperAdmin, IsActive: true}
}

func (s *AdminHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithActor(req, s.root))
}

func (s *AdminHandlerSuite) TestCreate() {
	s.Run("parses permissions and returns 201", func() {
		s.svc.EXPECT().CreateAdmin(gomock.Any(), s.root, service.CreateAdminRequest{
			Name:        "Sarah Johnson",
			Email:       "sarah@taxpro.ca",
			Password:    "demo123",
			Role:        permission.RoleAdmin,
			Permissions: []permission.Permission{permission.AddEditClient, permission.RequestDocuments},
		}).Return(&models.Actor{ID: id.NewActorID(), Name: "Sarah Johnson"}, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admins", map[string]any{
			"name":        "Sarah Johnson",
			"email":       "sarah@taxpro.ca",
			"password":    "demo123",
			"permissions": []string{"add_edit_client", "request_documents", "add_edit_client"},
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		created := testutil.UnmarshalData[map[string]any](s.T(), rr)
		s.Equal("Sarah Johnson", created["name"])
	})

	s.Run("unknown permission is rejected before the service", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admins", map[string]any{
			"name":        "Sarah Johnson",
			"email":       "sarah@taxpro.ca",
			"password":    "demo123",
			"permissions": []string{"delete_everything"},
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("service rejection maps to status", func() {
		s.svc.EXPECT().CreateAdmin(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists"))

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admins", map[string]any{
			"name": "Sarah", "email": "sarah@taxpro.ca", "password": "demo123",
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
	})
}

func (s *AdminHandlerSuite) TestList() {
	s.svc.EXPECT().ListAdmins(gomock.Any(), s.root).Return([]models.Workload{
		{Actor: s.root, AssignedClients: 3},
	}, nil)

	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/admins"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	list := testutil.UnmarshalData[[]map[string]any](s.T(), rr)
	s.Require().Len(list, 1)
	s.EqualValues(3, list[0]["assignedClients"])
}

func (s *AdminHandlerSuite) TestGet_InvalidID() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/admins/not-a-uuid"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *AdminHandlerSuite) TestUpdate_OmittedPermissionsStayNil() {
	adminID := id.NewActorID()
	s.svc.EXPECT().UpdateAdmin(gomock.Any(), s.root, adminID, gomock.Any()).
		DoAndReturn(func(_ any, _ *models.Actor, _ id.ActorID, req service.UpdateAdminRequest) (*models.Actor, error) {
			s.Nil(req.Permissions)
			s.Equal("Sarah J.", *req.Name)
			return &models.Actor{ID: adminID, Name: *req.Name}, nil
		})

	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPatch, "/admins/"+adminID.String(), map[string]any{"name": "Sarah J."}))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *AdminHandlerSuite) TestSetActive() {
	adminID := id.NewActorID()

	s.Run("requires the active flag", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/admins/"+adminID.String()+"/active", map[string]any{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("passes the flag through", func() {
		s.svc.EXPECT().SetActive(gomock.Any(), s.root, adminID, false).Return(&models.Actor{ID: adminID}, nil)
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/admins/"+adminID.String()+"/active", map[string]any{"active": false}))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}

func (s *AdminHandlerSuite) TestDelete() {
	adminID := id.NewActorID()

	s.Run("returns 204", func() {
		s.svc.EXPECT().DeleteAdmin(gomock.Any(), s.root, adminID).Return(nil)
		rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/admins/"+adminID.String()))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("permission denied is 403", func() {
		s.svc.EXPECT().DeleteAdmin(gomock.Any(), s.root, adminID).
			Return(dErrors.New(dErrors.CodePermissionDenied, "only superadmins can manage admins"))
		rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/admins/"+adminID.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodePermissionDenied))
	})
}
