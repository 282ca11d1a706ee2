package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/auth/handler/mocks"
	"taxdesk/internal/auth/models"
	"taxdesk/internal/auth/service"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/requestcontext"
	"taxdesk/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type AuthHandlerSuite struct {
	suite.Suite
	svc    *mocks.MockService
	router chi.Router
	actor  *actormodels.Actor
	sid    id.SessionID
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) SetupTest() {
	s.svc = mocks.NewMockService(gomock.NewController(s.T()))
	s.actor = &actormodels.Actor{
		ID: id.NewActorID(), Name: "Sarah Johnson", Role: permission.RoleAdmin, IsActive: true,
		Permissions: []permission.Permission{permission.RequestDocuments},
	}
	s.sid = id.NewSessionID()

	// Stand-in for the session middleware.
	fakeSession := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = testutil.WithActor(r, s.actor)
			next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(r.Context(), s.sid)))
		})
	}
	s.router = chi.NewRouter()
	New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router, fakeSession)
}

func (s *AuthHandlerSuite) TestLogin() {
	s.Run("returns the token and admin", func() {
		expires := time.Date(2025, 4, 1, 17, 0, 0, 0, time.UTC)
		s.svc.EXPECT().Authenticate(gomock.Any(), "admin@taxpro.ca", "demo123").Return(&service.LoginResult{
			AccessToken: "signed.jwt.value",
			ExpiresAt:   expires,
			Session:     &models.Session{ID: s.sid, ActorID: s.actor.ID},
			Actor:       s.actor,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login",
			map[string]string{"email": " admin@taxpro.ca ", "password": "demo123"}))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		data := testutil.UnmarshalData[map[string]any](s.T(), rr)
		s.Equal("signed.jwt.value", data["accessToken"])
		s.NotContains(rr.Body.String(), "passwordHash")
	})

	s.Run("missing password is a validation error", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login",
			map[string]string{"email": "admin@taxpro.ca"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("bad credentials are 401 with the generic message", func() {
		s.svc.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login",
			map[string]string{"email": "x@taxpro.ca", "password": "nope"}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
		s.Equal("invalid email or password", testutil.UnmarshalErrorResponse(s.T(), rr)["message"])
	})
}

func (s *AuthHandlerSuite) TestLogout() {
	s.svc.EXPECT().Logout(gomock.Any(), s.actor, s.sid).Return(nil)
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/auth/logout"))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
}

func (s *AuthHandlerSuite) TestMe() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/auth/me"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	data := testutil.UnmarshalData[MeResponse](s.T(), rr)
	s.Equal(s.actor.ID, data.Admin.ID)
	s.Equal([]permission.Permission{permission.RequestDocuments}, data.Permissions)
}
