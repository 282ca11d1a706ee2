// Package handler exposes sign-in, sign-out and the current-actor lookup.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/auth/service"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/httputil"
	request "taxdesk/pkg/platform/middleware/request"
	"taxdesk/pkg/requestcontext"
)

type Service interface {
	Authenticate(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, actor *actormodels.Actor, sessionID id.SessionID) error
}

type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// Register mounts /auth. requireSession guards the routes that need a
// signed-in actor.
func (h *Handler) Register(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Post("/logout", h.handleLogout)
			r.Get("/me", h.handleMe)
		})
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

// MeResponse is the signed-in actor with its resolved capability set.
type MeResponse struct {
	Admin       *actormodels.Actor      `json:"admin"`
	Permissions []permission.Permission `json:"permissions"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.auth.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.writeFailure(ctx, w, "sign-in failed", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, result, nil)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.auth.Logout(ctx, actormodels.ActorFrom(ctx), requestcontext.SessionID(ctx)); err != nil {
		h.writeFailure(ctx, w, "sign-out failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := actormodels.ActorFrom(r.Context())
	if actor == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Session expired. Please log in again."))
		return
	}
	httputil.WriteData(w, http.StatusOK, MeResponse{Admin: actor, Permissions: permission.Effective(actor)}, nil)
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	}
	httputil.WriteError(w, err)
}
