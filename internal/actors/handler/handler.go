// Package handler exposes staff account management over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"taxdesk/internal/actors/models"
	"taxdesk/internal/actors/service"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/httputil"
	request "taxdesk/pkg/platform/middleware/request"
)

// Service is the subset of the actor service used by the handler.
type Service interface {
	CreateAdmin(ctx context.Context, actor *models.Actor, req service.CreateAdminRequest) (*models.Actor, error)
	UpdateAdmin(ctx context.Context, actor *models.Actor, adminID id.ActorID, req service.UpdateAdminRequest) (*models.Actor, error)
	SetActive(ctx context.Context, actor *models.Actor, adminID id.ActorID, active bool) (*models.Actor, error)
	DeleteAdmin(ctx context.Context, actor *models.Actor, adminID id.ActorID) error
	Get(ctx context.Context, actor *models.Actor, adminID id.ActorID) (*models.Actor, error)
	ListAdmins(ctx context.Context, actor *models.Actor) ([]models.Workload, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the admin routes. The caller applies session middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admins", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}", h.handleUpdate)
		r.Put("/{id}/active", h.handleSetActive)
		r.Delete("/{id}", h.handleDelete)
	})
}

type CreateAdminRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`

	role  permission.Role
	perms []permission.Permission
}

func (r *CreateAdminRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	r.role = permission.RoleAdmin
	if r.Role != "" {
		role, err := permission.ParseRole(r.Role)
		if err != nil {
			return err
		}
		r.role = role
	}
	perms, err := permission.ParseAll(r.Permissions)
	if err != nil {
		return err
	}
	r.perms = perms
	return nil
}

type UpdateAdminRequest struct {
	Name        *string  `json:"name"`
	Permissions []string `json:"permissions"`

	perms []permission.Permission
}

func (r *UpdateAdminRequest) Validate() error {
	if r.Permissions == nil {
		return nil
	}
	perms, err := permission.ParseAll(r.Permissions)
	if err != nil {
		return err
	}
	r.perms = perms
	return nil
}

type SetActiveRequest struct {
	Active *bool `json:"active"`
}

func (r *SetActiveRequest) Validate() error {
	if r.Active == nil {
		return dErrors.New(dErrors.CodeValidation, "active is required")
	}
	return nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workloads, err := h.svc.ListAdmins(ctx, models.ActorFrom(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to list admins", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, workloads, httputil.NewMeta(1, 0, len(workloads)))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateAdminRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	created, err := h.svc.CreateAdmin(ctx, models.ActorFrom(ctx), service.CreateAdminRequest{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.role,
		Permissions: req.perms,
	})
	if err != nil {
		h.fail(ctx, w, "failed to create admin", err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, created, nil)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, ok := h.adminID(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Get(ctx, models.ActorFrom(ctx), adminID)
	if err != nil {
		h.fail(ctx, w, "failed to get admin", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, a, nil)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, ok := h.adminID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateAdminRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.svc.UpdateAdmin(ctx, models.ActorFrom(ctx), adminID, service.UpdateAdminRequest{
		Name:        req.Name,
		Permissions: req.perms,
	})
	if err != nil {
		h.fail(ctx, w, "failed to update admin", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, updated, nil)
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, ok := h.adminID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetActiveRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.svc.SetActive(ctx, models.ActorFrom(ctx), adminID, *req.Active)
	if err != nil {
		h.fail(ctx, w, "failed to change admin status", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, updated, nil)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, ok := h.adminID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteAdmin(ctx, models.ActorFrom(ctx), adminID); err != nil {
		h.fail(ctx, w, "failed to delete admin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminID(w http.ResponseWriter, r *http.Request) (id.ActorID, bool) {
	adminID, err := id.ParseActorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ActorID{}, false
	}
	return adminID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	}
	httputil.WriteError(w, err)
}
