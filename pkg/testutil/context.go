package testutil

import (
	"net/http"

	"taxdesk/internal/actors/models"
	"taxdesk/pkg/requestcontext"
)

// WithActor simulates the session middleware for an authenticated request.
func WithActor(req *http.Request, actor *models.Actor) *http.Request {
	ctx := models.WithActor(req.Context(), actor)
	if actor != nil {
		ctx = requestcontext.WithActorID(ctx, actor.ID)
	}
	return req.WithContext(ctx)
}
