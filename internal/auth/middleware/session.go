// Package middleware guards routes that need a signed-in staff member.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/auth/models"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/httputil"
	request "taxdesk/pkg/platform/middleware/request"
	"taxdesk/pkg/requestcontext"
)

// Authenticator resolves an access token to the acting account.
type Authenticator interface {
	CurrentActor(ctx context.Context, accessToken string) (*actormodels.Actor, *models.Session, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireSession rejects requests without a live session and stores the
// actor snapshot, actor ID and session ID on the request context.
func RequireSession(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			accessToken, ok := BearerToken(r)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}
			actor, session, err := auth.CurrentActor(ctx, accessToken)
			if err != nil {
				logger.InfoContext(ctx, "session rejected", "error", err, "request_id", request.GetRequestID(ctx))
				httputil.WriteError(w, err)
				return
			}
			ctx = actormodels.WithActor(ctx, actor)
			ctx = requestcontext.WithActorID(ctx, actor.ID)
			ctx = requestcontext.WithSessionID(ctx, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
