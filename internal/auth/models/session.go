package models

import (
	"time"

	id "taxdesk/pkg/domain"
)

// Session is a signed-in staff session. The access token only carries the
// session ID; everything else is looked up on each request.
type Session struct {
	ID        id.SessionID `json:"id"`
	ActorID   id.ActorID   `json:"actorId"`
	Device    string       `json:"device"`
	ClientIP  string       `json:"clientIp,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TTL is the remaining lifetime, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	return max(s.ExpiresAt.Sub(now), 0)
}
