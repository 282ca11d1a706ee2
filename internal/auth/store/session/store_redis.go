package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taxdesk/internal/auth/models"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix = "taxdesk:session:"
	actorKeyPrefix   = "taxdesk:actor_sessions:"
)

// RedisStore keeps each session as a JSON value whose TTL matches the
// session expiry, plus a per-actor index set used for bulk sign-out.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func sessionKey(sessionID id.SessionID) string { return sessionKeyPrefix + sessionID.String() }
func actorKey(actorID id.ActorID) string       { return actorKeyPrefix + actorID.String() }

func (s *RedisStore) Save(ctx context.Context, session *models.Session) error {
	ttl := session.TTL(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), payload, ttl)
	pipe.SAdd(ctx, actorKey(session.ActorID), session.ID.String())
	pipe.ExpireGT(ctx, actorKey(session.ActorID), ttl)
	pipe.ExpireNX(ctx, actorKey(session.ActorID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID id.SessionID) error {
	session, err := s.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, actorKey(session.ActorID), sessionID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteByActor(ctx context.Context, actorID id.ActorID) (int, error) {
	members, err := s.client.SMembers(ctx, actorKey(actorID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list actor sessions: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, sessionKeyPrefix+m)
	}
	keys = append(keys, actorKey(actorID))
	removed, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("delete actor sessions: %w", err)
	}
	// The index key itself is counted by DEL.
	return int(max(removed-1, 0)), nil
}
