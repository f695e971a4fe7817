// internal/server/session.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Samtoosoon/bankgpt/internal/models"

	"github.com/redis/go-redis/v9"
)

// Session is the caller-side conversation record the server keeps between
// turns: the accumulated state, the full message history and whether the
// sanction letter already went out.
type Session struct {
	ID           string                   `json:"id"`
	State        models.ConversationState `json:"state"`
	History      []models.Message         `json:"history"`
	SanctionSent bool                     `json:"sanctionSent"`
}

// SessionStore persists sessions in Redis under "session:<id>" with a
// sliding TTL, so abandoned conversations expire on their own.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: rdb, ttl: ttl}
}

// Load returns the stored session, or a fresh one when the id is unknown
// or expired.
func (s *SessionStore) Load(ctx context.Context, id string) (*Session, error) {
	val, err := s.redis.Get(ctx, "session:"+id).Result()
	if errors.Is(err, redis.Nil) {
		return &Session{ID: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.redis.Set(ctx, "session:"+sess.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
