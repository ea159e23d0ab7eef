// File: services/intelligence/contextStore.go
package intelligence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ragdesk/models"
	"ragdesk/services/booking"

	"github.com/go-redis/redis/v8"
)

const sessionPrefix = "chat:session:"

// RedisSessionStore keeps sessions as JSON with a sliding TTL. A positive
// historyLimit trims the stored transcript to its last messages on save.
type RedisSessionStore struct {
	client       *redis.Client
	ttl          time.Duration
	historyLimit int
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, historyLimit int) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl, historyLimit: historyLimit}
}

func (s *RedisSessionStore) Load(ctx context.Context, id string) (*models.ConversationSession, error) {
	data, err := s.client.Get(ctx, sessionPrefix+id).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, booking.NewCollaboratorError("load session", err)
	}
	var sess models.ConversationSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, booking.NewCollaboratorError("decode session", err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *models.ConversationSession) error {
	trimHistory(sess, s.historyLimit)
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionPrefix+sess.ID, b, s.ttl).Err(); err != nil {
		return booking.NewCollaboratorError("save session", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionPrefix+id).Err(); err != nil {
		return booking.NewCollaboratorError("delete session", err)
	}
	return nil
}

// MemorySessionStore keeps sessions in process for their whole lifetime; the
// transcript is never trimmed. Sessions are copied on the way in and out so
// callers never share state with the store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]byte)}
}

func (s *MemorySessionStore) Load(_ context.Context, id string) (*models.ConversationSession, error) {
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var sess models.ConversationSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *MemorySessionStore) Save(_ context.Context, sess *models.ConversationSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[sess.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func trimHistory(sess *models.ConversationSession, limit int) {
	if limit > 0 && len(sess.Messages) > limit {
		sess.Messages = append([]models.ChatMessage(nil), sess.Messages[len(sess.Messages)-limit:]...)
	}
}
