package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

// Store keeps per-session question/answer history. Sessions are independent;
// each is capped at MaxConversationTurns with the oldest turns evicted first.
type Store interface {
	Append(ctx context.Context, session string, turns ...corpus.Turn) error
	History(ctx context.Context, session string) ([]corpus.Turn, error)
	Clear(ctx context.Context, session string) error
}

func sessionKey(session string) string {
	if session == "" {
		session = config.DefaultSession
	}
	return "conv:" + session
}

// RedisStore persists turns as a redis list, one JSON entry per turn.
type RedisStore struct {
	client *redis.Client
	logger *logger_i.Logger
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, logger: logger_i.NewLogger("conversation")}
}

func (s *RedisStore) Append(ctx context.Context, session string, turns ...corpus.Turn) error {
	key := sessionKey(session)
	entries := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = time.Now()
		}
		data, err := json.Marshal(turn)
		if err != nil {
			return err
		}
		entries = append(entries, data)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, entries...)
	pipe.LTrim(ctx, key, -int64(config.MaxConversationTurns), -1)
	pipe.Expire(ctx, key, config.RedisConversationTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) History(ctx context.Context, session string) ([]corpus.Turn, error) {
	raw, err := s.client.LRange(ctx, sessionKey(session), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	turns := make([]corpus.Turn, 0, len(raw))
	for _, entry := range raw {
		var turn corpus.Turn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			s.logger.Warn("skipping corrupt conversation entry", "session", session)
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisStore) Clear(ctx context.Context, session string) error {
	return s.client.Del(ctx, sessionKey(session)).Err()
}

// MemoryStore is the fallback when redis is offline: same semantics, process
// lifetime only.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]corpus.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]corpus.Turn)}
}

func (s *MemoryStore) Append(ctx context.Context, session string, turns ...corpus.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(session)
	for _, turn := range turns {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = time.Now()
		}
		s.sessions[key] = append(s.sessions[key], turn)
	}
	if extra := len(s.sessions[key]) - config.MaxConversationTurns; extra > 0 {
		s.sessions[key] = s.sessions[key][extra:]
	}
	return nil
}

func (s *MemoryStore) History(ctx context.Context, session string) ([]corpus.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.sessions[sessionKey(session)]
	out := make([]corpus.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(session))
	return nil
}
