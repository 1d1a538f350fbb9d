package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const keyPrefix = "session:"

// RedisStore keeps sessions in Redis with a fixed TTL, so tokens expire
// server-side without a sweeper.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, eris.Wrap(err, "session: parse redis url")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrap(err, "session: connect to redis")
	}

	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Issue(ctx context.Context, sess Session) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	sess.IssuedAt = time.Now().UTC()

	payload, err := json.Marshal(sess)
	if err != nil {
		return "", eris.Wrap(err, "session: marshal")
	}
	if err := s.client.Set(ctx, keyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", eris.Wrap(err, "session: save")
	}
	return token, nil
}

func (s *RedisStore) Lookup(ctx context.Context, token string) (*Session, error) {
	payload, err := s.client.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "session: lookup")
	}

	var sess Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, eris.Wrap(err, "session: unmarshal")
	}
	return &sess, nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	return eris.Wrap(s.client.Del(ctx, keyPrefix+token).Err(), "session: revoke")
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
