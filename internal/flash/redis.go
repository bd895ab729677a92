package flash

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to redis with short timeouts.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

// Redis keeps each session's messages in a list so several front end
// instances can share them.
type Redis struct {
	client *redis.Client
	prefix string
	size   int64
	ttl    time.Duration
}

// NewRedis builds a notifier using RPUSH and LRANGE/DEL.
func NewRedis(client *redis.Client, prefix string, size int, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "ignite:flash:"
	}
	if size <= 0 {
		size = 16
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Redis{client: client, prefix: prefix, size: int64(size), ttl: ttl}
}

func (r *Redis) key(session string) string {
	return r.prefix + session
}

// Push appends msg and refreshes the session expiry.
func (r *Redis) Push(ctx context.Context, session string, msg Message) error {
	if session == "" {
		return ErrNoSession
	}
	key := r.key(session)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, serialize(msg))
		p.LTrim(ctx, key, -r.size, -1)
		p.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return err
	}
	count(msg)
	return nil
}

// Drain reads and deletes the session list in one transaction.
func (r *Redis) Drain(ctx context.Context, session string) ([]Message, error) {
	key := r.key(session)
	var items *redis.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		items = p.LRange(ctx, key, 0, -1)
		p.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw := items.Val()
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Message, 0, len(raw))
	for _, s := range raw {
		out = append(out, deserialize(s))
	}
	return out, nil
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.client == nil {
		return false
	}
	return r.client.Ping(ctx).Err() == nil
}
