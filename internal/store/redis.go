package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is the production Store, backed by a single Redis instance
// (github.com/redis/go-redis/v9). It imposes no schema beyond the key
// layout in internal/model/keys.go: every value is a JSON-encoded record
// or a plain scalar string.
type RedisStore struct {
	client *redis.Client
	log    *zap.Logger
}

// Config is the subset of connection parameters a RedisStore needs. It is
// deliberately smaller than redis.Options — callers that need TLS or
// cluster support should construct a *redis.Client themselves and use
// NewWithClient.
type Config struct {
	Addr     string
	Password string
	DB       int

	// DialTimeout, ReadTimeout and WriteTimeout default to go-redis's own
	// defaults (5s, 3s, 3s) when zero.
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New dials a Redis instance and returns a Store backed by it. It does not
// block for connectivity — the first real command surfaces any dial error.
func New(cfg Config, log *zap.Logger) *RedisStore {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	client := redis.NewClient(opts)
	if log == nil {
		log = zap.NewNop()
	}
	s := &RedisStore{client: client, log: log.Named("store")}
	if debugHookEnabled() {
		client.AddHook(newDebugHook(s.log))
	}
	return s
}

// NewWithClient wraps an already-configured *redis.Client. Useful for
// cluster/sentinel clients or in tests that want a miniredis-backed client.
func NewWithClient(client *redis.Client, log *zap.Logger) *RedisStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisStore{client: client, log: log.Named("store")}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr("get", err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return wrapErr("set", s.client.Set(ctx, key, value, 0).Err())
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	return wrapErr("del", s.client.Del(ctx, key).Err())
}

func (s *RedisStore) SetAdd(ctx context.Context, key, member string) error {
	return wrapErr("sadd", s.client.SAdd(ctx, key, member).Err())
}

func (s *RedisStore) SetRemove(ctx context.Context, key, member string) error {
	return wrapErr("srem", s.client.SRem(ctx, key, member).Err())
}

func (s *RedisStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, wrapErr("smembers", err)
	}
	return members, nil
}

func (s *RedisStore) SetIsMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, wrapErr("sismember", err)
	}
	return ok, nil
}

func (s *RedisStore) SetCard(ctx context.Context, key string) (int64, error) {
	n, err := s.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, wrapErr("scard", err)
	}
	return n, nil
}

func (s *RedisStore) NewBatch() *Batch { return &Batch{} }

// Commit replays every op in b inside a single MULTI/EXEC transaction via
// TxPipelined, so a batch either lands in full or not at all (spec.md P4).
func (s *RedisStore) Commit(ctx context.Context, b *Batch) error {
	if b.Len() == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, o := range b.Ops() {
			switch o.Kind {
			case OpSet:
				pipe.Set(ctx, o.Key, o.Value, 0)
			case OpDel:
				pipe.Del(ctx, o.Key)
			case OpSetAdd:
				pipe.SAdd(ctx, o.Key, o.Value)
			case OpSetRemove:
				pipe.SRem(ctx, o.Key, o.Value)
			}
		}
		return nil
	})
	return wrapErr("commit", err)
}

// Flush removes every key in the currently selected database. For tests only.
func (s *RedisStore) Flush(ctx context.Context) error {
	return wrapErr("flush", s.client.FlushDB(ctx).Err())
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }
