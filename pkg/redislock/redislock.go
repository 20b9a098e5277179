// Package redislock простая распределённая блокировка на Redis (SET NX PX)
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrNotObtained = errors.New("redislock: lock not obtained")
	ErrNotHeld     = errors.New("redislock: lock not held")
)

// снимаем блокировку только если она всё ещё наша
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type Locker struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// Lock удерживаемая блокировка
type Lock struct {
	client redis.UniversalClient
	key    string
	token  string
}

// TryLock пытается взять блокировку без ожидания
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redislock: set %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrNotObtained
	}
	return &Lock{client: l.client, key: fullKey, token: token}, nil
}

func (l *Lock) Key() string {
	return l.key
}

// Refresh продлевает блокировку
func (l *Lock) Refresh(ctx context.Context, ttl time.Duration) error {
	res, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("redislock: refresh %s: %w", l.key, err)
	}
	if res == 0 {
		return ErrNotHeld
	}
	return nil
}

// Release снимает блокировку
func (l *Lock) Release(ctx context.Context) error {
	res, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("redislock: release %s: %w", l.key, err)
	}
	if res == 0 {
		return ErrNotHeld
	}
	return nil
}
