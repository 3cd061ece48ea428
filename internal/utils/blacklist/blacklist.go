package blacklist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	UserBlackList  = "blacklist:user:"
	TokenBlackList = "blacklist:token:"
)

var (
	ErrUserBanned   = errors.New("user is banned")
	ErrTokenRevoked = errors.New("token is revoked")
)

type Blacklist interface {
	BanUser(ctx context.Context, userID string, ttl time.Duration) error
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	CheckUser(ctx context.Context, userID string) error
	CheckToken(ctx context.Context, tokenID string) error
}

type RedisBlacklist struct {
	client      *redis.Client
	userPrefix  string
	tokenPrefix string
}

func NewRedisBlacklist(client *redis.Client, userPrefix, tokenPrefix string) *RedisBlacklist {
	return &RedisBlacklist{
		client:      client,
		userPrefix:  userPrefix,
		tokenPrefix: tokenPrefix,
	}
}

func (b *RedisBlacklist) BanUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.userPrefix+userID, "user_banned", ttl).Err(); err != nil {
		return fmt.Errorf("ban user: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.tokenPrefix+tokenID, "token_revoked", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) CheckUser(ctx context.Context, userID string) error {
	return b.check(ctx, b.userPrefix+userID, ErrUserBanned)
}

func (b *RedisBlacklist) CheckToken(ctx context.Context, tokenID string) error {
	return b.check(ctx, b.tokenPrefix+tokenID, ErrTokenRevoked)
}

func (b *RedisBlacklist) check(ctx context.Context, key string, listed error) error {
	_, err := b.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	} else if err != nil {
		return fmt.Errorf("check blacklist: %w", err)
	}
	return listed
}

// Memory is an in-process Blacklist for tests. Entries never expire.
type Memory struct {
	mu     sync.Mutex
	users  map[string]bool
	tokens map[string]bool
}

func NewMemory() *Memory {
	return &Memory{users: map[string]bool{}, tokens: map[string]bool{}}
}

func (m *Memory) BanUser(_ context.Context, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = true
	return nil
}

func (m *Memory) RevokeToken(_ context.Context, tokenID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenID] = true
	return nil
}

func (m *Memory) CheckUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users[userID] {
		return ErrUserBanned
	}
	return nil
}

func (m *Memory) CheckToken(_ context.Context, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens[tokenID] {
		return ErrTokenRevoked
	}
	return nil
}
