package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-kis-trader/pkg/common"
	"golang-kis-trader/pkg/kis"

	"github.com/redis/go-redis/v9"
)

type cachedToken struct {
	Value     string    `json:"value"`
	Type      string    `json:"type"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresIn int64     `json:"expires_in"`
}

// RedisTokenCache shares issued tokens between service instances.
type RedisTokenCache struct {
	client *redis.Client
}

// NewRedisTokenCache creates a kis.TokenCache backed by Redis.
func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

// Get returns the cached token of the account, or nil when absent.
func (c *RedisTokenCache) Get(ctx context.Context, accountID uint) (*kis.Token, error) {
	raw, err := c.client.Get(ctx, fmt.Sprintf(common.RedisKeyKISToken, accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached cachedToken
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("decode cached token: %w", err)
	}
	return &kis.Token{
		Value:     cached.Value,
		Type:      cached.Type,
		IssuedAt:  cached.IssuedAt,
		ExpiresIn: cached.ExpiresIn,
	}, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, accountID uint, token kis.Token, ttl time.Duration) error {
	raw, err := json.Marshal(cachedToken{
		Value:     token.Value,
		Type:      token.Type,
		IssuedAt:  token.IssuedAt,
		ExpiresIn: token.ExpiresIn,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fmt.Sprintf(common.RedisKeyKISToken, accountID), raw, ttl).Err()
}

// RedisIssueGuard limits token issuance per app key across every service instance.
type RedisIssueGuard struct {
	client *redis.Client
	window time.Duration
}

// NewRedisIssueGuard allows one issuance per window for each app key.
func NewRedisIssueGuard(client *redis.Client, window time.Duration) *RedisIssueGuard {
	if window <= 0 {
		window = kis.RateLimitBackoff
	}
	return &RedisIssueGuard{client: client, window: window}
}

func (g *RedisIssueGuard) Acquire(ctx context.Context, appKey string) (bool, error) {
	return g.client.SetNX(ctx, fmt.Sprintf(common.RedisKeyKISIssueGuard, appKey), time.Now().Unix(), g.window).Result()
}
