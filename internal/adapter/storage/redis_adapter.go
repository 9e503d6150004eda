package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	balanceKeyPrefix  = "stock:balance:"
	idempotencyKeyTTL = 24 * time.Hour
)

// RedisAdapter mirrors committed balances for fast reads and holds
// idempotency keys. MySQL stays the source of truth; a cache miss just
// falls through to it.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetBalance(ctx context.Context, itemID uuid.UUID, balance decimal.Decimal) error {
	key := balanceKeyPrefix + itemID.String()
	return r.client.Set(ctx, key, balance.String(), 0).Err()
}

func (r *RedisAdapter) GetBalance(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, bool, error) {
	key := balanceKeyPrefix + itemID.String()

	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse cached balance %q: %w", raw, err)
	}
	return balance, true, nil
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ClearIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
