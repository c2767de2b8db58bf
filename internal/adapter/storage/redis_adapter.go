package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

const (
	balanceKeyPrefix         = "balance:"
	defaultIdempotencyKeyTTL = 24 * time.Hour
)

// Lua numbers are doubles, so the balance check uses the integer reply of
// DECRBY and undoes the debit when it went negative.
var transferScript = redis.NewScript(`
local remaining = redis.call('DECRBY', KEYS[1], ARGV[1])
if remaining < 0 then
	redis.call('INCRBY', KEYS[1], ARGV[1])
	return 0
end

local credited = redis.pcall('INCRBY', KEYS[2], ARGV[1])
if type(credited) == 'table' and credited.err then
	redis.call('INCRBY', KEYS[1], ARGV[1])
	return redis.error_reply(credited.err)
end
return 1
`)

// RedisAdapter keeps balances and idempotency keys in Redis.
type RedisAdapter struct {
	client         *redis.Client
	idempotencyTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, idempotencyTTL time.Duration) *RedisAdapter {
	if idempotencyTTL <= 0 {
		idempotencyTTL = defaultIdempotencyKeyTTL
	}
	return &RedisAdapter{client: client, idempotencyTTL: idempotencyTTL}
}

func (r *RedisAdapter) Transfer(ctx context.Context, from, to domain.Identity, amount uint64) error {
	value, err := toInt64(amount)
	if err != nil {
		return err
	}

	keys := []string{balanceKeyPrefix + from.String(), balanceKeyPrefix + to.String()}
	result, err := transferScript.Run(ctx, r.client, keys, value).Int()
	if err != nil {
		return fmt.Errorf("transfer script: %w", err)
	}
	if result != 1 {
		return port.ErrInsufficientFunds
	}
	return nil
}

func (r *RedisAdapter) Deposit(ctx context.Context, owner domain.Identity, amount uint64) error {
	value, err := toInt64(amount)
	if err != nil {
		return err
	}
	if err := r.client.IncrBy(ctx, balanceKeyPrefix+owner.String(), value).Err(); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Balance(ctx context.Context, owner domain.Identity) (uint64, error) {
	balance, err := r.client.Get(ctx, balanceKeyPrefix+owner.String()).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
