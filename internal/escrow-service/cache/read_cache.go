package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 30 * time.Second

// ReadCache é um cache read-through opcional na frente das leituras de
// carteira e escrow. Nunca é fonte de verdade: toda escrita no core invalida
// as chaves afetadas explicitamente.
type ReadCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client) *ReadCache {
	return &ReadCache{rdb: rdb, ttl: defaultTTL}
}

func WalletKey(userID, currency string) string { return "wallet:" + userID + ":" + currency }
func EscrowKey(escrowID string) string         { return "escrow:" + escrowID }

// Get carrega a chave e desserializa em dest. Cache ausente ou com erro é
// tratado como miss: o chamador vai ao banco.
func (c *ReadCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

// Set grava a chave com TTL curto; erro de cache não propaga.
func (c *ReadCache) Set(ctx context.Context, key string, v any) {
	if c == nil || c.rdb == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Invalidate remove as chaves após uma escrita que as tornou obsoletas.
func (c *ReadCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}
