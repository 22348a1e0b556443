package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

const activeIbansKey = "payments:ibans:active"

// RedisCache guarda a lista de IBANs ativos da empresa no Redis
// Client: cliente Redis
// TTL: tempo de expiração da lista
// Falha do Redis nunca derruba a leitura; cai direto no banco.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
	Log    *zap.Logger
}

func NewRedisCache(c *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{Client: c, TTL: ttl, Log: log}
}

// Active devolve a lista do cache ou chama load e grava o resultado com TTL
func (r *RedisCache) Active(ctx context.Context, load func(context.Context) ([]ledger.Iban, error)) ([]ledger.Iban, error) {
	b, err := r.Client.Get(ctx, activeIbansKey).Bytes()
	switch {
	case err == nil:
		var list []ledger.Iban
		if jerr := json.Unmarshal(b, &list); jerr == nil {
			return list, nil
		}
		r.Log.Warn("discarding corrupt iban cache entry")
	case !errors.Is(err, redis.Nil):
		r.Log.Warn("iban cache read", zap.Error(err))
	}

	list, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if b, err = json.Marshal(list); err == nil {
		if err := r.Client.Set(ctx, activeIbansKey, b, r.TTL).Err(); err != nil {
			r.Log.Warn("iban cache write", zap.Error(err))
		}
	}
	return list, nil
}

// Invalidate remove a lista após qualquer escrita no cadastro de IBANs
func (r *RedisCache) Invalidate(ctx context.Context) error {
	return r.Client.Del(ctx, activeIbansKey).Err()
}
