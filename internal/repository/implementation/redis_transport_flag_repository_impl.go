package implementation

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// RedisTransportFlagRepositoryImpl shares the transport flag between hosts
// running the CLI for the same install.
type RedisTransportFlagRepositoryImpl struct {
	rdb *redis.Client
	key string
}

func NewRedisTransportFlagRepository(rdb *redis.Client, installID string) contract.TransportFlagRepository {
	return &RedisTransportFlagRepositoryImpl{
		rdb: rdb,
		key: fmt.Sprintf("rulesync:%s:transport.use_base64", installID),
	}
}

func (r *RedisTransportFlagRepositoryImpl) LoadMode(ctx context.Context) (entity.TransportMode, error) {
	raw, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return entity.TransportUnknown, nil
	}
	if err != nil {
		return entity.TransportUnknown, err
	}
	useBase64, err := strconv.ParseBool(raw)
	if err != nil {
		return entity.TransportUnknown, fmt.Errorf("stored transport flag %q: %w", raw, err)
	}
	if useBase64 {
		return entity.TransportEncoded, nil
	}
	return entity.TransportShell, nil
}

func (r *RedisTransportFlagRepositoryImpl) SaveMode(ctx context.Context, mode entity.TransportMode) error {
	if mode == entity.TransportUnknown {
		return r.ResetMode(ctx)
	}
	return r.rdb.Set(ctx, r.key, strconv.FormatBool(mode == entity.TransportEncoded), 0).Err()
}

func (r *RedisTransportFlagRepositoryImpl) ResetMode(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}
