package implementation

import (
	"context"
	"errors"

	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const redisRulePrefix = "rulesync:rules:"

type RedisRuleTextRepositoryImpl struct {
	rdb *redis.Client
}

func NewRedisRuleTextRepository(rdb *redis.Client) contract.RuleTextRepository {
	return &RedisRuleTextRepositoryImpl{rdb: rdb}
}

func (r *RedisRuleTextRepositoryImpl) Get(ctx context.Context, classification entity.Classification) (string, bool, error) {
	text, err := r.rdb.Get(ctx, redisRulePrefix+classification.Key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (r *RedisRuleTextRepositoryImpl) Put(ctx context.Context, classification entity.Classification, text string) error {
	return r.rdb.Set(ctx, redisRulePrefix+classification.Key(), text, 0).Err()
}
