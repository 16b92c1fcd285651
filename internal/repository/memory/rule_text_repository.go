package memory

import (
	"context"

	"clash-rulesync/internal/entity"

	"github.com/patrickmn/go-cache"
)

// RuleTextRepository keeps edge documents in process memory. Contents are
// lost on restart.
type RuleTextRepository struct {
	cache *cache.Cache
}

func NewRuleTextRepository() *RuleTextRepository {
	return &RuleTextRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *RuleTextRepository) Get(ctx context.Context, classification entity.Classification) (string, bool, error) {
	if x, found := r.cache.Get(classification.Key()); found {
		return x.(string), true, nil
	}
	return "", false, nil
}

func (r *RuleTextRepository) Put(ctx context.Context, classification entity.Classification, text string) error {
	r.cache.Set(classification.Key(), text, cache.NoExpiration)
	return nil
}
