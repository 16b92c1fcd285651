package implementation

import (
	"context"
	"errors"

	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/model"
	"clash-rulesync/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RuleTextRepositoryImpl struct {
	db *gorm.DB
}

func NewRuleTextRepository(db *gorm.DB) contract.RuleTextRepository {
	return &RuleTextRepositoryImpl{db: db}
}

func (r *RuleTextRepositoryImpl) Get(ctx context.Context, classification entity.Classification) (string, bool, error) {
	var m model.RuleDocument
	err := r.db.WithContext(ctx).Where("key = ?", classification.Key()).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return m.Content, true, nil
}

func (r *RuleTextRepositoryImpl) Put(ctx context.Context, classification entity.Classification, text string) error {
	m := &model.RuleDocument{Key: classification.Key(), Content: text}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).
		Create(m).Error
}
