package model

import "time"

// RuleDocument is one rule file served by the edge API, keyed "proxy" or
// "direct".
type RuleDocument struct {
	Key       string    `gorm:"type:varchar(16);primaryKey"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (RuleDocument) TableName() string {
	return "rule_documents"
}
