package contract

import (
	"context"

	"clash-rulesync/internal/entity"
)

// RuleTextRepository stores the raw documents served by the edge rule API.
type RuleTextRepository interface {
	// Get reports found=false for a document that was never written.
	Get(ctx context.Context, classification entity.Classification) (text string, found bool, err error)
	Put(ctx context.Context, classification entity.Classification, text string) error
}
