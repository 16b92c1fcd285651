package contract

import (
	"context"

	"clash-rulesync/internal/entity"
)

// RuleStore is where the two rule documents live: files on the router or
// keys behind the edge API. The backend is chosen once at construction.
type RuleStore interface {
	// Ping checks credentials and reachability.
	Ping(ctx context.Context) error

	// AddRule appends one rule to the document of its classification. A
	// duplicate returns apperr.ErrRuleExists and leaves the document as is.
	AddRule(ctx context.Context, value string, classification entity.Classification, matchType entity.MatchType) error

	// GetAllRules is best-effort: a document that cannot be read is logged
	// and comes back as "".
	GetAllRules(ctx context.Context) entity.RuleSet

	// ReadAll fails when either document cannot be read. Read-modify-write
	// callers use it so a failed read never turns into an empty write.
	ReadAll(ctx context.Context) (entity.RuleSet, error)

	// SaveRules overwrites both documents, proxy first.
	SaveRules(ctx context.Context, proxy, direct string) error
}
