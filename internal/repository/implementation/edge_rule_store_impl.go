package implementation

import (
	"context"
	"errors"

	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/internal/repository/contract"
)

var errEdgeUnreachable = errors.New("edge rule API unreachable")

// EdgeRuleClient is the part of the edge API client the store needs.
type EdgeRuleClient interface {
	AddRule(ctx context.Context, value string, classification entity.Classification, matchType entity.MatchType) error
	GetAllRules(ctx context.Context) (entity.RuleSet, error)
	SaveRules(ctx context.Context, proxy, direct string) error
	TestConnection(ctx context.Context) bool
}

type EdgeRuleStoreImpl struct {
	client EdgeRuleClient
	logger logger.ILogger
}

func NewEdgeRuleStore(client EdgeRuleClient, log logger.ILogger) contract.RuleStore {
	return &EdgeRuleStoreImpl{client: client, logger: log}
}

func (s *EdgeRuleStoreImpl) Ping(ctx context.Context) error {
	if !s.client.TestConnection(ctx) {
		return errEdgeUnreachable
	}
	return nil
}

func (s *EdgeRuleStoreImpl) AddRule(ctx context.Context, value string, classification entity.Classification, matchType entity.MatchType) error {
	return s.client.AddRule(ctx, value, classification, matchType)
}

// GetAllRules fetches both documents in one request, so a failure empties
// both slots.
func (s *EdgeRuleStoreImpl) GetAllRules(ctx context.Context) entity.RuleSet {
	set, err := s.client.GetAllRules(ctx)
	if err != nil {
		s.logger.Error("EdgeRuleStore", "Failed to fetch rules", map[string]interface{}{
			"error": err.Error(),
		})
		return entity.RuleSet{}
	}
	return set
}

func (s *EdgeRuleStoreImpl) ReadAll(ctx context.Context) (entity.RuleSet, error) {
	return s.client.GetAllRules(ctx)
}

func (s *EdgeRuleStoreImpl) SaveRules(ctx context.Context, proxy, direct string) error {
	return s.client.SaveRules(ctx, proxy, direct)
}
