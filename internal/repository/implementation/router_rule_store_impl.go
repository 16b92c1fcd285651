package implementation

import (
	"context"

	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/internal/repository/contract"
	"clash-rulesync/pkg/ruletext"
)

// RouterFileClient is the part of the LuCI client the router store needs.
type RouterFileClient interface {
	Login(ctx context.Context) (string, error)
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string) error
}

type RouterRuleStoreImpl struct {
	client     RouterFileClient
	proxyPath  string
	directPath string
	logger     logger.ILogger
}

func NewRouterRuleStore(client RouterFileClient, proxyPath, directPath string, log logger.ILogger) contract.RuleStore {
	return &RouterRuleStoreImpl{
		client:     client,
		proxyPath:  proxyPath,
		directPath: directPath,
		logger:     log,
	}
}

func (s *RouterRuleStoreImpl) path(c entity.Classification) string {
	if c == entity.ClassificationProxy {
		return s.proxyPath
	}
	return s.directPath
}

func (s *RouterRuleStoreImpl) Ping(ctx context.Context) error {
	_, err := s.client.Login(ctx)
	return err
}

func (s *RouterRuleStoreImpl) AddRule(ctx context.Context, value string, classification entity.Classification, matchType entity.MatchType) error {
	if matchType == "" {
		matchType = entity.MatchDomainSuffix
	}
	path := s.path(classification)

	content, err := s.client.ReadFile(ctx, path)
	if err != nil {
		return err
	}
	updated, err := ruletext.Append(content, matchType, value)
	if err != nil {
		return err
	}
	if err := s.client.WriteFile(ctx, path, updated); err != nil {
		return err
	}

	s.logger.Info("RouterRuleStore", "Rule added", map[string]interface{}{
		"path":  path,
		"rule":  ruletext.RenderLine(matchType, value),
		"class": string(classification),
	})
	return nil
}

func (s *RouterRuleStoreImpl) GetAllRules(ctx context.Context) entity.RuleSet {
	var set entity.RuleSet
	for _, c := range []entity.Classification{entity.ClassificationProxy, entity.ClassificationDirect} {
		content, err := s.client.ReadFile(ctx, s.path(c))
		if err != nil {
			s.logger.Error("RouterRuleStore", "Failed to read rule file", map[string]interface{}{
				"path":  s.path(c),
				"error": err.Error(),
			})
			continue
		}
		set.SetText(c, content)
	}
	return set
}

func (s *RouterRuleStoreImpl) ReadAll(ctx context.Context) (entity.RuleSet, error) {
	proxy, err := s.client.ReadFile(ctx, s.proxyPath)
	if err != nil {
		return entity.RuleSet{}, err
	}
	direct, err := s.client.ReadFile(ctx, s.directPath)
	if err != nil {
		return entity.RuleSet{}, err
	}
	return entity.RuleSet{Proxy: proxy, Direct: direct}, nil
}

func (s *RouterRuleStoreImpl) SaveRules(ctx context.Context, proxy, direct string) error {
	if err := s.client.WriteFile(ctx, s.proxyPath, proxy); err != nil {
		return err
	}
	return s.client.WriteFile(ctx, s.directPath, direct)
}
