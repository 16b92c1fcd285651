package service

import (
	"context"
	"fmt"
	"strings"

	"clash-rulesync/internal/dto"
	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/apperr"
	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/internal/repository/contract"
	"clash-rulesync/pkg/hostrule"
	"clash-rulesync/pkg/ruletext"
)

type IRuleSyncService interface {
	Ping(ctx context.Context) error
	AddRule(ctx context.Context, req *dto.AddRuleRequest) (*dto.AddRuleResponse, error)
	ListRules(ctx context.Context, filter entity.Classification) *dto.RuleListResponse
	DeleteRule(ctx context.Context, classification entity.Classification, matchType entity.MatchType, value string) (*dto.MutationResponse, error)
	ClearAll(ctx context.Context) (*dto.MutationResponse, error)
	SaveRules(ctx context.Context, proxy, direct string) (*dto.MutationResponse, error)
	FormatRules(ctx context.Context, filter entity.Classification) (*dto.MutationResponse, error)
	Export(ctx context.Context) string
}

// RuleSyncOptions names the daemons to poke after a change and the provider
// that serves each classification on them.
type RuleSyncOptions struct {
	Targets   []entity.RefreshTarget
	Providers map[entity.Classification]string
}

type ruleSyncService struct {
	store     contract.RuleStore
	refresher IRefreshService
	opts      RuleSyncOptions
	logger    logger.ILogger
}

func NewRuleSyncService(
	store contract.RuleStore,
	refresher IRefreshService,
	opts RuleSyncOptions,
	log logger.ILogger,
) IRuleSyncService {
	return &ruleSyncService{
		store:     store,
		refresher: refresher,
		opts:      opts,
		logger:    log,
	}
}

func (s *ruleSyncService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ruleSyncService) AddRule(ctx context.Context, req *dto.AddRuleRequest) (*dto.AddRuleResponse, error) {
	if !req.Classification.Valid() {
		return nil, fmt.Errorf("unknown classification %q", req.Classification)
	}

	rule, err := deriveRule(req)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddRule(ctx, rule.Value, rule.Classification, rule.MatchType); err != nil {
		return nil, err
	}

	s.logger.Info("RuleSyncService", "Rule added", map[string]interface{}{
		"class": string(rule.Classification),
		"rule":  ruletext.RenderLine(rule.MatchType, rule.Value),
	})

	return &dto.AddRuleResponse{
		Rule:    rule,
		Refresh: s.refresh(ctx, rule.Classification),
	}, nil
}

func deriveRule(req *dto.AddRuleRequest) (entity.Rule, error) {
	rule := entity.Rule{Classification: req.Classification, MatchType: req.MatchType}

	if req.Raw {
		rule.Value = strings.TrimSpace(req.Target)
		if rule.MatchType == "" {
			rule.MatchType = entity.MatchDomainSuffix
		}
	} else {
		target, err := hostrule.FromURL(req.Target)
		if err != nil {
			return entity.Rule{}, err
		}
		if rule.MatchType == "" {
			rule.MatchType = hostrule.DefaultMatchType(target.Host)
		}
		rule.Value, err = hostrule.DeriveValue(target.Host, target.Port, rule.MatchType)
		if err != nil {
			return entity.Rule{}, err
		}
	}

	if !rule.MatchType.Valid() {
		return entity.Rule{}, fmt.Errorf("unknown match type %q", rule.MatchType)
	}
	if rule.Value == "" {
		return entity.Rule{}, fmt.Errorf("empty rule value")
	}
	return rule, nil
}

func (s *ruleSyncService) ListRules(ctx context.Context, filter entity.Classification) *dto.RuleListResponse {
	set := s.store.GetAllRules(ctx)

	rules := make([]entity.Rule, 0)
	for _, r := range ruletext.ParseRuleSet(set) {
		if filter != "" && r.Classification != filter {
			continue
		}
		rules = append(rules, r)
	}

	return &dto.RuleListResponse{
		Rules:       rules,
		ProxyStats:  ruletext.CountStats(set.Proxy),
		DirectStats: ruletext.CountStats(set.Direct),
	}
}

func (s *ruleSyncService) DeleteRule(ctx context.Context, classification entity.Classification, matchType entity.MatchType, value string) (*dto.MutationResponse, error) {
	set, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	updated, found := ruletext.Remove(set.Text(classification), matchType, value)
	if !found {
		return nil, apperr.ErrRuleNotFound
	}
	set.SetText(classification, updated)

	if err := s.store.SaveRules(ctx, set.Proxy, set.Direct); err != nil {
		return nil, err
	}

	s.logger.Info("RuleSyncService", "Rule deleted", map[string]interface{}{
		"class": string(classification),
		"rule":  ruletext.RenderLine(matchType, value),
	})
	return &dto.MutationResponse{Refresh: s.refresh(ctx, classification)}, nil
}

func (s *ruleSyncService) ClearAll(ctx context.Context) (*dto.MutationResponse, error) {
	return s.SaveRules(ctx, ruletext.EmptyDocument, ruletext.EmptyDocument)
}

func (s *ruleSyncService) SaveRules(ctx context.Context, proxy, direct string) (*dto.MutationResponse, error) {
	if err := s.store.SaveRules(ctx, proxy, direct); err != nil {
		return nil, err
	}
	return &dto.MutationResponse{
		Refresh: s.refresh(ctx, entity.ClassificationProxy, entity.ClassificationDirect),
	}, nil
}

// FormatRules normalizes one document, or both when filter is empty.
func (s *ruleSyncService) FormatRules(ctx context.Context, filter entity.Classification) (*dto.MutationResponse, error) {
	set, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	classes := []entity.Classification{entity.ClassificationProxy, entity.ClassificationDirect}
	if filter != "" {
		classes = []entity.Classification{filter}
	}
	for _, c := range classes {
		set.SetText(c, ruletext.Format(set.Text(c)))
	}

	if err := s.store.SaveRules(ctx, set.Proxy, set.Direct); err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Refresh: s.refresh(ctx, classes...)}, nil
}

func (s *ruleSyncService) Export(ctx context.Context) string {
	return ruletext.Export(s.store.GetAllRules(ctx))
}

func (s *ruleSyncService) refresh(ctx context.Context, classes ...entity.Classification) []dto.RefreshOutcome {
	if len(s.opts.Targets) == 0 {
		return nil
	}
	providers := make([]string, 0, len(classes))
	for _, c := range classes {
		if name, ok := s.opts.Providers[c]; ok {
			providers = append(providers, name)
		}
	}
	if len(providers) == 0 {
		return nil
	}
	return ToOutcomes(s.refresher.Refresh(ctx, s.opts.Targets, providers))
}
