package service

import (
	"context"
	"sync"

	"clash-rulesync/internal/dto"
	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/internal/repository/contract"
	"clash-rulesync/pkg/events"
	"clash-rulesync/pkg/ruletext"
)

// IEdgeRuleService backs the public rule API. It owns the two documents and
// announces every write on the event bus.
type IEdgeRuleService interface {
	// GetDocument returns the stored text, or "payload: []" when the
	// document was never written.
	GetDocument(ctx context.Context, classification entity.Classification) (string, error)
	GetAll(ctx context.Context) (*dto.EdgeRulesResponse, error)
	AddRule(ctx context.Context, req *dto.EdgeAddRuleRequest) error
	SaveAll(ctx context.Context, req *dto.EdgeSaveRulesRequest) error
}

type edgeRuleService struct {
	repo      contract.RuleTextRepository
	publisher IPublisherService
	logger    logger.ILogger

	// Serializes read-modify-write on a document. Two concurrent adds would
	// otherwise both read the old text and one line would be lost.
	mu sync.Mutex
}

func NewEdgeRuleService(repo contract.RuleTextRepository, publisher IPublisherService, log logger.ILogger) IEdgeRuleService {
	return &edgeRuleService{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

func (s *edgeRuleService) GetDocument(ctx context.Context, classification entity.Classification) (string, error) {
	text, found, err := s.repo.Get(ctx, classification)
	if err != nil {
		return "", err
	}
	if !found {
		return ruletext.EmptyDocument, nil
	}
	return text, nil
}

func (s *edgeRuleService) GetAll(ctx context.Context) (*dto.EdgeRulesResponse, error) {
	direct, err := s.GetDocument(ctx, entity.ClassificationDirect)
	if err != nil {
		return nil, err
	}
	proxy, err := s.GetDocument(ctx, entity.ClassificationProxy)
	if err != nil {
		return nil, err
	}
	return &dto.EdgeRulesResponse{Direct: direct, Proxy: proxy}, nil
}

func (s *edgeRuleService) AddRule(ctx context.Context, req *dto.EdgeAddRuleRequest) error {
	classification := entity.Classification(req.Type)

	s.mu.Lock()
	defer s.mu.Unlock()

	text, found, err := s.repo.Get(ctx, classification)
	if err != nil {
		return err
	}
	if !found {
		text = ruletext.PayloadHeader
	}

	updated, err := ruletext.AppendEntry(text, entity.MatchType(req.MatchType), req.Domain)
	if err != nil {
		return err
	}
	if err := s.repo.Put(ctx, classification, updated); err != nil {
		return err
	}

	s.logger.Info("EdgeRuleService", "Rule added", map[string]interface{}{
		"class": req.Type,
		"rule":  ruletext.RenderLine(entity.MatchType(req.MatchType), req.Domain),
	})
	s.announce(ctx, classification.Key())
	return nil
}

// SaveAll replaces both documents, direct first. A failure on the second
// write leaves the first one in place.
func (s *edgeRuleService) SaveAll(ctx context.Context, req *dto.EdgeSaveRulesRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Put(ctx, entity.ClassificationDirect, *req.Direct); err != nil {
		return err
	}
	if err := s.repo.Put(ctx, entity.ClassificationProxy, *req.Proxy); err != nil {
		return err
	}

	s.logger.Info("EdgeRuleService", "Rules replaced", map[string]interface{}{
		"proxy_bytes":  len(*req.Proxy),
		"direct_bytes": len(*req.Direct),
	})
	s.announce(ctx, entity.ClassificationProxy.Key(), entity.ClassificationDirect.Key())
	return nil
}

// announce is best effort: the write already happened.
func (s *edgeRuleService) announce(ctx context.Context, documents ...string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewRulesChanged(documents...)); err != nil {
		s.logger.Warn("EdgeRuleService", "Failed to publish rules change", map[string]interface{}{
			"documents": documents,
			"error":     err.Error(),
		})
	}
}
