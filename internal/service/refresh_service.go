package service

import (
	"context"

	"clash-rulesync/internal/dto"
	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/pkg/clashapi"

	"golang.org/x/sync/errgroup"
)

// ProviderRefresher reloads rule providers on one daemon.
type ProviderRefresher interface {
	RefreshProvider(ctx context.Context, name string) error
}

type RefresherFactory func(target entity.RefreshTarget) ProviderRefresher

// ClashRefresherFactory talks to the daemon's external controller.
func ClashRefresherFactory(target entity.RefreshTarget) ProviderRefresher {
	return clashapi.NewClient(target.Address(), target.Secret, nil)
}

type IRefreshService interface {
	// Refresh reloads every provider on every target concurrently. One
	// result per (target, provider); a failure never cancels the others.
	Refresh(ctx context.Context, targets []entity.RefreshTarget, providers []string) []entity.RefreshResult
}

type refreshService struct {
	newRefresher RefresherFactory
	logger       logger.ILogger
}

func NewRefreshService(factory RefresherFactory, log logger.ILogger) IRefreshService {
	if factory == nil {
		factory = ClashRefresherFactory
	}
	return &refreshService{newRefresher: factory, logger: log}
}

func (s *refreshService) Refresh(ctx context.Context, targets []entity.RefreshTarget, providers []string) []entity.RefreshResult {
	results := make([]entity.RefreshResult, len(targets)*len(providers))

	var g errgroup.Group
	for i, target := range targets {
		refresher := s.newRefresher(target)
		for j, provider := range providers {
			slot := i*len(providers) + j
			target, provider := target, provider
			g.Go(func() error {
				err := refresher.RefreshProvider(ctx, provider)
				results[slot] = entity.RefreshResult{Target: target, Provider: provider, Err: err}
				if err != nil {
					s.logger.Warn("RefreshService", "Provider refresh failed", map[string]interface{}{
						"target":   target.Name,
						"address":  target.Address(),
						"provider": provider,
						"error":    err.Error(),
					})
				}
				return nil
			})
		}
	}
	// Failures land in results; every goroutine returns nil, so Wait only
	// joins them and no sibling is ever cancelled.
	_ = g.Wait()
	return results
}

// ToOutcomes flattens results for display.
func ToOutcomes(results []entity.RefreshResult) []dto.RefreshOutcome {
	out := make([]dto.RefreshOutcome, 0, len(results))
	for _, r := range results {
		o := dto.RefreshOutcome{
			Target:   r.Target.Name,
			Provider: r.Provider,
		}
		if r.Err != nil {
			o.Error = r.Err.Error()
		}
		out = append(out, o)
	}
	return out
}
