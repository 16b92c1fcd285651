package contract

import (
	"context"

	"clash-rulesync/internal/entity"
)

// TransportFlagRepository persists the router transport mode for one install.
// LoadMode returns entity.TransportUnknown when nothing is stored.
type TransportFlagRepository interface {
	LoadMode(ctx context.Context) (entity.TransportMode, error)
	SaveMode(ctx context.Context, mode entity.TransportMode) error
	ResetMode(ctx context.Context) error
}
