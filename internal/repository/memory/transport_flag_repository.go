package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"clash-rulesync/internal/entity"

	"github.com/patrickmn/go-cache"
)

const transportFlagKey = "transport.use_base64"

// TransportFlagRepository holds the flag in a go-cache and snapshots it to
// statePath after every change. An empty statePath keeps it in memory only.
type TransportFlagRepository struct {
	mu        sync.Mutex
	cache     *cache.Cache
	statePath string
}

func NewTransportFlagRepository(statePath string) (*TransportFlagRepository, error) {
	r := &TransportFlagRepository{
		cache:     cache.New(cache.NoExpiration, 0),
		statePath: statePath,
	}
	if statePath == "" {
		return r, nil
	}
	if err := r.cache.LoadFile(statePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load state %s: %w", statePath, err)
	}
	return r, nil
}

func (r *TransportFlagRepository) LoadMode(ctx context.Context) (entity.TransportMode, error) {
	x, found := r.cache.Get(transportFlagKey)
	if !found {
		return entity.TransportUnknown, nil
	}
	useBase64, ok := x.(bool)
	if !ok {
		return entity.TransportUnknown, fmt.Errorf("stored transport flag has type %T", x)
	}
	if useBase64 {
		return entity.TransportEncoded, nil
	}
	return entity.TransportShell, nil
}

func (r *TransportFlagRepository) SaveMode(ctx context.Context, mode entity.TransportMode) error {
	if mode == entity.TransportUnknown {
		return r.ResetMode(ctx)
	}
	r.cache.Set(transportFlagKey, mode == entity.TransportEncoded, cache.NoExpiration)
	return r.snapshot()
}

func (r *TransportFlagRepository) ResetMode(ctx context.Context) error {
	r.cache.Delete(transportFlagKey)
	return r.snapshot()
}

func (r *TransportFlagRepository) snapshot() error {
	if r.statePath == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.statePath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := r.cache.SaveFile(r.statePath); err != nil {
		return fmt.Errorf("save state %s: %w", r.statePath, err)
	}
	return nil
}
