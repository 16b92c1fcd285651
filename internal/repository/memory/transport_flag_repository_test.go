package memory

import (
	"context"
	"path/filepath"
	"testing"

	"clash-rulesync/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportFlagSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "rulesync.gob")
	ctx := context.Background()

	first, err := NewTransportFlagRepository(path)
	require.NoError(t, err)

	mode, err := first.LoadMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.TransportUnknown, mode)

	require.NoError(t, first.SaveMode(ctx, entity.TransportShell))

	second, err := NewTransportFlagRepository(path)
	require.NoError(t, err)
	mode, err = second.LoadMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.TransportShell, mode)

	require.NoError(t, second.ResetMode(ctx))

	third, err := NewTransportFlagRepository(path)
	require.NoError(t, err)
	mode, err = third.LoadMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.TransportUnknown, mode)
}

func TestTransportFlagInMemoryOnly(t *testing.T) {
	repo, err := NewTransportFlagRepository("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.SaveMode(ctx, entity.TransportEncoded))
	mode, err := repo.LoadMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.TransportEncoded, mode)
}

func TestRuleTextRepository(t *testing.T) {
	repo := NewRuleTextRepository()
	ctx := context.Background()

	_, found, err := repo.Get(ctx, entity.ClassificationProxy)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Put(ctx, entity.ClassificationProxy, "payload:\n"))
	text, found, err := repo.Get(ctx, entity.ClassificationProxy)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "payload:\n", text)

	_, found, _ = repo.Get(ctx, entity.ClassificationDirect)
	assert.False(t, found)
}
