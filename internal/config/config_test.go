package config

import (
	"testing"

	"clash-rulesync/internal/constant"
	"clash-rulesync/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRefreshTargets(t *testing.T) {
	targets, err := ParseRefreshTargets(" s3cret@192.168.1.1:9090 , 127.0.0.1:9097,")

	require.NoError(t, err)
	assert.Equal(t, []entity.RefreshTarget{
		{Name: "192.168.1.1:9090", Host: "192.168.1.1", Port: "9090", Secret: "s3cret"},
		{Name: "127.0.0.1:9097", Host: "127.0.0.1", Port: "9097"},
	}, targets)
}

func TestParseRefreshTargetsRejectsMissingPort(t *testing.T) {
	_, err := ParseRefreshTargets("router.lan")
	assert.Error(t, err)

	targets, err := ParseRefreshTargets("")
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"remote needs router", Config{Sync: SyncConfig{Mode: constant.SyncModeRemote}}, true},
		{"remote ok", Config{Sync: SyncConfig{Mode: constant.SyncModeRemote}, Router: RouterConfig{Host: "192.168.1.1"}}, false},
		{"cloud needs worker", Config{Sync: SyncConfig{Mode: constant.SyncModeCloud}, Cloud: CloudConfig{WorkerURL: "https://w"}}, true},
		{"cloud ok", Config{Sync: SyncConfig{Mode: constant.SyncModeCloud}, Cloud: CloudConfig{WorkerURL: "https://w", ApiSecret: "s"}}, false},
		{"unknown mode", Config{Sync: SyncConfig{Mode: "local"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
