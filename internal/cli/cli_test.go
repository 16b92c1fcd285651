package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"clash-rulesync/internal/dto"
	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassFlags(t *testing.T) {
	tests := []struct {
		name     string
		flags    classFlags
		required bool
		want     entity.Classification
		wantErr  bool
	}{
		{"proxy", classFlags{proxy: true}, true, entity.ClassificationProxy, false},
		{"direct", classFlags{direct: true}, true, entity.ClassificationDirect, false},
		{"both", classFlags{proxy: true, direct: true}, false, "", true},
		{"neither required", classFlags{}, true, "", true},
		{"neither optional", classFlags{}, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.resolve(tt.required)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRuleArg(t *testing.T) {
	mt, value, err := parseRuleArg("domain-suffix, google.com ")
	require.NoError(t, err)
	assert.Equal(t, entity.MatchDomainSuffix, mt)
	assert.Equal(t, "google.com", value)

	mt, value, err = parseRuleArg("DOMAIN,a.com,PROXY")
	require.NoError(t, err)
	assert.Equal(t, entity.MatchDomain, mt)
	assert.Equal(t, "a.com,PROXY", value)

	for _, bad := range []string{"google.com", ",x", "DOMAIN,"} {
		_, _, err := parseRuleArg(bad)
		assert.Error(t, err, bad)
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "rule already exists", userMessage(fmt.Errorf("add: %w", apperr.ErrRuleExists)))
	assert.Equal(t, "rule not found", userMessage(apperr.ErrRuleNotFound))
	assert.Equal(t, "router login failed: bad password", userMessage(&apperr.AuthError{Message: "bad password"}))
	assert.Equal(t, "boom", userMessage(fmt.Errorf("boom")))
}

func TestPrintRefresh(t *testing.T) {
	var buf bytes.Buffer
	printRefresh(&buf, []dto.RefreshOutcome{
		{Target: "local", Provider: "P"},
		{Target: "router", Provider: "P", Error: "clash api: cannot connect"},
	})

	assert.Contains(t, buf.String(), "local: P\n")
	assert.Contains(t, buf.String(), "router: P: clash api: cannot connect\n")
}

func TestLintCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("payload:\n  - DOMAIN,a.com\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("payload: nope\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"lint", good})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), good)

	rootCmd.SetArgs([]string{"lint", good, bad})
	assert.Error(t, rootCmd.ExecuteContext(context.Background()))
}

func TestWatchFilesDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("payload:\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{path}, 50*time.Millisecond, func() { calls.Add(1) })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("payload:\n  - DOMAIN,%d.com\n", i)), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	assert.NoError(t, <-done)
}
