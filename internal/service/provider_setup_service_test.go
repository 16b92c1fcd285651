package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"clash-rulesync/internal/constant"
	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/pkg/clashapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRouter answers the uci commands setup issues and records them all.
type fakeRouter struct {
	show     string
	group    string
	commands []string
}

func (r *fakeRouter) Exec(ctx context.Context, cmd string) (string, error) {
	r.commands = append(r.commands, cmd)
	switch {
	case cmd == constant.UciListProviderNames:
		return r.show, nil
	case cmd == constant.UciGetDashboardSecret:
		return "pw\n", nil
	case cmd == constant.UciGetControllerPort:
		return "9090\n", nil
	case strings.HasSuffix(cmd, `.group 2>/dev/null || echo ""`):
		return r.group + "\n", nil
	}
	return "", nil
}

func (r *fakeRouter) ran(cmd string) bool {
	for _, c := range r.commands {
		if c == cmd {
			return true
		}
	}
	return false
}

type fakeDaemon struct {
	address string
	waited  bool
}

func (d *fakeDaemon) Version(ctx context.Context) (clashapi.VersionInfo, error) {
	return clashapi.VersionInfo{Version: "v1"}, nil
}

func (d *fakeDaemon) ProxyGroups(ctx context.Context) ([]string, error) {
	return []string{"Auto", "Proxy"}, nil
}

func (d *fakeDaemon) WaitReady(ctx context.Context, maxWait time.Duration) error {
	d.waited = true
	return nil
}

func newSetup(router *fakeRouter, daemon *fakeDaemon) IProviderSetupService {
	factory := func(address, secret string) DaemonClient {
		daemon.address = address
		return daemon
	}
	svc := NewProviderSetupService(router, "http://192.168.1.1", factory, logger.NewNopLogger())
	svc.(*providerSetupService).restartMax = time.Millisecond
	return svc
}

func remoteRefs(group string) []entity.ProviderRef {
	return ProviderRefs(constant.SyncModeRemote, group, constant.DefaultProxyFile, constant.DefaultDirectFile, "", "")
}

func TestEnsureProvidersCreatesMissing(t *testing.T) {
	router := &fakeRouter{}
	daemon := &fakeDaemon{}

	res, err := newSetup(router, daemon).EnsureProviders(context.Background(), remoteRefs("Proxy"))

	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Restarted)
	assert.Equal(t, []string{"added " + constant.ProviderCustomProxy, "added " + constant.ProviderCustomDirect}, res.Actions)
	assert.True(t, router.ran("uci set openclash.@rule_providers[-1].name='Rule-provider - Custom_Proxy'"))
	assert.True(t, router.ran("uci set openclash.@rule_providers[-1].group='DIRECT'"))
	assert.True(t, router.ran(constant.UciCommit))
	assert.True(t, router.ran(constant.OpenClashRestart))
	assert.Equal(t, "192.168.1.1:9090", daemon.address)
	assert.True(t, daemon.waited)
}

func TestEnsureProvidersFixesGroupDrift(t *testing.T) {
	router := &fakeRouter{
		show: "openclash.@rule_providers[0].name='Rule-provider - Custom_Direct'\n" +
			"openclash.@rule_providers[1].name='Rule-provider - Custom_Proxy'\n",
		group: "Old",
	}

	res, err := newSetup(router, &fakeDaemon{}).EnsureProviders(context.Background(), remoteRefs("Proxy"))

	require.NoError(t, err)
	assert.Equal(t, []string{"updated group of " + constant.ProviderCustomProxy + " to Proxy"}, res.Actions)
	assert.True(t, router.ran("uci set openclash.@rule_providers[1].group='Proxy'"))
	assert.False(t, router.ran(constant.UciAddProvider))
}

func TestEnsureProvidersNoChange(t *testing.T) {
	router := &fakeRouter{
		show: "openclash.@rule_providers[0].name='Rule-provider - Custom_Proxy'\n" +
			"openclash.@rule_providers[1].name='Rule-provider - Custom_Direct'\n",
		group: "Proxy",
	}
	daemon := &fakeDaemon{}

	res, err := newSetup(router, daemon).EnsureProviders(context.Background(), remoteRefs("Proxy"))

	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.Restarted)
	assert.False(t, router.ran(constant.UciCommit))
	assert.False(t, router.ran(constant.OpenClashRestart))
	assert.False(t, daemon.waited)
}

func TestCloudProviderRefsCarryURL(t *testing.T) {
	refs := ProviderRefs(constant.SyncModeCloud, "Proxy", "", "", "https://w.dev/proxy.yaml", "https://w.dev/direct.yaml")
	router := &fakeRouter{}

	_, err := newSetup(router, &fakeDaemon{}).EnsureProviders(context.Background(), refs)

	require.NoError(t, err)
	assert.True(t, router.ran("uci set openclash.@rule_providers[-1].url='https://w.dev/proxy.yaml'"))
	assert.True(t, router.ran("uci set openclash.@rule_providers[-1].interval='3600'"))
	assert.True(t, router.ran("uci set openclash.@rule_providers[-1].type='http'"))
}

func TestDiscoverDaemonAndGroups(t *testing.T) {
	daemon := &fakeDaemon{}
	svc := newSetup(&fakeRouter{}, daemon)

	target, err := svc.DiscoverDaemon(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.RefreshTarget{Name: "router", Host: "192.168.1.1", Port: "9090", Secret: "pw"}, target)

	groups, err := svc.ProxyGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Auto", "Proxy"}, groups)
}

func TestUciQuote(t *testing.T) {
	assert.Equal(t, `'it'\''s'`, uciQuote("it's"))
}
