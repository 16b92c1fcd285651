package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clash-rulesync/internal/constant"
	"clash-rulesync/internal/dto"
	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/pkg/clashapi"
)

// CommandRunner executes shell commands on the router.
type CommandRunner interface {
	Exec(ctx context.Context, cmd string) (string, error)
}

// DaemonClient is the part of the controller API setup needs.
type DaemonClient interface {
	Version(ctx context.Context) (clashapi.VersionInfo, error)
	ProxyGroups(ctx context.Context) ([]string, error)
	WaitReady(ctx context.Context, maxWait time.Duration) error
}

type DaemonFactory func(address, secret string) DaemonClient

func ClashDaemonFactory(address, secret string) DaemonClient {
	return clashapi.NewClient(address, secret, nil)
}

type IProviderSetupService interface {
	// DiscoverDaemon reads the controller port and secret from the router.
	DiscoverDaemon(ctx context.Context) (entity.RefreshTarget, error)
	ProxyGroups(ctx context.Context) ([]string, error)
	// EnsureProviders registers the two rule providers if missing and fixes
	// the proxy provider's group if it drifted. OpenClash is restarted only
	// when something changed.
	EnsureProviders(ctx context.Context, refs []entity.ProviderRef) (*dto.SetupResult, error)
}

type providerSetupService struct {
	runner     CommandRunner
	routerHost string
	newDaemon  DaemonFactory
	restartMax time.Duration
	logger     logger.ILogger
}

func NewProviderSetupService(runner CommandRunner, routerHost string, factory DaemonFactory, log logger.ILogger) IProviderSetupService {
	if factory == nil {
		factory = ClashDaemonFactory
	}
	return &providerSetupService{
		runner:     runner,
		routerHost: routerHost,
		newDaemon:  factory,
		restartMax: constant.DaemonRestartWait,
		logger:     log,
	}
}

// ProviderRefs returns the proxy and direct provider entries for a sync
// mode. Cloud providers download from the edge API; remote providers read
// the files the router store writes.
func ProviderRefs(mode, proxyGroup, proxyFile, directFile, proxyURL, directURL string) []entity.ProviderRef {
	if mode == constant.SyncModeCloud {
		return []entity.ProviderRef{
			{
				Name: constant.ProviderCloudProxy, Type: "http", Behavior: "classical", Format: "yaml",
				Group: proxyGroup, URL: proxyURL, Path: constant.CloudProxyPath, Interval: constant.ProviderRefreshInterval,
			},
			{
				Name: constant.ProviderCloudDirect, Type: "http", Behavior: "classical", Format: "yaml",
				Group: constant.DirectGroup, URL: directURL, Path: constant.CloudDirectPath, Interval: constant.ProviderRefreshInterval,
			},
		}
	}
	return []entity.ProviderRef{
		{
			Name: constant.ProviderCustomProxy, Type: "file", Behavior: "classical", Format: "yaml",
			Group: proxyGroup, Path: proxyFile,
		},
		{
			Name: constant.ProviderCustomDirect, Type: "file", Behavior: "classical", Format: "yaml",
			Group: constant.DirectGroup, Path: directFile,
		},
	}
}

func (s *providerSetupService) routerHostname() string {
	host := s.routerHost
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, ":/"); i >= 0 {
		host = host[:i]
	}
	return host
}

func (s *providerSetupService) DiscoverDaemon(ctx context.Context) (entity.RefreshTarget, error) {
	secret, err := s.runner.Exec(ctx, constant.UciGetDashboardSecret)
	if err != nil {
		return entity.RefreshTarget{}, fmt.Errorf("read controller secret: %w", err)
	}
	port, err := s.runner.Exec(ctx, constant.UciGetControllerPort)
	if err != nil {
		return entity.RefreshTarget{}, fmt.Errorf("read controller port: %w", err)
	}

	port = strings.TrimSpace(port)
	if port == "" {
		port = constant.DefaultClashPort
	}
	return entity.RefreshTarget{
		Name:   "router",
		Host:   s.routerHostname(),
		Port:   port,
		Secret: strings.TrimSpace(secret),
	}, nil
}

func (s *providerSetupService) ProxyGroups(ctx context.Context) ([]string, error) {
	target, err := s.DiscoverDaemon(ctx)
	if err != nil {
		return nil, err
	}
	return s.newDaemon(target.Address(), target.Secret).ProxyGroups(ctx)
}

func (s *providerSetupService) EnsureProviders(ctx context.Context, refs []entity.ProviderRef) (*dto.SetupResult, error) {
	if len(refs) != 2 {
		return nil, fmt.Errorf("expected a proxy and a direct provider, got %d", len(refs))
	}
	proxy, direct := refs[0], refs[1]
	result := &dto.SetupResult{}

	existing, err := s.runner.Exec(ctx, constant.UciListProviderNames)
	if err != nil {
		return nil, fmt.Errorf("list rule providers: %w", err)
	}

	if idx, ok := providerIndex(existing, proxy.Name); ok {
		group, err := s.runner.Exec(ctx, fmt.Sprintf(`uci get openclash.@rule_providers[%d].group 2>/dev/null || echo ""`, idx))
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(group) != proxy.Group {
			if _, err := s.runner.Exec(ctx, fmt.Sprintf("uci set openclash.@rule_providers[%d].group=%s", idx, uciQuote(proxy.Group))); err != nil {
				return nil, err
			}
			result.Changed = true
			result.Actions = append(result.Actions, fmt.Sprintf("updated group of %s to %s", proxy.Name, proxy.Group))
		}
	} else if !hasProvider(existing, proxy.Name) {
		if err := s.addProvider(ctx, proxy); err != nil {
			return nil, err
		}
		result.Changed = true
		result.Actions = append(result.Actions, "added "+proxy.Name)
	}

	if !hasProvider(existing, direct.Name) {
		if err := s.addProvider(ctx, direct); err != nil {
			return nil, err
		}
		result.Changed = true
		result.Actions = append(result.Actions, "added "+direct.Name)
	}

	if !result.Changed {
		return result, nil
	}

	if _, err := s.runner.Exec(ctx, constant.UciCommit); err != nil {
		return nil, fmt.Errorf("commit uci: %w", err)
	}

	target, err := s.DiscoverDaemon(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.runner.Exec(ctx, constant.OpenClashRestart); err != nil {
		return nil, fmt.Errorf("restart openclash: %w", err)
	}

	s.logger.Info("ProviderSetupService", "Waiting for OpenClash restart", map[string]interface{}{
		"controller": target.Address(),
	})
	if err := s.newDaemon(target.Address(), target.Secret).WaitReady(ctx, s.restartMax); err != nil {
		return result, err
	}
	result.Restarted = true
	return result, nil
}

func (s *providerSetupService) addProvider(ctx context.Context, ref entity.ProviderRef) error {
	cmds := []string{constant.UciAddProvider}
	set := func(field, value string) {
		cmds = append(cmds, fmt.Sprintf("uci set openclash.@rule_providers[-1].%s=%s", field, uciQuote(value)))
	}
	set("enabled", "1")
	set("config", "all")
	set("name", ref.Name)
	set("type", ref.Type)
	set("behavior", ref.Behavior)
	set("format", ref.Format)
	set("position", "0")
	set("group", ref.Group)
	if ref.Type == "http" {
		set("url", ref.URL)
		set("interval", strconv.Itoa(ref.Interval))
	}
	set("path", ref.Path)

	for _, cmd := range cmds {
		if _, err := s.runner.Exec(ctx, cmd); err != nil {
			return fmt.Errorf("add provider %s: %w", ref.Name, err)
		}
	}
	return nil
}

func hasProvider(uciShow, name string) bool {
	return strings.Contains(uciShow, "name="+uciQuote(name))
}

func providerIndex(uciShow, name string) (int, bool) {
	pattern := regexp.MustCompile(`openclash\.@rule_providers\[(\d+)\]\.name=` + regexp.QuoteMeta(uciQuote(name)))
	m := pattern.FindStringSubmatch(uciShow)
	if m == nil {
		return 0, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return idx, true
}

// uciQuote single-quotes a value for the router shell.
func uciQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}
