package bootstrap

import (
	"fmt"
	"strings"

	"clash-rulesync/internal/config"
	"clash-rulesync/internal/constant"
	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/internal/repository/contract"
	"clash-rulesync/internal/repository/implementation"
	"clash-rulesync/internal/repository/memory"
	"clash-rulesync/internal/service"
	"clash-rulesync/pkg/edgeapi"
	"clash-rulesync/pkg/luci"
	"clash-rulesync/pkg/reach"
)

// ClientContainer wires the operator CLI. The rule store and refresh
// targets are chosen once here from SYNC_MODE.
type ClientContainer struct {
	Config *config.Config
	Logger logger.ILogger

	Router *luci.Client    // nil without ROUTER_HOST
	Edge   *edgeapi.Client // nil without WORKER_URL
	Store  contract.RuleStore

	RuleSync      service.IRuleSyncService
	ProviderSetup service.IProviderSetupService // nil without a router
	Refresh       service.IRefreshService
	Prober        *reach.Prober

	Targets   []entity.RefreshTarget
	Providers map[entity.Classification]string

	closers []func()
}

func NewClientContainer(cfg *config.Config, log logger.ILogger) (*ClientContainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &ClientContainer{Config: cfg, Logger: log}

	// 1. Transport flag store
	flags, err := c.newFlagRepository()
	if err != nil {
		return nil, err
	}

	// 2. Remote clients
	if cfg.Router.Host != "" {
		c.Router = luci.NewClient(luci.Config{
			Host:     cfg.Router.Host,
			Username: cfg.Router.Username,
			Password: cfg.Router.Password,
		}, flags, log)
	}
	if cfg.Cloud.WorkerURL != "" {
		c.Edge = edgeapi.NewClient(cfg.Cloud.WorkerURL, cfg.Cloud.ApiSecret, nil)
	}

	// 3. Rule store, targets and providers for the mode
	c.Targets = RefreshTargets(cfg)
	if cfg.Sync.Mode == constant.SyncModeRemote {
		c.Store = implementation.NewRouterRuleStore(c.Router, cfg.Router.ProxyFile, cfg.Router.DirectFile, log)
		c.Providers = map[entity.Classification]string{
			entity.ClassificationProxy:  constant.ProviderCustomProxy,
			entity.ClassificationDirect: constant.ProviderCustomDirect,
		}
	} else {
		c.Store = implementation.NewEdgeRuleStore(c.Edge, log)
		c.Providers = map[entity.Classification]string{
			entity.ClassificationProxy:  constant.ProviderCloudProxy,
			entity.ClassificationDirect: constant.ProviderCloudDirect,
		}
	}

	// 4. Services
	c.Refresh = service.NewRefreshService(nil, log)
	c.RuleSync = service.NewRuleSyncService(c.Store, c.Refresh, service.RuleSyncOptions{
		Targets:   c.Targets,
		Providers: c.Providers,
	}, log)
	if c.Router != nil {
		c.ProviderSetup = service.NewProviderSetupService(c.Router, cfg.Router.Host, nil, log)
	}

	c.Prober, err = reach.NewProber(cfg.Reach.Socks5Addr, cfg.Reach.Socks5Username, cfg.Reach.Socks5Password, reach.DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("socks5 client: %w", err)
	}

	return c, nil
}

func (c *ClientContainer) newFlagRepository() (contract.TransportFlagRepository, error) {
	if c.Config.Sync.FlagBackend == "redis" {
		rdb := newRedisClient(c.Config.App.RedisURL)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		return implementation.NewRedisTransportFlagRepository(rdb, c.Config.Sync.InstallID), nil
	}
	return memory.NewTransportFlagRepository(c.Config.Sync.StatePath)
}

// ProviderRefs returns the provider entries setup should register for the
// configured mode.
func (c *ClientContainer) ProviderRefs(proxyGroup string) []entity.ProviderRef {
	var proxyURL, directURL string
	if c.Edge != nil {
		proxyURL = c.Edge.PublicURL(entity.ClassificationProxy)
		directURL = c.Edge.PublicURL(entity.ClassificationDirect)
	}
	return service.ProviderRefs(
		c.Config.Sync.Mode,
		proxyGroup,
		c.Config.Router.ProxyFile,
		c.Config.Router.DirectFile,
		proxyURL,
		directURL,
	)
}

func (c *ClientContainer) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// RefreshTargets lists the daemons to reload after a change. Remote mode
// reloads the router; cloud mode reloads the local client and, when a router
// is configured, the router too.
func RefreshTargets(cfg *config.Config) []entity.RefreshTarget {
	var targets []entity.RefreshTarget

	if cfg.Sync.Mode == constant.SyncModeCloud && cfg.LocalClient.Enabled {
		targets = append(targets, entity.RefreshTarget{
			Name:   "local",
			Host:   cfg.LocalClient.Host,
			Port:   cfg.LocalClient.Port,
			Secret: cfg.LocalClient.Secret,
		})
	}

	if cfg.Router.Host != "" {
		targets = append(targets, entity.RefreshTarget{
			Name:   "router",
			Host:   hostOnly(cfg.Router.Host),
			Port:   cfg.Router.ClashPort,
			Secret: cfg.Router.ClashSecret,
		})
	}
	return targets
}

func hostOnly(host string) string {
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, ":/"); i >= 0 {
		host = host[:i]
	}
	return host
}
