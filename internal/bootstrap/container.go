package bootstrap

import (
	"fmt"
	"log"

	"clash-rulesync/internal/config"
	"clash-rulesync/internal/constant"
	"clash-rulesync/internal/controller"
	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/model"
	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/internal/repository/contract"
	"clash-rulesync/internal/repository/implementation"
	"clash-rulesync/internal/repository/memory"
	"clash-rulesync/internal/service"
	"clash-rulesync/pkg/database"

	pktNats "clash-rulesync/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Container wires the rule API server.
type Container struct {
	// Controllers
	RuleController controller.IRuleController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger  logger.ILogger
	closers []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}

	// 2. Storage
	repo, err := c.newRuleTextRepository(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var mirror service.EventMirror
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			mirror = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 4. Services
	publisherService := service.NewPublisherService(pubSub, constant.TopicRulesChanged, mirror, sysLogger)
	edgeRuleService := service.NewEdgeRuleService(repo, publisherService, sysLogger)

	refreshService := service.NewRefreshService(nil, sysLogger)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		constant.TopicRulesChanged,
		refreshService,
		cfg.Edge.RefreshTargets,
		CloudProviderNames(),
	)
	if len(cfg.Edge.RefreshTargets) > 0 {
		log.Printf("[INFO] Rule changes will refresh %d daemon(s)", len(cfg.Edge.RefreshTargets))
	}

	// 5. Controllers
	c.RuleController = controller.NewRuleController(edgeRuleService)
	return c, nil
}

func (c *Container) newRuleTextRepository(cfg *config.Config) (contract.RuleTextRepository, error) {
	switch cfg.Edge.RulesBackend {
	case "", "memory":
		log.Printf("[INFO] Using rules backend: MEMORY (contents are lost on restart)")
		return memory.NewRuleTextRepository(), nil
	case "redis":
		rdb := newRedisClient(cfg.App.RedisURL)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		log.Printf("[INFO] Using rules backend: REDIS")
		return implementation.NewRedisRuleTextRepository(rdb), nil
	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.LogLevel, &model.RuleDocument{})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			c.closers = append(c.closers, func() { _ = sqlDB.Close() })
		}
		log.Printf("[INFO] Using rules backend: POSTGRES")
		return implementation.NewRuleTextRepository(db), nil
	}
	return nil, fmt.Errorf("unknown RULES_BACKEND %q (valid: memory, redis, postgres)", cfg.Edge.RulesBackend)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

// CloudProviderNames maps event document keys to the providers that serve
// them from the edge API.
func CloudProviderNames() map[string]string {
	return map[string]string{
		entity.ClassificationProxy.Key():  constant.ProviderCloudProxy,
		entity.ClassificationDirect.Key(): constant.ProviderCloudDirect,
	}
}
