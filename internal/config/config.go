package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clash-rulesync/internal/constant"
	"clash-rulesync/internal/entity"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Edge        EdgeConfig
	Database    DatabaseConfig
	Router      RouterConfig
	Cloud       CloudConfig
	LocalClient LocalClientConfig
	Sync        SyncConfig
	Reach       ReachConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogFilePath string
	LogLevel    string
	NatsURL     string
	RedisURL    string
}

// EdgeConfig configures the rule API server (cmd/rest).
type EdgeConfig struct {
	ApiSecret      string
	RulesBackend   string // "memory", "redis" or "postgres"
	RefreshTargets []entity.RefreshTarget
}

type DatabaseConfig struct {
	Connection string
	LogLevel   string
}

// RouterConfig is the OpenWrt box running LuCI and OpenClash.
type RouterConfig struct {
	Host        string
	Username    string
	Password    string
	ProxyFile   string
	DirectFile  string
	ProxyGroup  string
	ClashPort   string
	ClashSecret string
}

type CloudConfig struct {
	WorkerURL string
	ApiSecret string
}

// LocalClientConfig is a desktop Clash client (Clash Verge, mihomo) on this
// machine that should reload cloud providers too.
type LocalClientConfig struct {
	Enabled bool
	Host    string
	Port    string
	Secret  string
}

type SyncConfig struct {
	Mode        string // "remote" or "cloud"
	StatePath   string
	FlagBackend string // "file" or "redis"
	InstallID   string
}

type ReachConfig struct {
	Socks5Addr     string
	Socks5Username string
	Socks5Password string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	targets, err := ParseRefreshTargets(getEnv("EDGE_REFRESH_TARGETS", ""))
	if err != nil {
		log.Printf("[WARN] Ignoring EDGE_REFRESH_TARGETS: %v", err)
	}

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "3000"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "rulesync.log"),
			LogLevel:    getEnv("LOG_LEVEL", "warn"),
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Edge: EdgeConfig{
			ApiSecret:      getEnv("API_SECRET", ""),
			RulesBackend:   getEnv("RULES_BACKEND", "memory"),
			RefreshTargets: targets,
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			LogLevel:   getEnv("DB_LOG_LEVEL", "warn"),
		},
		Router: RouterConfig{
			Host:        getEnv("ROUTER_HOST", ""),
			Username:    getEnv("ROUTER_USERNAME", "root"),
			Password:    getEnv("ROUTER_PASSWORD", ""),
			ProxyFile:   getEnv("ROUTER_PROXY_FILE", constant.DefaultProxyFile),
			DirectFile:  getEnv("ROUTER_DIRECT_FILE", constant.DefaultDirectFile),
			ProxyGroup:  getEnv("PROXY_GROUP", "Proxy"),
			ClashPort:   getEnv("CLASH_PORT", constant.DefaultClashPort),
			ClashSecret: getEnv("CLASH_SECRET", ""),
		},
		Cloud: CloudConfig{
			WorkerURL: getEnv("WORKER_URL", ""),
			ApiSecret: getEnv("WORKER_API_SECRET", ""),
		},
		LocalClient: LocalClientConfig{
			Enabled: getEnvAsBool("LOCAL_CLIENT_ENABLED", false),
			Host:    getEnv("LOCAL_CLIENT_HOST", "127.0.0.1"),
			Port:    getEnv("LOCAL_CLIENT_PORT", "9097"),
			Secret:  getEnv("LOCAL_CLIENT_SECRET", ""),
		},
		Sync: SyncConfig{
			Mode:        getEnv("SYNC_MODE", constant.SyncModeCloud),
			StatePath:   getEnv("STATE_PATH", defaultStatePath()),
			FlagBackend: getEnv("FLAG_BACKEND", "file"),
			InstallID:   getEnv("INSTALL_ID", "default"),
		},
		Reach: ReachConfig{
			Socks5Addr:     getEnv("SOCKS5_ADDR", ""),
			Socks5Username: getEnv("SOCKS5_USERNAME", ""),
			Socks5Password: getEnv("SOCKS5_PASSWORD", ""),
		},
	}
}

// Validate checks what the selected sync mode needs.
func (c *Config) Validate() error {
	switch c.Sync.Mode {
	case constant.SyncModeRemote:
		if c.Router.Host == "" {
			return fmt.Errorf("ROUTER_HOST is required in remote mode")
		}
	case constant.SyncModeCloud:
		if c.Cloud.WorkerURL == "" || c.Cloud.ApiSecret == "" {
			return fmt.Errorf("WORKER_URL and WORKER_API_SECRET are required in cloud mode")
		}
	default:
		return fmt.Errorf("unknown SYNC_MODE %q (valid: remote, cloud)", c.Sync.Mode)
	}
	return nil
}

// ParseRefreshTargets reads a comma-separated list of [secret@]host:port.
func ParseRefreshTargets(raw string) ([]entity.RefreshTarget, error) {
	var targets []entity.RefreshTarget
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		var secret string
		if at := strings.LastIndex(item, "@"); at >= 0 {
			secret, item = item[:at], item[at+1:]
		}

		colon := strings.LastIndex(item, ":")
		if colon <= 0 || colon == len(item)-1 {
			return nil, fmt.Errorf("target %q must be host:port", item)
		}
		targets = append(targets, entity.RefreshTarget{
			Name:   item,
			Host:   item[:colon],
			Port:   item[colon+1:],
			Secret: secret,
		})
	}
	return targets, nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "rulesync-state.gob")
	}
	return filepath.Join(dir, "rulesync", "state.gob")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
