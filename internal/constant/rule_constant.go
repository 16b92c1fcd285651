package constant

import "time"

// Rule-provider names registered in the proxy daemon. Remote mode points the
// Custom_* providers at files on the router; cloud mode points the Cloud_*
// providers at the edge API.
const (
	ProviderCustomProxy  = "Rule-provider - Custom_Proxy"
	ProviderCustomDirect = "Rule-provider - Custom_Direct"
	ProviderCloudProxy   = "Rule-provider - Cloud_Proxy"
	ProviderCloudDirect  = "Rule-provider - Cloud_Direct"
)

const (
	SyncModeRemote = "remote"
	SyncModeCloud  = "cloud"
)

const (
	DefaultProxyFile  = "/etc/openclash/rule_provider/Custom_Proxy.yaml"
	DefaultDirectFile = "/etc/openclash/rule_provider/Custom_Direct.yaml"

	CloudProxyPath  = "./ruleset/cloud-proxy.yaml"
	CloudDirectPath = "./ruleset/cloud-direct.yaml"

	DefaultClashPort        = "9090"
	ProviderRefreshInterval = 3600
	DirectGroup             = "DIRECT"
)

const (
	DaemonRestartWait = 30 * time.Second
)

// Router-side commands for the OpenClash UCI config.
const (
	UciGetDashboardSecret = `uci get openclash.config.dashboard_password 2>/dev/null || echo ""`
	UciGetControllerPort  = `uci get openclash.config.cn_port 2>/dev/null || echo "9090"`
	UciListProviderNames  = `uci show openclash | grep rule_providers | grep name`
	UciAddProvider        = `uci add openclash rule_providers`
	UciCommit             = `uci commit openclash`
	OpenClashRestart      = `/etc/init.d/openclash restart`
)

// Event bus.
const (
	EventRulesChanged = "RULES_CHANGED"
	TopicRulesChanged = "rules.changed"
	RulesDurableName  = "rulesync-follow"
)
