package entity

// ProviderRef is a rule-provider entry in the proxy daemon's configuration.
type ProviderRef struct {
	Name     string
	Type     string // "file" or "http"
	Behavior string
	Format   string
	Group    string
	Path     string
	URL      string
	Interval int
}

// RefreshTarget is a proxy daemon control API reachable at Host:Port.
type RefreshTarget struct {
	Name   string
	Host   string
	Port   string
	Secret string
}

func (t RefreshTarget) Address() string {
	return t.Host + ":" + t.Port
}

type RefreshResult struct {
	Target   RefreshTarget
	Provider string
	Err      error
}
