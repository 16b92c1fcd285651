// Package reach checks whether a host answers directly or only through a
// SOCKS5 proxy, to suggest a classification for it.
package reach

import (
	"context"
	"net"
	"time"

	"github.com/txthinking/socks5"
)

const DefaultTimeout = 3 * time.Second

type Suggestion string

const (
	SuggestDirect      Suggestion = "DIRECT"
	SuggestProxy       Suggestion = "PROXY"
	SuggestUnreachable Suggestion = "UNREACHABLE"
	SuggestUnknown     Suggestion = "UNKNOWN"
)

type Result struct {
	Target    string
	DirectErr error
	ProxyErr  error
	Proxied   bool // a proxy check was attempted
}

// Suggest maps the two probe outcomes to a classification hint.
func (r Result) Suggest() Suggestion {
	switch {
	case r.DirectErr == nil:
		return SuggestDirect
	case !r.Proxied:
		return SuggestUnknown
	case r.ProxyErr == nil:
		return SuggestProxy
	default:
		return SuggestUnreachable
	}
}

// DialFunc opens a TCP connection to addr.
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

type Prober struct {
	direct DialFunc
	proxy  DialFunc
}

// NewProber dials directly and, when socksAddr is set, through that SOCKS5
// server as well.
func NewProber(socksAddr, username, password string, timeout time.Duration) (*Prober, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	p := &Prober{direct: directDialer(timeout)}
	if socksAddr == "" {
		return p, nil
	}

	seconds := int(timeout / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	client, err := socks5.NewClient(socksAddr, username, password, seconds, seconds)
	if err != nil {
		return nil, err
	}
	p.proxy = func(ctx context.Context, addr string) (net.Conn, error) {
		return client.Dial("tcp", addr)
	}
	return p, nil
}

func directDialer(timeout time.Duration) DialFunc {
	d := &net.Dialer{Timeout: timeout}
	return func(ctx context.Context, addr string) (net.Conn, error) {
		return d.DialContext(ctx, "tcp", addr)
	}
}

// Probe dials host:port (443 when port is empty) on each configured path.
func (p *Prober) Probe(ctx context.Context, host, port string) Result {
	if port == "" {
		port = "443"
	}
	target := net.JoinHostPort(host, port)
	res := Result{Target: target}

	res.DirectErr = dialAndClose(ctx, p.direct, target)
	if p.proxy != nil {
		res.Proxied = true
		res.ProxyErr = dialAndClose(ctx, p.proxy, target)
	}
	return res
}

func dialAndClose(ctx context.Context, dial DialFunc, addr string) error {
	conn, err := dial(ctx, addr)
	if err != nil {
		return err
	}
	return conn.Close()
}
