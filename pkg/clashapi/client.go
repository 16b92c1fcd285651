// Package clashapi calls the external controller of a Clash-compatible proxy
// daemon (OpenClash, Clash Verge, mihomo).
package clashapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	probeTimeout   = 5 * time.Second
	refreshTimeout = 5 * time.Second
	pollInterval   = 2 * time.Second
	pollTimeout    = 2 * time.Second
)

var (
	ErrTimeout        = errors.New("clash api: request timed out")
	ErrUnreachable    = errors.New("clash api: cannot connect")
	ErrUnauthorized   = errors.New("clash api: authentication failed, check the controller secret")
	ErrRestartTimeout = errors.New("clash api: daemon did not come back in time")
	ErrNoGroups       = errors.New("clash api: no proxy groups found")
)

// Group types offered as rule targets.
var selectableTypes = map[string]bool{
	"Selector": true,
	"URLTest":  true,
	"Fallback": true,
	"Smart":    true,
}

var builtinGroups = map[string]bool{
	"DIRECT": true,
	"REJECT": true,
	"GLOBAL": true,
}

type VersionInfo struct {
	Version string `json:"version"`
	Premium bool   `json:"premium"`
	Meta    bool   `json:"meta"`
}

// Label is what the daemon calls itself in status lines.
func (v VersionInfo) Label() string {
	if v.Version != "" {
		return v.Version
	}
	if v.Premium {
		return "Premium"
	}
	return "Unknown"
}

type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewClient accepts "host:port" or a full URL.
func NewClient(address, secret string, httpClient *http.Client) *Client {
	base := strings.TrimRight(address, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: base, secret: secret, httpClient: httpClient}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Version probes GET /version with a bounded wait.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status, body, err := c.do(ctx, http.MethodGet, "/version")
	if err != nil {
		return VersionInfo{}, err
	}
	if status == http.StatusUnauthorized {
		return VersionInfo{}, ErrUnauthorized
	}
	if status != http.StatusOK {
		return VersionInfo{}, fmt.Errorf("clash api: unexpected status %d", status)
	}

	var info VersionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return VersionInfo{}, fmt.Errorf("clash api: decode version: %w", err)
	}
	return info, nil
}

// ProxyGroups lists the selectable groups, sorted by name.
func (c *Client) ProxyGroups(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status, body, err := c.do(ctx, http.MethodGet, "/proxies")
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("clash api: unexpected status %d", status)
	}

	var groups []string
	gjson.GetBytes(body, "proxies").ForEach(func(name, proxy gjson.Result) bool {
		if builtinGroups[name.String()] {
			return true
		}
		if selectableTypes[proxy.Get("type").String()] {
			groups = append(groups, name.String())
		}
		return true
	})
	if len(groups) == 0 {
		return nil, ErrNoGroups
	}
	sort.Strings(groups)
	return groups, nil
}

// RefreshProvider asks the daemon to reload one rule provider.
func (c *Client) RefreshProvider(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	status, body, err := c.do(ctx, http.MethodPut, "/providers/rules/"+url.PathEscape(name))
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("clash api: refresh %q: status %d: %s", name, status, strings.TrimSpace(string(body)))
	}
	return nil
}

// WaitReady polls /version until the daemon answers or maxWait elapses.
func (c *Client) WaitReady(ctx context.Context, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		attemptCtx, cancel := context.WithTimeout(ctx, pollTimeout)
		status, _, err := c.do(attemptCtx, http.MethodGet, "/version")
		cancel()
		if err == nil && status == http.StatusOK {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return ErrRestartTimeout
}

func (c *Client) do(ctx context.Context, method, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("clash api: create request: %w", err)
	}
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, classifyNetError(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("clash api: read response: %w", err)
	}
	return res.StatusCode, body, nil
}

func classifyNetError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %v", ErrUnreachable, opErr.Err)
	}
	return fmt.Errorf("clash api: %w", err)
}
