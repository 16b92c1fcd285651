// Package luci talks to an OpenWrt router through the LuCI JSON-RPC endpoints
// (auth, fs, sys). File contents move either base64-encoded through the fs
// endpoint or, on firmwares without base64 support, through shell commands.
package luci

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/apperr"
	"clash-rulesync/internal/pkg/logger"
)

const logModule = "LuCI"

// ModeStore persists the transport mode between runs. LoadMode returns
// TransportUnknown when nothing was stored.
type ModeStore interface {
	LoadMode(ctx context.Context) (entity.TransportMode, error)
	SaveMode(ctx context.Context, mode entity.TransportMode) error
	ResetMode(ctx context.Context) error
}

type Config struct {
	Host     string
	Username string
	Password string
}

type Option func(*Client)

// WithHTTPClient replaces the default client. The default has no timeout:
// file I/O relies on the caller's context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client is a router session. It is meant for one caller at a time; the mutex
// only keeps the session fields consistent.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	store      ModeStore
	logger     logger.ILogger

	mu     sync.Mutex
	mode   entity.TransportMode
	token  string
	nextID int
}

func NewClient(cfg Config, store ModeStore, log logger.ILogger, opts ...Option) *Client {
	base := strings.TrimRight(cfg.Host, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	c := &Client{
		baseURL:    base,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{},
		store:      store,
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ============================================================
// SESSION
// ============================================================

// Login authenticates and stores the session token. On the first login of a
// client the persisted transport mode is loaded (default: encoded).
func (c *Client) Login(ctx context.Context) (string, error) {
	result, err := c.call(ctx, "auth", "", "login", c.username, c.password)
	if err != nil {
		var rpcErr *rpcError
		if asRPCError(err, &rpcErr) {
			return "", &apperr.AuthError{Message: rpcErr.Message}
		}
		return "", err
	}

	token, err := decodeString(result)
	if err != nil {
		return "", &apperr.TransportError{Op: "login", Message: "malformed token", Err: err}
	}
	if token == "" {
		return "", &apperr.AuthError{Message: "invalid username or password"}
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if c.Mode() == entity.TransportUnknown {
		c.loadMode(ctx)
	}

	c.logger.Debug(logModule, "Logged in", map[string]interface{}{
		"host": c.baseURL,
		"mode": c.Mode().String(),
	})
	return token, nil
}

func (c *Client) ensureSession(ctx context.Context) error {
	if c.currentToken() == "" {
		_, err := c.Login(ctx)
		return err
	}
	if c.Mode() == entity.TransportUnknown {
		c.loadMode(ctx)
	}
	return nil
}

func (c *Client) loadMode(ctx context.Context) {
	next := entity.TransportEncoded
	if c.store != nil {
		stored, err := c.store.LoadMode(ctx)
		if err != nil {
			c.logger.Warn(logModule, "Failed to load transport mode, assuming encoded", map[string]interface{}{
				"error": err.Error(),
			})
		} else if stored == entity.TransportShell {
			next = entity.TransportShell
		}
	}
	if err := c.transitionTo(next); err != nil {
		c.logger.Warn(logModule, "Transport transition rejected", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// ============================================================
// TRANSPORT STATE
// ============================================================

// Mode returns the current transport mode.
func (c *Client) Mode() entity.TransportMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// transitionTo moves the FSM forward. Shell is terminal: only ResetTransport
// leaves it.
func (c *Client) transitionTo(next entity.TransportMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == next {
		return nil
	}
	switch {
	case c.mode == entity.TransportUnknown && next != entity.TransportUnknown:
	case c.mode == entity.TransportEncoded && next == entity.TransportShell:
	default:
		return fmt.Errorf("transport transition %s -> %s not allowed", c.mode, next)
	}
	c.mode = next
	return nil
}

func (c *Client) downgrade(ctx context.Context) error {
	if err := c.transitionTo(entity.TransportShell); err != nil {
		return err
	}
	c.logger.Warn(logModule, "Base64 transfer unsupported, switching to shell transport", map[string]interface{}{
		"host": c.baseURL,
	})
	if c.store == nil {
		return nil
	}
	if err := c.store.SaveMode(ctx, entity.TransportShell); err != nil {
		c.logger.Error(logModule, "Failed to persist shell transport", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return nil
}

// ResetTransport forgets the stored mode; the next call probes again.
func (c *Client) ResetTransport(ctx context.Context) error {
	c.mu.Lock()
	c.mode = entity.TransportUnknown
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.ResetMode(ctx)
}

// ============================================================
// FILE I/O
// ============================================================

// ReadFile returns the file content. In shell mode an unreadable path yields
// an empty string.
func (c *Client) ReadFile(ctx context.Context, path string) (string, error) {
	if err := c.ensureSession(ctx); err != nil {
		return "", err
	}

	if c.Mode() == entity.TransportEncoded {
		content, err := c.readFileEncoded(ctx, path)
		if !isEncodingUnsupported(err) {
			return content, err
		}
		if err := c.downgrade(ctx); err != nil {
			return "", err
		}
	}
	return c.readFileShell(ctx, path)
}

func (c *Client) readFileEncoded(ctx context.Context, path string) (string, error) {
	result, err := c.call(ctx, "fs", c.currentToken(), "readfile", path)
	if err != nil {
		return "", classifyFileError("readfile", "read file failed", err)
	}
	encoded, err := decodeString(result)
	if err != nil {
		return "", &apperr.TransportError{Op: "readfile", Message: "malformed result", Err: err}
	}
	if encoded == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", &apperr.TransportError{Op: "readfile", Message: "invalid base64 content", Err: err}
	}
	return string(raw), nil
}

func (c *Client) readFileShell(ctx context.Context, path string) (string, error) {
	out, err := c.exec(ctx, "cat "+path)
	if err != nil {
		return "", withDefaultMessage(err, "read file failed")
	}
	return out, nil
}

// WriteFile replaces the file content.
func (c *Client) WriteFile(ctx context.Context, path, content string) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}

	if c.Mode() == entity.TransportEncoded {
		err := c.writeFileEncoded(ctx, path, content)
		if !isEncodingUnsupported(err) {
			return err
		}
		if err := c.downgrade(ctx); err != nil {
			return err
		}
	}
	return c.writeFileShell(ctx, path, content)
}

func (c *Client) writeFileEncoded(ctx context.Context, path, content string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	if _, err := c.call(ctx, "fs", c.currentToken(), "writefile", path, encoded); err != nil {
		return classifyFileError("writefile", "write file failed", err)
	}
	return nil
}

func (c *Client) writeFileShell(ctx context.Context, path, content string) error {
	if _, err := c.exec(ctx, ShellWriteCommand(path, content)); err != nil {
		return withDefaultMessage(err, "write file failed")
	}
	return nil
}

// ShellWriteCommand builds the printf command used by the shell transport.
// Backslashes are doubled, then each single quote becomes '\''.
func ShellWriteCommand(path, content string) string {
	escaped := strings.ReplaceAll(content, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `'\''`)
	return fmt.Sprintf("printf '%%s' '%s' > %s", escaped, path)
}

// ============================================================
// COMMAND EXECUTION
// ============================================================

// Exec runs a shell command on the router and returns its stdout. Commands
// are passed through as given.
func (c *Client) Exec(ctx context.Context, cmd string) (string, error) {
	if err := c.ensureSession(ctx); err != nil {
		return "", err
	}
	return c.exec(ctx, cmd)
}

func (c *Client) exec(ctx context.Context, cmd string) (string, error) {
	result, err := c.call(ctx, "sys", c.currentToken(), "exec", cmd)
	if err != nil {
		var rpcErr *rpcError
		if asRPCError(err, &rpcErr) {
			return "", &apperr.TransportError{Op: "exec", Message: rpcErr.Message, Err: err}
		}
		return "", err
	}
	out, err := decodeString(result)
	if err != nil {
		return "", &apperr.TransportError{Op: "exec", Message: "malformed result", Err: err}
	}
	return out, nil
}

// ============================================================
// JSON-RPC
// ============================================================

type rpcRequest struct {
	ID     int      `json:"id"`
	Method string   `json:"method"`
	Params []string `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, endpoint, token, method string, params ...string) (json.RawMessage, error) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.mu.Unlock()

	if params == nil {
		params = []string{}
	}
	payload, err := json.Marshal(rpcRequest{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/cgi-bin/luci/rpc/" + endpoint
	if token != "" {
		url += "?auth=" + token
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.TransportError{Op: method, Message: "request failed", Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &apperr.TransportError{Op: method, Message: "read response", Status: res.StatusCode, Err: err}
	}

	var decoded rpcResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &apperr.TransportError{Op: method, Message: "unexpected response", Status: res.StatusCode, Err: err}
	}
	if decoded.Error != nil {
		return nil, decoded.Error
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &apperr.TransportError{Op: method, Message: http.StatusText(res.StatusCode), Status: res.StatusCode}
	}
	return decoded.Result, nil
}

// decodeString accepts a JSON string or null.
func decodeString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}
