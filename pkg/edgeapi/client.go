// Package edgeapi is the client for the cloud-hosted rule API served by
// cmd/rest (or a compatible worker).
package edgeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/apperr"
)

const probeTimeout = 5 * time.Second

// AddRuleRequest is the POST /api/rules body. Domain carries any rule value,
// not only host names.
type AddRuleRequest struct {
	Domain    string `json:"domain"`
	Type      string `json:"type"`
	MatchType string `json:"matchType"`
}

type rulesBody struct {
	Direct string `json:"direct"`
	Proxy  string `json:"proxy"`
}

type errorBody struct {
	Error string `json:"error"`
}

type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

func NewClient(workerURL, secret string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(workerURL, "/"),
		secret:     secret,
		httpClient: httpClient,
	}
}

// AddRule posts one rule. A 4xx/5xx carrying {"error":"RULE_EXISTS"} becomes
// apperr.ErrRuleExists; any other failure is a TransportError.
func (c *Client) AddRule(ctx context.Context, value string, classification entity.Classification, matchType entity.MatchType) error {
	if matchType == "" {
		matchType = entity.MatchDomainSuffix
	}
	payload := AddRuleRequest{
		Domain:    value,
		Type:      string(classification),
		MatchType: string(matchType),
	}

	status, body, err := c.do(ctx, http.MethodPost, "/api/rules", payload)
	if err != nil {
		return &apperr.TransportError{Op: "add rule", Message: "add rule failed", Err: err}
	}
	if isSuccess(status) {
		return nil
	}

	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	if eb.Error == apperr.ErrRuleExists.Error() {
		return apperr.ErrRuleExists
	}
	msg := eb.Error
	if msg == "" {
		msg = "add rule failed"
	}
	return &apperr.TransportError{Op: "add rule", Message: msg, Status: status}
}

func (c *Client) GetAllRules(ctx context.Context) (entity.RuleSet, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/rules", nil)
	if err != nil {
		return entity.RuleSet{}, &apperr.TransportError{Op: "get rules", Message: "get rules failed", Err: err}
	}
	if !isSuccess(status) {
		return entity.RuleSet{}, &apperr.TransportError{Op: "get rules", Message: "get rules failed", Status: status}
	}

	var rb rulesBody
	if err := json.Unmarshal(body, &rb); err != nil {
		return entity.RuleSet{}, &apperr.TransportError{Op: "get rules", Message: "malformed response", Status: status, Err: err}
	}
	return entity.RuleSet{Proxy: rb.Proxy, Direct: rb.Direct}, nil
}

// SaveRules overwrites both documents.
func (c *Client) SaveRules(ctx context.Context, proxy, direct string) error {
	status, _, err := c.do(ctx, http.MethodPut, "/api/rules", rulesBody{Direct: direct, Proxy: proxy})
	if err != nil {
		return &apperr.TransportError{Op: "save rules", Message: "save rules failed", Err: err}
	}
	if !isSuccess(status) {
		return &apperr.TransportError{Op: "save rules", Message: "save rules failed", Status: status}
	}
	return nil
}

// TestConnection fetches the public direct.yaml without credentials.
func (c *Client) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/direct.yaml", nil)
	if err != nil {
		return false
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return isSuccess(res.StatusCode)
}

// PublicURL is the rule-provider URL the proxy daemon downloads.
func (c *Client) PublicURL(classification entity.Classification) string {
	return c.baseURL + "/" + classification.Key() + ".yaml"
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return res.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
