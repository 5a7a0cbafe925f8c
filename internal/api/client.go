// Package api is the REST client for the Hybrid Storage backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Endpoint paths.
const (
	PathStatus       = "/status"
	PathPairingCode  = "/api/v1/appairage/generer-code"
	PathListFiles    = "/api/v1/fichiers/lister"
	PathSettings     = "/api/v1/parametres"
	PathDashboard    = "/api/v1/tableau-de-bord/statistiques"
	maxErrorBodySize = 4 << 10
)

// Logger receives request traces. desk.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  Logger
}

// Client calls the backend. Requests are never retried: every failure is
// terminal for the action that triggered it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		logger: cfg.Logger,
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Status calls the backend health endpoint.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.do(ctx, http.MethodGet, PathStatus, nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GeneratePairingCode asks the backend for a fresh pairing payload.
func (c *Client) GeneratePairingCode(ctx context.Context) (*PairingCode, error) {
	var p PairingCode
	if err := c.do(ctx, http.MethodGet, PathPairingCode, nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListFiles lists the directory at path. An application error in the
// payload is returned as *AppError.
func (c *Client) ListFiles(ctx context.Context, path string) (*Listing, error) {
	var l Listing
	q := url.Values{"chemin": {path}}
	if err := c.do(ctx, http.MethodGet, PathListFiles, q, nil, &l); err != nil {
		return nil, err
	}
	if l.Error != "" {
		return nil, &AppError{Message: l.Error}
	}
	if l.Entries == nil {
		l.Entries = []FileEntry{}
	}
	return &l, nil
}

// GetSettings fetches the whole settings document.
func (c *Client) GetSettings(ctx context.Context) (Settings, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, PathSettings, nil, nil, &raw); err != nil {
		return nil, err
	}
	s, err := DecodeSettings(raw)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", PathSettings, err)
	}
	return s, nil
}

// SaveSettings submits the whole document. Last writer wins.
func (c *Client) SaveSettings(ctx context.Context, s Settings) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return c.do(ctx, http.MethodPost, PathSettings, nil, body, nil)
}

// DashboardStats fetches the dashboard statistics.
func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var d DashboardStats
	if err := c.do(ctx, http.MethodGet, PathDashboard, nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	op := method + " " + path
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}
