package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:3001"
	DefaultTimeout = 30 * time.Second

	maxResponseSize = 16 << 20
)

// Vault is the server copy of the encrypted vault
type Vault struct {
	EncryptedData crypto.EncryptedData
	LastModified  time.Time
}

// PutResult is the server's answer to PutVault
type PutResult struct {
	Success      bool
	LastModified time.Time
}

// User identifies an account
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is returned by Login and Register
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

type wireVault struct {
	EncryptedData crypto.Envelope `json:"encryptedData"`
	LastModified  string          `json:"lastModified"`
}

type vaultResponse struct {
	Vault *wireVault `json:"vault"`
}

type putRequest struct {
	EncryptedData *crypto.EncryptedData `json:"encryptedData"`
}

type putResponse struct {
	Success      bool   `json:"success"`
	LastModified string `json:"lastModified"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client talks to the sync server
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetVault fetches the server copy. It returns nil, nil when the account
// has no vault yet.
func (c *Client) GetVault(ctx context.Context, token string) (*Vault, error) {
	var resp vaultResponse
	if err := c.do(ctx, http.MethodGet, "/api/vault", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Vault == nil {
		return nil, nil
	}

	modified, err := parseTimestamp(resp.Vault.LastModified)
	if err != nil {
		return nil, fmt.Errorf("%w: lastModified: %v", ErrInvalidResponse, err)
	}

	return &Vault{
		EncryptedData: resp.Vault.EncryptedData.Data,
		LastModified:  modified,
	}, nil
}

// PutVault replaces the server copy with data
func (c *Client) PutVault(ctx context.Context, token string, data *crypto.EncryptedData) (*PutResult, error) {
	var resp putResponse
	if err := c.do(ctx, http.MethodPut, "/api/vault", token, putRequest{EncryptedData: data}, &resp); err != nil {
		return nil, err
	}

	result := &PutResult{Success: resp.Success}
	if resp.LastModified != "" {
		modified, err := parseTimestamp(resp.LastModified)
		if err != nil {
			return nil, fmt.Errorf("%w: lastModified: %v", ErrInvalidResponse, err)
		}
		result.LastModified = modified
	}
	return result, nil
}

// Login exchanges account credentials for an access token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.auth(ctx, "/api/auth/login", email, password)
}

// Register creates an account and returns its access token
func (c *Client) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.auth(ctx, "/api/auth/register", email, password)
}

func (c *Client) auth(ctx context.Context, endpoint, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, endpoint, "", credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrInvalidResponse)
	}
	return &resp, nil
}

// Health returns the server's reported status
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", "", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.log.Debug("remote request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &APIError{Status: status, Message: "Request failed"}
	}
	if payload.Message == "" {
		return &APIError{Status: status, Message: fmt.Sprintf("HTTP %d", status)}
	}
	return &APIError{Status: status, Message: payload.Message}
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds
func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
