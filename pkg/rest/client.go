// Package rest provides a signed REST API client for the Kalshi trading platform.
package rest

import (
	"bytes"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	// ProdBaseURL is the production API base URL.
	ProdBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

	// DemoBaseURL is the demo/sandbox API base URL.
	DemoBaseURL = "https://demo-api.kalshi.co/trade-api/v2"

	// requestTimeout is the hard cap on any single API call.
	requestTimeout = 15 * time.Second
)

// Client is a REST API client for Kalshi.
type Client struct {
	baseURL    string
	apiKey     string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithDemo configures the client to use the demo environment.
func WithDemo() Option {
	return func(c *Client) {
		c.baseURL = DemoBaseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a new REST API client.
func New(apiKey string, privateKey *rsa.PrivateKey, opts ...Option) *Client {
	c := &Client{
		baseURL:    ProdBaseURL,
		apiKey:     apiKey,
		privateKey: privateKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// request makes an authenticated API request.
func (c *Client) request(method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// The signature must include the full path: /trade-api/v2/...
	fullPath := "/trade-api/v2" + path
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature, err := GenerateSignature(c.privateKey, timestamp, method, fullPath)
	if err != nil {
		return nil, fmt.Errorf("generate signature: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKey)
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", signature)

	c.log.Trace().Str("method", method).Str("url", url).Msg("kalshi request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Code:       errResp.Error.Code,
				Message:    errResp.Error.Message,
			}
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	return respBody, nil
}

// Get makes a GET request.
func (c *Client) Get(path string) ([]byte, error) {
	return c.request("GET", path, nil)
}

// Post makes a POST request.
func (c *Client) Post(path string, body any) ([]byte, error) {
	return c.request("POST", path, body)
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError represents an API error.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("kalshi api error %d: [%s] %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("kalshi api error %d: %s", e.StatusCode, e.Message)
}
