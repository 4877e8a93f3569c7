package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultCallTimeout = 15 * time.Second

	// getMultipleAccounts accepts at most 100 keys per request.
	MaxAccountsPerCall = 100
)

// HTTPClient executes single JSON-RPC 2.0 attempts against one endpoint.
// Rotation and retry live in ConnectionManager, not here, so the retry
// budget stays testable in one place.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	callTimeout time.Duration
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithCallTimeout sets the per-call timeout applied to every request.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.callTimeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a client for one RPC endpoint.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{},
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the endpoint URL this client talks to.
func (c *HTTPClient) Endpoint() string { return c.endpoint }

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// call performs one JSON-RPC attempt. Transport failures and rate limits
// come back as retryable errors; RPC protocol errors do not.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return newTransportError("http request: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return newTransportError("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return newTransportError("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return newTransportError("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return newTransportError("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return nil
}

// GetMultipleAccounts fetches raw data for up to MaxAccountsPerCall keys.
// The returned slice is aligned to keys; missing accounts are nil.
func (c *HTTPClient) GetMultipleAccounts(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if len(keys) > MaxAccountsPerCall {
		return nil, fmt.Errorf("too many keys: %d > %d", len(keys), MaxAccountsPerCall)
	}

	params := []interface{}{
		keys,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": "confirmed",
		},
	}

	var result getMultipleAccountsResult
	if err := c.call(ctx, "getMultipleAccounts", params, &result); err != nil {
		return nil, err
	}

	out := make([][]byte, len(keys))
	for i, v := range result.Value {
		if i >= len(keys) || v == nil || len(v.Data) < 1 {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(v.Data[0])
		if err != nil {
			continue
		}
		out[i] = decoded
	}

	return out, nil
}

type getMultipleAccountsResult struct {
	Value []*accountValue `json:"value"`
}

type accountValue struct {
	Lamports uint64   `json:"lamports"`
	Owner    string   `json:"owner"`
	Data     []string `json:"data"` // [base64_data, encoding]
}
