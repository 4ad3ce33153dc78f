package blockchain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
)

// RPCError is an error object returned by the JSON-RPC endpoint.
type RPCError struct {
	Code    int64
	Message string
}

func (e RPCError) Error() string {
	return fmt.Sprintf("solana rpc error %d: %s", e.Code, e.Message)
}

// Client is a minimal Solana JSON-RPC client covering the calls the proof flow needs.
type Client struct {
	url        string
	commitment string
	httpClient *http.Client
	logger     *slog.Logger
	nextID     atomic.Int64
}

func NewClient(url, commitment string, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		commitment: commitment,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With("component", "solana_rpc"),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// call posts one request and returns the "result" member of the response.
func (c *Client) call(ctx context.Context, method string, params ...any) (gjson.Result, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("%s returned HTTP %d: %s", method, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%s returned invalid JSON", method)
	}

	if rpcErr := gjson.GetBytes(raw, "error"); rpcErr.Exists() && rpcErr.Type != gjson.Null {
		return gjson.Result{}, RPCError{
			Code:    rpcErr.Get("code").Int(),
			Message: rpcErr.Get("message").String(),
		}
	}

	result := gjson.GetBytes(raw, "result")
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("%s response has no result", method)
	}
	c.logger.Debug("Solana RPC call succeeded", "method", method)
	return result, nil
}

// GetLatestBlockhash returns the base58 blockhash to build a transaction against.
func (c *Client) GetLatestBlockhash(ctx context.Context) (string, error) {
	result, err := c.call(ctx, "getLatestBlockhash", map[string]any{"commitment": c.commitment})
	if err != nil {
		return "", err
	}
	hash := result.Get("value.blockhash").String()
	if hash == "" {
		return "", fmt.Errorf("getLatestBlockhash response has no blockhash")
	}
	return hash, nil
}

// GetBalance returns the balance of address in lamports.
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	result, err := c.call(ctx, "getBalance", address, map[string]any{"commitment": c.commitment})
	if err != nil {
		return 0, err
	}
	value := result.Get("value")
	if !value.Exists() {
		return 0, fmt.Errorf("getBalance response has no value")
	}
	return value.Uint(), nil
}

// SendTransaction submits a signed, serialized transaction and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, tx []byte) (string, error) {
	result, err := c.call(ctx, "sendTransaction",
		base64.StdEncoding.EncodeToString(tx),
		map[string]any{"encoding": "base64", "preflightCommitment": c.commitment},
	)
	if err != nil {
		return "", err
	}
	signature := result.String()
	if signature == "" {
		return "", fmt.Errorf("sendTransaction returned an empty signature")
	}
	return signature, nil
}
