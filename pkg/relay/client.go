// Package relay implements the private-relay JSON-RPC client (C8):
// eth_sendBundle submission, signed per Flashbots' auth-header
// convention.
package relay

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mev-engine/sandwich-arb-engine/pkg/bundle"
	"github.com/mev-engine/sandwich-arb-engine/pkg/signer"
)

// DefaultEndpoint is the default private relay, per spec.md §6.
const DefaultEndpoint = "https://relay.flashbots.net"

// DefaultTimeout is the recommended relay submission deadline
// (spec.md §5: "5 s for relay submission").
const DefaultTimeout = 5 * time.Second

type sendBundleParams struct {
	Txs               []string `json:"txs"`
	BlockNumber       string   `json:"blockNumber"`
	MinTimestamp      *uint64  `json:"minTimestamp,omitempty"`
	MaxTimestamp      *uint64  `json:"maxTimestamp,omitempty"`
	RevertingTxHashes []string `json:"revertingTxHashes"`
}

type jsonRPCRequest struct {
	JSONRPC string             `json:"jsonrpc"`
	ID      int                `json:"id"`
	Method  string             `json:"method"`
	Params  []sendBundleParams `json:"params"`
}

type jsonRPCResponse struct {
	Result *struct {
		BundleHash string `json:"bundleHash"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Error is returned when the relay answers with a JSON-RPC error
// object.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("relay: %s (code %d)", e.Message, e.Code)
}

// Client submits signed bundles to a private relay.
type Client struct {
	endpoint   string
	auth       *signer.AuthSigner
	httpClient *http.Client
}

// New constructs a relay Client against endpoint, authenticating
// submissions with auth.
func New(endpoint string, auth *signer.AuthSigner) *Client {
	return &Client{
		endpoint:   endpoint,
		auth:       auth,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SendBundle submits b as an eth_sendBundle call, returning the relay's
// bundleHash on success.
func (c *Client) SendBundle(ctx context.Context, b *bundle.Bundle) (string, error) {
	txs := make([]string, len(b.Entries))
	for i, entry := range b.Entries {
		txs[i] = entry.SignedTxHex
	}

	params := sendBundleParams{
		Txs:               txs,
		BlockNumber:       fmt.Sprintf("0x%x", b.TargetBlockNumber),
		MinTimestamp:      b.MinTimestamp,
		MaxTimestamp:      b.MaxTimestamp,
		RevertingTxHashes: []string{},
	}

	reqBody := jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_sendBundle",
		Params:  []sendBundleParams{params},
	}

	// The signature covers the byte-exact serialized body that is sent;
	// we marshal once and reuse the same bytes for both.
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal bundle request: %w", err)
	}

	sig, err := c.auth.SignMessage(payload)
	if err != nil {
		return "", fmt.Errorf("sign bundle request: %w", err)
	}
	sigHeader := fmt.Sprintf("%s:0x%s", c.auth.Address().Hex(), hex.EncodeToString(sig))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build relay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Flashbots-Signature", sigHeader)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit bundle: %w", err)
	}
	defer resp.Body.Close()

	var rpcResp jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", fmt.Errorf("decode relay response: %w", err)
	}

	if rpcResp.Error != nil {
		return "", &Error{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}
	if rpcResp.Result == nil {
		return "", fmt.Errorf("relay: empty result with no error")
	}
	return rpcResp.Result.BundleHash, nil
}
