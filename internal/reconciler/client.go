package reconciler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"tokengate/pkg/platform/sentinel"
)

// MaxBatchSize mirrors the contract's fixed batch cap; the contract reverts
// above it, so the client rejects oversized batches before submission.
const MaxBatchSize = 50

// Receipt is a confirmed registry write.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
}

// ChainStatus is one on-chain status read.
type ChainStatus struct {
	Code         uint8
	UpdatedBlock uint64
}

//go:generate mockgen -source=client.go -destination=mocks/client.go -package=mocks

// RegistryClient mirrors the registry contract ABI. Implementations block
// until the transaction is confirmed or ctx expires.
type RegistryClient interface {
	UpdateStatus(ctx context.Context, address string, code uint8) (*Receipt, error)
	BatchUpdateStatus(ctx context.Context, addresses []string, codes []uint8) (*Receipt, error)
	GetStatus(ctx context.Context, address string) (*ChainStatus, error)
	BatchGetStatus(ctx context.Context, addresses []string) ([]uint8, error)
	RulesetVersion(ctx context.Context) (string, error)
}

// RPCClient talks to the registry through a JSON-RPC gateway that wraps the
// contract and the signing wallet.
type RPCClient struct {
	url        string
	chainID    int64
	contract   string
	wallet     string
	httpClient *http.Client
	reqID      atomic.Int64
}

// NewRPCClient constructs a client for one registry contract deployment.
// signingWallet names the gateway-held key that signs submissions; an empty
// value lets the gateway fall back to its default signer.
func NewRPCClient(url string, chainID int64, contractAddress, signingWallet string, timeout time.Duration) *RPCClient {
	return &RPCClient{
		url:        url,
		chainID:    chainID,
		contract:   contractAddress,
		wallet:     signingWallet,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Contract revert errors carry this JSON-RPC error code at the gateway.
const rpcCodeReverted = -32000

type updateParams struct {
	ChainID   int64    `json:"chain_id"`
	Contract  string   `json:"contract"`
	Wallet    string   `json:"wallet,omitempty"`
	Addresses []string `json:"addresses"`
	Codes     []uint8  `json:"codes"`
}

type readParams struct {
	ChainID   int64    `json:"chain_id"`
	Contract  string   `json:"contract"`
	Addresses []string `json:"addresses,omitempty"`
}

type receiptResult struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

func (c *RPCClient) UpdateStatus(ctx context.Context, address string, code uint8) (*Receipt, error) {
	return c.submit(ctx, "registry_updateStatus", []string{address}, []uint8{code})
}

func (c *RPCClient) BatchUpdateStatus(ctx context.Context, addresses []string, codes []uint8) (*Receipt, error) {
	if len(addresses) != len(codes) {
		return nil, fmt.Errorf("address/code length mismatch: %d vs %d", len(addresses), len(codes))
	}
	if len(addresses) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds contract max %d: %w", len(addresses), MaxBatchSize, sentinel.ErrBatchTooLarge)
	}
	return c.submit(ctx, "registry_batchUpdateStatus", addresses, codes)
}

func (c *RPCClient) submit(ctx context.Context, method string, addresses []string, codes []uint8) (*Receipt, error) {
	var result receiptResult
	err := c.call(ctx, method, updateParams{
		ChainID:   c.chainID,
		Contract:  c.contract,
		Wallet:    c.wallet,
		Addresses: addresses,
		Codes:     codes,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &Receipt{TxHash: result.TxHash, BlockNumber: result.BlockNumber}, nil
}

func (c *RPCClient) GetStatus(ctx context.Context, address string) (*ChainStatus, error) {
	var result struct {
		Code         uint8  `json:"code"`
		UpdatedBlock uint64 `json:"updated_block"`
	}
	err := c.call(ctx, "registry_getStatus", readParams{
		ChainID:   c.chainID,
		Contract:  c.contract,
		Addresses: []string{address},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &ChainStatus{Code: result.Code, UpdatedBlock: result.UpdatedBlock}, nil
}

func (c *RPCClient) BatchGetStatus(ctx context.Context, addresses []string) ([]uint8, error) {
	var result struct {
		Codes []uint8 `json:"codes"`
	}
	err := c.call(ctx, "registry_batchGetStatus", readParams{
		ChainID:   c.chainID,
		Contract:  c.contract,
		Addresses: addresses,
	}, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Codes) != len(addresses) {
		return nil, fmt.Errorf("registry returned %d codes for %d addresses", len(result.Codes), len(addresses))
	}
	return result.Codes, nil
}

func (c *RPCClient) RulesetVersion(ctx context.Context) (string, error) {
	var result struct {
		Version string `json:"version"`
	}
	err := c.call(ctx, "registry_rulesetVersion", readParams{
		ChainID:  c.chainID,
		Contract: c.contract,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Version, nil
}

func (c *RPCClient) call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.reqID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w: %w", method, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: status %d: %w", method, resp.StatusCode, sentinel.ErrUnavailable)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		if rpcResp.Error.Code == rpcCodeReverted {
			return fmt.Errorf("%s: %s: %w", method, rpcResp.Error.Message, sentinel.ErrReverted)
		}
		return fmt.Errorf("%s: rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
	}
	return nil
}

// FakeRegistry is an in-memory RegistryClient for tests and local runs.
type FakeRegistry struct {
	mu       sync.Mutex
	statuses map[string]uint8
	block    uint64
	version  string

	// FailNext makes the next write fail with sentinel.ErrReverted.
	FailNext bool
	// Calls counts write submissions.
	Calls int
}

// NewFakeRegistry starts with every address implicitly at code 0.
func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{statuses: make(map[string]uint8), version: "v1"}
}

func (f *FakeRegistry) UpdateStatus(ctx context.Context, address string, code uint8) (*Receipt, error) {
	return f.BatchUpdateStatus(ctx, []string{address}, []uint8{code})
}

func (f *FakeRegistry) BatchUpdateStatus(_ context.Context, addresses []string, codes []uint8) (*Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if len(addresses) != len(codes) {
		return nil, fmt.Errorf("length mismatch: %w", sentinel.ErrReverted)
	}
	if len(addresses) > MaxBatchSize {
		return nil, fmt.Errorf("batch too large: %w", sentinel.ErrReverted)
	}
	if f.FailNext {
		f.FailNext = false
		return nil, fmt.Errorf("transaction reverted: %w", sentinel.ErrReverted)
	}
	for i, addr := range addresses {
		f.statuses[addr] = codes[i]
	}
	f.block++
	return &Receipt{TxHash: fmt.Sprintf("0xtx%06d", f.block), BlockNumber: f.block}, nil
}

func (f *FakeRegistry) GetStatus(_ context.Context, address string) (*ChainStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &ChainStatus{Code: f.statuses[address], UpdatedBlock: f.block}, nil
}

func (f *FakeRegistry) BatchGetStatus(_ context.Context, addresses []string) ([]uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	codes := make([]uint8, len(addresses))
	for i, addr := range addresses {
		codes[i] = f.statuses[addr]
	}
	return codes, nil
}

func (f *FakeRegistry) RulesetVersion(_ context.Context) (string, error) {
	return f.version, nil
}
