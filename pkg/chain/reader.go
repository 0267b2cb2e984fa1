package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog/log"

	"github.com/zkwatch/pkg/config"
)

// RawTransaction is a transaction as returned by eth_getBlockByNumber with
// full bodies. To is nil for contract creations; Value stays hex wei until
// the caller converts it.
type RawTransaction struct {
	Hash  string  `json:"hash"`
	From  string  `json:"from"`
	To    *string `json:"to"`
	Value string  `json:"value"`
}

type RawBlock struct {
	Number       uint64
	Timestamp    time.Time
	Transactions []RawTransaction
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      int             `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Reader fetches recent blocks from public JSON-RPC endpoints.
type Reader struct {
	cfg    *config.Config
	client *http.Client
}

func NewReader(cfg *config.Config) *Reader {
	return &Reader{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}}
}

// FetchLatestBlocks returns up to count recent blocks, most recent first.
// Unknown chains yield an empty result, not an error. A block whose fetch
// fails is skipped; there is no retry — a missed block this cycle is picked
// up by a later scan.
func (r *Reader) FetchLatestBlocks(ctx context.Context, chain config.Chain, count int) ([]RawBlock, error) {
	cc, ok := r.cfg.ChainConfig(chain)
	if !ok {
		return nil, nil
	}

	head, err := r.blockNumber(ctx, cc.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%s head: %w", chain, err)
	}

	blocks := make([]RawBlock, 0, count)
	for i := 0; i < count; i++ {
		height := head - uint64(i)
		block, err := r.blockByNumber(ctx, cc.RPCURL, height)
		if err != nil {
			log.Warn().Err(err).Str("chain", string(chain)).Uint64("height", height).Msg("block fetch failed, skipping")
			continue
		}
		blocks = append(blocks, *block)
	}
	return blocks, nil
}

func (r *Reader) blockNumber(ctx context.Context, rpcURL string) (uint64, error) {
	result, err := r.rpcCall(ctx, rpcURL, "eth_blockNumber", []interface{}{})
	if err != nil {
		return 0, err
	}
	var hexHead string
	if err := json.Unmarshal(result, &hexHead); err != nil {
		return 0, err
	}
	return hexutil.DecodeUint64(hexHead)
}

func (r *Reader) blockByNumber(ctx context.Context, rpcURL string, height uint64) (*RawBlock, error) {
	result, err := r.rpcCall(ctx, rpcURL, "eth_getBlockByNumber",
		[]interface{}{hexutil.EncodeUint64(height), true})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Number       string           `json:"number"`
		Timestamp    string           `json:"timestamp"`
		Transactions []RawTransaction `json:"transactions"`
	}
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("block decode: %w", err)
	}
	if raw.Number == "" {
		return nil, fmt.Errorf("block %d not available", height)
	}

	number, err := hexutil.DecodeUint64(raw.Number)
	if err != nil {
		return nil, err
	}
	ts, err := hexutil.DecodeUint64(raw.Timestamp)
	if err != nil {
		return nil, err
	}

	return &RawBlock{
		Number:       number,
		Timestamp:    time.Unix(int64(ts), 0).UTC(),
		Transactions: raw.Transactions,
	}, nil
}

// rpcCall performs a single JSON-RPC 2.0 call against an EVM endpoint.
func (r *Reader) rpcCall(ctx context.Context, rpcURL, method string, params []interface{}) (json.RawMessage, error) {
	reqBody, _ := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", rpcURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("rpc unmarshal: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}
