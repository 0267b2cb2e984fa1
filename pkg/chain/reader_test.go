package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkwatch/pkg/config"
)

type fakeChain struct {
	head        uint64
	failHeights map[uint64]bool
	txsPerBlock int
}

func (f *fakeChain) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	json.NewDecoder(r.Body).Decode(&req)

	write := func(result interface{}) {
		raw, _ := json.Marshal(result)
		json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", Result: raw, ID: req.ID})
	}

	switch req.Method {
	case "eth_blockNumber":
		write(hexutil.EncodeUint64(f.head))
	case "eth_getBlockByNumber":
		height, _ := hexutil.DecodeUint64(req.Params[0].(string))
		if f.failHeights[height] {
			json.NewEncoder(w).Encode(rpcResponse{
				JSONRPC: "2.0",
				Error:   &rpcError{Code: -32000, Message: "block unavailable"},
				ID:      req.ID,
			})
			return
		}
		txs := make([]map[string]interface{}, 0, f.txsPerBlock)
		for i := 0; i < f.txsPerBlock; i++ {
			txs = append(txs, map[string]interface{}{
				"hash":  fmt.Sprintf("0xtx%d_%d", height, i),
				"from":  "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
				"to":    "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
				"value": "0xde0b6b3a7640000", // 1 ETH
			})
		}
		write(map[string]interface{}{
			"number":       hexutil.EncodeUint64(height),
			"timestamp":    hexutil.EncodeUint64(1_700_000_000 + height),
			"transactions": txs,
		})
	default:
		http.Error(w, "unexpected method "+req.Method, http.StatusBadRequest)
	}
}

func testConfig(rpcURL string) *config.Config {
	return &config.Config{
		Chains: map[config.Chain]config.ChainConfig{
			config.ChainEthereum: {
				Name:              config.ChainEthereum,
				RPCURL:            rpcURL,
				NativeSymbol:      "ETH",
				WhaleThresholdUSD: 100000,
			},
		},
	}
}

func TestFetchLatestBlocks_MostRecentFirst(t *testing.T) {
	fake := &fakeChain{head: 100, txsPerBlock: 2}
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	r := NewReader(testConfig(srv.URL))
	blocks, err := r.FetchLatestBlocks(context.Background(), config.ChainEthereum, 3)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, uint64(100), blocks[0].Number)
	assert.Equal(t, uint64(99), blocks[1].Number)
	assert.Equal(t, uint64(98), blocks[2].Number)
	assert.Equal(t, time.Unix(1_700_000_100, 0).UTC(), blocks[0].Timestamp)
	assert.Len(t, blocks[0].Transactions, 2)
	require.NotNil(t, blocks[0].Transactions[0].To)
	assert.Equal(t, "0xde0b6b3a7640000", blocks[0].Transactions[0].Value)
}

func TestFetchLatestBlocks_SkipsFailedBlocks(t *testing.T) {
	fake := &fakeChain{head: 100, txsPerBlock: 1, failHeights: map[uint64]bool{99: true}}
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	r := NewReader(testConfig(srv.URL))
	blocks, err := r.FetchLatestBlocks(context.Background(), config.ChainEthereum, 3)
	require.NoError(t, err)

	// Degrades to fewer blocks rather than failing the fetch.
	require.Len(t, blocks, 2)
	assert.Equal(t, uint64(100), blocks[0].Number)
	assert.Equal(t, uint64(98), blocks[1].Number)
}

func TestFetchLatestBlocks_UnknownChainIsEmpty(t *testing.T) {
	r := NewReader(testConfig("http://127.0.0.1:1"))
	blocks, err := r.FetchLatestBlocks(context.Background(), config.Chain("solana"), 3)

	assert.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestFetchLatestBlocks_HeadFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewReader(testConfig(srv.URL))
	_, err := r.FetchLatestBlocks(context.Background(), config.ChainEthereum, 3)
	assert.Error(t, err)
}
