package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainPolygon  Chain = "polygon"
	ChainArbitrum Chain = "arbitrum"
	ChainOptimism Chain = "optimism"
	ChainBSC      Chain = "bsc"
)

func AllChains() []Chain {
	return []Chain{ChainEthereum, ChainPolygon, ChainArbitrum, ChainOptimism, ChainBSC}
}

// ChainConfig describes one monitored chain. The set is fixed at startup;
// endpoints and thresholds are overridable via env.
type ChainConfig struct {
	Name              Chain
	RPCURL            string
	ExplorerAPI       string
	NativeSymbol      string
	WhaleThresholdUSD float64
}

type Config struct {
	// Hosted row store (PostgREST-style REST interface)
	StoreURL    string
	StoreAPIKey string

	// Hosted auth service
	AuthURL string

	// Price aggregator
	PriceAPIURL string
	PriceTTL    time.Duration

	// Scanning
	ChainScanInterval time.Duration
	BlocksPerScan     int

	// API server
	Port int

	Chains map[Chain]ChainConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StoreURL:    os.Getenv("STORE_URL"),
		StoreAPIKey: os.Getenv("STORE_API_KEY"),
		AuthURL:     os.Getenv("AUTH_URL"),
		PriceAPIURL: envOr("PRICE_API_URL", "https://coins.llama.fi"),
		PriceTTL:    time.Duration(envInt("PRICE_TTL_SECONDS", 60)) * time.Second,

		ChainScanInterval: time.Duration(envInt("CHAIN_SCAN_INTERVAL", 120)) * time.Second,
		BlocksPerScan:     envInt("BLOCKS_PER_SCAN", 3),
		Port:              envInt("PORT", 8080),
	}

	cfg.Chains = map[Chain]ChainConfig{
		ChainEthereum: {
			Name:              ChainEthereum,
			RPCURL:            envOr("ETH_RPC_URL", "https://eth.llamarpc.com"),
			ExplorerAPI:       "https://api.etherscan.io/api",
			NativeSymbol:      "ETH",
			WhaleThresholdUSD: envFloat("ETH_WHALE_THRESHOLD", 100000),
		},
		ChainPolygon: {
			Name:              ChainPolygon,
			RPCURL:            envOr("POLYGON_RPC_URL", "https://polygon-rpc.com"),
			ExplorerAPI:       "https://api.polygonscan.com/api",
			NativeSymbol:      "MATIC",
			WhaleThresholdUSD: envFloat("POLYGON_WHALE_THRESHOLD", 50000),
		},
		ChainArbitrum: {
			Name:              ChainArbitrum,
			RPCURL:            envOr("ARBITRUM_RPC_URL", "https://arb1.arbitrum.io/rpc"),
			ExplorerAPI:       "https://api.arbiscan.io/api",
			NativeSymbol:      "ETH",
			WhaleThresholdUSD: envFloat("ARBITRUM_WHALE_THRESHOLD", 75000),
		},
		ChainOptimism: {
			Name:              ChainOptimism,
			RPCURL:            envOr("OPTIMISM_RPC_URL", "https://mainnet.optimism.io"),
			ExplorerAPI:       "https://api-optimistic.etherscan.io/api",
			NativeSymbol:      "ETH",
			WhaleThresholdUSD: envFloat("OPTIMISM_WHALE_THRESHOLD", 75000),
		},
		ChainBSC: {
			Name:              ChainBSC,
			RPCURL:            envOr("BSC_RPC_URL", "https://bsc-dataseed.binance.org"),
			ExplorerAPI:       "https://api.bscscan.com/api",
			NativeSymbol:      "BNB",
			WhaleThresholdUSD: envFloat("BSC_WHALE_THRESHOLD", 50000),
		},
	}

	return cfg, nil
}

// ChainConfig resolves a chain descriptor; ok is false for unknown chains.
func (c *Config) ChainConfig(chain Chain) (ChainConfig, bool) {
	cc, ok := c.Chains[chain]
	return cc, ok
}

// NativeSymbols returns the deduplicated native currency symbols across all
// configured chains, in chain order.
func (c *Config) NativeSymbols() []string {
	seen := map[string]bool{}
	var out []string
	for _, chain := range AllChains() {
		sym := c.Chains[chain].NativeSymbol
		if sym != "" && !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.StoreURL == "" {
		return fmt.Errorf("STORE_URL is required")
	}
	if c.AuthURL == "" {
		return fmt.Errorf("AUTH_URL is required")
	}
	return nil
}

// --- Known contract addresses for pattern classification ---
// Matched case-insensitively against the tail of the destination address,
// so both plain and checksummed forms hit.

var KnownDEXRouters = []string{
	"0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", // Uniswap V2 router
	"0xE592427A0AEce92De3Edee1F18E0157C05861564", // Uniswap V3 router
	"0x3fC91A3afd70395Cd496C647d5a6CC9D4B2b7FAD", // Uniswap universal router
	"0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F", // SushiSwap router
	"0x10ED43C718714eb63d5aA57B78B54704E256024E", // PancakeSwap V2 router
	"0x1111111254EEB25477B68fb85Ed929f73A960582", // 1inch v5 aggregation router
}

var KnownBridgeContracts = []string{
	"0x3ee18B2214AFF97000D974cf647E7C347E8fa585", // Wormhole token bridge
	"0xA0c68C638235ee32657e8f720a23ceC1bFc77C77", // Polygon PoS bridge
	"0x72Ce9c846789fdB6fC1f34aC4AD25Dd9ef7031ef", // Arbitrum gateway router
	"0x99C9fc46f92E8a1c0deC1b1747d010903E884bE1", // Optimism gateway
	"0x8731d54E9D02c286767d56ac03e8037C07e01e98", // Stargate router
	"0x2796317b0fF8538F253012862c06787Adfb8cEb6", // Synapse bridge
}

// helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
