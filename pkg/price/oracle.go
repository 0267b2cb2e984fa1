package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// FetchFunc resolves a coin id to its current USD price. Injected so tests
// can count calls and force failures.
type FetchFunc func(ctx context.Context, coinID string) (float64, error)

type cacheEntry struct {
	price     float64
	fetchedAt time.Time
}

// Oracle is a read-through USD price cache for native chain currencies.
// Entries live for the configured TTL and are overwritten wholesale on
// refresh; a failed refresh falls back to a static price and leaves the
// cache untouched. Callers always get a usable number.
type Oracle struct {
	mu    sync.Mutex
	cache map[string]cacheEntry

	ttl   time.Duration
	fetch FetchFunc
	now   func() time.Time
}

func NewOracle(ttl time.Duration, fetch FetchFunc) *Oracle {
	return &Oracle{
		cache: make(map[string]cacheEntry),
		ttl:   ttl,
		fetch: fetch,
		now:   time.Now,
	}
}

// NewLiveOracle wires the oracle to a hosted price aggregator exposing
// GET {base}/prices/current/{coinID} -> {"coins":{id:{"price":n}}}.
func NewLiveOracle(baseURL string, ttl time.Duration) *Oracle {
	client := &http.Client{Timeout: 10 * time.Second}
	return NewOracle(ttl, func(ctx context.Context, coinID string) (float64, error) {
		url := fmt.Sprintf("%s/prices/current/%s", strings.TrimRight(baseURL, "/"), coinID)
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return 0, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return 0, fmt.Errorf("price api status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return 0, err
		}
		var parsed struct {
			Coins map[string]struct {
				Price float64 `json:"price"`
			} `json:"coins"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return 0, err
		}
		coin, ok := parsed.Coins[coinID]
		if !ok || coin.Price <= 0 {
			return 0, fmt.Errorf("no price for %s", coinID)
		}
		return coin.Price, nil
	})
}

// SetClock replaces the time source. Test hook.
func (o *Oracle) SetClock(now func() time.Time) {
	o.now = now
}

// GetPrice returns the USD price for a native currency symbol. A fresh cache
// entry short-circuits the fetch; a failed fetch yields the static fallback.
func (o *Oracle) GetPrice(ctx context.Context, symbol string) float64 {
	symbol = strings.ToUpper(symbol)

	o.mu.Lock()
	entry, ok := o.cache[symbol]
	now := o.now()
	o.mu.Unlock()
	if ok && now.Sub(entry.fetchedAt) < o.ttl {
		return entry.price
	}

	p, err := o.fetch(ctx, coinID(symbol))
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("price fetch failed, using fallback")
		return fallbackPrice(symbol)
	}

	o.mu.Lock()
	o.cache[symbol] = cacheEntry{price: p, fetchedAt: o.now()}
	o.mu.Unlock()
	return p
}

// coinIDs maps native symbols to aggregator coin ids. Unknown symbols derive
// a default id from the lowercased symbol.
var coinIDs = map[string]string{
	"ETH":   "coingecko:ethereum",
	"MATIC": "coingecko:matic-network",
	"BNB":   "coingecko:binancecoin",
}

func coinID(symbol string) string {
	if id, ok := coinIDs[symbol]; ok {
		return id
	}
	return "coingecko:" + strings.ToLower(symbol)
}

var fallbackPrices = map[string]float64{
	"ETH":   3500,
	"MATIC": 0.5,
	"BNB":   600,
}

func fallbackPrice(symbol string) float64 {
	if p, ok := fallbackPrices[symbol]; ok {
		return p
	}
	return 1
}
