package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zkwatch/pkg/auth"
	"github.com/zkwatch/pkg/classify"
	"github.com/zkwatch/pkg/config"
	"github.com/zkwatch/pkg/db"
)

func (s *Server) whaleActions() map[string]handlerFunc {
	return map[string]handlerFunc{
		"get_transactions": s.getTransactions,
		"get_stats":        s.getStats,
		"scan_new":         s.scanNew,
		"get_prices":       s.getPrices,
	}
}

func (s *Server) getTransactions(ctx context.Context, _ *auth.User, payload json.RawMessage) (interface{}, error) {
	var req struct {
		Blockchain  string `json:"blockchain"`
		RiskLevel   string `json:"risk_level"`
		MinValueUSD int64  `json:"min_value_usd"`
		Hours       int    `json:"hours"`
		Limit       int    `json:"limit"`
		Offset      int    `json:"offset"`
	}
	json.Unmarshal(payload, &req)

	q := db.WhaleQuery{
		Blockchain:  config.Chain(req.Blockchain),
		RiskLevel:   classify.RiskLevel(req.RiskLevel),
		MinValueUSD: req.MinValueUSD,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}
	if req.Hours > 0 {
		q.Since = time.Now().UTC().Add(-time.Duration(req.Hours) * time.Hour)
	}

	txs, err := s.store.QueryWhaleTransactions(ctx, q)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []db.WhaleTransaction{}
	}
	return txs, nil
}

// whaleStats is the aggregation the dashboard overview renders. Computed
// over rows already fetched for the window, not in the store.
type whaleStats struct {
	WindowHours      int                  `json:"window_hours"`
	TransactionCount int                  `json:"transaction_count"`
	TotalVolumeUSD   int64                `json:"total_volume_usd"`
	AvgWhaleScore    float64              `json:"avg_whale_score"`
	ByChain          map[string]int       `json:"by_chain"`
	RiskDistribution map[string]int       `json:"risk_distribution"`
	LargestTx        *db.WhaleTransaction `json:"largest_tx,omitempty"`
}

func (s *Server) getStats(ctx context.Context, _ *auth.User, payload json.RawMessage) (interface{}, error) {
	var req struct {
		Hours int `json:"hours"`
	}
	json.Unmarshal(payload, &req)
	if req.Hours <= 0 {
		req.Hours = 24
	}

	txs, err := s.store.QueryWhaleTransactions(ctx, db.WhaleQuery{
		Since: time.Now().UTC().Add(-time.Duration(req.Hours) * time.Hour),
		Limit: 1000,
	})
	if err != nil {
		return nil, err
	}

	stats := whaleStats{
		WindowHours:      req.Hours,
		TransactionCount: len(txs),
		ByChain:          map[string]int{},
		RiskDistribution: map[string]int{},
	}
	var scoreSum int
	for i := range txs {
		tx := &txs[i]
		stats.TotalVolumeUSD += tx.ValueUSD
		scoreSum += tx.WhaleScore
		stats.ByChain[string(tx.Blockchain)]++
		stats.RiskDistribution[string(tx.RiskLevel)]++
		if stats.LargestTx == nil || tx.ValueUSD > stats.LargestTx.ValueUSD {
			stats.LargestTx = tx
		}
	}
	if len(txs) > 0 {
		stats.AvgWhaleScore = float64(scoreSum) / float64(len(txs))
	}
	return stats, nil
}

func (s *Server) scanNew(ctx context.Context, _ *auth.User, _ json.RawMessage) (interface{}, error) {
	found := s.scanner.ScanAll(ctx)
	if found == nil {
		found = []db.WhaleTransaction{}
	}
	return map[string]interface{}{
		"transactions": found,
		"count":        len(found),
	}, nil
}

func (s *Server) getPrices(ctx context.Context, _ *auth.User, _ json.RawMessage) (interface{}, error) {
	prices := map[string]float64{}
	for _, sym := range s.cfg.NativeSymbols() {
		prices[sym] = s.oracle.GetPrice(ctx, sym)
	}
	return prices, nil
}
