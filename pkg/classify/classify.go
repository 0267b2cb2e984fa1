package classify

import (
	"math"
	"strings"

	"github.com/zkwatch/pkg/config"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type PatternType string

const (
	PatternDEXInteraction PatternType = "dex_interaction"
	PatternBridgeTransfer PatternType = "bridge_transfer"
	PatternWhaleToWhale   PatternType = "whale_to_whale"
	PatternLargeTransfer  PatternType = "large_transfer"
)

// defaultThresholdUSD applies when a chain has no configured threshold.
const defaultThresholdUSD = 100000

// Classifier scores transactions against per-chain whale thresholds.
type Classifier struct {
	thresholds map[config.Chain]float64
}

func New(chains map[config.Chain]config.ChainConfig) *Classifier {
	t := make(map[config.Chain]float64, len(chains))
	for name, cc := range chains {
		t[name] = cc.WhaleThresholdUSD
	}
	return &Classifier{thresholds: t}
}

func (c *Classifier) Threshold(chain config.Chain) float64 {
	if t, ok := c.thresholds[chain]; ok && t > 0 {
		return t
	}
	return defaultThresholdUSD
}

// Score maps a USD value to a 0-100 whale score. Piecewise-linear in
// value/threshold: it climbs quickly just above the threshold and flattens
// toward 100 so a single extreme outlier cannot dominate the feed.
func (c *Classifier) Score(valueUSD float64, chain config.Chain) int {
	ratio := valueUSD / c.Threshold(chain)

	var score float64
	switch {
	case ratio < 1:
		return 0
	case ratio < 2:
		score = 30 + math.Floor(ratio*10)
	case ratio < 5:
		score = 50 + math.Floor((ratio-2)*5)
	case ratio < 10:
		score = 65 + math.Floor((ratio-5)*3)
	case ratio < 50:
		score = 80 + math.Floor((ratio-10)*0.3)
	default:
		score = 92 + math.Floor((ratio-50)*0.05)
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

// Risk buckets a transaction into a coarse tier. Evaluated as an ordered
// cascade: the first matching tier wins.
func Risk(valueUSD float64, score int) RiskLevel {
	switch {
	case score >= 90 || valueUSD >= 10_000_000:
		return RiskCritical
	case score >= 70 || valueUSD >= 1_000_000:
		return RiskHigh
	case score >= 50 || valueUSD >= 500_000:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Pattern classifies transaction intent from the destination address and USD
// value. Address-based matches take priority over the whale-to-whale value
// fallback.
func Pattern(toAddress string, valueUSD float64) PatternType {
	if matchesAny(toAddress, config.KnownDEXRouters) {
		return PatternDEXInteraction
	}
	if matchesAny(toAddress, config.KnownBridgeContracts) {
		return PatternBridgeTransfer
	}
	if valueUSD >= 5_000_000 {
		return PatternWhaleToWhale
	}
	return PatternLargeTransfer
}

// matchesAny does a case-insensitive substring match of each known address
// tail (the hex body, without the 0x prefix) against the destination.
func matchesAny(addr string, known []string) bool {
	lower := strings.ToLower(addr)
	for _, k := range known {
		tail := strings.ToLower(strings.TrimPrefix(k, "0x"))
		if tail != "" && strings.Contains(lower, tail) {
			return true
		}
	}
	return false
}
