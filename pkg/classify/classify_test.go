package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zkwatch/pkg/config"
)

func testClassifier() *Classifier {
	return New(map[config.Chain]config.ChainConfig{
		config.ChainEthereum: {Name: config.ChainEthereum, WhaleThresholdUSD: 100000},
		config.ChainBSC:      {Name: config.ChainBSC, WhaleThresholdUSD: 50000},
	})
}

func TestScore_BelowThresholdIsZero(t *testing.T) {
	c := testClassifier()

	assert.Equal(t, 0, c.Score(0, config.ChainEthereum))
	assert.Equal(t, 0, c.Score(99999, config.ChainEthereum))
	assert.Equal(t, 0, c.Score(49999, config.ChainBSC))
}

func TestScore_PiecewiseBands(t *testing.T) {
	c := testClassifier()

	tests := []struct {
		name     string
		valueUSD float64
		want     int
	}{
		{"at threshold", 100000, 40},           // ratio 1 -> 30 + 10
		{"ratio 1.9", 190000, 49},              // 30 + 19
		{"ratio 2", 200000, 50},                // 50 + 0
		{"ratio 2.5", 250000, 52},              // 50 + floor(0.5*5)
		{"ratio 5", 500000, 65},                // 65 + 0
		{"ratio 10", 1000000, 80},              // 80 + 0
		{"ratio 50", 5000000, 92},              // 92 + 0
		{"extreme outlier", 100000000000, 100}, // clamped
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Score(tt.valueUSD, config.ChainEthereum))
		})
	}
}

func TestScore_MonotonicAndBounded(t *testing.T) {
	c := testClassifier()

	prev := 0
	for usd := float64(0); usd <= 20_000_000; usd += 25000 {
		score := c.Score(usd, config.ChainEthereum)
		assert.GreaterOrEqual(t, score, prev, "score decreased at valueUSD=%f", usd)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
		prev = score
	}
}

func TestScore_UnknownChainUsesDefaultThreshold(t *testing.T) {
	c := testClassifier()

	// Default threshold is 100000, so ratio 2.5 lands at 52 like ethereum.
	assert.Equal(t, 52, c.Score(250000, config.Chain("devnet")))
	assert.Equal(t, 0, c.Score(99999, config.Chain("devnet")))
}

func TestRisk_OrderedCascade(t *testing.T) {
	tests := []struct {
		name     string
		valueUSD float64
		score    int
		want     RiskLevel
	}{
		{"low", 150000, 40, RiskLow},
		{"medium by score", 250000, 52, RiskMedium},
		{"medium by value", 600000, 40, RiskMedium},
		{"high by score", 300000, 70, RiskHigh},
		{"high by value", 2000000, 60, RiskHigh},
		{"critical by score", 300000, 90, RiskCritical},
		{"critical by value regardless of score", 10000000, 0, RiskCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Risk(tt.valueUSD, tt.score))
		})
	}
}

func TestPattern_AddressBeatsValue(t *testing.T) {
	router := "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D" // Uniswap V2
	bridge := "0x3ee18B2214AFF97000D974cf647E7C347E8fa585" // Wormhole

	// A $10M transfer to a DEX router is a DEX interaction, not whale-to-whale.
	assert.Equal(t, PatternDEXInteraction, Pattern(router, 10_000_000))
	assert.Equal(t, PatternBridgeTransfer, Pattern(bridge, 10_000_000))
}

func TestPattern_CaseInsensitive(t *testing.T) {
	lower := "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"
	upper := "0x7A250D5630B4CF539739DF2C5DACB4C659F2488D"

	assert.Equal(t, PatternDEXInteraction, Pattern(lower, 1000))
	assert.Equal(t, PatternDEXInteraction, Pattern(upper, 1000))
}

func TestPattern_ValueFallbacks(t *testing.T) {
	plain := "0x1234567890abcdef1234567890abcdef12345678"

	assert.Equal(t, PatternWhaleToWhale, Pattern(plain, 5_000_000))
	assert.Equal(t, PatternLargeTransfer, Pattern(plain, 250000))
}

func TestScenario_Ratio25(t *testing.T) {
	// threshold 100000, value 250000: score 52, medium risk, plain transfer.
	c := testClassifier()

	score := c.Score(250000, config.ChainEthereum)
	assert.Equal(t, 52, score)
	assert.Equal(t, RiskMedium, Risk(250000, score))
	assert.Equal(t, PatternLargeTransfer, Pattern("0x9999999999999999999999999999999999999999", 250000))
}
