package db

import (
	"time"

	"github.com/zkwatch/pkg/classify"
	"github.com/zkwatch/pkg/config"
)

// ---- Core Models ----

// WhaleTransaction is the persisted record for a qualifying transaction.
// Hash is the natural key; inserts are idempotent (duplicates ignored) and
// rows are never updated by the scanner.
type WhaleTransaction struct {
	Hash            string               `json:"hash"`
	FromAddress     string               `json:"from_address"`
	ToAddress       string               `json:"to_address"`
	Amount          string               `json:"amount"`    // native units, decimal string
	ValueUSD        int64                `json:"value_usd"` // floored
	TokenSymbol     string               `json:"token_symbol"`
	Blockchain      config.Chain         `json:"blockchain"`
	BlockNumber     uint64               `json:"block_number"`
	WhaleScore      int                  `json:"whale_score"`
	RiskLevel       classify.RiskLevel   `json:"risk_level"`
	PatternType     classify.PatternType `json:"pattern_type"`
	TransactionType string               `json:"transaction_type"`
	Timestamp       time.Time            `json:"timestamp"`
}

// Agent is a dashboard monitoring agent. The row schema is owned by the
// hosted store; only the fields the handlers touch are typed here.
type Agent struct {
	ID        int64     `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	AgentType string    `json:"agent_type"`
	Status    string    `json:"status"`
	Config    string    `json:"config,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Alert struct {
	ID        int64     `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	AlertType string    `json:"alert_type"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// WhaleQuery narrows a whale_transactions read. Zero values mean "no filter".
type WhaleQuery struct {
	Blockchain  config.Chain
	RiskLevel   classify.RiskLevel
	MinValueUSD int64
	Since       time.Time
	Limit       int
	Offset      int
}
