package scanner

import (
	"context"
	"math"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog/log"

	"github.com/zkwatch/pkg/chain"
	"github.com/zkwatch/pkg/classify"
	"github.com/zkwatch/pkg/config"
	"github.com/zkwatch/pkg/db"
	"github.com/zkwatch/pkg/price"
)

// Scanner walks recent blocks per chain, classifies qualifying transactions
// and persists them. Scans are stateless aside from the shared price cache;
// overlapping scans only redo work, never corrupt state, because inserts are
// idempotent on the transaction hash.
type Scanner struct {
	cfg        *config.Config
	store      *db.Store
	reader     *chain.Reader
	oracle     *price.Oracle
	classifier *classify.Classifier
}

func New(cfg *config.Config, store *db.Store, reader *chain.Reader, oracle *price.Oracle) *Scanner {
	return &Scanner{
		cfg:        cfg,
		store:      store,
		reader:     reader,
		oracle:     oracle,
		classifier: classify.New(cfg.Chains),
	}
}

// ScanChain scans the latest blocks of one chain and returns the whale
// transactions found (also persisted as a side effect). Unknown chains yield
// an empty result. One price snapshot is used for the whole scan — a known
// approximation, bounded by the oracle TTL.
func (s *Scanner) ScanChain(ctx context.Context, ch config.Chain) ([]db.WhaleTransaction, error) {
	cc, ok := s.cfg.ChainConfig(ch)
	if !ok {
		return nil, nil
	}

	nativePrice := s.oracle.GetPrice(ctx, cc.NativeSymbol)

	blocks, err := s.reader.FetchLatestBlocks(ctx, ch, s.cfg.BlocksPerScan)
	if err != nil {
		return nil, err
	}

	var found []db.WhaleTransaction
	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if tx.To == nil {
				// contract creation
				continue
			}
			native := weiToNative(tx.Value)
			valueUSD := native * nativePrice
			if valueUSD < cc.WhaleThresholdUSD {
				continue
			}

			score := s.classifier.Score(valueUSD, ch)
			record := db.WhaleTransaction{
				Hash:            tx.Hash,
				FromAddress:     tx.From,
				ToAddress:       *tx.To,
				Amount:          strconv.FormatFloat(native, 'f', -1, 64),
				ValueUSD:        int64(math.Floor(valueUSD)),
				TokenSymbol:     cc.NativeSymbol,
				Blockchain:      ch,
				BlockNumber:     block.Number,
				WhaleScore:      score,
				RiskLevel:       classify.Risk(valueUSD, score),
				PatternType:     classify.Pattern(*tx.To, valueUSD),
				TransactionType: "transfer",
				Timestamp:       block.Timestamp,
			}
			found = append(found, record)

			// Duplicate hashes from re-scans are dropped by the store;
			// any other insert failure is non-fatal for the scan.
			if err := s.store.InsertWhaleTransaction(ctx, record); err != nil {
				log.Warn().Err(err).Str("hash", tx.Hash).Msg("whale insert failed")
			}
		}
	}

	if len(found) > 0 {
		log.Info().Str("chain", string(ch)).Int("whales", len(found)).Msg("🐋 scan complete")
	}
	return found, nil
}

// ScanAll runs ScanChain for every configured chain sequentially. A failing
// chain is logged and skipped so one bad RPC never blanks the whole scan.
func (s *Scanner) ScanAll(ctx context.Context) []db.WhaleTransaction {
	var all []db.WhaleTransaction
	for _, ch := range config.AllChains() {
		if ctx.Err() != nil {
			return all
		}
		found, err := s.ScanChain(ctx, ch)
		if err != nil {
			log.Error().Err(err).Str("chain", string(ch)).Msg("chain scan failed")
			continue
		}
		all = append(all, found...)
	}
	return all
}

func weiToNative(weiHex string) float64 {
	if weiHex == "" || weiHex == "0x0" {
		return 0
	}
	wei, ok := new(big.Int).SetString(weiHex, 0)
	if !ok {
		return 0
	}
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether)).Float64()
	return out
}
