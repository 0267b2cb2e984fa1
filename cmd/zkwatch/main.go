package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zkwatch/pkg/api"
	"github.com/zkwatch/pkg/auth"
	"github.com/zkwatch/pkg/chain"
	"github.com/zkwatch/pkg/config"
	"github.com/zkwatch/pkg/db"
	"github.com/zkwatch/pkg/price"
	"github.com/zkwatch/pkg/scanner"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	log.Info().Msg("🐋 ZKWatch monitoring service starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config invalid")
	}

	store := db.NewStore(cfg.StoreURL, cfg.StoreAPIKey)
	authClient := auth.NewClient(cfg.AuthURL)
	reader := chain.NewReader(cfg)
	oracle := price.NewLiveOracle(cfg.PriceAPIURL, cfg.PriceTTL)
	sc := scanner.New(cfg, store, reader, oracle)
	srv := api.New(cfg, store, authClient, sc, oracle)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Background scans on a fixed cadence; scan_new requests may overlap
	// these — idempotent inserts make that harmless.
	schedule := cron.New()
	schedule.Schedule(cron.Every(cfg.ChainScanInterval), cron.FuncJob(func() {
		sc.ScanAll(ctx)
	}))
	schedule.Start()
	defer schedule.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error {
		sc.ScanAll(ctx) // initial scan before the first cron tick
		return nil
	})

	printSummary(cfg)

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("service error")
	}
	log.Info().Msg("goodbye 👋")
}

func printSummary(cfg *config.Config) {
	header := color.New(color.FgCyan, color.Bold)
	header.Println("\n  🐋 ZKWATCH MONITORING SERVICE - RUNNING")
	fmt.Printf("  Chains:        ")
	for i, ch := range config.AllChains() {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Print(string(ch))
	}
	fmt.Println()
	fmt.Printf("  Scan interval: %s (%d blocks per chain)\n", cfg.ChainScanInterval, cfg.BlocksPerScan)
	fmt.Printf("  API:           http://localhost:%d\n", cfg.Port)
	for _, ch := range config.AllChains() {
		cc := cfg.Chains[ch]
		fmt.Printf("    %-10s %s threshold $%.0f\n", ch, cc.NativeSymbol, cc.WhaleThresholdUSD)
	}
	fmt.Println()
}
