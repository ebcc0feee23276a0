/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command reconcile runs one reconciliation pass: trader trades from a
// JSON fixture, exchange trades from a replayed FIX drop-copy session log,
// through the full rule cascade, with optional SQLite audit of the match
// history.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"reconengine/audit"
	"reconengine/config"
	"reconengine/engine"
	"reconengine/exchangefeed"
	"reconengine/report"
	"reconengine/trade"
)

var (
	traderPath   string
	exchangePath string
	auditDBPath  string
	tolMT        string
	tolBBL       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile trader blotter trades against the exchange trade feed",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full rule cascade over the two trade files",
		RunE:  runReconciliation,
	}
	runCmd.Flags().StringVar(&traderPath, "trader", "", "path to the trader blotter JSON fixture (required)")
	runCmd.Flags().StringVar(&exchangePath, "exchange", "", "path to the replayed FIX session log (required)")
	runCmd.Flags().StringVar(&auditDBPath, "audit-db", "", "optional path to a SQLite audit database")
	runCmd.Flags().StringVar(&tolMT, "tol-mt", "", "override the universal MT tolerance")
	runCmd.Flags().StringVar(&tolBBL, "tol-bbl", "", "override the universal BBL tolerance")
	_ = runCmd.MarkFlagRequired("trader")
	_ = runCmd.MarkFlagRequired("exchange")

	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the configured rule cascade and confidence table",
		Run:   printRules,
	}

	rootCmd.AddCommand(runCmd, rulesCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// traderRow is the JSON fixture row format for the trader blotter side.
// The ingestion layer that normalises real blotter exports into this shape
// lives outside this module.
type traderRow struct {
	ID            string `json:"id"`
	Product       string `json:"product"`
	ContractMonth string `json:"contractMonth"`
	Quantity      string `json:"quantity"`
	Unit          string `json:"unit"`
	Price         string `json:"price"`
	BuySell       string `json:"buySell"`

	BrokerGroupID      *int    `json:"brokerGroupId,omitempty"`
	ExchClearingAcctID *int    `json:"exchClearingAcctId,omitempty"`
	SpreadFlag         *string `json:"spreadFlag,omitempty"`
	Strike             *string `json:"strike,omitempty"`
	PutCall            *string `json:"putCall,omitempty"`
}

func loadTraderTrades(path string, cfg config.Config) ([]trade.Trade, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trader fixture: %v", err)
	}
	var rows []traderRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse trader fixture: %v", err)
	}

	trades := make([]trade.Trade, 0, len(rows))
	for i, row := range rows {
		id := row.ID
		if id == "" {
			id = fmt.Sprintf("trader-%d", i+1)
		}
		quantity, err := decimal.NewFromString(row.Quantity)
		if err != nil {
			return nil, fmt.Errorf("trader row %s: quantity %q: %v", id, row.Quantity, err)
		}
		price, err := decimal.NewFromString(row.Price)
		if err != nil {
			return nil, fmt.Errorf("trader row %s: price %q: %v", id, row.Price, err)
		}

		var opts []trade.Option
		if row.BrokerGroupID != nil {
			opts = append(opts, trade.WithBrokerGroupID(*row.BrokerGroupID))
		}
		if row.ExchClearingAcctID != nil {
			opts = append(opts, trade.WithExchClearingAcctID(*row.ExchClearingAcctID))
		}
		if row.SpreadFlag != nil {
			opts = append(opts, trade.WithSpreadFlag(*row.SpreadFlag))
		}
		if row.Strike != nil && row.PutCall != nil {
			strike, err := decimal.NewFromString(*row.Strike)
			if err != nil {
				return nil, fmt.Errorf("trader row %s: strike %q: %v", id, *row.Strike, err)
			}
			opts = append(opts, trade.WithOption(strike, *row.PutCall))
		}

		t, err := trade.New(id, trade.SourceTrader, row.Product, row.ContractMonth,
			quantity, trade.Unit(row.Unit), price, trade.Side(row.BuySell),
			cfg.ConversionRatio, opts...)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func loadExchangeTrades(path string, cfg config.Config) ([]trade.Trade, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange session log: %v", err)
	}
	reports := exchangefeed.ParseSessionLog(string(data), time.Now())
	return exchangefeed.ToTrades(reports, cfg.ConversionRatio), nil
}

func buildConfig() (config.Config, error) {
	var opts []config.Option
	if tolMT != "" || tolBBL != "" {
		mt := decimal.NewFromInt(145)
		bbl := decimal.NewFromInt(500)
		var err error
		if tolMT != "" {
			if mt, err = decimal.NewFromString(tolMT); err != nil {
				return config.Config{}, fmt.Errorf("invalid --tol-mt: %v", err)
			}
		}
		if tolBBL != "" {
			if bbl, err = decimal.NewFromString(tolBBL); err != nil {
				return config.Config{}, fmt.Errorf("invalid --tol-bbl: %v", err)
			}
		}
		opts = append(opts, config.WithUniversalTolerances(mt, bbl))
	}
	return config.New(opts...), nil
}

func runReconciliation(_ *cobra.Command, _ []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	traderTrades, err := loadTraderTrades(traderPath, cfg)
	if err != nil {
		return err
	}
	exchangeTrades, err := loadExchangeTrades(exchangePath, cfg)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d trader trades, %d exchange trades", len(traderTrades), len(exchangeTrades))

	started := time.Now()
	out, runErr := engine.Run(cfg, traderTrades, exchangeTrades)
	if runErr != nil {
		// Integrity failures are logged but the partial results are still
		// reported; anything else has already aborted before this point.
		log.Printf("Run finished with error: %v", runErr)
	}

	rows := report.Build(out.Matches, out.UnmatchedTrader, out.UnmatchedExchange, started)
	for _, row := range rows {
		log.Printf("recon %s status=%s rule=%s trader=%v exchange=%v agg=%s",
			row.ReconID, row.Status, row.Remarks, row.TraderIDs, row.ExchangeIDs, row.AggregationType)
	}

	stats := out.Statistics
	log.Printf("Matched %d/%d trader (%s%%), %d/%d exchange (%s%%), overall %s%%, %d matches",
		stats.MatchedTrader, stats.TotalTrader, stats.TraderRate.StringFixed(1),
		stats.MatchedExchange, stats.TotalExchange, stats.ExchangeRate.StringFixed(1),
		stats.OverallRate.StringFixed(1), stats.MatchCount)

	if auditDBPath != "" {
		store, err := audit.NewStore(auditDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		runID := uuid.New().String()
		if err := store.RecordRun(runID, started, len(traderTrades), len(exchangeTrades)); err != nil {
			return fmt.Errorf("failed to record run: %v", err)
		}
		if err := store.RecordMatches(runID, out.Matches, time.Now()); err != nil {
			return fmt.Errorf("failed to record match history: %v", err)
		}
		log.Printf("Audit history stored under run %s", runID)
	}

	return runErr
}

func printRules(_ *cobra.Command, _ []string) {
	cfg := config.New()
	for _, rule := range cfg.Order() {
		confidence, err := cfg.Confidence(rule)
		if err != nil {
			log.Printf("rule %2d %-28s (no confidence configured)", int(rule), rule)
			continue
		}
		tol, _ := cfg.ToleranceFor(rule)
		log.Printf("rule %2d %-28s confidence=%s%% tol_mt=%s tol_bbl=%s",
			int(rule), rule, confidence, tol.MT, tol.BBL)
	}
}
