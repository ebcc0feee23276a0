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

package matchers

import (
	"testing"

	"github.com/shopspring/decimal"

	"reconengine/config"
	"reconengine/pool"
	"reconengine/trade"
)

func mustCrackTrade(t *testing.T, cfg config.Config, id string, src trade.Source, qty string, unit trade.Unit) trade.Trade {
	t.Helper()
	tr, err := trade.New(id, src, "marine 0.5% crack", "Mar-25", decimal.RequireFromString(qty), unit,
		decimal.RequireFromString("3.10"), trade.Buy, cfg.ConversionRatio)
	if err != nil {
		t.Fatalf("trade.New(%s): %v", id, err)
	}
	return tr
}

// TestCrackMatcher_WithinBBLTolerance: 2040 MT at ratio 6.35 implies 12954
// BBL; the exchange reports 13000, a difference of 46 against tol_bbl 500.
func TestCrackMatcher_WithinBBLTolerance(t *testing.T) {
	cfg := config.New()
	t1 := mustCrackTrade(t, cfg, "t1", trade.SourceTrader, "2040", trade.UnitMT)
	e1 := mustCrackTrade(t, cfg, "e1", trade.SourceExchange, "13000", trade.UnitBBL)

	p := pool.New([]trade.Trade{t1}, []trade.Trade{e1})
	results := CrackMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 crack match, got %d", len(results))
	}
}

// TestCrackMatcher_ToleranceBoundary: quantities exactly on the boundary
// match; one minimum increment past it does not.
func TestCrackMatcher_ToleranceBoundary(t *testing.T) {
	cfg := config.New()

	tests := []struct {
		name      string
		qtyBBL    string
		wantMatch bool
	}{
		{"exactly on boundary", "13454", true},   // 12954 + 500
		{"one increment past", "13454.01", false}, // 12954 + 500.01
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t1 := mustCrackTrade(t, cfg, "t1", trade.SourceTrader, "2040", trade.UnitMT)
			e1 := mustCrackTrade(t, cfg, "e1", trade.SourceExchange, tt.qtyBBL, trade.UnitBBL)

			p := pool.New([]trade.Trade{t1}, []trade.Trade{e1})
			results := CrackMatcher{}.FindMatches(cfg, p)
			if got := len(results) == 1; got != tt.wantMatch {
				t.Fatalf("match: got %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

// TestCrackMatcher_IgnoresMTExchangeRows: if both sides were MT-native,
// Rule 1 would have caught the pair; Rule 3 only fires on BBL exchange
// rows.
func TestCrackMatcher_IgnoresMTExchangeRows(t *testing.T) {
	cfg := config.New()
	t1 := mustCrackTrade(t, cfg, "t1", trade.SourceTrader, "2040", trade.UnitMT)
	e1 := mustCrackTrade(t, cfg, "e1", trade.SourceExchange, "2040", trade.UnitMT)

	p := pool.New([]trade.Trade{t1}, []trade.Trade{e1})
	if results := (CrackMatcher{}).FindMatches(cfg, p); len(results) != 0 {
		t.Fatalf("expected no rule-3 match on an MT exchange row, got %d", len(results))
	}
}

func TestAggregatedCrackMatcher_SumsBBLLegs(t *testing.T) {
	cfg := config.New()
	t1 := mustCrackTrade(t, cfg, "t1", trade.SourceTrader, "2040", trade.UnitMT)
	e1 := mustCrackTrade(t, cfg, "e1", trade.SourceExchange, "6500", trade.UnitBBL)
	e2 := mustCrackTrade(t, cfg, "e2", trade.SourceExchange, "6500", trade.UnitBBL)

	p := pool.New([]trade.Trade{t1}, []trade.Trade{e1, e2})
	results := AggregatedCrackMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 aggregated crack match, got %d", len(results))
	}
	if !p.IsExchangeMatched("e1") || !p.IsExchangeMatched("e2") {
		t.Fatalf("expected both BBL legs consumed")
	}
}
