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

func mustLegTrade(t *testing.T, cfg config.Config, id string, src trade.Source, product, qty string, unit trade.Unit, price string, side trade.Side) trade.Trade {
	t.Helper()
	tr, err := trade.New(id, src, product, "Mar-25", decimal.RequireFromString(qty), unit,
		decimal.RequireFromString(price), side, cfg.ConversionRatio)
	if err != nil {
		t.Fatalf("trade.New(%s): %v", id, err)
	}
	return tr
}

// TestComplexCrackMatcher_SellCrack: 444.5 / 6.35 rounds to 70.00;
// 70.00 - 65.00 equals the trader's 5.00 crack price, with sell crack
// decomposing into sell base + buy brent.
func TestComplexCrackMatcher_SellCrack(t *testing.T) {
	cfg := config.New()
	crack := mustLegTrade(t, cfg, "t1", trade.SourceTrader, "380cst crack", "1000", trade.UnitMT, "5.00", trade.Sell)
	base := mustLegTrade(t, cfg, "e1", trade.SourceExchange, "380cst", "1000", trade.UnitMT, "444.5", trade.Sell)
	brent := mustLegTrade(t, cfg, "e2", trade.SourceExchange, "brent swap", "6350", trade.UnitBBL, "65.00", trade.Buy)

	p := pool.New([]trade.Trade{crack}, []trade.Trade{base, brent})
	results := ComplexCrackMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 complex crack match, got %d", len(results))
	}
	if !p.IsExchangeMatched("e1") || !p.IsExchangeMatched("e2") {
		t.Fatalf("expected base and brent legs consumed")
	}
}

func TestComplexCrackMatcher_RejectsWrongDirection(t *testing.T) {
	cfg := config.New()
	crack := mustLegTrade(t, cfg, "t1", trade.SourceTrader, "380cst crack", "1000", trade.UnitMT, "5.00", trade.Sell)
	base := mustLegTrade(t, cfg, "e1", trade.SourceExchange, "380cst", "1000", trade.UnitMT, "444.5", trade.Sell)
	// Sell crack requires buy brent; selling it must fail.
	brent := mustLegTrade(t, cfg, "e2", trade.SourceExchange, "brent swap", "6350", trade.UnitBBL, "65.00", trade.Sell)

	p := pool.New([]trade.Trade{crack}, []trade.Trade{base, brent})
	if results := (ComplexCrackMatcher{}).FindMatches(cfg, p); len(results) != 0 {
		t.Fatalf("expected no match on wrong brent direction, got %d", len(results))
	}
}

func TestComplexCrackMatcher_RejectsPriceFormulaMismatch(t *testing.T) {
	cfg := config.New()
	crack := mustLegTrade(t, cfg, "t1", trade.SourceTrader, "380cst crack", "1000", trade.UnitMT, "5.00", trade.Sell)
	base := mustLegTrade(t, cfg, "e1", trade.SourceExchange, "380cst", "1000", trade.UnitMT, "450.00", trade.Sell)
	brent := mustLegTrade(t, cfg, "e2", trade.SourceExchange, "brent swap", "6350", trade.UnitBBL, "65.00", trade.Buy)

	p := pool.New([]trade.Trade{crack}, []trade.Trade{base, brent})
	// 450.00 / 6.35 = 70.87, 70.87 - 65.00 = 5.87 != 5.00
	if results := (ComplexCrackMatcher{}).FindMatches(cfg, p); len(results) != 0 {
		t.Fatalf("expected no match on price formula mismatch, got %d", len(results))
	}
}

func TestAggregatedComplexCrackMatcher_AggregatesBaseLeg(t *testing.T) {
	cfg := config.New()
	crack := mustLegTrade(t, cfg, "t1", trade.SourceTrader, "380cst crack", "1000", trade.UnitMT, "5.00", trade.Sell)
	base1 := mustLegTrade(t, cfg, "e1", trade.SourceExchange, "380cst", "600", trade.UnitMT, "444.5", trade.Sell)
	base2 := mustLegTrade(t, cfg, "e2", trade.SourceExchange, "380cst", "400", trade.UnitMT, "444.5", trade.Sell)
	brent := mustLegTrade(t, cfg, "e3", trade.SourceExchange, "brent swap", "6350", trade.UnitBBL, "65.00", trade.Buy)

	p := pool.New([]trade.Trade{crack}, []trade.Trade{base1, base2, brent})
	results := AggregatedComplexCrackMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 aggregated complex crack match, got %d", len(results))
	}
	if !p.IsExchangeMatched("e1") || !p.IsExchangeMatched("e2") || !p.IsExchangeMatched("e3") {
		t.Fatalf("expected both base legs and the brent leg consumed")
	}
}
