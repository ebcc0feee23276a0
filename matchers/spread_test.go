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

func mustCalTrade(t *testing.T, id string, src trade.Source, month, price string, side trade.Side, opts ...trade.Option) trade.Trade {
	t.Helper()
	tr, err := trade.New(id, src, "gasoil", month, decimal.NewFromInt(1000), trade.UnitMT,
		decimal.RequireFromString(price), side, spreadRatio, opts...)
	if err != nil {
		t.Fatalf("trade.New(%s): %v", id, err)
	}
	return tr
}

func TestSpreadMatcher_MatchesOutrightLegs(t *testing.T) {
	cfg := config.New()
	t1 := mustCalTrade(t, "t1", trade.SourceTrader, "Mar-25", "2.5", trade.Buy)
	t2 := mustCalTrade(t, "t2", trade.SourceTrader, "Apr-25", "0", trade.Sell)
	e1 := mustCalTrade(t, "e1", trade.SourceExchange, "Mar-25", "82.5", trade.Buy)
	e2 := mustCalTrade(t, "e2", trade.SourceExchange, "Apr-25", "80", trade.Sell)

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1, e2})
	results := SpreadMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 spread match, got %d", len(results))
	}
	if !p.IsExchangeMatched("e1") || !p.IsExchangeMatched("e2") {
		t.Fatalf("expected both exchange legs consumed")
	}
}

func TestSpreadMatcher_RejectsDifferentialMismatch(t *testing.T) {
	cfg := config.New()
	t1 := mustCalTrade(t, "t1", trade.SourceTrader, "Mar-25", "2.5", trade.Buy)
	t2 := mustCalTrade(t, "t2", trade.SourceTrader, "Apr-25", "0", trade.Sell)
	e1 := mustCalTrade(t, "e1", trade.SourceExchange, "Mar-25", "82.5", trade.Buy)
	e2 := mustCalTrade(t, "e2", trade.SourceExchange, "Apr-25", "81", trade.Sell)

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1, e2})
	if results := (SpreadMatcher{}).FindMatches(cfg, p); len(results) != 0 {
		t.Fatalf("expected no match when 82.5-81 != 2.5, got %d", len(results))
	}
}

// TestSpreadMatcher_NegativeSpreadPrice covers contango spreads where the
// earlier month trades below the later one.
func TestSpreadMatcher_NegativeSpreadPrice(t *testing.T) {
	cfg := config.New()
	t1 := mustCalTrade(t, "t1", trade.SourceTrader, "Mar-25", "-1.5", trade.Buy)
	t2 := mustCalTrade(t, "t2", trade.SourceTrader, "Apr-25", "0", trade.Sell)
	e1 := mustCalTrade(t, "e1", trade.SourceExchange, "Mar-25", "80", trade.Buy)
	e2 := mustCalTrade(t, "e2", trade.SourceExchange, "Apr-25", "81.5", trade.Sell)

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1, e2})
	if results := (SpreadMatcher{}).FindMatches(cfg, p); len(results) != 1 {
		t.Fatalf("expected 1 match on negative differential, got %d", len(results))
	}
}

// TestSpreadMatcher_DealIDTier pairs the two exchange legs sharing a deal
// id and leaves the single leg of the second deal unmatched.
func TestSpreadMatcher_DealIDTier(t *testing.T) {
	cfg := config.New()
	t1 := mustCalTrade(t, "t1", trade.SourceTrader, "Mar-25", "2.5", trade.Buy)
	t2 := mustCalTrade(t, "t2", trade.SourceTrader, "Apr-25", "0", trade.Sell)
	e1 := mustCalTrade(t, "e1", trade.SourceExchange, "Mar-25", "82.5", trade.Buy,
		trade.WithDealID("deal-1"), trade.WithTradeNativeID("n1"))
	e2 := mustCalTrade(t, "e2", trade.SourceExchange, "Apr-25", "80", trade.Sell,
		trade.WithDealID("deal-1"), trade.WithTradeNativeID("n2"))
	// Second distinct deal id keeps the data-quality gate open.
	e3 := mustCalTrade(t, "e3", trade.SourceExchange, "May-25", "79", trade.Buy,
		trade.WithDealID("deal-2"), trade.WithTradeNativeID("n3"))

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1, e2, e3})
	results := SpreadMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 deal-id tier match, got %d", len(results))
	}
	if !p.IsExchangeMatched("e1") || !p.IsExchangeMatched("e2") || p.IsExchangeMatched("e3") {
		t.Fatalf("wrong exchange legs consumed")
	}
}

// TestSpreadMatcher_DatetimeTier pairs exchange legs by their reported
// trade datetime when no usable deal id exists.
func TestSpreadMatcher_DatetimeTier(t *testing.T) {
	cfg := config.New()
	t1 := mustCalTrade(t, "t1", trade.SourceTrader, "Mar-25", "2.5", trade.Buy)
	t2 := mustCalTrade(t, "t2", trade.SourceTrader, "Apr-25", "0", trade.Sell)
	e1 := mustCalTrade(t, "e1", trade.SourceExchange, "Mar-25", "82.5", trade.Buy,
		trade.WithTradeDatetime("20250115-09:30:00"))
	e2 := mustCalTrade(t, "e2", trade.SourceExchange, "Apr-25", "80", trade.Sell,
		trade.WithTradeDatetime("20250115-09:30:00"))

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1, e2})
	results := SpreadMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 datetime tier match, got %d", len(results))
	}
}

func TestDealIDDataUsable(t *testing.T) {
	deal := func(id, v string) trade.Trade {
		tr := mustCalTrade(t, id, trade.SourceExchange, "Mar-25", "1", trade.Buy, trade.WithDealID(v))
		return tr
	}

	if dealIDDataUsable([]trade.Trade{deal("a", "1001"), deal("b", "1001")}) {
		t.Errorf("single distinct deal id should be unusable")
	}
	if dealIDDataUsable([]trade.Trade{deal("a", "1.2e+10"), deal("b", "1002")}) {
		t.Errorf("scientific-notation corruption should disable the tier")
	}
	if !dealIDDataUsable([]trade.Trade{deal("a", "1001"), deal("b", "1002")}) {
		t.Errorf("two distinct clean deal ids should be usable")
	}
}
