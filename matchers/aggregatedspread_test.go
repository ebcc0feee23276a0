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

func spreadRatio(string) decimal.Decimal { return decimal.NewFromInt(7) }

func mustSpreadTrade(t *testing.T, id string, src trade.Source, month, qty, price string, side trade.Side) trade.Trade {
	t.Helper()
	tr, err := trade.New(id, src, "gasoil", month, decimal.RequireFromString(qty), trade.UnitMT,
		decimal.RequireFromString(price), side, spreadRatio)
	if err != nil {
		t.Fatalf("trade.New(%s): %v", id, err)
	}
	return tr
}

func TestAggregatedSpreadMatcher_AggregatesBothLegs(t *testing.T) {
	cfg := config.New()

	priced := mustSpreadTrade(t, "t-priced", trade.SourceTrader, "Jan-26", "100", "1.50", trade.Sell)
	zero := mustSpreadTrade(t, "t-zero", trade.SourceTrader, "Feb-26", "100", "0", trade.Buy)

	e1 := mustSpreadTrade(t, "e1", trade.SourceExchange, "Jan-26", "60", "50.00", trade.Sell)
	e2 := mustSpreadTrade(t, "e2", trade.SourceExchange, "Jan-26", "40", "50.00", trade.Sell)
	e3 := mustSpreadTrade(t, "e3", trade.SourceExchange, "Feb-26", "100", "48.50", trade.Buy)

	p := pool.New([]trade.Trade{priced, zero}, []trade.Trade{e1, e2, e3})
	results := AggregatedSpreadMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 aggregated spread match, got %d", len(results))
	}
	if !p.IsExchangeMatched("e1") || !p.IsExchangeMatched("e2") || !p.IsExchangeMatched("e3") {
		t.Fatalf("expected all three exchange legs consumed")
	}
}

func TestAggregatedSpreadMatcher_RejectsPriceMismatch(t *testing.T) {
	cfg := config.New()

	priced := mustSpreadTrade(t, "t-priced", trade.SourceTrader, "Jan-26", "100", "9.99", trade.Sell)
	zero := mustSpreadTrade(t, "t-zero", trade.SourceTrader, "Feb-26", "100", "0", trade.Buy)

	e1 := mustSpreadTrade(t, "e1", trade.SourceExchange, "Jan-26", "60", "50.00", trade.Sell)
	e2 := mustSpreadTrade(t, "e2", trade.SourceExchange, "Jan-26", "40", "50.00", trade.Sell)
	e3 := mustSpreadTrade(t, "e3", trade.SourceExchange, "Feb-26", "100", "48.50", trade.Buy)

	p := pool.New([]trade.Trade{priced, zero}, []trade.Trade{e1, e2, e3})
	results := AggregatedSpreadMatcher{}.FindMatches(cfg, p)

	if len(results) != 0 {
		t.Fatalf("expected no match on price differential mismatch, got %d", len(results))
	}
}
