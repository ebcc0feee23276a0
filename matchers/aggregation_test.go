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

func aggRatio(string) decimal.Decimal { return decimal.NewFromInt(7) }

func mustAggTrade(t *testing.T, id string, src trade.Source, qty string) trade.Trade {
	t.Helper()
	tr, err := trade.New(id, src, "gasoil", "Jan-26", decimal.RequireFromString(qty), trade.UnitMT,
		decimal.RequireFromString("50.00"), trade.Sell, aggRatio)
	if err != nil {
		t.Fatalf("trade.New(%s): %v", id, err)
	}
	return tr
}

func TestAggregationMatcher_ManyTraderToOneExchange(t *testing.T) {
	cfg := config.New()
	t1 := mustAggTrade(t, "t1", trade.SourceTrader, "30")
	t2 := mustAggTrade(t, "t2", trade.SourceTrader, "70")
	e1 := mustAggTrade(t, "e1", trade.SourceExchange, "100")

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1})
	results := AggregationMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 aggregation match, got %d", len(results))
	}
	if !p.IsTraderMatched("t1") || !p.IsTraderMatched("t2") || !p.IsExchangeMatched("e1") {
		t.Fatalf("expected all three legs consumed")
	}
}

func TestAggregationMatcher_OneTraderToManyExchange(t *testing.T) {
	cfg := config.New()
	t1 := mustAggTrade(t, "t1", trade.SourceTrader, "100")
	e1 := mustAggTrade(t, "e1", trade.SourceExchange, "40")
	e2 := mustAggTrade(t, "e2", trade.SourceExchange, "60")

	p := pool.New([]trade.Trade{t1}, []trade.Trade{e1, e2})
	results := AggregationMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 aggregation match, got %d", len(results))
	}
	if !p.IsTraderMatched("t1") || !p.IsExchangeMatched("e1") || !p.IsExchangeMatched("e2") {
		t.Fatalf("expected all three legs consumed")
	}
}

func TestAggregationMatcher_RejectsQuantityMismatch(t *testing.T) {
	cfg := config.New()
	t1 := mustAggTrade(t, "t1", trade.SourceTrader, "30")
	t2 := mustAggTrade(t, "t2", trade.SourceTrader, "70")
	e1 := mustAggTrade(t, "e1", trade.SourceExchange, "99")

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1})
	results := AggregationMatcher{}.FindMatches(cfg, p)

	if len(results) != 0 {
		t.Fatalf("expected no match on quantity mismatch, got %d", len(results))
	}
}

func TestAggregationMatcher_RejectsSingleTradeGroup(t *testing.T) {
	cfg := config.New()
	t1 := mustAggTrade(t, "t1", trade.SourceTrader, "100")
	e1 := mustAggTrade(t, "e1", trade.SourceExchange, "100")

	p := pool.New([]trade.Trade{t1}, []trade.Trade{e1})
	results := AggregationMatcher{}.FindMatches(cfg, p)

	// Single-trade groups belong to Rule 1 (EXACT), not aggregation.
	if len(results) != 0 {
		t.Fatalf("expected aggregation to skip 1:1 pairs, got %d", len(results))
	}
}
