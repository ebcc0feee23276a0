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

func mustProductTrade(t *testing.T, id string, src trade.Source, product, price string, side trade.Side) trade.Trade {
	t.Helper()
	tr, err := trade.New(id, src, product, "Apr-25", decimal.NewFromInt(1000), trade.UnitMT,
		decimal.RequireFromString(price), side, spreadRatio)
	if err != nil {
		t.Fatalf("trade.New(%s): %v", id, err)
	}
	return tr
}

func TestProductSpreadMatcher_HyphenatedPath(t *testing.T) {
	cfg := config.New()
	t1 := mustProductTrade(t, "t1", trade.SourceTrader, "marine 0.5%", "1.2", trade.Sell)
	t2 := mustProductTrade(t, "t2", trade.SourceTrader, "380cst", "0", trade.Buy)
	e1 := mustProductTrade(t, "e1", trade.SourceExchange, "marine 0.5%-380cst", "1.2", trade.Sell)

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1})
	results := ProductSpreadMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 hyphenated product spread match, got %d", len(results))
	}
	if !results[0].Confidence.Equal(cfg.ProductSpreadTierConfidence[0]) {
		t.Errorf("confidence: got %s, want tier 0 (%s)", results[0].Confidence, cfg.ProductSpreadTierConfidence[0])
	}
}

func TestProductSpreadMatcher_HyphenatedRejectsWrongDirection(t *testing.T) {
	cfg := config.New()
	// Sell spread requires sell first leg + buy second leg.
	t1 := mustProductTrade(t, "t1", trade.SourceTrader, "marine 0.5%", "1.2", trade.Buy)
	t2 := mustProductTrade(t, "t2", trade.SourceTrader, "380cst", "0", trade.Sell)
	e1 := mustProductTrade(t, "e1", trade.SourceExchange, "marine 0.5%-380cst", "1.2", trade.Sell)

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1})
	if results := (ProductSpreadMatcher{}).FindMatches(cfg, p); len(results) != 0 {
		t.Fatalf("expected no match on inverted directions, got %d", len(results))
	}
}

func TestProductSpreadMatcher_TwoLegPath(t *testing.T) {
	cfg := config.New()
	t1 := mustProductTrade(t, "t1", trade.SourceTrader, "marine 0.5%", "1.2", trade.Sell)
	t2 := mustProductTrade(t, "t2", trade.SourceTrader, "380cst", "0", trade.Buy)
	e1 := mustProductTrade(t, "e1", trade.SourceExchange, "marine 0.5%", "445.7", trade.Sell)
	e2 := mustProductTrade(t, "e2", trade.SourceExchange, "380cst", "444.5", trade.Buy)

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1, e2})
	results := ProductSpreadMatcher{}.FindMatches(cfg, p)

	if len(results) != 1 {
		t.Fatalf("expected 1 two-leg product spread match, got %d", len(results))
	}
	if !results[0].Confidence.Equal(cfg.ProductSpreadTierConfidence[1]) {
		t.Errorf("confidence: got %s, want tier 1 (%s)", results[0].Confidence, cfg.ProductSpreadTierConfidence[1])
	}
	if !p.IsExchangeMatched("e1") || !p.IsExchangeMatched("e2") {
		t.Fatalf("expected both exchange legs consumed")
	}
}

// TestProductSpreadMatcher_TwoLegDeclinesAggregatedQuantities: quantities
// that only align after aggregation belong to Rule 13, not Rule 5.
func TestProductSpreadMatcher_TwoLegDeclinesAggregatedQuantities(t *testing.T) {
	cfg := config.New()
	t1 := mustProductTrade(t, "t1", trade.SourceTrader, "marine 0.5%", "1.2", trade.Sell)
	t2 := mustProductTrade(t, "t2", trade.SourceTrader, "380cst", "0", trade.Buy)

	e1, err := trade.New("e1", trade.SourceExchange, "marine 0.5%", "Apr-25", decimal.NewFromInt(600),
		trade.UnitMT, decimal.RequireFromString("445.7"), trade.Sell, spreadRatio)
	if err != nil {
		t.Fatalf("trade.New(e1): %v", err)
	}
	e2, err := trade.New("e2", trade.SourceExchange, "marine 0.5%", "Apr-25", decimal.NewFromInt(400),
		trade.UnitMT, decimal.RequireFromString("445.7"), trade.Sell, spreadRatio)
	if err != nil {
		t.Fatalf("trade.New(e2): %v", err)
	}

	p := pool.New([]trade.Trade{t1, t2}, []trade.Trade{e1, e2})
	if results := (ProductSpreadMatcher{}).FindMatches(cfg, p); len(results) != 0 {
		t.Fatalf("expected rule 5 to decline aggregated quantities, got %d", len(results))
	}
}

func TestSplitHyphenatedProduct(t *testing.T) {
	tests := []struct {
		product    string
		wantFirst  string
		wantSecond string
		wantOk     bool
	}{
		{"marine 0.5%-380cst", "marine 0.5%", "380cst", true},
		{"gasoil", "", "", false},
		{"-380cst", "", "", false},
		{"marine 0.5%-", "", "", false},
	}
	for _, tt := range tests {
		first, second, ok := splitHyphenatedProduct(tt.product)
		if first != tt.wantFirst || second != tt.wantSecond || ok != tt.wantOk {
			t.Errorf("splitHyphenatedProduct(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.product, first, second, ok, tt.wantFirst, tt.wantSecond, tt.wantOk)
		}
	}
}
