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

package matchkey

import (
	"testing"

	"github.com/shopspring/decimal"

	"reconengine/config"
	"reconengine/trade"
)

func ratio(string) decimal.Decimal { return decimal.NewFromFloat(7.0) }

func TestBuildIndex_PreservesInsertionOrderPerBucket(t *testing.T) {
	a, _ := trade.New("E1", trade.SourceExchange, "FE", "Oct-25", decimal.NewFromInt(10), trade.UnitMT, decimal.NewFromInt(50), trade.Buy, ratio)
	b, _ := trade.New("E2", trade.SourceExchange, "FE", "Oct-25", decimal.NewFromInt(10), trade.UnitMT, decimal.NewFromInt(50), trade.Buy, ratio)

	idx := BuildIndex([]trade.Trade{a, b}, func(tr trade.Trade) Key {
		return Build(tr.Product, tr.ContractMonth)
	})
	k := Build("FE", "Oct-25")
	got := idx.Candidates(k)
	if len(got) != 2 || got[0].ID != "E1" || got[1].ID != "E2" {
		t.Fatalf("Candidates = %v, want [E1 E2] in order", got)
	}
}

func TestConsume_RemovesOnlyNamedCandidate(t *testing.T) {
	a, _ := trade.New("E1", trade.SourceExchange, "FE", "Oct-25", decimal.NewFromInt(10), trade.UnitMT, decimal.NewFromInt(50), trade.Buy, ratio)
	b, _ := trade.New("E2", trade.SourceExchange, "FE", "Oct-25", decimal.NewFromInt(10), trade.UnitMT, decimal.NewFromInt(50), trade.Buy, ratio)
	idx := BuildIndex([]trade.Trade{a, b}, func(tr trade.Trade) Key { return Build(tr.Product) })
	k := Build("FE")

	if !idx.Consume(k, "E1") {
		t.Fatalf("expected Consume to find E1")
	}
	got := idx.Candidates(k)
	if len(got) != 1 || got[0].ID != "E2" {
		t.Fatalf("Candidates after consume = %v, want [E2]", got)
	}
	if idx.Consume(k, "E1") {
		t.Fatalf("expected second Consume of E1 to fail")
	}
}

func TestUniversalParts_EmbedsConfiguredFieldsInOrder(t *testing.T) {
	cfg := config.New()
	broker := 7
	acct := 3
	tr, _ := trade.New("T1", trade.SourceTrader, "FE", "Oct-25", decimal.NewFromInt(10), trade.UnitMT,
		decimal.NewFromInt(50), trade.Buy, ratio,
		trade.WithBrokerGroupID(broker), trade.WithExchClearingAcctID(acct))

	parts := UniversalParts(cfg, tr)
	if len(parts) != 2 || parts[0] != "7" || parts[1] != "3" {
		t.Fatalf("UniversalParts = %v, want [7 3]", parts)
	}
}

func TestUniversalParts_NilFieldRendersDistinctFromAnyValue(t *testing.T) {
	cfg := config.New()
	withNil, _ := trade.New("T1", trade.SourceTrader, "FE", "Oct-25", decimal.NewFromInt(10), trade.UnitMT,
		decimal.NewFromInt(50), trade.Buy, ratio)
	zero := 0
	withZero, _ := trade.New("T2", trade.SourceTrader, "FE", "Oct-25", decimal.NewFromInt(10), trade.UnitMT,
		decimal.NewFromInt(50), trade.Buy, ratio, trade.WithBrokerGroupID(zero))

	pNil := UniversalParts(cfg, withNil)
	pZero := UniversalParts(cfg, withZero)
	if pNil[0] == pZero[0] {
		t.Fatalf("expected nil broker_group_id to render distinctly from explicit 0, got %q == %q", pNil[0], pZero[0])
	}
}
