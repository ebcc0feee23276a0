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

package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"reconengine/match"
	"reconengine/trade"
)

func reportRatio(string) decimal.Decimal { return decimal.NewFromInt(7) }

func mustReportTrade(t *testing.T, id string, src trade.Source) trade.Trade {
	t.Helper()
	tr, err := trade.New(id, src, "gasoil", "Jan-26", decimal.NewFromInt(100), trade.UnitMT,
		decimal.RequireFromString("50.00"), trade.Sell, reportRatio)
	if err != nil {
		t.Fatalf("trade.New(%s): %v", id, err)
	}
	return tr
}

func TestBuild_MatchAndUnmatchedRows(t *testing.T) {
	t1 := mustReportTrade(t, "t1", trade.SourceTrader)
	t2 := mustReportTrade(t, "t2", trade.SourceTrader)
	e1 := mustReportTrade(t, "e1", trade.SourceExchange)
	residualTrader := mustReportTrade(t, "t9", trade.SourceTrader)
	residualExchange := mustReportTrade(t, "e9", trade.SourceExchange)

	m := match.New("AGGREGATION-1234", 7, match.TypeAggregation, decimal.NewFromInt(97), t1, e1,
		match.WithTraderAdditional(t2))

	now := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	rows := Build([]match.Result{m}, []trade.Trade{residualTrader}, []trade.Trade{residualExchange}, now)

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	matchRow := rows[0]
	if matchRow.Status != string(match.StatusGroupMatched) {
		t.Errorf("status: got %q, want %q", matchRow.Status, match.StatusGroupMatched)
	}
	if matchRow.AggregationType != ManyToOne {
		t.Errorf("aggregation type: got %q, want %q", matchRow.AggregationType, ManyToOne)
	}
	if len(matchRow.TraderIDs) != 2 || len(matchRow.ExchangeIDs) != 1 {
		t.Errorf("leg ids: got %d/%d, want 2/1", len(matchRow.TraderIDs), len(matchRow.ExchangeIDs))
	}
	if matchRow.Remarks != string(match.TypeAggregation) {
		t.Errorf("remarks: got %q, want %q", matchRow.Remarks, match.TypeAggregation)
	}
	if !matchRow.RunTimestamp.Equal(now) {
		t.Errorf("run timestamp: got %v, want %v", matchRow.RunTimestamp, now)
	}

	if rows[1].Status != StatusUnmatchedTraders || len(rows[1].TraderIDs) != 1 {
		t.Errorf("unmatched trader row malformed: %+v", rows[1])
	}
	if rows[2].Status != StatusUnmatchedExchange || len(rows[2].ExchangeIDs) != 1 {
		t.Errorf("unmatched exchange row malformed: %+v", rows[2])
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		trader, exchange int
		want             AggregationType
	}{
		{1, 1, OneToOne},
		{1, 3, OneToMany},
		{2, 1, ManyToOne},
		{2, 4, ManyToMany},
	}
	for _, tt := range tests {
		if got := classify(tt.trader, tt.exchange); got != tt.want {
			t.Errorf("classify(%d, %d): got %q, want %q", tt.trader, tt.exchange, got, tt.want)
		}
	}
}
