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

// Package report assembles the tabular reconciliation view produced after
// a run: one row per match, then one row per residual unmatched trade on
// each side. Rows are plain values held in memory; persistence of the
// report is out of scope for this module.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"reconengine/match"
	"reconengine/trade"
)

// AggregationType classifies a row by how many legs each side consumed.
type AggregationType string

const (
	OneToOne   AggregationType = "ONE_TO_ONE"
	OneToMany  AggregationType = "ONE_TO_MANY"
	ManyToOne  AggregationType = "MANY_TO_ONE"
	ManyToMany AggregationType = "MANY_TO_MANY"
)

// Row statuses beyond the match statuses themselves.
const (
	StatusUnmatchedTraders  = "UNMATCHED_TRADERS"
	StatusUnmatchedExchange = "UNMATCHED_EXCH"
)

// Row is one line of the reconciliation report.
type Row struct {
	ReconID         string
	TraderIDs       []string
	ExchangeIDs     []string
	Status          string
	RunTimestamp    time.Time
	Remarks         string
	Confidence      decimal.Decimal
	Quantity        decimal.Decimal
	ContractMonth   string
	Product         string
	MatchID         string
	AggregationType AggregationType
}

// Build assembles the full report for one run: matches first, in commit
// order, then unmatched trader rows, then unmatched exchange rows, all
// stamped with the same run timestamp.
func Build(matches []match.Result, unmatchedTrader, unmatchedExchange []trade.Trade, runTimestamp time.Time) []Row {
	rows := make([]Row, 0, len(matches)+len(unmatchedTrader)+len(unmatchedExchange))

	for _, m := range matches {
		traderLegs := m.AllTraderTrades()
		exchangeLegs := m.AllExchangeTrades()

		traderIDs := make([]string, len(traderLegs))
		for i, t := range traderLegs {
			traderIDs[i] = t.ID
		}
		exchangeIDs := make([]string, len(exchangeLegs))
		for i, t := range exchangeLegs {
			exchangeIDs[i] = t.ID
		}

		rows = append(rows, Row{
			ReconID:         uuid.New().String(),
			TraderIDs:       traderIDs,
			ExchangeIDs:     exchangeIDs,
			Status:          string(m.Status),
			RunTimestamp:    runTimestamp,
			Remarks:         string(m.MatchType),
			Confidence:      m.Confidence,
			Quantity:        m.TraderPrimary.Quantity,
			ContractMonth:   m.TraderPrimary.ContractMonth,
			Product:         m.TraderPrimary.Product,
			MatchID:         m.MatchID,
			AggregationType: classify(len(traderLegs), len(exchangeLegs)),
		})
	}

	for _, t := range unmatchedTrader {
		rows = append(rows, unmatchedRow(t, StatusUnmatchedTraders, runTimestamp))
	}
	for _, t := range unmatchedExchange {
		rows = append(rows, unmatchedRow(t, StatusUnmatchedExchange, runTimestamp))
	}
	return rows
}

func unmatchedRow(t trade.Trade, status string, runTimestamp time.Time) Row {
	row := Row{
		ReconID:       uuid.New().String(),
		Status:        status,
		RunTimestamp:  runTimestamp,
		Quantity:      t.Quantity,
		ContractMonth: t.ContractMonth,
		Product:       t.Product,
	}
	if status == StatusUnmatchedTraders {
		row.TraderIDs = []string{t.ID}
	} else {
		row.ExchangeIDs = []string{t.ID}
	}
	return row
}

func classify(traderLegs, exchangeLegs int) AggregationType {
	switch {
	case traderLegs == 1 && exchangeLegs == 1:
		return OneToOne
	case traderLegs == 1:
		return OneToMany
	case exchangeLegs == 1:
		return ManyToOne
	default:
		return ManyToMany
	}
}
