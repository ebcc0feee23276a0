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

// Package exchangefeed collects the exchange side of a reconciliation run
// from a FIX drop-copy session: Trade Capture Reports (AE) are parsed into
// CaptureReport values, indexed by deal so multi-leg clearings stay
// grouped, and drained once into plain trade records when the session's
// batch is complete. The collector is deliberately batch-shaped — the
// engine consumes one finished slice per run, never a stream.
package exchangefeed

import (
	"sync"
	"time"
)

// CaptureReport represents a parsed Trade Capture Report (AE) or fill
// Execution Report (8) as received from the venue drop-copy session.
type CaptureReport struct {
	// Timing
	ReceivedAt   time.Time `json:"receivedAt"`
	TransactTime string    `json:"transactTime,omitempty"`
	TradeDate    string    `json:"tradeDate,omitempty"`

	// Identifiers
	TradeReportID    string `json:"tradeReportId"`
	TradeID          string `json:"tradeId,omitempty"`          // venue-native trade id
	SecondaryTradeID string `json:"secondaryTradeId,omitempty"` // clearing-side id
	TradeLinkID      string `json:"tradeLinkId,omitempty"`      // groups legs of one deal

	// Instrument
	Symbol        string `json:"symbol"`
	MaturityMonth string `json:"maturityMonth,omitempty"` // YYYYMM
	UnitOfMeasure string `json:"unitOfMeasure,omitempty"`
	StrikePrice   string `json:"strikePrice,omitempty"`
	PutOrCall     string `json:"putOrCall,omitempty"` // "0" put, "1" call

	// Economics
	Side    string `json:"side"` // "1" buy, "2" sell
	LastQty string `json:"lastQty"`
	LastPx  string `json:"lastPx"`

	// Parties
	BrokerGroupID      string `json:"brokerGroupId,omitempty"`
	ExchClearingAcctID string `json:"exchClearingAcctId,omitempty"`
	ExchangeGroupID    string `json:"exchangeGroupId,omitempty"`
}

// DealStore provides thread-safe storage for capture reports received
// during one drop-copy session, preserving arrival order and indexing by
// deal (TradeLinkID) so the legs of one clearing stay associated.
type DealStore struct {
	mu      sync.RWMutex
	order   []string                 // TradeReportID in arrival order
	reports map[string]CaptureReport // TradeReportID -> report
	byDeal  map[string][]string      // TradeLinkID -> TradeReportIDs
}

// NewDealStore creates an empty DealStore.
func NewDealStore() *DealStore {
	return &DealStore{
		reports: make(map[string]CaptureReport),
		byDeal:  make(map[string][]string),
	}
}

// Add inserts or replaces a report keyed by TradeReportID. Re-delivered
// reports (drop-copy resends) overwrite in place without disturbing the
// arrival order.
func (ds *DealStore) Add(report CaptureReport) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, exists := ds.reports[report.TradeReportID]; !exists {
		ds.order = append(ds.order, report.TradeReportID)
		if report.TradeLinkID != "" {
			ds.byDeal[report.TradeLinkID] = append(ds.byDeal[report.TradeLinkID], report.TradeReportID)
		}
	}
	ds.reports[report.TradeReportID] = report
}

// Get retrieves a report by TradeReportID.
func (ds *DealStore) Get(tradeReportID string) (CaptureReport, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	r, ok := ds.reports[tradeReportID]
	return r, ok
}

// Deal returns every report sharing a TradeLinkID, in arrival order.
func (ds *DealStore) Deal(tradeLinkID string) []CaptureReport {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	ids := ds.byDeal[tradeLinkID]
	out := make([]CaptureReport, 0, len(ids))
	for _, id := range ids {
		out = append(out, ds.reports[id])
	}
	return out
}

// Count returns the number of stored reports.
func (ds *DealStore) Count() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.order)
}

// Drain returns every stored report in arrival order and resets the store.
// Called once per session when the batch is handed to the engine.
func (ds *DealStore) Drain() []CaptureReport {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	out := make([]CaptureReport, 0, len(ds.order))
	for _, id := range ds.order {
		out = append(out, ds.reports[id])
	}
	ds.order = nil
	ds.reports = make(map[string]CaptureReport)
	ds.byDeal = make(map[string][]string)
	return out
}
