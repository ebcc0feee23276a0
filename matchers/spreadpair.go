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
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"reconengine/trade"
)

// isCalendarLegPair is the shape both sides of a calendar spread share:
// opposite B/S across two distinct contract months. Exchange legs carry
// outright prices, so no price condition applies here.
func isCalendarLegPair(a, b trade.Trade) bool {
	return a.BuySell != b.BuySell && a.ContractMonth != b.ContractMonth
}

// isSpreadPair reports whether two trader rows could form a reported
// calendar-spread pair: the calendar shape plus either an explicit spread
// flag or a zero/equal price signature (one row carries the spread
// differential, the other is priced at zero, or both repeat the same
// differential). Used by Rule 2's trader-side grouping; Rule 10 pairs its
// trader legs through findAggregatedSpreadTraderPairs instead.
func isSpreadPair(a, b trade.Trade) bool {
	if !isCalendarLegPair(a, b) {
		return false
	}
	flagged := (a.SpreadFlag != nil && *a.SpreadFlag == "S") || (b.SpreadFlag != nil && *b.SpreadFlag == "S")
	zeroOrEqual := a.Price.IsZero() || b.Price.IsZero() || a.Price.Equal(b.Price)
	return flagged || zeroOrEqual
}

var scientificNotation = regexp.MustCompile(`(?i)[0-9]e[+-]`)

// dealIDDataUsable is the data-quality gate from the Rule 2 deal-id tier:
// it prevents attempting dealid-based grouping when the upstream CSV
// parsing corrupted large deal ids into scientific notation, or when every
// trade shares one placeholder deal id. Lives here, not in package
// exchangefeed, so the gate runs over whatever Trade values arrive
// regardless of provenance.
func dealIDDataUsable(trades []trade.Trade) bool {
	seen := make(map[string]bool)
	count := 0
	for _, t := range trades {
		if t.DealID == nil {
			continue
		}
		v := strings.TrimSpace(*t.DealID)
		if v == "" || strings.EqualFold(v, "nan") {
			continue
		}
		if scientificNotation.MatchString(v) {
			return false
		}
		seen[v] = true
		count++
	}
	if count < 2 || len(seen) < 2 {
		return false
	}
	return true
}

// groupByDealID buckets trades sharing a non-degenerate deal id, keyed by
// deal id string.
func groupByDealID(trades []trade.Trade) map[string][]trade.Trade {
	groups := make(map[string][]trade.Trade)
	for _, t := range trades {
		if t.DealID == nil {
			continue
		}
		v := strings.TrimSpace(*t.DealID)
		if v == "" || strings.EqualFold(v, "nan") {
			continue
		}
		groups[v] = append(groups[v], t)
	}
	return groups
}

// spreadGroupingQuantity returns the quantity a trade should be bucketed
// on for spread-pair grouping: BBL for BBL-native products, MT otherwise.
// Exchange trades carry their native unit directly; this just reads it
// back off the already-derived fields.
func spreadGroupingQuantity(t trade.Trade) string {
	if t.Unit == trade.UnitBBL {
		return t.QuantityBBL.String()
	}
	return t.QuantityMT.String()
}

// monthOrderedPair returns a, b in chronological contract-month order.
func monthOrderedPair(a, b trade.Trade) (earlier, later trade.Trade) {
	if trade.MonthBefore(a.ContractMonth, b.ContractMonth) {
		return a, b
	}
	return b, a
}

// spreadPriceDifferential computes (earlier-month price - later-month
// price) for a pair, the convention the Rule 2/9 price checks use.
func spreadPriceDifferential(a, b trade.Trade) decimal.Decimal {
	earlier, later := monthOrderedPair(a, b)
	return earlier.Price.Sub(later.Price)
}
