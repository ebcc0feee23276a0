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
	"log"
	"strings"

	"reconengine/config"
	"reconengine/match"
	"reconengine/matchkey"
	"reconengine/pool"
	"reconengine/trade"
)

// SpreadMatcher implements Rule 2: a trader calendar-spread pair (two rows
// carrying the spread differential) against two exchange rows reporting
// the constituent legs separately.
type SpreadMatcher struct{}

func (SpreadMatcher) Rule() config.RuleID { return config.RuleSpread }

func (SpreadMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	traderPairs := groupTraderSpreadPairs(cfg, p.UnmatchedTrader())
	exchangePairs := exchangeSpreadCandidates(cfg, p.UnmatchedExchange(), traderPairs)

	confidence, err := cfg.Confidence(config.RuleSpread)
	if err != nil {
		log.Printf("matchers: rule 2 skipped, %v", err)
		return results
	}

	for _, tp := range traderPairs {
		if p.IsTraderMatched(tp[0].ID) || p.IsTraderMatched(tp[1].ID) {
			continue
		}
		for _, ep := range exchangePairs {
			if p.IsExchangeMatched(ep[0].ID) || p.IsExchangeMatched(ep[1].ID) {
				continue
			}
			if !validateSpreadMatch(cfg, tp, ep) {
				continue
			}
			result := match.New(NewMatchID(config.RuleSpread), int(config.RuleSpread), match.TypeSpread,
				confidence, tp[0], ep[0],
				match.WithTraderAdditional(tp[1]),
				match.WithExchangeAdditional(ep[1]),
				match.WithMatchedFields("product", "quantity", "contract_months", "spread_price"))
			if err := p.RecordMatch(result); err != nil {
				log.Printf("matchers: rule 2 discarded hypothesis %s: %v", result.MatchID, err)
				continue
			}
			results = append(results, result)
			break
		}
	}
	return results
}

// groupTraderSpreadPairs buckets trader rows by (product, grouping
// quantity, universal fields) and enumerates pairs within each bucket
// satisfying isSpreadPair.
func groupTraderSpreadPairs(cfg config.Config, trades []trade.Trade) [][2]trade.Trade {
	buckets := make(map[string][]trade.Trade)
	for _, t := range trades {
		key := spreadGroupKey(cfg, t)
		buckets[key] = append(buckets[key], t)
	}
	var pairs [][2]trade.Trade
	for _, bucket := range buckets {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				if isSpreadPair(bucket[i], bucket[j]) && trade.OptionsCompatible(bucket[i], bucket[j]) {
					pairs = append(pairs, [2]trade.Trade{bucket[i], bucket[j]})
				}
			}
		}
	}
	return pairs
}

// exchangeSpreadCandidates runs Rule 2's three-tier candidate
// generation: a deal-id tier when the deal-id data is
// trustworthy, an exact-datetime tier over the remainder, then a
// product/quantity tier over everything still unclaimed.
func exchangeSpreadCandidates(cfg config.Config, trades []trade.Trade, traderPairs [][2]trade.Trade) [][2]trade.Trade {
	var pairs [][2]trade.Trade
	used := make(map[string]bool)

	if dealIDDataUsable(trades) {
		for _, group := range groupByDealID(trades) {
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					a, b := group[i], group[j]
					if a.TradeNativeID != nil && b.TradeNativeID != nil && *a.TradeNativeID == *b.TradeNativeID {
						continue
					}
					if isExchangeSpreadLegPair(cfg, a, b) {
						pairs = append(pairs, [2]trade.Trade{a, b})
						used[a.ID] = true
						used[b.ID] = true
					}
				}
			}
		}
	}

	byDatetime := make(map[string][]trade.Trade)
	var datetimeOrder []string
	for _, t := range trades {
		if used[t.ID] || t.TradeDatetime == nil || *t.TradeDatetime == "" {
			continue
		}
		if _, ok := byDatetime[*t.TradeDatetime]; !ok {
			datetimeOrder = append(datetimeOrder, *t.TradeDatetime)
		}
		byDatetime[*t.TradeDatetime] = append(byDatetime[*t.TradeDatetime], t)
	}
	for _, dt := range datetimeOrder {
		bucket := byDatetime[dt]
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				a, b := bucket[i], bucket[j]
				if !isExchangeSpreadLegPair(cfg, a, b) {
					continue
				}
				if !traderPairExistsForDifferential(traderPairs, a, b) {
					continue
				}
				pairs = append(pairs, [2]trade.Trade{a, b})
				used[a.ID] = true
				used[b.ID] = true
			}
		}
	}

	buckets := make(map[string][]trade.Trade)
	for _, t := range trades {
		if used[t.ID] {
			continue
		}
		key := spreadGroupKey(cfg, t)
		buckets[key] = append(buckets[key], t)
	}
	for _, bucket := range buckets {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				if isCalendarLegPair(bucket[i], bucket[j]) && trade.OptionsCompatible(bucket[i], bucket[j]) {
					pairs = append(pairs, [2]trade.Trade{bucket[i], bucket[j]})
				}
			}
		}
	}
	return pairs
}

// isExchangeSpreadLegPair is the full spread-pair predicate the deal-id and
// datetime tiers apply directly, without the help of a bucketing key: same
// product, same grouping quantity, universal-field agreement, plus the
// generic isSpreadPair shape.
func isExchangeSpreadLegPair(cfg config.Config, a, b trade.Trade) bool {
	if a.Product != b.Product || spreadGroupingQuantity(a) != spreadGroupingQuantity(b) {
		return false
	}
	if !ValidateUniversalFields(cfg, a, b) {
		return false
	}
	return isCalendarLegPair(a, b) && trade.OptionsCompatible(a, b)
}

// traderPairExistsForDifferential gates the datetime tier: an exchange pair
// only becomes a candidate if some trader spread pair covers the same two
// months and carries the pair's price differential as its non-zero leg
// price.
func traderPairExistsForDifferential(traderPairs [][2]trade.Trade, a, b trade.Trade) bool {
	diff := spreadPriceDifferential(a, b)
	for _, tp := range traderPairs {
		if tp[0].ContractMonth != a.ContractMonth && tp[0].ContractMonth != b.ContractMonth {
			continue
		}
		if tp[1].ContractMonth != a.ContractMonth && tp[1].ContractMonth != b.ContractMonth {
			continue
		}
		price := tp[0].Price
		if price.IsZero() {
			price = tp[1].Price
		}
		if price.Equal(diff) {
			return true
		}
	}
	return false
}

// validateSpreadMatch checks that a trader pair and an exchange pair
// describe the same spread: matching contract months, matching
// per-month B/S direction, matching universal fields, and an equal price
// differential.
func validateSpreadMatch(cfg config.Config, trader, exchange [2]trade.Trade) bool {
	if !ValidateUniversalFieldsAll(cfg, trader[0], trader[1], exchange[0], exchange[1]) {
		return false
	}
	if !trade.OptionsCompatible(trader[0], trader[1], exchange[0], exchange[1]) {
		return false
	}
	traderMonths := map[string]trade.Side{trader[0].ContractMonth: trader[0].BuySell, trader[1].ContractMonth: trader[1].BuySell}
	exchangeMonths := map[string]trade.Side{exchange[0].ContractMonth: exchange[0].BuySell, exchange[1].ContractMonth: exchange[1].BuySell}
	if len(traderMonths) != 2 || len(exchangeMonths) != 2 {
		return false
	}
	for month, side := range traderMonths {
		exSide, ok := exchangeMonths[month]
		if !ok || exSide != side {
			return false
		}
	}

	traderSpreadPrice := trader[0].Price
	if traderSpreadPrice.IsZero() {
		traderSpreadPrice = trader[1].Price
	}
	return traderSpreadPrice.Equal(spreadPriceDifferential(exchange[0], exchange[1]))
}

// spreadGroupKey is the grouping key shared by both Rule 2 candidate
// generation phases: product, grouping quantity, and the configured
// universal fields, joined with a separator that can't appear in any part.
func spreadGroupKey(cfg config.Config, t trade.Trade) string {
	parts := append([]string{t.Product, spreadGroupingQuantity(t)}, matchkey.UniversalParts(cfg, t)...)
	return strings.Join(parts, "\x1f")
}
