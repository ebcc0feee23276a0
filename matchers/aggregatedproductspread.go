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

	"github.com/shopspring/decimal"

	"reconengine/config"
	"reconengine/match"
	"reconengine/pool"
	"reconengine/trade"
)

// AggregatedProductSpreadMatcher implements Rule 13, an aggregated variant
// of Rule 5 run in three directions:
//
//   - Scenario A: several exchange rows per product component aggregate to
//     a single trader spread pair.
//   - Scenario B: a hyphenated exchange spread row aggregates against
//     several trader rows per product component.
//   - Scenario C: several trader spread pairs sharing a contract month are
//     aggregated per product across pairs to match two exchange rows on
//     distinct products.
type AggregatedProductSpreadMatcher struct{}

func (AggregatedProductSpreadMatcher) Rule() config.RuleID { return config.RuleAggregatedProductSpread }

func (AggregatedProductSpreadMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	confidence, err := cfg.Confidence(config.RuleAggregatedProductSpread)
	if err != nil {
		log.Printf("matchers: rule 13 skipped, %v", err)
		return results
	}

	pairs := findTraderProductSpreadPairs(cfg, p.UnmatchedTrader())

	for _, pair := range pairs {
		priceTrade, zeroTrade := pair[0], pair[1]
		if p.IsTraderMatched(priceTrade.ID) || p.IsTraderMatched(zeroTrade.ID) {
			continue
		}
		result := findExchangeAggregationForTraderSpread(cfg, p, priceTrade, zeroTrade, confidence)
		if result == nil {
			continue
		}
		if err := p.RecordMatch(*result); err != nil {
			log.Printf("matchers: rule 13 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, *result)
	}

	if result := findCrossSpreadAggregation(cfg, p, pairs, confidence); result != nil {
		if err := p.RecordMatch(*result); err != nil {
			log.Printf("matchers: rule 13 discarded hypothesis %s: %v", result.MatchID, err)
		} else {
			results = append(results, *result)
		}
	}

	for _, exchangeSpread := range p.UnmatchedExchange() {
		if p.IsExchangeMatched(exchangeSpread.ID) {
			continue
		}
		firstProduct, secondProduct, ok := splitHyphenatedProduct(exchangeSpread.Product)
		if !ok {
			continue
		}
		result := findTraderAggregationForExchangeSpread(cfg, p, exchangeSpread, firstProduct, secondProduct, confidence)
		if result == nil {
			continue
		}
		if err := p.RecordMatch(*result); err != nil {
			log.Printf("matchers: rule 13 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, *result)
	}

	return results
}

// findTraderProductSpreadPairs groups unmatched trader trades by
// (contract_month, quantity_mt) and pairs up rows of different products
// with opposite buy/sell direction, one priced and one at zero. The
// priced leg is returned first.
func findTraderProductSpreadPairs(cfg config.Config, trades []trade.Trade) [][2]trade.Trade {
	buckets := make(map[string][]trade.Trade)
	var order []string
	for _, t := range trades {
		key := t.ContractMonth + "\x1f" + t.QuantityMT.String()
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], t)
	}

	var pairs [][2]trade.Trade
	for _, key := range order {
		group := buckets[key]
		if len(group) < 2 {
			continue
		}
		used := make(map[string]bool)
		for i := 0; i < len(group); i++ {
			if used[group[i].ID] {
				continue
			}
			for j := i + 1; j < len(group); j++ {
				if used[group[j].ID] {
					continue
				}
				a, b := group[i], group[j]
				if a.Product == b.Product || a.BuySell == b.BuySell {
					continue
				}
				if !ValidateUniversalFields(cfg, a, b) {
					continue
				}
				hasZero := a.Price.IsZero() || b.Price.IsZero()
				hasNonzero := !a.Price.IsZero() || !b.Price.IsZero()
				if !hasZero || !hasNonzero {
					continue
				}
				priced, zero := b, a
				if !a.Price.IsZero() {
					priced, zero = a, b
				}
				pairs = append(pairs, [2]trade.Trade{priced, zero})
				used[a.ID] = true
				used[b.ID] = true
				break
			}
		}
	}
	return pairs
}

// findExchangeAggregationForTraderSpread implements Scenario A: exchange
// rows matching each trader leg's product, contract month, and direction
// are grouped and summed; if each side's summed quantity equals the
// corresponding trader leg's quantity and the spread price holds across
// the aggregated groups, the two groups are committed as one match.
func findExchangeAggregationForTraderSpread(
	cfg config.Config,
	p *pool.Pool,
	priceTrade, zeroTrade trade.Trade,
	confidence decimal.Decimal,
) *match.Result {
	var firstGroup, secondGroup []trade.Trade
	for _, c := range p.UnmatchedExchange() {
		if p.IsExchangeMatched(c.ID) {
			continue
		}
		if c.ContractMonth != priceTrade.ContractMonth {
			continue
		}
		switch {
		case c.Product == priceTrade.Product && c.BuySell == priceTrade.BuySell:
			if ValidateUniversalFields(cfg, priceTrade, c) {
				firstGroup = append(firstGroup, c)
			}
		case c.Product == zeroTrade.Product && c.BuySell == zeroTrade.BuySell:
			if ValidateUniversalFields(cfg, zeroTrade, c) {
				secondGroup = append(secondGroup, c)
			}
		}
	}
	if len(firstGroup) == 0 || len(secondGroup) == 0 {
		return nil
	}

	firstTotal := decimal.Zero
	for _, c := range firstGroup {
		firstTotal = firstTotal.Add(c.QuantityMT)
	}
	secondTotal := decimal.Zero
	for _, c := range secondGroup {
		secondTotal = secondTotal.Add(c.QuantityMT)
	}
	if !firstTotal.Equal(priceTrade.QuantityMT) || !secondTotal.Equal(zeroTrade.QuantityMT) {
		return nil
	}

	for _, group := range [][]trade.Trade{firstGroup, secondGroup} {
		for _, c := range group[1:] {
			if !c.Price.Equal(group[0].Price) {
				return nil
			}
		}
	}
	traderSpreadPrice := priceTrade.Price.Sub(zeroTrade.Price)
	if !firstGroup[0].Price.Sub(secondGroup[0].Price).Equal(traderSpreadPrice) {
		return nil
	}
	allExchange := append(append([]trade.Trade{}, firstGroup...), secondGroup...)
	if !trade.OptionsCompatible(append([]trade.Trade{priceTrade, zeroTrade}, allExchange...)...) {
		return nil
	}

	result := match.New(NewMatchID(config.RuleAggregatedProductSpread), int(config.RuleAggregatedProductSpread),
		match.TypeAggregatedProductSpread, confidence, priceTrade, allExchange[0],
		match.WithTraderAdditional(zeroTrade),
		match.WithExchangeAdditional(allExchange[1:]...),
		match.WithMatchedFields("contract_month", "quantity_aggregation"),
		match.WithDifferingFields("product", "price"))
	return &result
}

// findTraderAggregationForExchangeSpread implements Scenario B: trader
// rows for each component product of a hyphenated exchange spread are
// grouped and summed; if both sides' totals equal the exchange row's
// quantity and the spread price/direction hold, the groups are committed.
func findTraderAggregationForExchangeSpread(
	cfg config.Config,
	p *pool.Pool,
	exchangeSpread trade.Trade,
	firstProduct, secondProduct string,
	confidence decimal.Decimal,
) *match.Result {
	var firstGroup, secondGroup []trade.Trade
	for _, t := range p.UnmatchedTrader() {
		if p.IsTraderMatched(t.ID) {
			continue
		}
		if t.ContractMonth != exchangeSpread.ContractMonth {
			continue
		}
		if !ValidateUniversalFields(cfg, t, exchangeSpread) {
			continue
		}
		switch t.Product {
		case firstProduct:
			firstGroup = append(firstGroup, t)
		case secondProduct:
			secondGroup = append(secondGroup, t)
		}
	}
	if len(firstGroup) == 0 || len(secondGroup) == 0 {
		return nil
	}

	firstTotal := decimal.Zero
	for _, t := range firstGroup {
		firstTotal = firstTotal.Add(t.QuantityMT)
	}
	secondTotal := decimal.Zero
	for _, t := range secondGroup {
		secondTotal = secondTotal.Add(t.QuantityMT)
	}
	if !firstTotal.Equal(exchangeSpread.QuantityMT) || !secondTotal.Equal(exchangeSpread.QuantityMT) {
		return nil
	}
	if firstGroup[0].BuySell == secondGroup[0].BuySell {
		return nil
	}
	if !validProductSpreadDirection(exchangeSpread, firstGroup[0], secondGroup[0]) {
		return nil
	}
	if !firstGroup[0].Price.Sub(secondGroup[0].Price).Equal(exchangeSpread.Price) {
		return nil
	}

	allTrader := append(append([]trade.Trade{}, firstGroup...), secondGroup...)
	if !trade.OptionsCompatible(append([]trade.Trade{exchangeSpread}, allTrader...)...) {
		return nil
	}

	result := match.New(NewMatchID(config.RuleAggregatedProductSpread), int(config.RuleAggregatedProductSpread),
		match.TypeAggregatedProductSpread, confidence, allTrader[0], exchangeSpread,
		match.WithTraderAdditional(allTrader[1:]...),
		match.WithMatchedFields("contract_month", "quantity_aggregation"),
		match.WithDifferingFields("product", "price"))
	return &result
}

// findCrossSpreadAggregation implements Scenario C: trader spread pairs
// sharing a contract month are grouped by product across pairs, and the
// aggregated per-product quantities are matched against two exchange rows
// on the two distinct products, provided both aggregated totals agree.
func findCrossSpreadAggregation(
	cfg config.Config,
	p *pool.Pool,
	pairs [][2]trade.Trade,
	confidence decimal.Decimal,
) *match.Result {
	monthGroups := make(map[string][][2]trade.Trade)
	var order []string
	for _, pair := range pairs {
		priced, zero := pair[0], pair[1]
		if priced.ContractMonth != zero.ContractMonth {
			continue
		}
		if _, ok := monthGroups[priced.ContractMonth]; !ok {
			order = append(order, priced.ContractMonth)
		}
		monthGroups[priced.ContractMonth] = append(monthGroups[priced.ContractMonth], pair)
	}

	for _, month := range order {
		group := monthGroups[month]
		if len(group) < 2 {
			continue
		}

		anyMatched := false
		productGroups := make(map[string][]trade.Trade)
		var productOrder []string
		for _, pair := range group {
			for _, t := range pair {
				if p.IsTraderMatched(t.ID) {
					anyMatched = true
				}
				if _, ok := productGroups[t.Product]; !ok {
					productOrder = append(productOrder, t.Product)
				}
				productGroups[t.Product] = append(productGroups[t.Product], t)
			}
		}
		if anyMatched || len(productOrder) != 2 {
			continue
		}

		firstTrades := productGroups[productOrder[0]]
		secondTrades := productGroups[productOrder[1]]
		firstTotal, secondTotal := decimal.Zero, decimal.Zero
		for _, t := range firstTrades {
			firstTotal = firstTotal.Add(t.QuantityMT)
		}
		for _, t := range secondTrades {
			secondTotal = secondTotal.Add(t.QuantityMT)
		}
		if !firstTotal.Equal(secondTotal) {
			continue
		}

		firstExchange := findExchangeTradeForAggregation(cfg, p, firstTrades[0], firstTotal, month)
		secondExchange := findExchangeTradeForAggregation(cfg, p, secondTrades[0], secondTotal, month)
		if firstExchange == nil || secondExchange == nil {
			continue
		}
		if firstExchange.BuySell == secondExchange.BuySell {
			continue
		}

		var allTrader []trade.Trade
		for _, pair := range group {
			allTrader = append(allTrader, pair[0], pair[1])
		}
		legs := append(append([]trade.Trade{}, allTrader...), *firstExchange, *secondExchange)
		if !ValidateUniversalFieldsAll(cfg, legs...) || !trade.OptionsCompatible(legs...) {
			continue
		}
		result := match.New(NewMatchID(config.RuleAggregatedProductSpread), int(config.RuleAggregatedProductSpread),
			match.TypeAggregatedProductSpread, confidence, allTrader[0], *firstExchange,
			match.WithTraderAdditional(allTrader[1:]...),
			match.WithExchangeAdditional(*secondExchange),
			match.WithMatchedFields("contract_month", "cross_spread_aggregation"),
			match.WithDifferingFields("product", "price"))
		return &result
	}
	return nil
}

func findExchangeTradeForAggregation(
	cfg config.Config,
	p *pool.Pool,
	reference trade.Trade,
	targetQuantity decimal.Decimal,
	month string,
) *trade.Trade {
	for _, c := range p.UnmatchedExchange() {
		if p.IsExchangeMatched(c.ID) {
			continue
		}
		if c.Product != reference.Product || c.ContractMonth != month {
			continue
		}
		if !c.QuantityMT.Equal(targetQuantity) || c.BuySell != reference.BuySell {
			continue
		}
		if !ValidateUniversalFields(cfg, reference, c) {
			continue
		}
		cc := c
		return &cc
	}
	return nil
}
