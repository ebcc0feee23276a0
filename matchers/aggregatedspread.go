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

// AggregatedSpreadMatcher implements Rule 9: a trader spread pair (one leg
// priced, one at zero, opposite B/S, different months) matched against
// exchange trades aggregated per contract month — the exchange may report
// several rows on one or both legs where the trader reports one.
type AggregatedSpreadMatcher struct{}

func (AggregatedSpreadMatcher) Rule() config.RuleID { return config.RuleAggregatedSpread }

type exchangeAggregation struct {
	trades   []trade.Trade
	quantity decimal.Decimal
	price    decimal.Decimal
}

func (AggregatedSpreadMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	confidence, err := cfg.Confidence(config.RuleAggregatedSpread)
	if err != nil {
		log.Printf("matchers: rule 9 skipped, %v", err)
		return results
	}

	traderPairs := findAggregatedSpreadTraderPairs(cfg, p.UnmatchedTrader())

	for _, pair := range traderPairs {
		priceTrade, zeroTrade := pair[0], pair[1]
		if p.IsTraderMatched(priceTrade.ID) || p.IsTraderMatched(zeroTrade.ID) {
			continue
		}

		byContract := aggregateExchangeByContract(cfg, p.UnmatchedExchange(), priceTrade.Product, priceTrade, p)
		priceAggs := byContract[priceTrade.ContractMonth]
		zeroAggs := byContract[zeroTrade.ContractMonth]

		var chosenResult *match.Result
		for _, priceAgg := range priceAggs {
			for _, zeroAgg := range zeroAggs {
				if anyAggregationMatched(p, priceAgg) || anyAggregationMatched(p, zeroAgg) {
					continue
				}
				if !validateAggregatedSpreadMatch(cfg, priceTrade, zeroTrade, priceAgg, zeroAgg) {
					continue
				}
				allExchange := append(append([]trade.Trade{}, priceAgg.trades...), zeroAgg.trades...)
				result := match.New(NewMatchID(config.RuleAggregatedSpread), int(config.RuleAggregatedSpread),
					match.TypeAggregatedSpread, confidence, priceTrade, allExchange[0],
					match.WithTraderAdditional(zeroTrade),
					match.WithExchangeAdditional(allExchange[1:]...),
					match.WithMatchedFields("product", "contract_month_spread", "quantity", "buy_sell_spread", "price_differential"))
				chosenResult = &result
				break
			}
			if chosenResult != nil {
				break
			}
		}
		if chosenResult == nil {
			continue
		}
		if err := p.RecordMatch(*chosenResult); err != nil {
			log.Printf("matchers: rule 9 discarded hypothesis %s: %v", chosenResult.MatchID, err)
			continue
		}
		results = append(results, *chosenResult)
	}
	return results
}

func anyAggregationMatched(p *pool.Pool, agg exchangeAggregation) bool {
	for _, t := range agg.trades {
		if p.IsExchangeMatched(t.ID) {
			return true
		}
	}
	return false
}

// findAggregatedSpreadTraderPairs groups trader trades by (product,
// grouping quantity, universal fields) and returns pairs with exactly one
// zero-priced leg, opposite B/S, and different months, ordered
// (priced, zero).
func findAggregatedSpreadTraderPairs(cfg config.Config, trades []trade.Trade) [][2]trade.Trade {
	buckets := make(map[string][]trade.Trade)
	for _, t := range trades {
		key := spreadGroupKey(cfg, t)
		buckets[key] = append(buckets[key], t)
	}
	var pairs [][2]trade.Trade
	for _, bucket := range buckets {
		used := make(map[string]bool)
		for i := 0; i < len(bucket); i++ {
			if used[bucket[i].ID] {
				continue
			}
			for j := i + 1; j < len(bucket); j++ {
				if used[bucket[j].ID] {
					continue
				}
				a, b := bucket[i], bucket[j]
				if a.BuySell == b.BuySell || a.ContractMonth == b.ContractMonth {
					continue
				}
				zeroCount := 0
				if a.Price.IsZero() {
					zeroCount++
				}
				if b.Price.IsZero() {
					zeroCount++
				}
				if zeroCount != 1 {
					continue
				}
				if a.Price.IsZero() {
					pairs = append(pairs, [2]trade.Trade{b, a})
				} else {
					pairs = append(pairs, [2]trade.Trade{a, b})
				}
				used[a.ID] = true
				used[b.ID] = true
				break
			}
		}
	}
	return pairs
}

// aggregateExchangeByContract buckets exchange rows matching the target
// product and the reference trade's universal fields by (contract_month,
// price, buy_sell), returning each bucket's trades, summed MT quantity,
// and shared price, keyed by contract month.
func aggregateExchangeByContract(
	cfg config.Config,
	trades []trade.Trade,
	targetProduct string,
	reference trade.Trade,
	p *pool.Pool,
) map[string][]exchangeAggregation {
	type groupKey struct {
		month   string
		price   string
		buySell trade.Side
	}
	groups := make(map[groupKey][]trade.Trade)
	var order []groupKey
	for _, t := range trades {
		if p.IsExchangeMatched(t.ID) {
			continue
		}
		if t.Product != targetProduct || !ValidateUniversalFields(cfg, reference, t) {
			continue
		}
		k := groupKey{t.ContractMonth, t.Price.String(), t.BuySell}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], t)
	}

	byContract := make(map[string][]exchangeAggregation)
	for _, k := range order {
		group := groups[k]
		total := decimal.Zero
		for _, t := range group {
			total = total.Add(t.QuantityMT)
		}
		byContract[k.month] = append(byContract[k.month], exchangeAggregation{
			trades: group, quantity: total, price: group[0].Price,
		})
	}
	return byContract
}

func validateAggregatedSpreadMatch(cfg config.Config, priceTrade, zeroTrade trade.Trade, priceAgg, zeroAgg exchangeAggregation) bool {
	if !priceAgg.quantity.Equal(priceTrade.QuantityMT) || !zeroAgg.quantity.Equal(zeroTrade.QuantityMT) {
		return false
	}
	if priceAgg.trades[0].BuySell != priceTrade.BuySell || zeroAgg.trades[0].BuySell != zeroTrade.BuySell {
		return false
	}
	if !ValidateUniversalFields(cfg, priceTrade, priceAgg.trades[0]) || !ValidateUniversalFields(cfg, zeroTrade, zeroAgg.trades[0]) {
		return false
	}
	legs := append(append([]trade.Trade{priceTrade, zeroTrade}, priceAgg.trades...), zeroAgg.trades...)
	if !trade.OptionsCompatible(legs...) {
		return false
	}
	expectedSpreadPrice := priceAgg.price.Sub(zeroAgg.price)
	if trade.MonthBefore(zeroTrade.ContractMonth, priceTrade.ContractMonth) {
		expectedSpreadPrice = zeroAgg.price.Sub(priceAgg.price)
	}
	return priceTrade.Price.Equal(expectedSpreadPrice)
}
